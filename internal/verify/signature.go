package verify

import (
	"fmt"

	"github.com/jedisct1/go-minisign"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

// SignatureSuffix is appended to an artifact name to find its detached signature.
const SignatureSuffix = ".minisig"

// VerifyMinisign checks content against the minisign signature at sigPath
// using the public key file at pubKeyPath.
func VerifyMinisign(content []byte, sigPath, pubKeyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return terrors.Config("read minisign pubkey", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return terrors.Data("read minisign signature", err)
	}

	valid, err := pubKey.Verify(content, sig)
	if err != nil {
		return terrors.Data("minisign", fmt.Errorf("verification error: %w", err))
	}
	if !valid {
		return terrors.Data("minisign", fmt.Errorf("signature verification failed"))
	}
	return nil
}
