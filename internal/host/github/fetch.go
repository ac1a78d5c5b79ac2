package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

// Request describes one artifact download.
type Request struct {
	URL string
	// Stream asks for the raw bytes of a release asset.
	Stream bool
	// Auth sends the token. Public archive downloads do not need it.
	Auth bool
}

// Fetcher downloads release artifacts to disk.
type Fetcher struct {
	authed *http.Client
	anon   *http.Client
}

func NewFetcher(opts Options) *Fetcher {
	anonOpts := opts
	anonOpts.Token = ""
	return &Fetcher{
		authed: newHTTPClient(opts),
		anon:   newHTTPClient(anonOpts),
	}
}

// Download writes the body at req.URL to path. A failed download leaves no file behind.
func (f *Fetcher) Download(ctx context.Context, req Request, path string) (err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return terrors.Network("download", err)
	}
	if req.Stream {
		httpReq.Header.Set("Accept", acceptStream)
	}

	client := f.anon
	if req.Auth {
		client = f.authed
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return terrors.Network("download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return terrors.Network("download", fmt.Errorf("%w: GET %s: %s", terrors.ErrUnexpectedStatus, req.URL, resp.Status))
	}

	// #nosec G304 -- path is inside the work dir
	out, err := os.Create(path)
	if err != nil {
		return terrors.IO("create artifact", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = terrors.IO("close artifact", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return terrors.Network("download", fmt.Errorf("read %s: %w", req.URL, err))
	}
	return nil
}
