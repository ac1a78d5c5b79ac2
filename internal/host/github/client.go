// Package github talks to the GitHub REST API: repository and release
// metadata, archive downloads and release asset uploads.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	gh "github.com/google/go-github/v52/github"

	terrors "github.com/3leaps/taprelease/internal/errors"
	"github.com/3leaps/taprelease/internal/model"
)

const (
	DefaultAPIBase    = "https://api.github.com/"
	DefaultUploadBase = "https://uploads.github.com/"
	DefaultTimeout    = 5 * time.Minute

	acceptJSON   = "application/vnd.github.v3+json"
	acceptStream = "application/octet-stream"
)

func UserAgent(version string) string {
	return fmt.Sprintf("taprelease/%s", version)
}

// Options configures a Client. Zero values select the public GitHub
// endpoints and DefaultTimeout.
type Options struct {
	Token      string
	UserAgent  string
	APIBase    string
	UploadBase string
	Timeout    time.Duration
}

// Client is the release metadata provider and ledger uploader.
type Client struct {
	api *gh.Client
}

func NewClient(opts Options) (*Client, error) {
	api := gh.NewClient(newHTTPClient(opts))

	base, err := baseURL(opts.APIBase, DefaultAPIBase)
	if err != nil {
		return nil, terrors.Config("api base", err)
	}
	upload, err := baseURL(opts.UploadBase, DefaultUploadBase)
	if err != nil {
		return nil, terrors.Config("upload base", err)
	}
	api.BaseURL = base
	api.UploadURL = upload
	if opts.UserAgent != "" {
		api.UserAgent = opts.UserAgent
	}
	return &Client{api: api}, nil
}

func newHTTPClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &bearerTransport{token: opts.Token, userAgent: opts.UserAgent},
	}
}

// baseURL parses raw, falling back to def; go-github requires a trailing slash.
func baseURL(raw, def string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = def
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse %q: absolute URL required", raw)
	}
	return u, nil
}

// Repository fetches repository metadata. A missing license is returned as "".
func (c *Client) Repository(ctx context.Context, owner, repo string) (model.Repository, error) {
	r, _, err := c.api.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return model.Repository{}, networkError("get repository", err)
	}
	return model.Repository{
		Owner:       owner,
		Name:        repo,
		Description: r.GetDescription(),
		License:     r.GetLicense().GetSPDXID(),
		Private:     r.GetPrivate(),
	}, nil
}

// Release fetches the release for tag, or the latest release when tag is empty.
func (c *Client) Release(ctx context.Context, owner, repo, tag string) (model.Release, error) {
	var (
		rel *gh.RepositoryRelease
		err error
	)
	if strings.TrimSpace(tag) == "" {
		rel, _, err = c.api.Repositories.GetLatestRelease(ctx, owner, repo)
	} else {
		rel, _, err = c.api.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	}
	if err != nil {
		return model.Release{}, networkError("get release", err)
	}

	out := model.Release{ID: rel.GetID(), TagName: rel.GetTagName()}
	for _, a := range rel.Assets {
		out.Assets = append(out.Assets, model.Asset{
			ID:                 a.GetID(),
			Name:               a.GetName(),
			URL:                a.GetURL(),
			BrowserDownloadURL: a.GetBrowserDownloadURL(),
			Size:               int64(a.GetSize()),
		})
	}
	return out, nil
}

// UploadAsset attaches the file at path to the release, replacing any asset
// that already has the same name.
func (c *Client) UploadAsset(ctx context.Context, owner, repo string, release model.Release, path string) error {
	name := filepath.Base(path)
	for _, a := range release.Assets {
		if a.Name != name || a.ID == 0 {
			continue
		}
		if _, err := c.api.Repositories.DeleteReleaseAsset(ctx, owner, repo, a.ID); err != nil {
			return networkError("replace release asset", err)
		}
	}

	// #nosec G304 -- path is the ledger written in the work dir
	f, err := os.Open(path)
	if err != nil {
		return terrors.IO("open release asset", err)
	}
	defer f.Close()

	opts := &gh.UploadOptions{Name: name, MediaType: "text/plain"}
	if _, _, err := c.api.Repositories.UploadReleaseAsset(ctx, owner, repo, release.ID, opts, f); err != nil {
		return networkError("upload release asset", err)
	}
	return nil
}

func networkError(op string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return terrors.Network(op, fmt.Errorf("%w: %v", terrors.ErrUnexpectedStatus, err))
	}
	return terrors.Network(op, err)
}
