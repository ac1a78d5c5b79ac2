// Package tap publishes rendered formulas into a Homebrew tap repository.
package tap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

const (
	DefaultWebBase = "https://github.com"
	DefaultDepth   = 1
	redacted       = "***"
)

type Options struct {
	Owner   string
	Tap     string
	Token   string
	WebBase string
	// Remote overrides the URL built from WebBase, Owner and Tap.
	Remote string
	Depth  int
	Runner Runner
	Logger hclog.Logger
}

// Publisher wraps one working copy of the tap.
type Publisher struct {
	opts   Options
	runner Runner
	log    hclog.Logger
	dir    string
}

func New(opts Options) *Publisher {
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}
	return &Publisher{opts: opts, runner: runner, log: log.Named("tap")}
}

// Dir is the working copy, set by Clone or Open.
func (p *Publisher) Dir() string { return p.dir }

// Open uses an existing working copy at dir instead of cloning.
func (p *Publisher) Open(dir string) { p.dir = dir }

// Clone clones the tap into parent/<tap>, replacing a previous checkout.
func (p *Publisher) Clone(ctx context.Context, parent string) (string, error) {
	remote, err := p.remote()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(parent, p.opts.Tap)
	if err := os.RemoveAll(dir); err != nil {
		return "", terrors.IO("clean tap checkout", err)
	}
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return "", terrors.IO("create work dir", err)
	}

	p.log.Debug("cloning tap", "owner", p.opts.Owner, "tap", p.opts.Tap, "dir", dir)
	if err := p.git(ctx, parent, "clone", fmt.Sprintf("--depth=%d", p.opts.Depth), remote, dir); err != nil {
		return "", err
	}
	p.dir = dir
	return dir, nil
}

func (p *Publisher) Configure(ctx context.Context, user, email string) error {
	if err := p.git(ctx, p.dir, "config", "user.name", user); err != nil {
		return err
	}
	return p.git(ctx, p.dir, "config", "user.email", email)
}

// FormulaPath is the absolute path of file inside folder of the working copy.
func (p *Publisher) FormulaPath(folder, file string) string {
	return filepath.Join(p.dir, folder, file)
}

// ReadFormula returns the current tap copy. exists is false when there is none.
func (p *Publisher) ReadFormula(folder, file string) (content string, exists bool, err error) {
	// #nosec G304 -- path inside the tap working copy
	data, err := os.ReadFile(p.FormulaPath(folder, file))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, terrors.IO("read tap formula", err)
	}
	return string(data), true, nil
}

// WriteFormula writes content into the tap and returns its path relative to the working copy.
func (p *Publisher) WriteFormula(folder, file, content string) (string, error) {
	path := p.FormulaPath(folder, file)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", terrors.IO("create formula folder", err)
	}
	// #nosec G306 -- formulas are public repository content
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", terrors.IO("write tap formula", err)
	}
	return filepath.Join(folder, file), nil
}

func (p *Publisher) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return p.git(ctx, p.dir, append([]string{"add"}, paths...)...)
}

// CommitMessage is the message used for formula updates.
func CommitMessage(repo, version string) string {
	return fmt.Sprintf("Brew formula update for %s version %s", repo, version)
}

func (p *Publisher) Commit(ctx context.Context, repo, version string) error {
	return p.git(ctx, p.dir, "commit", "-m", CommitMessage(repo, version))
}

// Staged reports whether the index differs from HEAD.
func (p *Publisher) Staged(ctx context.Context) (bool, error) {
	out, err := p.runner.Run(ctx, p.dir, "git", "diff", "--cached", "--name-only")
	if err != nil {
		return false, terrors.IO("git diff", p.redactErr(err))
	}
	return strings.TrimSpace(out) != "", nil
}

func (p *Publisher) Push(ctx context.Context) error {
	remote, err := p.remote()
	if err != nil {
		return err
	}
	p.log.Debug("pushing tap", "owner", p.opts.Owner, "tap", p.opts.Tap)
	return p.git(ctx, p.dir, "push", remote, "HEAD")
}

// Tap adds the tap to the local brew installation so brew can resolve it.
func (p *Publisher) Tap(ctx context.Context) error {
	name := fmt.Sprintf("%s/%s", p.opts.Owner, strings.TrimPrefix(p.opts.Tap, "homebrew-"))
	if _, err := p.runner.Run(ctx, p.dir, "brew", "tap", name); err != nil {
		return terrors.IO("brew tap", p.redactErr(err))
	}
	return nil
}

// UpdatePythonResources runs brew update-python-resources against the formula.
func (p *Publisher) UpdatePythonResources(ctx context.Context, folder, file string) error {
	dir := filepath.Join(p.dir, folder)
	p.log.Debug("updating python resources", "formula", file)
	if _, err := p.runner.Run(ctx, dir, "brew", "update-python-resources", file); err != nil {
		return terrors.IO("brew update-python-resources", p.redactErr(err))
	}
	return nil
}

func (p *Publisher) git(ctx context.Context, dir string, args ...string) error {
	if _, err := p.runner.Run(ctx, dir, "git", args...); err != nil {
		op := "git"
		if len(args) > 0 {
			op = "git " + args[0]
		}
		return terrors.IO(op, p.redactErr(err))
	}
	return nil
}

func (p *Publisher) remote() (string, error) {
	if p.opts.Remote != "" {
		return p.opts.Remote, nil
	}
	base := strings.TrimRight(p.opts.WebBase, "/")
	if base == "" {
		base = DefaultWebBase
	}
	u, err := url.Parse(fmt.Sprintf("%s/%s/%s.git", base, p.opts.Owner, p.opts.Tap))
	if err != nil {
		return "", terrors.Config("tap remote", err)
	}
	if p.opts.Token != "" {
		u.User = url.User(p.opts.Token)
	}
	return u.String(), nil
}

// Redact removes the token from text surfaced to the operator.
func (p *Publisher) Redact(text string) string {
	if p.opts.Token == "" {
		return text
	}
	return strings.ReplaceAll(text, p.opts.Token, redacted)
}

func (p *Publisher) redactErr(err error) error {
	if err == nil || p.opts.Token == "" {
		return err
	}
	return errors.New(p.Redact(err.Error()))
}
