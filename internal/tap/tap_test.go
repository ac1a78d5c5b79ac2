package tap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

type call struct {
	dir  string
	name string
	args []string
}

func (c call) String() string {
	return c.name + " " + strings.Join(c.args, " ")
}

type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	output map[string]string
	fail   map[string]error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := call{dir: dir, name: name, args: append([]string(nil), args...)}
	f.calls = append(f.calls, c)
	key := name + " " + firstArg(args)
	if err, ok := f.fail[key]; ok {
		return "", err
	}
	return f.output[key], nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.String())
	}
	return out
}

func TestPublishSequence(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := New(Options{Owner: "Justintime50", Tap: "homebrew-formulas", Token: "ghp_secret", Runner: runner})
	work := t.TempDir()
	ctx := context.Background()

	dir, err := p.Clone(ctx, work)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(work, "homebrew-formulas"), dir)

	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, p.Configure(ctx, "homebrew-releaser", "homebrew-releaser@example.com"))

	rel, err := p.WriteFormula("Formula", "tool.rb", "class Tool < Formula\nend\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Formula", "tool.rb"), rel)

	require.NoError(t, p.Add(ctx, rel))
	require.NoError(t, p.Commit(ctx, "tool", "v1.0.0"))
	require.NoError(t, p.Push(ctx))

	remote := "https://ghp_secret@github.com/Justintime50/homebrew-formulas.git"
	assert.Equal(t, []string{
		"git clone --depth=1 " + remote + " " + dir,
		"git config user.name homebrew-releaser",
		"git config user.email homebrew-releaser@example.com",
		"git add " + rel,
		"git commit -m Brew formula update for tool version v1.0.0",
		"git push " + remote + " HEAD",
	}, runner.commands())

	content, exists, err := p.ReadFormula("Formula", "tool.rb")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "class Tool < Formula\nend\n", content)

	_, exists, err = p.ReadFormula("Formula", "other.rb")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestErrorsAreRedacted(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fail: map[string]error{
		"git push": errors.New("git push https://ghp_secret@github.com/o/t.git HEAD: exit status 128: denied"),
	}}
	p := New(Options{Owner: "o", Tap: "t", Token: "ghp_secret", Runner: runner})
	p.Open(t.TempDir())

	err := p.Push(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "ghp_secret")
	assert.Contains(t, err.Error(), "https://***@github.com")
	assert.Equal(t, terrors.KindIO, terrors.KindOf(err))
}

func TestStaged(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: map[string]string{"git diff": "Formula/tool.rb\n"}}
	p := New(Options{Owner: "o", Tap: "t", Runner: runner})
	p.Open(t.TempDir())

	staged, err := p.Staged(context.Background())
	require.NoError(t, err)
	assert.True(t, staged)

	runner.output["git diff"] = "\n"
	staged, err = p.Staged(context.Background())
	require.NoError(t, err)
	assert.False(t, staged)
}

func TestBrewSteps(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := New(Options{Owner: "acme", Tap: "homebrew-tools", Runner: runner})
	dir := t.TempDir()
	p.Open(dir)

	require.NoError(t, p.Tap(context.Background()))
	require.NoError(t, p.UpdatePythonResources(context.Background(), "Formula", "tool.rb"))

	assert.Equal(t, []string{
		"brew tap acme/tools",
		"brew update-python-resources tool.rb",
	}, runner.commands())
	assert.Equal(t, filepath.Join(dir, "Formula"), runner.calls[1].dir)
}

func TestRemoteOverrideAndBase(t *testing.T) {
	t.Parallel()

	p := New(Options{Owner: "o", Tap: "t", WebBase: "https://ghe.example.com/"})
	remote, err := p.remote()
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com/o/t.git", remote)

	p = New(Options{Owner: "o", Tap: "t", Token: "x", Remote: "/srv/git/t.git"})
	remote, err = p.remote()
	require.NoError(t, err)
	assert.Equal(t, "/srv/git/t.git", remote)
}

func TestCommitMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Brew formula update for homebrew-releaser version v0.1.0", CommitMessage("homebrew-releaser", "v0.1.0"))
}

func TestTrimCommandOutput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "command failed", trimCommandOutput("  \n"))
	long := strings.Repeat("x", maxCommandOutput+10)
	assert.Equal(t, maxCommandOutput+3, len(trimCommandOutput(long)))
}
