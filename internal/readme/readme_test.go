package readme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

const mockTable = "<!-- project_table_start -->\n" +
	"| Project                                                      | Description      | Installation                |\n" +
	"| ------------------------------------------------------------ | ---------------- | --------------------------- |\n" +
	"| [mock-formula](https://github.com/justintime50/mock-formula) | mock description | `brew install mock-formula` |\n" +
	"<!-- project_table_end -->\n"

const sampleFormula = `# typed: true
# frozen_string_literal: true

class TestGenerateFormula < Formula
  desc "Tool to release scripts, binaries, and executables to github"
  homepage "https://github.com/Justintime50/test-generate-formula"
  url "https://github.com/Justintime50/test-generate-formula/archive/refs/tags/v0.1.0.tar.gz"
  sha256 "0000000000000000000000000000000000000000000000000000000000000000"

  def install
    bin.install "x"
  end
end
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestTable(t *testing.T) {
	t.Parallel()

	got := Table([]Project{{
		Name:     "mock-formula",
		Homepage: "https://github.com/justintime50/mock-formula",
		Desc:     "mock description",
	}})
	assert.Equal(t, mockTable, got)
}

func TestTablePlaceholders(t *testing.T) {
	t.Parallel()

	got := Table([]Project{{Name: "bare"}})
	assert.Contains(t, got, "| bare    | NA          | `brew install bare` |\n")
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	got := Table(nil)
	assert.Equal(t, StartTag+"\n| Project | Description | Installation |\n| ------- | ----------- | ------------ |\n"+EndTag+"\n", got)
}

func TestProjects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "test-generate-formula.rb"), sampleFormula)
	writeFile(t, filepath.Join(dir, "a-first.rb"), "class AFirst < Formula\n  desc \"First\"\nend\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	projects, err := Projects(dir)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, Project{Name: "a-first", Desc: "First"}, projects[0])
	assert.Equal(t, Project{
		Name:     "test-generate-formula",
		Desc:     "Tool to release scripts, binaries, and executables to github",
		Homepage: "https://github.com/Justintime50/test-generate-formula",
	}, projects[1])
}

func TestProjectsNoRubyFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "hi")

	_, err := Projects(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, terrors.ErrNoFormulaFiles)
	assert.Equal(t, terrors.KindData, terrors.KindOf(err))
}

func TestReplace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "filled", content: "# Tap\n\n" + StartTag + "\nhere is some mock data...\n" + EndTag + "\n\nfooter\n"},
		{name: "empty", content: "# Tap\n\n" + StartTag + "\n" + EndTag + "\n\nfooter\n"},
		{name: "blank line", content: "# Tap\n\n" + StartTag + "\n\n" + EndTag + "\n\nfooter\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Replace(tc.content, mockTable)
			require.NoError(t, err)
			assert.Equal(t, "# Tap\n\n"+mockTable+"\nfooter\n", got)
		})
	}

	_, err := Replace("no tags here", mockTable)
	assert.ErrorIs(t, err, ErrTagsMissing)

	_, err = Replace(StartTag+"\nunterminated", mockTable)
	assert.ErrorIs(t, err, ErrTagsMissing)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	tap := t.TempDir()
	writeFile(t, filepath.Join(tap, "Formula", "test-generate-formula.rb"), sampleFormula)
	writeFile(t, filepath.Join(tap, "README.md"), "# Tap\n\n"+StartTag+"\nold\n"+EndTag+"\n")

	path, err := Update(tap, "Formula", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tap, "README.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "`brew install test-generate-formula`")
	assert.NotContains(t, string(data), "\nold\n")

	path, err = Update(tap, "Formula", nil)
	require.NoError(t, err)
	assert.Empty(t, path, "second run changes nothing")
}

func TestUpdateSkips(t *testing.T) {
	t.Parallel()

	noReadme := t.TempDir()
	path, err := Update(noReadme, "Formula", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	noTags := t.TempDir()
	writeFile(t, filepath.Join(noTags, "README.md"), "# Tap\n")
	path, err = Update(noTags, "Formula", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}
