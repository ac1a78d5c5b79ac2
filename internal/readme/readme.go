// Package readme keeps the project table in a tap README in sync with the
// formulas in the tap.
package readme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-runewidth"

	terrors "github.com/3leaps/taprelease/internal/errors"
	"github.com/3leaps/taprelease/internal/formula"
)

const (
	StartTag    = "<!-- project_table_start -->"
	EndTag      = "<!-- project_table_end -->"
	placeholder = "NA"
)

var (
	ErrNoReadme    = errors.New("no README found")
	ErrTagsMissing = errors.New("project table start/end tags not found")

	readmeNames = []string{"README.md", "readme.md", "Readme.md", "README.markdown", "README"}
	headers     = []string{"Project", "Description", "Installation"}
)

// Project is one table row.
type Project struct {
	Name     string `json:"name" yaml:"name"`
	Desc     string `json:"desc" yaml:"desc"`
	Homepage string `json:"homepage" yaml:"homepage"`
}

// Projects reads every .rb formula in dir, sorted by file name.
func Projects(dir string) ([]Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, terrors.IO("read formula folder", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".rb") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, terrors.Data("read formula folder", fmt.Errorf("%w %q", terrors.ErrNoFormulaFiles, dir))
	}
	sort.Strings(files)

	projects := make([]Project, 0, len(files))
	for _, name := range files {
		// #nosec G304 -- formula files inside the tap working copy
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, terrors.IO("read formula", err)
		}
		s := formula.Parse(string(data))
		projects = append(projects, Project{Name: s.Name, Desc: s.Desc, Homepage: s.Homepage})
	}
	return projects, nil
}

// Table renders projects as a padded markdown table wrapped in the tags.
func Table(projects []Project) string {
	rows := [][]string{headers}
	for _, p := range projects {
		project := p.Name
		if p.Homepage != "" {
			project = fmt.Sprintf("[%s](%s)", p.Name, p.Homepage)
		}
		rows = append(rows, []string{
			cell(project),
			cell(p.Desc),
			cell(fmt.Sprintf("`brew install %s`", p.Name)),
		})
	}

	widths := make([]int, len(headers))
	for _, row := range rows {
		for i, c := range row {
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(StartTag + "\n")
	writeRow(&b, rows[0], widths)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(&b, sep, widths)
	for _, row := range rows[1:] {
		writeRow(&b, row, widths)
	}
	b.WriteString(EndTag + "\n")
	return b.String()
}

func cell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return placeholder
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = runewidth.FillRight(c, widths[i])
	}
	b.WriteString("| " + strings.Join(padded, " | ") + " |\n")
}

// Replace swaps the tagged block in content for table. The block runs from
// the start tag line through the end tag line.
func Replace(content, table string) (string, error) {
	start := strings.Index(content, StartTag)
	if start < 0 {
		return "", ErrTagsMissing
	}
	rel := strings.Index(content[start:], EndTag)
	if rel < 0 {
		return "", ErrTagsMissing
	}
	end := start + rel + len(EndTag)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return content[:start] + table + content[end:], nil
}

// Find returns the README path in dir.
func Find(dir string) (string, error) {
	for _, name := range readmeNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", ErrNoReadme
}

// Update rewrites the README table in tapDir from the formulas in
// tapDir/folder. It returns the README path when the file changed. A missing
// README or missing tags is logged and skipped.
func Update(tapDir, folder string, log hclog.Logger) (string, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	path, err := Find(tapDir)
	if err != nil {
		log.Warn("could not find a valid README in this project to update", "dir", tapDir)
		return "", nil
	}

	// #nosec G304 -- README inside the tap working copy
	data, err := os.ReadFile(path)
	if err != nil {
		return "", terrors.IO("read README", err)
	}
	if !strings.Contains(string(data), StartTag) || !strings.Contains(string(data), EndTag) {
		log.Warn("could not find start/end tags for project table in README", "path", path)
		return "", nil
	}

	projects, err := Projects(filepath.Join(tapDir, folder))
	if err != nil {
		return "", err
	}
	updated, err := Replace(string(data), Table(projects))
	if err != nil {
		log.Warn("could not replace project table", "path", path, "error", err)
		return "", nil
	}
	if updated == string(data) {
		log.Debug("README table already current", "path", path)
		return "", nil
	}

	// #nosec G306 -- README is public repository content
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return "", terrors.IO("write README", err)
	}
	log.Debug("README table updated", "path", path, "projects", len(projects))
	return path, nil
}
