package formula

import "strings"

// Summary is what Parse reads back from a formula file.
type Summary struct {
	Class    string `json:"class" yaml:"class"`
	Name     string `json:"name" yaml:"name"`
	Desc     string `json:"desc" yaml:"desc"`
	Homepage string `json:"homepage" yaml:"homepage"`
	URL      string `json:"url" yaml:"url"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Parse extracts the top-level fields of a formula. Fields nested in
// platform blocks are ignored; the first occurrence of each field wins.
func Parse(text string) Summary {
	var s Summary
	depth := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "class ") && s.Class == "":
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				s.Class = fields[1]
				s.Name = FormulaName(s.Class)
			}
		case depth == 0 && s.Class != "":
			switch {
			case strings.HasPrefix(line, "desc ") && s.Desc == "":
				s.Desc = unquote(strings.TrimPrefix(line, "desc "))
			case strings.HasPrefix(line, "homepage ") && s.Homepage == "":
				s.Homepage = unquote(strings.TrimPrefix(line, "homepage "))
			case strings.HasPrefix(line, "url ") && s.URL == "":
				value, _, _ := strings.Cut(strings.TrimPrefix(line, "url "), ",")
				s.URL = unquote(value)
			case strings.HasPrefix(line, "version ") && s.Version == "":
				s.Version = unquote(strings.TrimPrefix(line, "version "))
			}
		}

		if strings.HasSuffix(line, " do") || line == "do" {
			depth++
		} else if line == "end" && depth > 0 {
			depth--
		}
	}
	return s
}

// ReleaseVersion is the explicit version, or the tag segment of the
// top-level url.
func (s Summary) ReleaseVersion() string {
	if s.Version != "" {
		return s.Version
	}
	return versionFromURL(s.URL)
}

func versionFromURL(url string) string {
	parts := strings.Split(url, "/")
	for i := 0; i < len(parts)-1; i++ {
		switch parts[i] {
		case "tags":
			return strings.TrimSuffix(strings.TrimSuffix(parts[i+1], ".tar.gz"), ".zip")
		case "download", "tarball", "zipball":
			return parts[i+1]
		}
	}
	return ""
}

var rubyUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\#`, "#")

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return rubyUnescaper.Replace(s[1 : len(s)-1])
	}
	return strings.Trim(s, `"'`)
}

// Filename is the conventional formula file name for repo.
func Filename(repo string) string {
	return repo + ".rb"
}
