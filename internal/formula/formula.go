// Package formula renders Homebrew formula files and reads back the fields
// other tooling needs from existing ones.
package formula

import (
	"fmt"
	"sort"
	"strings"

	terrors "github.com/3leaps/taprelease/internal/errors"
	"github.com/3leaps/taprelease/internal/model"
)

// GeneratedBy is written into the header of every rendered formula.
const GeneratedBy = "# This file was generated by taprelease. DO NOT EDIT."

// Input is everything Render needs. Targets[0] is the primary source.
type Input struct {
	Owner      string
	Repo       string
	Repository model.Repository
	Targets    []model.Target
	Install    string
	Test       string
	DependsOn  string
	Matrix     model.Matrix

	DownloadStrategy string
	CustomRequire    string
	FormulaIncludes  string
	Version          string
	Homepage         string
}

type slot struct {
	url      string
	checksum string
}

// Render produces the formula text. Identical input always yields
// byte-identical output.
func Render(in Input) (string, error) {
	if len(in.Targets) == 0 {
		return "", terrors.Data("render formula", fmt.Errorf("no release targets"))
	}
	install := indentText(2, in.Install)
	if len(install) == 0 {
		return "", terrors.Format("render formula", fmt.Errorf("install instructions are empty"))
	}

	class := ClassName(in.Repo)
	doc := &document{header: header(in.CustomRequire), class: class}

	doc.add(includes(in.FormulaIncludes))
	doc.add(metadata(in, class))
	doc.add(dependencies(in.DependsOn))

	if !in.Matrix.Empty() {
		slots := platformSlots(in.Targets, in.Matrix)
		doc.add(osBlock("on_macos", slots, model.DarwinAMD64, model.DarwinARM64, in.DownloadStrategy))
		doc.add(osBlock("on_linux", slots, model.LinuxAMD64, model.LinuxARM64, in.DownloadStrategy))
	}

	doc.add(block(1, "def install", install))
	if test := indentText(2, in.Test); len(test) > 0 {
		doc.add(block(1, "test", test))
	}

	return doc.String(), nil
}

func header(customRequire string) []string {
	lines := []string{
		"# typed: true",
		"# frozen_string_literal: true",
		"",
		GeneratedBy,
	}
	if req := strings.TrimSpace(customRequire); req != "" {
		lines = append(lines, fmt.Sprintf("require_relative %s", quote(req)))
	}
	return lines
}

func includes(text string) section {
	var out section
	for _, line := range nonEmptyLines(text) {
		out = append(out, indent+"include "+strings.TrimPrefix(line, "include "))
	}
	return out
}

func metadata(in Input, class string) section {
	homepage := strings.TrimSpace(in.Homepage)
	if homepage == "" {
		homepage = fmt.Sprintf("https://github.com/%s/%s", in.Owner, in.Repo)
	}
	primary := in.Targets[0]

	out := section{
		indent + "desc " + rubyString(Description(in.Repository.Description, class)),
		indent + "homepage " + rubyString(homepage),
		indent + urlLine(primary.URL, in.DownloadStrategy),
	}
	if v := strings.TrimSpace(in.Version); v != "" {
		out = append(out, indent+"version "+rubyString(v))
	}
	out = append(out, indent+"sha256 "+rubyString(primary.Checksum))
	if license := strings.TrimSpace(in.Repository.License); license != "" {
		out = append(out, indent+"license "+rubyString(license))
	}
	return out
}

func urlLine(url, strategy string) string {
	line := "url " + rubyString(url)
	if s := strings.TrimSpace(strategy); s != "" {
		line += ", using: " + s
	}
	return line
}

// dependencies quotes bare names and sorts by dependency name. Lines that
// are already quoted ("gcc" => :build) are kept as written.
func dependencies(text string) section {
	type dep struct {
		name string
		decl string
	}
	seen := make(map[string]bool)
	var deps []dep
	for _, line := range nonEmptyLines(text) {
		line = strings.TrimSpace(strings.TrimPrefix(line, "depends_on "))
		decl, name := line, line
		if strings.HasPrefix(line, `"`) {
			if end := strings.Index(line[1:], `"`); end >= 0 {
				name = line[1 : end+1]
			}
		} else {
			decl = quote(line)
		}
		if seen[decl] {
			continue
		}
		seen[decl] = true
		deps = append(deps, dep{name: name, decl: decl})
	}
	sort.SliceStable(deps, func(i, j int) bool {
		if deps[i].name != deps[j].name {
			return deps[i].name < deps[j].name
		}
		return deps[i].decl < deps[j].decl
	})

	out := make(section, 0, len(deps))
	for _, d := range deps {
		out = append(out, indent+"depends_on "+d.decl)
	}
	return out
}

// platformSlots keeps the first target for each enabled platform.
func platformSlots(targets []model.Target, matrix model.Matrix) map[model.Platform]slot {
	slots := make(map[model.Platform]slot)
	for _, t := range targets {
		p, ok := t.ResolvePlatform()
		if !ok || !matrix.Enabled(p) {
			continue
		}
		if _, dup := slots[p]; dup {
			continue
		}
		slots[p] = slot{url: t.URL, checksum: t.Checksum}
	}
	return slots
}

func osBlock(opener string, slots map[model.Platform]slot, intel, arm model.Platform, strategy string) section {
	var body []string
	if s, ok := slots[intel]; ok {
		body = append(body, block(2, "on_intel", slotLines(s, strategy))...)
	}
	if s, ok := slots[arm]; ok {
		body = append(body, block(2, "on_arm", slotLines(s, strategy))...)
	}
	if len(body) == 0 {
		return nil
	}
	return block(1, opener, body)
}

func slotLines(s slot, strategy string) []string {
	pad := strings.Repeat(indent, 3)
	return []string{
		pad + urlLine(s.url, strategy),
		pad + "sha256 " + rubyString(s.checksum),
	}
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// rubyEscaper escapes everything a double-quoted Ruby literal would interpret.
var rubyEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "#{", `\#{`, "#$", `\#$`, "#@", `\#@`)

// rubyString renders s as a double-quoted Ruby string literal.
func rubyString(s string) string {
	return `"` + rubyEscaper.Replace(s) + `"`
}

func quote(s string) string {
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) > 1 {
		return s
	}
	return `"` + s + `"`
}
