package formula

import "strings"

const indent = "  "

// section is a run of lines rendered together. Empty sections are dropped.
type section []string

// document is the ordered list of class-body sections. The formatter joins
// the non-empty ones with exactly one blank line.
type document struct {
	header   []string
	class    string
	sections []section
}

func (d *document) add(s section) {
	d.sections = append(d.sections, s)
}

func (d *document) String() string {
	var b strings.Builder
	for _, line := range d.header {
		writeLine(&b, line)
	}
	writeLine(&b, "class "+d.class+" < Formula")

	first := true
	for _, s := range d.sections {
		if len(s) == 0 {
			continue
		}
		if !first {
			b.WriteByte('\n')
		}
		first = false
		for _, line := range s {
			writeLine(&b, line)
		}
	}
	writeLine(&b, "end")
	return b.String()
}

// writeLine writes line with trailing whitespace removed, so blank lines
// inside a block never carry indentation.
func writeLine(b *strings.Builder, line string) {
	b.WriteString(strings.TrimRight(line, " \t"))
	b.WriteByte('\n')
}

// block wraps body in "<opener> do" / "end" at the given depth.
func block(depth int, opener string, body []string) []string {
	pad := strings.Repeat(indent, depth)
	out := make([]string, 0, len(body)+2)
	out = append(out, pad+opener+" do")
	out = append(out, body...)
	out = append(out, pad+"end")
	return out
}

// indentText re-indents free-form Ruby at depth, keeping the relative
// indentation of continuation lines. Leading and trailing blank lines are
// dropped.
func indentText(depth int, text string) []string {
	text = strings.Trim(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	common := commonIndent(lines)
	pad := strings.Repeat(indent, depth)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, pad+line[common:])
	}
	return out
}

func commonIndent(lines []string) int {
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common < 0 {
		return 0
	}
	return common
}
