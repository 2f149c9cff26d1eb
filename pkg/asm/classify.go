package asm

import (
	"regexp"
	"strings"
)

// rxDotColon is a dotted name followed by a spaced colon, like ".L1 :". It
// is not a label but not a directive either.
var rxDotColon = regexp.MustCompile(`^\.\w+\s*:\s*$`)

// Classify returns the category of line using the GNU table.
func Classify(line string) Class {
	return GNU.Classify(line)
}

// Classify returns the category of line. It never fails: text that matches
// no rule is Other.
func (d *Dialect) Classify(line string) Class {
	d = table(d)
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Blank
	case strings.IndexByte(d.comment, trimmed[0]) >= 0:
		return Comment
	case d.label.MatchString(trimmed):
		if d.boilerplate.MatchString(trimmed) {
			return BoilerplateLabel
		}
		return Label
	case trimmed[0] == '.' && !rxDotColon.MatchString(trimmed):
		return Directive
	case d.directive != nil && d.directive.MatchString(trimmed):
		return Directive
	case d.instruction.MatchString(trimmed):
		return Instruction
	}
	return Other
}

// StripComment removes a trailing comment using the GNU comment leaders.
func StripComment(line string) string {
	return GNU.StripComment(line)
}

// StripComment cuts line at the first comment leader not escaped with a
// backslash, and drops the whitespace in front of it.
func (d *Dialect) StripComment(line string) string {
	d = table(d)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\':
			i++
		case strings.IndexByte(d.comment, c) >= 0:
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
