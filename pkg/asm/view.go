package asm

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects how much of the assembly is shown.
type Mode int

const (
	Instructions Mode = iota // labels and instructions only
	Annotated                // everything, unfiltered by category
)

func (m Mode) String() string {
	switch m {
	case Instructions:
		return "instructions"
	case Annotated:
		return "annotated"
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(m))
}

// ParseMode parses "instructions" or "annotated".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instructions", "instr", "":
		return Instructions, nil
	case "annotated", "full":
		return Annotated, nil
	}
	return Instructions, fmt.Errorf("unknown view mode %q", s)
}

// ViewConfig controls the View Filter.
type ViewConfig struct {
	Mode           Mode
	HideDirectives bool
	FilterText     string
}

// Normalize applies the Annotated mode rule: directives are never hidden
// there. Switching back to Instructions does not turn hiding on again.
func (c ViewConfig) Normalize() ViewConfig {
	if c.Mode == Annotated {
		c.HideDirectives = false
	}
	return c
}

// DisplayLine is one line of the filtered view.
type DisplayLine struct {
	Text          string `json:"text"`
	OriginalIndex int    `json:"orig"`
}

// View is the result of filtering. IndexMap[i] == Lines[i].OriginalIndex
// and is strictly increasing.
type View struct {
	Lines    []DisplayLine
	IndexMap []int
}

// Filter filters lines using the GNU table.
func Filter(lines []string, cfg ViewConfig) View {
	return GNU.Filter(lines, cfg)
}

// Filter produces the display lines for cfg. Display order is always a
// subsequence of the original order.
func (d *Dialect) Filter(lines []string, cfg ViewConfig) View {
	d = table(d)
	cfg = cfg.Normalize()
	needle := strings.ToLower(strings.TrimSpace(cfg.FilterText))

	var view View
	for i, line := range lines {
		if cfg.HideDirectives {
			if d.Classify(line) == Directive {
				continue
			}
			line = d.StripComment(line)
			if strings.TrimSpace(line) == "" {
				continue
			}
		}

		if cfg.Mode == Instructions {
			switch d.Classify(line) {
			case Label, Instruction:
			default:
				continue
			}
		}

		if needle != "" && !strings.Contains(strings.ToLower(line), needle) {
			continue
		}

		view.Lines = append(view.Lines, DisplayLine{Text: line, OriginalIndex: i})
		view.IndexMap = append(view.IndexMap, i)
	}
	return view
}

// Len returns the number of display lines.
func (v View) Len() int { return len(v.Lines) }

// Texts returns the display texts in order.
func (v View) Texts() []string {
	out := make([]string, len(v.Lines))
	for i, line := range v.Lines {
		out[i] = line.Text
	}
	return out
}

// Text joins the display lines with newlines, as exported by copy.
func (v View) Text() string {
	return strings.Join(v.Texts(), "\n")
}

// DisplayIndex returns the display position of an original index.
func (v View) DisplayIndex(orig int) (int, bool) {
	at := sort.SearchInts(v.IndexMap, orig)
	if at < len(v.IndexMap) && v.IndexMap[at] == orig {
		return at, true
	}
	return -1, false
}

// nearest returns the first display position at or after orig, or the last
// one when orig is past the end.
func (v View) nearest(orig int) int {
	if len(v.IndexMap) == 0 {
		return -1
	}
	at := sort.SearchInts(v.IndexMap, orig)
	if at >= len(v.IndexMap) {
		return len(v.IndexMap) - 1
	}
	return at
}
