package asm

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// lineToken is replaced by the source line number in anchor templates.
const lineToken = "{line}"

// Dialect is the pattern table for one assembler family. Classification,
// filtering and correlation only consult the table.
type Dialect struct {
	Name string

	comment     string         // bytes that start a comment
	label       *regexp.Regexp // the whole line is a label
	boilerplate *regexp.Regexp // labels a reader never needs
	directive   *regexp.Regexp // directive spellings besides the leading dot, may be nil
	instruction *regexp.Regexp // applied to the trimmed line

	anchors  []string       // ordered by priority, contain lineToken
	loose    []string       // unanchored variants used to find a scroll target
	boundary *regexp.Regexp // ends the span of an anchor
	fallback *regexp.Regexp // any line marker, used when nothing matches
}

var (
	gnuLabel       = regexp.MustCompile(`^\s*[._A-Za-z]\w*:\s*$`)
	gnuInstruction = regexp.MustCompile(`^(?:[._A-Za-z]\w*:\s*)?(?:(?i:lock)\s+)?[A-Za-z]{2,8}(?:[^\w:]|$)`)

	gnuAnchors = []string{
		`^\s*\.loc\s+\d+\s+{line}\b`,
		`(?i)^\s*[#;].*?\bline\s+{line}\b`,
		`^\s*[#;]\s*{line}\b`,
	}
	gnuLoose = []string{
		`\.loc\s+\d+\s+{line}\b`,
		`(?i)[#;].*?\bline\s+{line}\b`,
		`[#;]\s*{line}\b`,
	}
)

// GNU covers GCC output in both AT&T and Intel syntax.
var GNU = &Dialect{
	Name:        "gnu",
	comment:     "#;",
	label:       gnuLabel,
	boilerplate: regexp.MustCompile(`(?i)^\s*\.(?:L(?:text|etext)\d*|LFB\d+|LFE\d+|LVL\d+|LBB\d+|LBE\d+|LBI\d+|Ldebug_[A-Za-z0-9_]+|LASF\d+):\s*$`),
	instruction: gnuInstruction,
	anchors:     gnuAnchors,
	loose:       gnuLoose,
	boundary:    regexp.MustCompile(`(?i)^\s*\.(?:loc|file|text|section)\b`),
	fallback:    regexp.MustCompile(`\.(?:loc|file)\b`),
}

// Clang is GNU syntax with LLVM's internal label names, which drop the
// leading dot on Mach-O targets.
var Clang = &Dialect{
	Name:        "clang",
	comment:     "#;",
	label:       gnuLabel,
	boilerplate: regexp.MustCompile(`(?i)^\s*\.?(?:L(?:text|etext)\d*|LFB\d+|LFE\d+|Ldebug_[A-Za-z0-9_]+|LASF\d+|Lfunc_begin\d+|Lfunc_end\d+|Ltmp\d+|Linfo_string\d*|Lsection_\w+|Lcu_begin\d+|Lset\d+|Lexception\d+|Lcst_(?:begin|end)\d+|Lnames\w*|Lstr_offsets_base\d+|Laddr_table_base\d+|Lline_table_start\d+):\s*$`),
	instruction: gnuInstruction,
	anchors:     gnuAnchors,
	loose:       gnuLoose,
	boundary:    regexp.MustCompile(`(?i)^\s*\.(?:loc|file|text|section)\b`),
	fallback:    regexp.MustCompile(`\.(?:loc|file)\b`),
}

// MSVC covers cl.exe /FA listings and clang-cl output, which is GNU syntax
// carrying CodeView line markers.
var MSVC = &Dialect{
	Name:        "msvc",
	comment:     "#;",
	label:       regexp.MustCompile(`^\s*[._A-Za-z$?@][\w$?@]*:\s*$`),
	boilerplate: regexp.MustCompile(`(?i)^\s*(?:\.(?:L(?:text|etext)\d*|LFB\d+|LFE\d+|Ldebug_[A-Za-z0-9_]+|LASF\d+|Lfunc_begin\d+|Lfunc_end\d+|Ltmp\d+|Lcst_(?:begin|end)\d+)|\$(?:unwind|pdata|cppxdata|ip2state|stateUnwindMap|tryMap|handlerMap)\$[\w$?@]*):\s*$`),
	directive:   regexp.MustCompile(`(?i)^(?:[\w$?@]+\s+(?:PROC|ENDP|SEGMENT|ENDS|LABEL|COMDAT|DB|DW|DD|DQ)\b|[\w$?@]+\s*=\s*\S|(?:PUBLIC|EXTRN|EXTERN|INCLUDELIB|INCLUDE|END|ALIGN|COMM|TITLE|ASSUME|ORG)\b)`),
	instruction: regexp.MustCompile(`^(?:[._A-Za-z$?@][\w$?@]*:\s*)?(?:(?i:lock)\s+)?[A-Za-z]{2,8}(?:[^\w:]|$)`),
	anchors: []string{
		`^\s*\.(?:loc\s+\d+|cv_loc\s+\d+\s+\d+)\s+{line}\b`,
		`(?i)^\s*[#;].*?\bline\s+{line}\b`,
		`^\s*[#;]\s*{line}\b`,
	},
	loose: []string{
		`\.(?:loc\s+\d+|cv_loc\s+\d+\s+\d+)\s+{line}\b`,
		`(?i)[#;].*?\bline\s+{line}\b`,
		`[#;]\s*{line}\b`,
	},
	boundary: regexp.MustCompile(`(?i)^\s*(?:\.(?:loc|cv_loc|file|cv_file|text|section)\b|;\s*\d+\s*:|;\s*Line\s+\d+\b|[\w$?@]+\s+(?:ENDP|ENDS)\b|_TEXT\s+SEGMENT\b)`),
	fallback: regexp.MustCompile(`\.(?:loc|cv_loc|file)\b|^\s*;\s*(?:\d+\s*:|Line\s+\d+\b)`),
}

var dialects = map[string]*Dialect{
	GNU.Name:   GNU,
	Clang.Name: Clang,
	MSVC.Name:  MSVC,
}

// DialectByName looks up a built-in dialect. "gcc" is accepted for GNU.
func DialectByName(name string) (*Dialect, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "gcc" {
		name = GNU.Name
	}
	d, ok := dialects[name]
	return d, ok
}

func (d *Dialect) String() string {
	return d.Name
}

// compileMarkers instantiates marker templates for one source line.
func compileMarkers(templates []string, sourceLine int) []*regexp.Regexp {
	n := strconv.Itoa(sourceLine)
	out := make([]*regexp.Regexp, 0, len(templates))
	for _, tmpl := range templates {
		re, err := regexp.Compile(strings.ReplaceAll(tmpl, lineToken, n))
		if err != nil {
			continue
		}
		out = append(out, re)
	}
	return out
}

// firstMatch returns the index of the first line matching any of the
// patterns, trying the patterns of each line in priority order.
func firstMatch(lines []string, patterns []*regexp.Regexp) int {
	for i, line := range lines {
		for _, p := range patterns {
			if p.MatchString(line) {
				return i
			}
		}
	}
	return -1
}

// table returns d with every missing pattern taken from GNU, so that a
// partially filled or zero Dialect still classifies every line.
func table(d *Dialect) *Dialect {
	if d == nil {
		return GNU
	}
	if d.comment != "" && d.label != nil && d.boilerplate != nil && d.instruction != nil &&
		len(d.anchors) > 0 && len(d.loose) > 0 && d.boundary != nil && d.fallback != nil {
		return d
	}

	c := *d
	if c.comment == "" {
		c.comment = GNU.comment
	}
	if c.label == nil {
		c.label = GNU.label
	}
	if c.boilerplate == nil {
		c.boilerplate = GNU.boilerplate
	}
	if c.instruction == nil {
		c.instruction = GNU.instruction
	}
	if len(c.anchors) == 0 {
		c.anchors = GNU.anchors
	}
	if len(c.loose) == 0 {
		c.loose = GNU.loose
	}
	if c.boundary == nil {
		c.boundary = GNU.boundary
	}
	if c.fallback == nil {
		c.fallback = GNU.fallback
	}
	return &c
}

// Patterns describes a dialect for NewDialect. Marker templates in Anchors
// and Loose contain "{line}" where the source line number goes. Fields left
// empty are taken from GNU.
type Patterns struct {
	Comment     string         // bytes that start a comment
	Label       *regexp.Regexp // matches a whole trimmed label line
	Boilerplate *regexp.Regexp // label lines hidden from readers
	Directive   *regexp.Regexp // directives not starting with a dot
	Instruction *regexp.Regexp
	Anchors     []string // by priority
	Loose       []string
	Boundary    *regexp.Regexp
	Fallback    *regexp.Regexp
}

// NewDialect builds a dialect from p.
func NewDialect(name string, p Patterns) *Dialect {
	return table(&Dialect{
		Name:        name,
		comment:     p.Comment,
		label:       p.Label,
		boilerplate: p.Boilerplate,
		directive:   p.Directive,
		instruction: p.Instruction,
		anchors:     slices.Clone(p.Anchors),
		loose:       slices.Clone(p.Loose),
		boundary:    p.Boundary,
		fallback:    p.Fallback,
	})
}

// WithBoilerplate returns a copy of d that also treats labels starting with
// one of prefixes as boilerplate. d is not modified.
func (d *Dialect) WithBoilerplate(prefixes ...string) *Dialect {
	c := *table(d)
	if len(prefixes) == 0 {
		return &c
	}
	quoted := make([]string, len(prefixes))
	for i, p := range prefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	c.boilerplate = regexp.MustCompile(`(?:` + c.boilerplate.String() + `)|^\s*(?:` +
		strings.Join(quoted, "|") + `)[\w$?@]*:\s*$`)
	return &c
}

var (
	rxMSVCListing = regexp.MustCompile(`(?im)^(?:; Listing generated by Microsoft|\S+\s+PROC\b|\s*\.cv_loc\b)`)
	rxLLVMLabel   = regexp.MustCompile(`(?m)^\s*\.?L(?:func_begin|tmp)\d+:`)
)

// DetectDialect guesses the dialect of an assembly file that did not come
// from a known compiler.
func DetectDialect(text string) *Dialect {
	switch {
	case rxMSVCListing.MatchString(text):
		return MSVC
	case rxLLVMLabel.MatchString(text):
		return Clang
	}
	return GNU
}
