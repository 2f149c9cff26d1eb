package asm

import "fmt"

// Class is the structural category of one assembly line.
type Class int

const (
	Other            Class = iota // anything not recognized, passed through
	Blank                         // empty or whitespace only
	Comment                       // starts with a comment leader
	Label                         // `name:` on its own
	BoilerplateLabel              // compiler internal label (line tables, debug info)
	Directive                     // assembler directive
	Instruction                   // machine instruction, possibly behind a label
)

var classNames = map[Class]string{
	Other:            "other",
	Blank:            "blank",
	Comment:          "comment",
	Label:            "label",
	BoilerplateLabel: "boilerplate-label",
	Directive:        "directive",
	Instruction:      "instruction",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(c))
}

// IsLabel reports whether c is a label, boilerplate or not.
func (c Class) IsLabel() bool {
	return c == Label || c == BoilerplateLabel
}
