package toolchain

import (
	"fmt"
	"regexp"
	"strings"
)

// Syntax is the x86 assembly syntax requested from GNU style compilers.
type Syntax string

const (
	Intel Syntax = "intel"
	ATT   Syntax = "att"
)

// ParseSyntax accepts "intel" and "att" (also "at&t").
func ParseSyntax(s string) (Syntax, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "intel":
		return Intel, nil
	case "att", "at&t":
		return ATT, nil
	}
	return Intel, fmt.Errorf("unknown syntax %q", s)
}

var optFlags = map[string]string{
	"O0": "/Od",
	"O1": "/O1",
	"O2": "/O2",
	"O3": "/Ox",
}

// ParseOpt accepts O0 to O3, with or without a leading dash.
func ParseOpt(s string) (string, error) {
	s = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "-"))
	if s == "" {
		return "O0", nil
	}
	if _, ok := optFlags[s]; !ok {
		return "O0", fmt.Errorf("unknown optimization level %q", s)
	}
	return s, nil
}

// Options are the user controlled build settings.
type Options struct {
	Compiler  string // configured compiler, resolved per language
	ExtraArgs string // appended verbatim, split like a shell would
	Syntax    Syntax
	Opt       string // O0..O3
	Raw       bool   // no debug info or verbose comments
}

// Args builds the command line that writes assembly for src to out.
func Args(c Compiler, lang Language, src, out string, opts Options) []string {
	extra := SplitArgs(opts.ExtraArgs)
	opt := opts.Opt
	if opt == "" {
		opt = "O0"
	}

	if c.MSVC {
		langSwitch := "/TC"
		if lang == CPP {
			langSwitch = "/TP"
		}
		args := []string{"/nologo", "/c", langSwitch, src}
		if !opts.Raw {
			args = append(args, "/FAs", "/Zi")
		}
		args = append(args, "/FA", "/Fa:"+out)
		args = append(args, extra...)
		if flag, ok := optFlags[opt]; ok {
			args = append(args, flag)
		} else {
			args = append(args, "/Od")
		}
		return args
	}

	args := []string{"-S"}
	if !opts.Raw {
		args = append(args, "-g", "-fverbose-asm")
	}
	args = append(args, src, "-o", out)
	args = append(args, extra...)
	args = append(args, "-"+opt)
	if opts.Syntax == ATT {
		args = append(args, "-masm=att")
	} else {
		args = append(args, "-masm=intel")
	}
	if opts.Raw {
		args = append(args, "-fno-asynchronous-unwind-tables", "-fno-ident")
	}
	return args
}

var rxArg = regexp.MustCompile(`"([^"]*)"|'([^']*)'|\S+`)

// SplitArgs splits s on whitespace, keeping single or double quoted runs
// together without their quotes.
func SplitArgs(s string) []string {
	var out []string
	for _, m := range rxArg.FindAllStringSubmatch(s, -1) {
		switch {
		case m[1] != "":
			out = append(out, m[1])
		case m[2] != "":
			out = append(out, m[2])
		default:
			out = append(out, m[0])
		}
	}
	return out
}
