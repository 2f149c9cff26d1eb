package toolchain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"liveasm/pkg/asm"
)

// Language of the source file being compiled.
type Language int

const (
	C Language = iota
	CPP
)

func (l Language) String() string {
	if l == CPP {
		return "cpp"
	}
	return "c"
}

// LanguageFromPath detects the language from the file extension.
func LanguageFromPath(path string) (Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c":
		return C, nil
	case ".cc", ".cpp", ".cxx", ".c++", ".hpp", ".hh", ".hxx":
		return CPP, nil
	}
	return C, fmt.Errorf("unsupported source file %q: expected a C or C++ file", path)
}

// Compiler is a resolved compiler executable.
type Compiler struct {
	Exe   string // executable to spawn
	MSVC  bool   // takes cl.exe style arguments
	Clang bool   // LLVM based
}

var (
	rxCl      = regexp.MustCompile(`(^|[\\/])cl(\.exe)?$`)
	rxClangCl = regexp.MustCompile(`(^|[\\/])clang-cl(\.exe)?$`)
	rxGcc     = regexp.MustCompile(`(^|[\\/])gcc(\.exe)?$`)
	rxGpp     = regexp.MustCompile(`(^|[\\/])g\+\+(\.exe)?$`)
	rxClang   = regexp.MustCompile(`(^|[\\/])clang(\.exe)?$`)
	rxClangpp = regexp.MustCompile(`(^|[\\/])clang\+\+(\.exe)?$`)

	rxGccSuffix     = regexp.MustCompile(`(?i)gcc(\.exe)?$`)
	rxGppSuffix     = regexp.MustCompile(`(?i)g\+\+(\.exe)?$`)
	rxClangSuffix   = regexp.MustCompile(`(?i)clang(\.exe)?$`)
	rxClangppSuffix = regexp.MustCompile(`(?i)clang\+\+(\.exe)?$`)
)

// ResolveCompiler picks the executable for lang from the configured one.
// gcc and clang are switched to their C++ drivers for C++ sources and back.
func ResolveCompiler(configured string, lang Language) Compiler {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		configured = "gcc"
	}
	lower := strings.ToLower(configured)
	clang := strings.Contains(filepath.Base(lower), "clang")

	switch {
	case rxClangCl.MatchString(lower):
		return Compiler{Exe: configured, MSVC: true, Clang: true}
	case rxCl.MatchString(lower):
		return Compiler{Exe: configured, MSVC: true}
	case rxGcc.MatchString(lower) && lang == CPP:
		return Compiler{Exe: rxGccSuffix.ReplaceAllString(configured, "g++${1}")}
	case rxGpp.MatchString(lower) && lang == C:
		return Compiler{Exe: rxGppSuffix.ReplaceAllString(configured, "gcc${1}")}
	case rxClang.MatchString(lower) && lang == CPP:
		return Compiler{Exe: rxClangSuffix.ReplaceAllString(configured, "clang++${1}"), Clang: true}
	case rxClangpp.MatchString(lower) && lang == C:
		return Compiler{Exe: rxClangppSuffix.ReplaceAllString(configured, "clang${1}"), Clang: true}
	}
	return Compiler{Exe: configured, Clang: clang}
}

// Dialect returns the assembler dialect of the compiler's output.
func (c Compiler) Dialect() *asm.Dialect {
	switch {
	case c.MSVC:
		return asm.MSVC
	case c.Clang:
		return asm.Clang
	}
	return asm.GNU
}
