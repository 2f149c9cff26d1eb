package toolchain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"liveasm/pkg/asm"
)

// Request is one build of an in-memory source text.
type Request struct {
	Source  string
	Lang    Language
	Options Options
}

// Output is the assembly produced by a build.
type Output struct {
	Text    string       // raw assembly text
	Command string       // command line, for status display
	Dialect *asm.Dialect // dialect of Text
	Cached  bool         // served from the cache without spawning
}

// BuildError reports a compiler run that produced no assembly.
type BuildError struct {
	Command string
	Stderr  string
}

func (e *BuildError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "Build failed."
	}
	return msg
}

// Builder spawns the compiler and caches successful results.
type Builder struct {
	cache *lru.Cache[string, Output]
}

// NewBuilder creates a builder caching up to size outputs.
func NewBuilder(size int) (*Builder, error) {
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, Output](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create build cache: %w", err)
	}
	return &Builder{cache: cache}, nil
}

// Build compiles req.Source to assembly in a temporary directory.
func (b *Builder) Build(ctx context.Context, req Request) (Output, error) {
	compiler := ResolveCompiler(req.Options.Compiler, req.Lang)
	key := cacheKey(compiler, req)
	if out, ok := b.cache.Get(key); ok {
		out.Cached = true
		return out, nil
	}

	tempDir, err := os.MkdirTemp("", "liveasm-")
	if err != nil {
		return Output{}, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	name := "live.c"
	if req.Lang == CPP {
		name = "live.cpp"
	}
	srcFile := filepath.Join(tempDir, name)
	asmFile := filepath.Join(tempDir, "live.s")
	if err := os.WriteFile(srcFile, []byte(req.Source), 0644); err != nil {
		return Output{}, fmt.Errorf("failed to write source file: %w", err)
	}

	args := Args(compiler, req.Lang, srcFile, asmFile, req.Options)
	command := compiler.Exe + " " + strings.Join(args, " ")
	log.Debug("Spawning compiler", "cmd", command)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, compiler.Exe, args...)
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	// A compiler may exit non-zero after writing usable output (warnings as
	// errors, for example); the output file decides.
	text, err := os.ReadFile(asmFile)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Output{}, ctxErr
		}
		msg := stderr.String()
		if msg == "" && runErr != nil && !errors.As(runErr, new(*exec.ExitError)) {
			msg = runErr.Error()
		}
		log.Debug("Build failed", "cmd", command, "error", runErr)
		return Output{}, &BuildError{Command: command, Stderr: msg}
	}

	out := Output{
		Text:    string(text),
		Command: command,
		Dialect: compiler.Dialect(),
	}
	b.cache.Add(key, out)
	return out, nil
}

// Purge drops every cached output.
func (b *Builder) Purge() {
	b.cache.Purge()
}

func cacheKey(c Compiler, req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%t\x00%s\x00%s\x00%s\x00%s\x00%t\x00",
		c.Exe, c.MSVC, req.Lang, req.Options.ExtraArgs, req.Options.Syntax, req.Options.Opt, req.Options.Raw)
	h.Write([]byte(req.Source))
	return hex.EncodeToString(h.Sum(nil))
}
