package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"liveasm/internal/server"
	"liveasm/internal/session"
	"liveasm/pkg/asm"
	"liveasm/pkg/color"
	"liveasm/pkg/toolchain"
)

type Compiler struct {
	Help           bool          // Show help message
	Verbose        bool          // Enable verbose output
	NoColor        bool          // Disable colored output
	SourceFile     string        // Path to the C/C++ source or assembly file
	Line           int           // Source line to correlate (1-based)
	View           string        // "instructions" or "annotated"
	HideDirectives bool          // Drop directives and comments
	Filter         string        // Keep only display lines containing this text
	Compiler       string        // Compiler executable, "gcc" when empty
	ExtraArgs      string        // Extra compiler arguments
	Syntax         string        // "intel" or "att"
	Opt            string        // Optimization level, O0..O3
	Raw            bool          // Build without debug annotations
	Dialect        string        // "auto", "gnu", "clang" or "msvc"
	Watch          bool          // Rebuild and re-render when the source changes
	Serve          bool          // Serve the live view over websocket
	Addr           string        // Listen address for Serve
	Debounce       time.Duration // Delay between a change and the rebuild
	CacheSize      int           // Number of cached build outputs

	Out io.Writer // rendered listing, os.Stdout when nil
}

// Run builds the source once and prints the listing, or keeps the session
// alive while watching or serving until ctx is done.
func (opts *Compiler) Run(ctx context.Context) error {
	log.Info("Processing file", "file", opts.SourceFile)

	sess, err := opts.newSession()
	if err != nil {
		return err
	}

	buildErr := sess.Rebuild(ctx)

	switch {
	case opts.Serve:
		if opts.Watch {
			go sess.Watch(ctx, 0, opts.Debounce)
		}
		fmt.Fprintln(opts.out(), color.Info("Live view on ws://"+opts.Addr+"/ws"))
		return server.New(sess).ListenAndServe(ctx, opts.Addr)

	case opts.Watch:
		go sess.Watch(ctx, 0, opts.Debounce)
		for snap := range sess.Subscribe(ctx) {
			if err := opts.render(snap); err != nil {
				return err
			}
		}
		return nil
	}

	if err := opts.render(sess.Snapshot()); err != nil {
		return err
	}
	if buildErr != nil {
		return fmt.Errorf("build failed: %w", buildErr)
	}
	return nil
}

func (opts *Compiler) newSession() (*session.Session, error) {
	mode, err := asm.ParseMode(opts.View)
	if err != nil {
		return nil, err
	}
	syntax, err := toolchain.ParseSyntax(opts.Syntax)
	if err != nil {
		return nil, err
	}
	opt, err := toolchain.ParseOpt(opts.Opt)
	if err != nil {
		return nil, err
	}

	var dialect *asm.Dialect
	if opts.Dialect != "" && opts.Dialect != "auto" {
		d, ok := asm.DialectByName(opts.Dialect)
		if !ok {
			return nil, fmt.Errorf("unknown dialect %q", opts.Dialect)
		}
		dialect = d
	}

	builder, err := toolchain.NewBuilder(opts.CacheSize)
	if err != nil {
		return nil, err
	}

	return session.New(session.Config{
		Path:    opts.SourceFile,
		Builder: builder,
		Options: toolchain.Options{
			Compiler:  opts.Compiler,
			ExtraArgs: opts.ExtraArgs,
			Syntax:    syntax,
			Opt:       opt,
			Raw:       opts.Raw,
		},
		View: asm.ViewConfig{
			Mode:           mode,
			HideDirectives: opts.HideDirectives,
			FilterText:     opts.Filter,
		},
		Cursor:  opts.Line,
		Dialect: dialect,
	})
}

func (opts *Compiler) render(snap session.Snapshot) error {
	w := opts.out()
	if opts.Watch && color.IsColorEnabled() {
		// clear screen, cursor home
		fmt.Fprint(w, "\x1b[2J\x1b[H")
	}

	d, ok := asm.DialectByName(snap.Dialect)
	if !ok {
		d = asm.GNU
	}
	if err := color.Listing(w, d, snap.Result); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}

	status := snap.Status
	if snap.Failed {
		status = color.Error(status)
	} else {
		status = color.Status(status)
	}
	_, err := fmt.Fprintln(w, status)
	return err
}

func (opts *Compiler) out() io.Writer {
	if opts.Out != nil {
		return opts.Out
	}
	return os.Stdout
}
