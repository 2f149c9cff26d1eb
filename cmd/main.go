package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"liveasm/internal/compiler"
	"liveasm/internal/config"
	"liveasm/internal/logger"
	"liveasm/pkg/color"
)

// Main entry point for liveasm.
func main() {
	cfg := config.Load()
	options := compiler.Compiler{Debounce: cfg.Debounce, CacheSize: cfg.CacheSize}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.IntVar(&options.Line, "l", 1, "Source line to highlight")
	flag.StringVar(&options.View, "view", "instructions", "View mode (instructions, annotated)")
	flag.BoolVar(&options.HideDirectives, "d", cfg.Hide, "Hide directives and comments (-d=false to show them)")
	flag.StringVar(&options.Filter, "f", "", "Only show lines containing this text")
	flag.StringVar(&options.Compiler, "cc", cfg.Compiler, "Compiler executable (gcc, clang, cl, ...)")
	flag.StringVar(&options.ExtraArgs, "args", cfg.ExtraArgs, "Extra compiler arguments")
	flag.StringVar(&options.Syntax, "syntax", cfg.Syntax, "Assembly syntax (intel, att)")
	flag.StringVar(&options.Opt, "O", cfg.Opt, "Optimization level (O0, O1, O2, O3)")
	flag.BoolVar(&options.Raw, "raw", false, "Build without debug annotations")
	flag.StringVar(&options.Dialect, "dialect", cfg.Dialect, "Assembly dialect (auto, gnu, clang, msvc)")
	flag.BoolVar(&options.Watch, "w", false, "Rebuild when the source changes")
	flag.BoolVar(&options.Serve, "s", false, "Serve the live view over websocket")
	flag.StringVar(&options.Addr, "addr", cfg.Addr, "Listen address for -s")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := options.Run(ctx); err != nil {
		log.Fatal("Run failed", "error", err)
	}
}
