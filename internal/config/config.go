package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds defaults for the command line flags, read from the
// environment and an optional .env file.
type Config struct {
	Compiler  string        // LIVEASM_COMPILER
	ExtraArgs string        // LIVEASM_EXTRA_ARGS
	Syntax    string        // LIVEASM_SYNTAX
	Opt       string        // LIVEASM_OPT
	Dialect   string        // LIVEASM_DIALECT, "auto" follows the compiler
	Hide      bool          // LIVEASM_HIDE_DIRECTIVES
	Addr      string        // LIVEASM_ADDR
	Debounce  time.Duration // LIVEASM_DEBOUNCE_MS
	CacheSize int           // LIVEASM_CACHE_SIZE
}

// Load reads .env from the working directory if present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Compiler:  firstNonEmpty(env("LIVEASM_COMPILER"), "gcc"),
		ExtraArgs: env("LIVEASM_EXTRA_ARGS"),
		Syntax:    firstNonEmpty(env("LIVEASM_SYNTAX"), "intel"),
		Opt:       firstNonEmpty(env("LIVEASM_OPT"), "O0"),
		Dialect:   firstNonEmpty(env("LIVEASM_DIALECT"), "auto"),
		Hide:      boolean(env("LIVEASM_HIDE_DIRECTIVES"), true),
		Addr:      resolveAddr(env("LIVEASM_ADDR")),
		Debounce:  time.Duration(positiveInt(env("LIVEASM_DEBOUNCE_MS"), 500)) * time.Millisecond,
		CacheSize: positiveInt(env("LIVEASM_CACHE_SIZE"), 64),
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func resolveAddr(addr string) string {
	if addr == "" {
		return "127.0.0.1:8088"
	}
	if _, err := strconv.Atoi(addr); err == nil {
		return ":" + addr
	}
	return addr
}

func positiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func boolean(raw string, fallback bool) bool {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
