package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"liveasm/pkg/asm"
	"liveasm/pkg/toolchain"
)

// Builder turns source text into assembly.
type Builder interface {
	Build(ctx context.Context, req toolchain.Request) (toolchain.Output, error)
}

// Snapshot is everything needed to render the current state.
type Snapshot struct {
	asm.Result
	Seq     uint64
	Status  string
	Failed  bool
	Config  asm.ViewConfig
	Cursor  int
	Dialect string
}

// Session holds the inputs of the analysis engine for one source file and
// recomputes the analysis from scratch whenever one of them changes.
type Session struct {
	path    string
	lang    toolchain.Language
	isAsm   bool // path is already assembly, nothing to compile
	builder Builder
	forced  *asm.Dialect

	mu       sync.Mutex
	opts     toolchain.Options
	view     asm.ViewConfig
	cursor   int
	text     string
	dialect  *asm.Dialect
	status   string
	failed   bool
	seq      uint64
	buildGen uint64
	subs     map[int]chan Snapshot
	nextSub  int
}

// Config is the initial state of a Session.
type Config struct {
	Path    string
	Builder Builder           // unused for assembly files
	Options toolchain.Options // build options
	View    asm.ViewConfig
	Cursor  int
	Dialect *asm.Dialect // nil follows the compiler
}

var asmExts = map[string]bool{".s": true, ".asm": true, ".S": true}

// New creates a session. Nothing is built until Rebuild is called.
func New(cfg Config) (*Session, error) {
	s := &Session{
		path:    cfg.Path,
		builder: cfg.Builder,
		forced:  cfg.Dialect,
		opts:    cfg.Options,
		view:    cfg.View.Normalize(),
		cursor:  cfg.Cursor,
		dialect: asm.GNU,
		subs:    make(map[int]chan Snapshot),
	}
	if s.cursor < 1 {
		s.cursor = 1
	}

	if asmExts[filepath.Ext(cfg.Path)] {
		s.isAsm = true
		return s, nil
	}

	lang, err := toolchain.LanguageFromPath(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Builder == nil {
		return nil, errors.New("a builder is required to compile " + cfg.Path)
	}
	s.lang = lang
	return s, nil
}

// Path returns the watched source path.
func (s *Session) Path() string { return s.path }

// Rebuild compiles the source, or rereads it for assembly files, and
// publishes the new state. Only the most recently started rebuild may
// update the state.
func (s *Session) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	s.buildGen++
	gen := s.buildGen
	opts := s.opts
	s.mu.Unlock()

	source, err := os.ReadFile(s.path)
	if err != nil {
		s.apply(gen, "// ERROR\n"+err.Error(), nil, "Build failed", true)
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	if s.isAsm {
		text := string(source)
		s.apply(gen, text, asm.DetectDialect(text), s.path, false)
		return nil
	}

	out, err := s.builder.Build(ctx, toolchain.Request{
		Source:  string(source),
		Lang:    s.lang,
		Options: opts,
	})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		var buildErr *toolchain.BuildError
		if errors.As(err, &buildErr) {
			log.Warn("Build failed", "cmd", buildErr.Command)
		}
		s.apply(gen, "// ERROR\n"+err.Error(), nil, "Build failed", true)
		return err
	}

	status := out.Command
	if out.Cached {
		status += " (cached)"
	}
	s.apply(gen, out.Text, out.Dialect, status, false)
	return nil
}

func (s *Session) apply(gen uint64, text string, dialect *asm.Dialect, status string, failed bool) {
	s.mu.Lock()
	if gen != s.buildGen {
		s.mu.Unlock()
		log.Debug("Dropping stale build", "gen", gen, "latest", s.buildGen)
		return
	}
	s.text = text
	if dialect != nil {
		s.dialect = dialect
	}
	s.status = status
	s.failed = failed
	s.mu.Unlock()
	s.publish()
}

// SetAssembly replaces the assembly text directly.
func (s *Session) SetAssembly(text string, dialect *asm.Dialect) {
	s.update(func() {
		s.buildGen++
		s.text = text
		if dialect != nil {
			s.dialect = dialect
		}
		s.failed = false
	})
}

// SetView switches the view mode. Annotated mode turns directive hiding off.
func (s *Session) SetView(mode asm.Mode) {
	s.update(func() {
		s.view.Mode = mode
		s.view = s.view.Normalize()
	})
}

// SetHideDirectives is ignored in Annotated mode.
func (s *Session) SetHideDirectives(hide bool) {
	s.update(func() {
		if s.view.Mode != asm.Annotated {
			s.view.HideDirectives = hide
		}
	})
}

func (s *Session) SetFilter(text string) {
	s.update(func() { s.view.FilterText = text })
}

// SetCursor moves the cursor to a 1-based source line.
func (s *Session) SetCursor(line int) {
	s.update(func() { s.cursor = line })
}

// SetSyntax changes the build syntax; the caller rebuilds.
func (s *Session) SetSyntax(syntax toolchain.Syntax) {
	s.mu.Lock()
	s.opts.Syntax = syntax
	s.mu.Unlock()
}

// SetOpt changes the optimization level; the caller rebuilds.
func (s *Session) SetOpt(opt string) {
	s.mu.Lock()
	s.opts.Opt = opt
	s.mu.Unlock()
}

// SetRaw toggles debug annotations; the caller rebuilds.
func (s *Session) SetRaw(raw bool) {
	s.mu.Lock()
	s.opts.Raw = raw
	s.mu.Unlock()
}

// Options returns the current build options.
func (s *Session) Options() toolchain.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.publish()
}

// Snapshot analyzes the current inputs.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	text, view, cursor, seq := s.text, s.view, s.cursor, s.seq
	status, failed := s.status, s.failed
	dialect := s.dialect
	if s.forced != nil {
		dialect = s.forced
	}
	s.mu.Unlock()

	return Snapshot{
		Result:  asm.Analyze(dialect, text, view, cursor),
		Seq:     seq,
		Status:  status,
		Failed:  failed,
		Config:  view,
		Cursor:  cursor,
		Dialect: dialect.Name,
	}
}

// Subscribe returns a channel receiving a snapshot after every change,
// starting with the current one. A slow reader only sees the latest
// snapshot. The channel is closed when ctx is done.
func (s *Session) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	snap := s.Snapshot()
	s.mu.Lock()
	if snap.Seq == s.seq && len(ch) == 0 {
		ch <- snap
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

func (s *Session) publish() {
	s.mu.Lock()
	s.seq++
	s.mu.Unlock()

	snap := s.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Seq != s.seq {
		// a newer publish is on its way
		return
	}
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Watch polls the source file and rebuilds, debounced, when it changes.
// It blocks until ctx is done.
func (s *Session) Watch(ctx context.Context, interval, debounce time.Duration) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	d := NewDebouncer(debounce, func() {
		if err := s.Rebuild(ctx); err != nil && ctx.Err() == nil {
			log.Debug("Rebuild failed", "path", s.path, "error", err)
		}
	})
	defer d.Stop()

	last := modTime(s.path)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mt := modTime(s.path)
			if !mt.Equal(last) {
				last = mt
				log.Debug("Source changed", "path", s.path)
				d.Trigger()
			}
		}
	}
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Copy returns the display lines joined by newlines.
func (s *Session) Copy() string {
	return strings.Join(s.Snapshot().View.Texts(), "\n")
}
