package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"liveasm/internal/session"
	"liveasm/pkg/asm"
	"liveasm/pkg/toolchain"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// inbound is a message from the viewer.
type inbound struct {
	Type           string `json:"type"`
	Syntax         string `json:"syntax,omitempty"`
	Opt            string `json:"opt,omitempty"`
	Raw            bool   `json:"raw,omitempty"`
	View           string `json:"view,omitempty"`
	HideDirectives bool   `json:"hideDirectives,omitempty"`
	Filter         string `json:"filter"`
	Line           int    `json:"line,omitempty"`
}

// outbound is a message to the viewer.
type outbound struct {
	Type           string            `json:"type"`
	Seq            uint64            `json:"seq,omitempty"`
	Lines          []asm.DisplayLine `json:"lines,omitempty"`
	Highlight      []int             `json:"highlight,omitempty"`
	Scroll         int               `json:"scroll"`
	View           string            `json:"view,omitempty"`
	HideDirectives bool              `json:"hideDirectives,omitempty"`
	Dialect        string            `json:"dialect,omitempty"`
	Status         string            `json:"status,omitempty"`
	Failed         bool              `json:"failed,omitempty"`
	Message        string            `json:"message,omitempty"`
}

// Server exposes one session to websocket viewers.
type Server struct {
	sess *session.Session
	mux  *http.ServeMux
}

func New(sess *session.Session) *Server {
	s := &Server{sess: sess, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /copy", s.handleCopy)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("Serving live view", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleCopy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.sess.Copy()))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		log.Warn("ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan outbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	snapshots := s.sess.Subscribe(ctx)
	go func() {
		for snap := range snapshots {
			push(writeCh, viewMessage(snap))
		}
	}()

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		if out, ok := s.handle(ctx, in); ok {
			push(writeCh, out)
		}
	}
}

// handle applies one inbound message. State changes reach the viewer
// through the subscription, so only replies, build status and errors are
// returned.
func (s *Server) handle(ctx context.Context, in inbound) (outbound, bool) {
	msgType := strings.TrimSpace(in.Type)
	switch msgType {
	case "ping":
		return outbound{Type: "pong"}, true
	case "cursor":
		s.sess.SetCursor(in.Line)
	case "setFilter":
		s.sess.SetFilter(in.Filter)
	case "setHideDirectives":
		s.sess.SetHideDirectives(in.HideDirectives)
	case "setView":
		if strings.TrimSpace(in.View) == "" {
			return outbound{Type: "error", Message: "view is required"}, true
		}
		mode, err := asm.ParseMode(in.View)
		if err != nil {
			return errorMessage(err), true
		}
		s.sess.SetView(mode)
	case "setSyntax":
		syntax, err := toolchain.ParseSyntax(in.Syntax)
		if err != nil {
			return errorMessage(err), true
		}
		s.sess.SetSyntax(syntax)
		return s.rebuild(ctx), true
	case "setOpt":
		opt, err := toolchain.ParseOpt(in.Opt)
		if err != nil {
			return errorMessage(err), true
		}
		s.sess.SetOpt(opt)
		return s.rebuild(ctx), true
	case "setRaw":
		s.sess.SetRaw(in.Raw)
		return s.rebuild(ctx), true
	case "requestRebuild":
		return s.rebuild(ctx), true
	case "":
		return outbound{Type: "error", Message: "type is required"}, true
	default:
		return outbound{Type: "error", Message: "unsupported type: " + msgType}, true
	}
	return outbound{}, false
}

// rebuild runs in the background; a failed build is reported through the
// session state like any other result.
func (s *Server) rebuild(ctx context.Context) outbound {
	go func() {
		if err := s.sess.Rebuild(ctx); err != nil {
			log.Debug("Rebuild failed", "error", err)
		}
	}()
	return outbound{Type: "status", Status: "Building..."}
}

func viewMessage(snap session.Snapshot) outbound {
	return outbound{
		Type:           "view",
		Seq:            snap.Seq,
		Lines:          snap.View.Lines,
		Highlight:      snap.Highlight,
		Scroll:         snap.Scroll,
		View:           snap.Config.Mode.String(),
		HideDirectives: snap.Config.HideDirectives,
		Dialect:        snap.Dialect,
		Status:         snap.Status,
		Failed:         snap.Failed,
	}
}

func errorMessage(err error) outbound {
	return outbound{Type: "error", Message: err.Error()}
}

// push never blocks: when the queue is full the oldest message is dropped.
func push(writeCh chan outbound, out outbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
