package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveasm/internal/session"
	"liveasm/pkg/asm"
)

const listing = ".text\nmain:\n\t.loc 1 2 0\n\tmovl\t$0, %eax\n\tret\n\t.loc 1 3 0\n\tnop\n"

func newTestServer(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x.s")
	require.NoError(t, os.WriteFile(path, []byte(listing), 0644))

	sess, err := session.New(session.Config{
		Path: path,
		View: asm.ViewConfig{Mode: asm.Instructions, HideDirectives: true},
	})
	require.NoError(t, err)
	require.NoError(t, sess.Rebuild(context.Background()))

	ts := httptest.NewServer(New(sess))
	t.Cleanup(ts.Close)
	return ts, sess
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(outbound) bool) outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var out outbound
		require.NoError(t, conn.ReadJSON(&out))
		if match(out) {
			return out
		}
	}
}

func TestViewOnConnect(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	out := readUntil(t, conn, func(o outbound) bool { return o.Type == "view" })
	require.Len(t, out.Lines, 4)
	assert.Equal(t, "main:", out.Lines[0].Text)
	assert.Equal(t, 1, out.Lines[0].OriginalIndex)
	assert.Equal(t, "instructions", out.View)
	assert.True(t, out.HideDirectives)
	assert.Equal(t, "gnu", out.Dialect)
}

func TestCursorMovesHighlight(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, func(o outbound) bool { return o.Type == "view" })

	require.NoError(t, conn.WriteJSON(inbound{Type: "cursor", Line: 2}))
	out := readUntil(t, conn, func(o outbound) bool { return o.Type == "view" && len(o.Highlight) > 0 })
	assert.Equal(t, []int{1, 2}, out.Highlight)
	assert.Equal(t, 1, out.Scroll)

	require.NoError(t, conn.WriteJSON(inbound{Type: "cursor", Line: 3}))
	out = readUntil(t, conn, func(o outbound) bool {
		return o.Type == "view" && len(o.Highlight) == 1
	})
	assert.Equal(t, []int{3}, out.Highlight)
}

func TestViewSwitch(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, func(o outbound) bool { return o.Type == "view" })

	require.NoError(t, conn.WriteJSON(inbound{Type: "setView", View: "annotated"}))
	out := readUntil(t, conn, func(o outbound) bool { return o.Type == "view" && o.View == "annotated" })
	assert.False(t, out.HideDirectives)
	assert.Len(t, out.Lines, 8)

	require.NoError(t, conn.WriteJSON(inbound{Type: "setFilter", Filter: " MOVL "}))
	out = readUntil(t, conn, func(o outbound) bool { return o.Type == "view" && len(o.Lines) == 1 })
	assert.Equal(t, "\tmovl\t$0, %eax", out.Lines[0].Text)
}

func TestPingAndErrors(t *testing.T) {
	ts, sess := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(inbound{Type: "ping"}))
	readUntil(t, conn, func(o outbound) bool { return o.Type == "pong" })

	require.NoError(t, conn.WriteJSON(inbound{Type: "setView", View: "sideways"}))
	out := readUntil(t, conn, func(o outbound) bool { return o.Type == "error" })
	assert.NotEmpty(t, out.Message)

	require.NoError(t, conn.WriteJSON(inbound{Type: "setView", View: "annotated"}))
	readUntil(t, conn, func(o outbound) bool { return o.Type == "view" && o.View == "annotated" })
	require.NoError(t, conn.WriteJSON(inbound{Type: "setView"}))
	out = readUntil(t, conn, func(o outbound) bool { return o.Type == "error" })
	assert.Equal(t, "view is required", out.Message)
	assert.Equal(t, asm.Annotated, sess.Snapshot().Config.Mode)

	require.NoError(t, conn.WriteJSON(inbound{Type: "launch"}))
	out = readUntil(t, conn, func(o outbound) bool { return o.Type == "error" })
	assert.Equal(t, "unsupported type: launch", out.Message)
}

func TestRequestRebuild(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(inbound{Type: "requestRebuild"}))

	// the status reply and the rebuilt view may arrive in either order
	var status, view *outbound
	readUntil(t, conn, func(o outbound) bool {
		switch {
		case o.Type == "status":
			status = &o
		case o.Type == "view" && o.Seq > 1:
			view = &o
		}
		return status != nil && view != nil
	})
	assert.Equal(t, "Building...", status.Status)
	assert.False(t, view.Failed)
	assert.Len(t, view.Lines, 4)
}

func TestCopy(t *testing.T) {
	ts, sess := newTestServer(t)
	sess.SetFilter("ret")

	resp, err := http.Get(ts.URL + "/copy")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "\tret", string(body))
}

func TestPushDropsOldest(t *testing.T) {
	ch := make(chan outbound, 2)
	push(ch, outbound{Type: "a"})
	push(ch, outbound{Type: "b"})
	push(ch, outbound{Type: "c"})

	assert.Equal(t, "b", (<-ch).Type)
	assert.Equal(t, "c", (<-ch).Type)
}
