package live

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loom-ui/loom/internal/htmlmin"
	"github.com/loom-ui/loom/pkg/engine"
	"github.com/loom-ui/loom/pkg/live/protocol"
	"github.com/loom-ui/loom/pkg/loop"
	"github.com/loom-ui/loom/pkg/middleware"
	"github.com/loom-ui/loom/pkg/template"
)

// View builds the root fragment for a new session. It is called once
// per session, on the session's own loop.
type View func() (*template.Fragment, error)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 64
)

// Session binds one WebSocket connection to one rendered instance.
// All reactive state lives on the session's loop goroutine; the read
// and write goroutines only move frames.
type Session struct {
	// ID is the session identifier sent in the hello frame.
	ID string

	conn   *websocket.Conn
	loop   *loop.Loop
	engine *engine.Engine
	inst   *engine.Instance
	chain  middleware.Middleware

	send   chan protocol.Frame
	done   chan struct{}
	closed atomic.Bool
	minify bool

	// patchPending coalesces patch pushes; only touched on the loop.
	patchPending bool

	lastActive atomic.Int64

	cancel  context.CancelFunc
	onClose func(*Session)
	logger  *slog.Logger
}

// newSession creates the session, starts its loop, and renders the
// view on it. The connection is not read from yet; call Run.
func newSession(conn *websocket.Conn, view View, chain middleware.Middleware, minify bool, logger *slog.Logger) (*Session, error) {
	s := &Session{
		ID:     newSessionID(),
		conn:   conn,
		loop:   loop.New(),
		chain:  chain,
		send:   make(chan protocol.Frame, sendBuffer),
		done:   make(chan struct{}),
		minify: minify,
		logger: logger,
	}
	s.logger = s.logger.With("session_id", s.ID)
	s.engine = engine.New(s.loop, engine.WithLogger(s.logger))
	s.touch()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop.Run(ctx)

	// Render on the loop so all tree mutation stays on one goroutine.
	type result struct {
		inst *engine.Instance
		err  error
	}
	rc := make(chan result, 1)
	s.loop.Post(func() {
		frag, err := view()
		if err != nil {
			rc <- result{err: err}
			return
		}
		inst, err := s.engine.Render(frag)
		if err == nil {
			// Deferred turns the instance schedules (debounced list
			// passes) push their own patch when they land.
			inst.OnUpdate(s.schedulePatch)
		}
		rc <- result{inst: inst, err: err}
	})
	res := <-rc
	if res.err != nil {
		cancel()
		return nil, res.err
	}
	s.inst = res.inst
	return s, nil
}

// Run sends the hello frame and blocks reading client frames until the
// connection closes. The writer goroutine is started here.
func (s *Session) Run() {
	go s.writeLoop()

	html, err := s.snapshot()
	if err != nil {
		s.logger.Error("initial render failed", "error", err)
		s.Send(protocol.Error(err))
		s.Close()
		return
	}
	s.Send(protocol.Hello(s.ID, html))

	s.readLoop()
}

// Send queues a frame for the writer. Frames are dropped once the
// session is closed or the buffer is full.
func (s *Session) Send(f protocol.Frame) {
	if s.closed.Load() {
		return
	}
	select {
	case s.send <- f:
	default:
		s.logger.Warn("send buffer full, dropping frame", "kind", f.Kind)
	}
}

func (s *Session) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(protocol.MaxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.touch()

		frame, err := protocol.Decode(msg)
		if err != nil {
			s.logger.Warn("bad frame", "error", err)
			s.Send(protocol.Error(err))
			continue
		}
		if frame.Kind != protocol.KindEvent {
			s.logger.Warn("unexpected frame kind", "kind", frame.Kind)
			continue
		}
		s.handleEvent(frame)
	}
}

// handleEvent runs the middleware chain around dispatch. Dispatch
// queues the handler on the loop; the patch push is posted afterwards
// so it runs on the turn following the handler.
func (s *Session) handleEvent(f protocol.Frame) {
	ev := middleware.Event{Session: s.ID, Node: f.Node, Type: f.Event}

	next := func() error {
		errc := make(chan error, 1)
		s.loop.Post(func() {
			errc <- s.inst.Dispatch(f.Node, f.Event, f.Data)
		})
		if err := <-errc; err != nil {
			return err
		}
		s.loop.Post(s.schedulePatch)
		return nil
	}

	var err error
	if s.chain != nil {
		err = s.chain(ev, next)
	} else {
		err = next()
	}
	if err != nil {
		s.logger.Warn("event dispatch failed",
			"node", f.Node, "event", f.Event, "error", err)
		s.Send(protocol.Error(err))
	}
}

// schedulePatch runs on the loop. It posts one patch push behind
// whatever turns are already queued, so a handler's same-burst
// reconcile passes are rendered before the patch goes out.
func (s *Session) schedulePatch() {
	if s.patchPending {
		return
	}
	s.patchPending = true
	s.loop.Post(func() {
		s.patchPending = false
		s.pushPatch()
	})
}

// pushPatch runs on the loop.
func (s *Session) pushPatch() {
	html, err := s.inst.HTML()
	if err != nil {
		s.logger.Error("render failed", "error", err)
		return
	}
	if s.minify {
		html = htmlmin.Minify(html)
	}
	s.Send(protocol.Patch(html))
	middleware.RecordPatches(1)
}

// snapshot renders the current HTML on the loop and waits for it.
func (s *Session) snapshot() (string, error) {
	type result struct {
		html string
		err  error
	}
	rc := make(chan result, 1)
	s.loop.Post(func() {
		html, err := s.inst.HTML()
		rc <- result{html, err}
	})
	res := <-rc
	if res.err == nil && s.minify {
		res.html = htmlmin.Minify(res.html)
	}
	return res.html, res.err
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-s.send:
			data, err := protocol.Encode(f)
			if err != nil {
				s.logger.Error("encode error", "error", err)
				continue
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Error("write error", "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// Close tears the session down: dispose the instance on the loop, stop
// the loop, close the connection. Idempotent.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)

	s.loop.Post(func() {
		if s.inst != nil {
			s.inst.Dispose()
		}
		s.cancel()
	})

	s.conn.Close()
	if s.onClose != nil {
		s.onClose(s)
	}
	s.logger.Info("session closed")
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last client frame.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a time-derived id; collisions are vanishingly
		// unlikely within one process.
		return base64.RawURLEncoding.EncodeToString(
			[]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
