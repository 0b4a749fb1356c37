package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/logging"
	"github.com/gnemet/lookin/internal/navigation"
	"github.com/gnemet/lookin/internal/panel"
)

// errBadConfigName rejects configuration names that are paths.
var errBadConfigName = errors.New("invalid config name")

// outMessage is a server-to-browser websocket message.
type outMessage struct {
	Type    string           `json:"type"` // "hello", "view", "open_url", "error" or "fatal"
	Session string           `json:"session,omitempty"`
	View    *navigation.View `json:"view,omitempty"`
	URL     string           `json:"url,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// outbox queues messages for the connection writer. Views coalesce: only
// the newest snapshot is worth painting.
type outbox struct {
	mu     sync.Mutex
	view   *navigation.View
	queue  []outMessage
	notify chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1)}
}

func (o *outbox) ViewChanged(v navigation.View) {
	o.mu.Lock()
	if o.view == nil || v.Seq >= o.view.Seq {
		o.view = &v
	}
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) OpenURL(url string) {
	o.push(outMessage{Type: "open_url", URL: url})
}

func (o *outbox) push(m outMessage) {
	o.mu.Lock()
	o.queue = append(o.queue, m)
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// drain takes everything queued, the pending view last.
func (o *outbox) drain() []outMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queue
	o.queue = nil
	if o.view != nil {
		out = append(out, outMessage{Type: "view", View: o.view})
		o.view = nil
	}
	return out
}

// session is one connected page.
type session struct {
	id     string
	config string
	engine *navigation.Engine
	out    *outbox
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// validConfigName reports whether name is a bare configuration name.
func validConfigName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// openSession loads the named configuration and builds an engine for it.
// The engine is not started.
func (s *Server) openSession(ctx context.Context, name string) (*session, error) {
	if name == "" {
		name = s.cfg.DefaultConfig
	}
	if !validConfigName(name) {
		return nil, fmt.Errorf("%w: %q", errBadConfigName, name)
	}
	doc, err := layers.Load(ctx, s.fetcher, name)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := logging.Component(s.log, "session").With().Str("session", id).Str("config", name).Logger()
	out := newOutbox()
	pc := panel.NewController(s.fetcher, panel.Options{Markdown: s.cfg.Markdown, Logger: log, Metrics: s.metrics})
	engine := navigation.New(doc, s.dispatcher, pc, out, navigation.Options{
		Logger:   log,
		Metrics:  s.metrics,
		Debounce: s.cfg.Debounce,
		Lang:     s.cfg.Lang,
	})

	sctx, cancel := context.WithCancel(context.Background())
	sess := &session{id: id, config: name, engine: engine, out: out, ctx: sctx, cancel: cancel}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.metrics.SessionOpened()
	log.Info().Int("layers", len(doc.Layers)).Msg("session opened")
	return sess, nil
}

// closeSession waits for in-flight work and forgets the session.
func (s *Server) closeSession(sess *session) {
	sess.cancel()
	sess.wg.Wait()
	sess.engine.Close()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.metrics.SessionClosed()
	s.log.Info().Str("session", sess.id).Msg("session closed")
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// run executes fn in the background on behalf of the session. Errors are
// reported to the page.
func (sess *session) run(fn func(ctx context.Context) error) {
	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		if err := fn(sess.ctx); err != nil && sess.ctx.Err() == nil {
			sess.out.push(outMessage{Type: "error", Error: err.Error()})
		}
	}()
}
