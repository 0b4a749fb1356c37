package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 64 << 10

// checkOrigin admits handshakes without an Origin header, from the page's
// own host, or from an allowlisted origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return originAllowed(strings.ToLower(origin), s.allowedOrigins())
}

func originAllowed(origin string, allowed []string) bool {
	for _, pattern := range allowed {
		pattern = strings.ToLower(pattern)
		if pattern == "*" || pattern == origin {
			return true
		}
		prefix, suffix, ok := strings.Cut(pattern, "*")
		if ok && len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// inMessage is a browser-to-server websocket message.
type inMessage struct {
	Type    string `json:"type"`
	Layer   string `json:"layer,omitempty"`
	Catalog string `json:"catalog,omitempty"`
	Node    string `json:"node,omitempty"`
	Index   int    `json:"index,omitempty"`
	Key     string `json:"key,omitempty"`
	InInput bool   `json:"in_input,omitempty"`
	File    string `json:"file,omitempty"`
}

// handleWebSocket runs one viewer session per connection. The optional
// ?config= query parameter selects the layer configuration.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	sess, err := s.openSession(r.Context(), r.URL.Query().Get("config"))
	if err != nil {
		s.log.Error().Err(err).Msg("config load failed")
		_ = conn.WriteJSON(outMessage{Type: "fatal", Error: err.Error()})
		return
	}
	defer s.closeSession(sess)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(sess, conn)
	}()

	sess.out.push(outMessage{Type: "hello", Session: sess.id})
	sess.run(sess.engine.Start)

	for {
		var msg inMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Str("session", sess.id).Msg("websocket read")
			}
			break
		}
		s.dispatch(sess, msg)
	}

	sess.cancel()
	<-writerDone
}

// writeLoop is the only writer of conn once the session is open.
func (s *Server) writeLoop(sess *session, conn *websocket.Conn) {
	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-sess.out.notify:
		}
		for _, m := range sess.out.drain() {
			if err := conn.WriteJSON(m); err != nil {
				s.log.Debug().Err(err).Str("session", sess.id).Msg("websocket write")
				sess.cancel()
				return
			}
		}
	}
}

// dispatch routes one browser event. Clicks are handled inline since they
// only arm click machines; anything that fetches runs in the background.
func (s *Server) dispatch(sess *session, msg inMessage) {
	e := sess.engine
	switch msg.Type {
	case "click":
		e.Click(msg.Node)
	case "dblclick":
		e.DoubleClick(msg.Node)
	case "region":
		idx := msg.Index
		sess.run(func(context.Context) error {
			e.ClickRegion(idx)
			return nil
		})
	case "goto":
		sess.run(func(ctx context.Context) error { return e.GoTo(ctx, msg.Layer, msg.Catalog) })
	case "jump":
		sess.run(func(ctx context.Context) error { return e.JumpTo(ctx, msg.Layer) })
	case "back":
		sess.run(func(ctx context.Context) error {
			_, err := e.GoBack(ctx)
			return err
		})
	case "home":
		sess.run(e.Home)
	case "key":
		sess.run(func(ctx context.Context) error {
			_, err := e.Key(ctx, msg.Key, msg.InInput)
			return err
		})
	case "lang":
		e.ToggleLang()
	case "close_panel":
		e.ClosePanel()
	case "open_doc":
		sess.run(func(ctx context.Context) error {
			e.OpenDoc(ctx, msg.File)
			return nil
		})
	case "open_catalog":
		sess.run(func(ctx context.Context) error {
			e.OpenCatalog(ctx, msg.File)
			return nil
		})
	default:
		sess.out.push(outMessage{Type: "error", Error: "unknown message type: " + msg.Type})
	}
}
