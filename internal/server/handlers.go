package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path"
	"sort"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/navigation"
	"github.com/gnemet/lookin/internal/resource"
)

//go:embed static/index.html
var indexHTML []byte

//go:embed static/app.js
var appJS []byte

// handleIndex serves the embedded viewer page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleAppJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleAsset passes content resources (images, raw markup) through to the
// page.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	data, err := s.fetcher.Fetch(r.Context(), name)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found: "+name)
			return
		}
		s.log.Warn().Err(err).Str("asset", name).Msg("asset fetch failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

type sessionSummary struct {
	ID     string `json:"id"`
	Config string `json:"config"`
	Layer  string `json:"layer"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	out := make([]sessionSummary, 0, len(open))
	for _, sess := range open {
		h := sess.engine.History()
		sum := sessionSummary{ID: sess.id, Config: sess.config}
		if len(h) > 0 {
			sum.Layer = h[len(h)-1]
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.engine.View())
}

// handleJump is the global navigation entry point for other page
// components and scripts.
func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := sess.engine.JumpTo(r.Context(), chi.URLParam(r, "layer")); err != nil {
		if errors.Is(err, layers.ErrLayerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{View: sess.engine.View()})
}

type viewResponse struct {
	View navigation.View `json:"view"`
}

// observe logs every request and feeds the HTTP metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.ObserveHTTPRequest(r.Method, route, m.Code, m.Duration)

		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Int64("bytes", m.Written).
			Dur("duration", m.Duration.Round(time.Microsecond)).
			Msg("http_request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
