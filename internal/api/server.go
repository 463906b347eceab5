// Package api is the HTTP request boundary of the demands service. It
// accepts scenario uploads, hands them to the core analyzer, and serializes
// the resulting analysis (or a client-facing error) back to the caller.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/orbitalworks/demands-service/core"
	"github.com/orbitalworks/demands-service/internal/logging"
	"github.com/orbitalworks/demands-service/internal/observability"
)

// Server exposes the demands analysis operations over HTTP.
type Server struct {
	analyzer *core.Analyzer
	timeout  time.Duration
	log      logging.Logger
	metrics  *observability.APICollector
}

// NewServer builds the API server around an analyzer. timeout is the
// wall-clock budget applied to each engine invocation; metrics may be nil.
func NewServer(analyzer *core.Analyzer, timeout time.Duration, log logging.Logger, metrics *observability.APICollector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		analyzer: analyzer,
		timeout:  timeout,
		log:      log,
		metrics:  metrics,
	}
}

// Handler returns the fully wired HTTP handler: routes plus request-ID and
// metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /demands-raw", s.handleRawDemands)
	mux.HandleFunc("POST /demands-agg", s.handleAggregatedDemands)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /docs", s.handleDocs)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	// The metrics middleware must wrap the mux directly: it reads the
	// matched route from r.Pattern after the mux fills it in, which only
	// works when both see the same request value.
	var handler http.Handler = mux
	if s.metrics != nil {
		handler = s.metrics.Middleware(handler)
	}
	handler = RequestIDMiddleware(s.log)(handler)
	return handler
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
}

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Demands Analysis Service</title></head>
<body style="font-family:system-ui;max-width:48rem;margin:2rem auto">
<h1>Demands Analysis Service</h1>
<p>Upload a scenario file to analyze resource demands.</p>
<ul>
<li><code>POST /demands-raw</code> &mdash; raw, per-moment demands. Multipart field <code>scenario_file</code>, optional <code>consume_resources</code> (default false).</li>
<li><code>POST /demands-agg</code> &mdash; demands aggregated to supply nodes and edges. Same parameters.</li>
<li><code>GET /healthz</code> &mdash; liveness probe.</li>
</ul>
</body></html>`)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
