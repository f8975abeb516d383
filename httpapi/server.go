// Package httpapi is the optional, read-only status/events diagnostics
// surface a long-running "forge serve" process can expose (§6 ambient
// addition). It never evaluates configuration or drives a build, it only
// reports on one already in progress.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/engine/graph"
)

// GraphSource resolves a target job identifier into the layered execution
// graph, so /graph/{job} can render it without re-running the build.
type GraphSource interface {
	GetExecutionLayers(targetJobID string) ([]graph.ExecutionLayer, error)
	ToMermaid() string
}

// Server exposes the Engine's graph and event bus over HTTP.
type Server struct {
	graph GraphSource
	bus   *eventbus.Bus
	mux   *chi.Mux
}

func New(g GraphSource, bus *eventbus.Bus) *Server {
	s := &Server{graph: g, bus: bus}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/graph/{job}", s.handleGraph)
		r.Get("/events", s.handleEvents)
	})

	s.mux = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type graphResponse struct {
	TargetJobID string   `json:"target_job_id"`
	Mermaid     string   `json:"mermaid"`
	Layers      [][]string `json:"layers"`
}

// handleGraph computes the execution layers for the target job and
// renders both a structured layer list and the full-graph Mermaid
// diagram for diagnostics.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "job")

	layers, err := s.graph.GetExecutionLayers(target)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}

	resp := graphResponse{TargetJobID: target, Mermaid: s.graph.ToMermaid()}
	for _, layer := range layers {
		ids := make([]string, 0, len(layer.Nodes))
		for _, n := range layer.Nodes {
			ids = append(ids, n.ID)
		}
		resp.Layers = append(resp.Layers, ids)
	}
	render.JSON(w, r, resp)
}

// handleEvents streams the event bus as newline-delimited JSON until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	sink := eventbus.NewNDJSONSink(flushWriter{w: w, f: flusher})
	token := s.bus.AddSink(sink)
	defer s.bus.RemoveSink(token)

	<-r.Context().Done()
}

type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	fw.f.Flush()
	return n, err
}
