package synthetic

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/okian/xpts/internal/adapters/source"
)

// Server serves a season's documents under the FPL API paths.
type Server struct {
	docs     map[string][]byte
	requests atomic.Int64
	failing  map[int]bool
}

// NewServer prepares a server for s. Summaries for the players in failing
// answer 500.
func NewServer(s *Season, failing ...int) (*Server, error) {
	docs, err := s.Documents()
	if err != nil {
		return nil, err
	}
	srv := &Server{docs: docs, failing: make(map[int]bool, len(failing))}
	for _, id := range failing {
		srv.failing[id] = true
	}
	return srv, nil
}

// Requests returns the number of requests served so far.
func (s *Server) Requests() int64 { return s.requests.Load() }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bootstrap-static/", func(w http.ResponseWriter, _ *http.Request) {
		s.serve(w, source.BootstrapFile)
	})
	mux.HandleFunc("GET /fixtures/", func(w http.ResponseWriter, _ *http.Request) {
		s.serve(w, source.FixturesFile)
	})
	mux.HandleFunc("GET /element-summary/{id}/", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			s.requests.Add(1)
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if s.failing[id] {
			s.requests.Add(1)
			http.Error(w, "upstream failure", http.StatusInternalServerError)
			return
		}
		s.serve(w, source.SummaryFile(id))
	})
	return mux
}

func (s *Server) serve(w http.ResponseWriter, rel string) {
	s.requests.Add(1)
	b, ok := s.docs[rel]
	if !ok {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
