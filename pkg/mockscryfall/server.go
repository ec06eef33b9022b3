// Package mockscryfall serves a minimal Scryfall-like bulk-data API for tests
// and offline runs.
//
// GET /bulk-data lists every registered dataset. Each dataset's download_uri
// points at /bulk-data/{type}/download, which redirects to /files/{type}.json
// the way the real API redirects to its file host.
package mockscryfall

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Call records a request made to the mock service.
type Call struct {
	Method    string
	Path      string
	UserAgent string
}

// Failure is a canned response served instead of the real one.
type Failure struct {
	Status int
	Body   string
}

type dataset struct {
	typ       string
	body      []byte
	updatedAt time.Time
}

// Server implements the mock API.
type Server struct {
	mu       sync.Mutex
	calls    []Call
	datasets []dataset
	failures map[string][]Failure
	listing  []byte
}

// New returns a server with one oracle_cards dataset holding cards.
func New(cards []byte) *Server {
	s := &Server{failures: make(map[string][]Failure)}
	s.AddDataset("oracle_cards", cards)
	return s
}

// LoadFile returns a server serving the card array stored at path.
func LoadFile(path string) (*Server, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cards file: %w", err)
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("cards file %s is not valid JSON", path)
	}
	return New(b), nil
}

// AddDataset registers (or replaces) a dataset. Datasets are listed in the order
// they were first added.
func (s *Server) AddDataset(typ string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.datasets {
		if s.datasets[i].typ == typ {
			s.datasets[i].body = body
			s.datasets[i].updatedAt = time.Now().UTC()
			return
		}
	}
	s.datasets = append(s.datasets, dataset{typ: typ, body: body, updatedAt: time.Now().UTC()})
}

// FailNext queues a failure for the next request to path. Queued failures are
// served in order, one per request.
func (s *Server) FailNext(path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], f)
}

// SetListing replaces the /bulk-data response body verbatim. Nil restores the
// generated listing.
func (s *Server) SetListing(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listing = raw
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bulk-data", s.handleListing)
	mux.HandleFunc("/bulk-data/", s.handleDownload)
	mux.HandleFunc("/files/", s.handleFile)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, UserAgent: r.UserAgent()})
}

// injected serves a queued failure for the request path, if any.
func (s *Server) injected(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	queue := s.failures[r.URL.Path]
	if len(queue) == 0 {
		s.mu.Unlock()
		return false
	}
	f := queue[0]
	s.failures[r.URL.Path] = queue[1:]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Status)
	_, _ = w.Write([]byte(f.Body))
	return true
}

type bulkItem struct {
	Object          string    `json:"object"`
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	UpdatedAt       time.Time `json:"updated_at"`
	URI             string    `json:"uri"`
	Name            string    `json:"name"`
	Size            int       `json:"size"`
	DownloadURI     string    `json:"download_uri"`
	ContentType     string    `json:"content_type"`
	ContentEncoding string    `json:"content_encoding"`
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.injected(w, r) {
		return
	}

	s.mu.Lock()
	raw := s.listing
	datasets := make([]dataset, len(s.datasets))
	copy(datasets, s.datasets)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if raw != nil {
		_, _ = w.Write(raw)
		return
	}

	base := baseURL(r)
	items := make([]bulkItem, 0, len(datasets))
	for i, d := range datasets {
		items = append(items, bulkItem{
			Object:          "bulk_data",
			ID:              fmt.Sprintf("00000000-0000-0000-0000-%012d", i+1),
			Type:            d.typ,
			UpdatedAt:       d.updatedAt,
			URI:             base + "/bulk-data/" + d.typ,
			Name:            strings.ReplaceAll(d.typ, "_", " "),
			Size:            len(d.body),
			DownloadURI:     base + "/bulk-data/" + d.typ + "/download",
			ContentType:     "application/json",
			ContentEncoding: "gzip",
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object":   "list",
		"has_more": false,
		"data":     items,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	// /bulk-data/{type}/download
	rest := strings.TrimPrefix(r.URL.Path, "/bulk-data/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "download" {
		notFound(w)
		return
	}
	if s.injected(w, r) {
		return
	}
	if _, ok := s.lookup(parts[0]); !ok {
		notFound(w)
		return
	}
	http.Redirect(w, r, "/files/"+parts[0]+".json", http.StatusFound)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if s.injected(w, r) {
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/files/")
	typ, ok := strings.CutSuffix(name, ".json")
	if !ok || strings.Contains(typ, "/") {
		notFound(w)
		return
	}
	d, ok := s.lookup(typ)
	if !ok {
		notFound(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(d.body)
}

func (s *Server) lookup(typ string) (dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.datasets {
		if d.typ == typ {
			return d, true
		}
	}
	return dataset{}, false
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"code":    "not_found",
		"status":  http.StatusNotFound,
		"details": "No bulk data found for this path.",
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
