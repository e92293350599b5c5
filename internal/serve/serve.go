// Package serve is a development fixture server: it exposes recorded stream
// files over the same HTTP surface the real document backend uses, so the UI
// and client can be run and tested against canned sessions.
package serve

import (
	"net/http"
	"strings"
	"time"

	"canvas/internal/engine"
	"canvas/internal/logging"
)

// Recording is one servable document: the raw stream bytes exactly as they
// were captured, line framing included.
type Recording struct {
	ID     string
	Stream []byte
}

type API struct {
	Logger logging.Logger

	// ChunkSize splits the replayed stream into body writes; it deliberately
	// does not align with line boundaries so consumers get realistic framing.
	ChunkSize int

	// Delay paces the replay between chunks. Zero replays at full speed.
	Delay time.Duration

	recordings map[string]*Recording
}

func NewAPI(log logging.Logger) *API {
	if log == nil {
		log = logging.Nop()
	}
	return &API{
		Logger:     log,
		ChunkSize:  512,
		recordings: map[string]*Recording{},
	}
}

func (a *API) AddRecording(rec *Recording) {
	if rec == nil || rec.ID == "" {
		return
	}
	a.recordings[rec.ID] = rec
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.Health)
	mux.HandleFunc("/v1/documents/", a.DocumentByID)
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"documents": len(a.recordings),
	})
}

func (a *API) DocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}
	rec := a.recordings[id]
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such document"})
		return
	}
	switch tail {
	case "":
		a.document(w, rec)
	case "stream":
		a.stream(w, r, rec)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

// document returns the flattened form of the document the recording produces,
// computed by replaying the whole recording through an engine.
func (a *API) document(w http.ResponseWriter, rec *Recording) {
	eng := engine.New(engine.Options{Logger: a.Logger})
	defer eng.Close()
	eng.ProcessChunk(string(rec.Stream))
	eng.Finish(false)
	flat := eng.Tree().Flatten()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       rec.ID,
		"elements": flat,
	})
}

func (a *API) stream(w http.ResponseWriter, r *http.Request, rec *Recording) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	chunk := a.ChunkSize
	if chunk <= 0 {
		chunk = 512
	}
	a.Logger.Debug("replay stream open",
		logging.F("id", rec.ID), logging.F("bytes", len(rec.Stream)))

	ctx := r.Context()
	data := rec.Stream
	for len(data) > 0 {
		if ctx.Err() != nil {
			return
		}
		n := chunk
		if n > len(data) {
			n = len(data)
		}
		if _, err := w.Write(data[:n]); err != nil {
			return
		}
		flusher.Flush()
		data = data[n:]
		if a.Delay > 0 && len(data) > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(a.Delay):
			}
		}
	}
}
