package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canvas/internal/engine"
	"canvas/internal/serve"
	"canvas/internal/wire"
)

const recordedStream = `0:"Laying out the report."
2:{"sequence":1,"event":{"kind":"patch","patch":["set","/root","report"]}}
2:{"sequence":2,"event":{"kind":"patch","patch":["add","/elements/report",{"type":"Container"}]}}
2:{"sequence":3,"event":{"kind":"message","role":"assistant","content":"Laying out the report now."}}
d:[DONE]
`

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	api := serve.NewAPI(nil)
	api.ChunkSize = 17 // force mid-line cuts on the wire
	api.AddRecording(&serve.Recording{ID: "report", Stream: []byte(recordedStream)})
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDocumentSeedsTreeFromFlatForm(t *testing.T) {
	server := newFixtureServer(t)
	c := New(server.URL)

	tr, err := c.Document(context.Background(), "report")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if tr.Root != "report" || tr.Get("report") == nil {
		t.Fatalf("seeded tree = %#v", tr)
	}
}

func TestDocumentSurfacesServerError(t *testing.T) {
	server := newFixtureServer(t)
	c := New(server.URL)

	_, err := c.Document(context.Background(), "missing")
	apiErr, ok := err.(*apiError)
	if !ok {
		t.Fatalf("err = %v, want *apiError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message == "" {
		t.Fatalf("apiError = %#v", apiErr)
	}
}

func TestStreamDocumentDrivesEngineToDone(t *testing.T) {
	server := newFixtureServer(t)
	c := New(server.URL)
	eng := engine.New(engine.Options{})
	defer eng.Close()

	events, cancel, err := c.StreamDocument(context.Background(), "report", eng)
	if err != nil {
		t.Fatalf("StreamDocument: %v", err)
	}
	defer cancel()

	sawDone := false
	for event := range events {
		if event.Kind == wire.KindDone {
			sawDone = true
		}
	}
	if !sawDone {
		t.Fatalf("no done event on the channel")
	}

	waitForState(t, eng, engine.StateDone)
	if eng.FlushPatches().Root != "report" {
		t.Fatalf("tree not built from stream: %#v", eng.Tree())
	}
	turns := eng.Conversation()
	if len(turns) != 1 || turns[0].Role != "assistant" {
		t.Fatalf("conversation = %#v", turns)
	}
}

func TestStreamDocumentEngineAuthoritativeWithoutConsumer(t *testing.T) {
	// The event channel is a lossy tap; even if nobody drains it, the engine
	// must still reach its terminal state with the full document applied.
	server := newFixtureServer(t)
	c := New(server.URL)
	eng := engine.New(engine.Options{})
	defer eng.Close()

	_, cancel, err := c.StreamDocument(context.Background(), "report", eng)
	if err != nil {
		t.Fatalf("StreamDocument: %v", err)
	}
	defer cancel()

	waitForState(t, eng, engine.StateDone)
	if eng.FlushPatches().Root != "report" {
		t.Fatalf("tree not built without a channel consumer: %#v", eng.Tree())
	}
}

func TestStreamDocumentErrorOnUnknownID(t *testing.T) {
	server := newFixtureServer(t)
	c := New(server.URL)
	eng := engine.New(engine.Options{})
	defer eng.Close()

	if _, _, err := c.StreamDocument(context.Background(), "missing", eng); err == nil {
		t.Fatalf("expected an error for an unknown document")
	}
}

// waitForState polls: Finish runs on the reader goroutine slightly after the
// event channel closes.
func waitForState(t *testing.T, eng *engine.Engine, want engine.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if eng.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %q, want %q", eng.State(), want)
}
