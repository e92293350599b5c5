// Package client is the transport edge of the engine: it opens the document
// stream over HTTP and hands raw body chunks to an Engine as they arrive.
// Everything below line framing lives here, outside the core.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"canvas/internal/engine"
	"canvas/internal/tree"
	"canvas/internal/wire"
)

const defaultBaseURL = "http://127.0.0.1:8484"

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func decodeAPIError(resp *http.Response) error {
	out := &apiError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		out.Message = body.Error
	}
	return out
}

// Document fetches the current flattened document and rebuilds the tree from
// it. Used to seed state before attaching to the live stream.
func (c *Client) Document(ctx context.Context, id string) (*tree.Tree, error) {
	url := fmt.Sprintf("%s/v1/documents/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}
	var body struct {
		Elements []tree.FlatElement `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return tree.FromFlat(body.Elements), nil
}

// StreamDocument attaches eng to the live stream for id. Raw body chunks are
// fed straight into the engine; the parsed events come back on the returned
// channel in arrival order. The channel is a lossy notification tap: when a
// consumer falls behind its buffer, events are dropped rather than stalling
// the read loop, so the engine handle — not this channel — is the source of
// truth for tree, conversation, and error state. When the body ends, the
// engine is finished with whatever termination the stream actually signaled,
// so a drop without a done event is observable as an interrupted state.
func (c *Client) StreamDocument(ctx context.Context, id string, eng *engine.Engine) (<-chan wire.StreamEvent, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	url := fmt.Sprintf("%s/v1/documents/%s/stream", c.baseURL, id)
	streamLogf("stream open id=%s url=%s", id, url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The handle's timeout would kill a long-lived stream.
	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		streamLogf("stream open error id=%s status=%d", id, resp.StatusCode)
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan wire.StreamEvent, 256)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		start := time.Now()
		count := 0
		sawDone := false
		buf := make([]byte, 32*1024)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				for _, event := range eng.ProcessChunk(string(buf[:n])) {
					if event.Kind == wire.KindDone {
						sawDone = true
					}
					select {
					case ch <- event:
					default:
					}
					count++
				}
			}
			if err != nil {
				if err != io.EOF {
					streamLogf("stream read error id=%s err=%v", id, err)
				}
				break
			}
		}
		state := eng.Finish(sawDone)
		streamLogf("stream close id=%s events=%d state=%s dur=%s", id, count, state, time.Since(start))
	}()

	return ch, cancel, nil
}
