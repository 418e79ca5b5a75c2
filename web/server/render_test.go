package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

// readEvents collects SSE events until the stream ends
func readEvents(t *testing.T, url string) map[string][]string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream, got %q", ct)
	}

	events := make(map[string][]string)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var eventType string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			events[eventType] = append(events[eventType], strings.TrimPrefix(line, "data: "))
		}
	}
	return events
}

func TestHandleRender_StreamsEveryBlock(t *testing.T) {
	ts := newTestServer(t)

	events := readEvents(t, ts.URL+"/api/render?scene=ground&width=32&aspect=2&spp=1&maxDepth=3&blockSize=8&workers=2&thumbnail=8")

	if len(events["error"]) != 0 {
		t.Fatalf("Unexpected error events: %v", events["error"])
	}
	if len(events["start"]) != 1 {
		t.Fatalf("Expected one start event, got %d", len(events["start"]))
	}

	// 32x16 in blocks of 8
	if len(events["block"]) != 8 {
		t.Errorf("Expected 8 block events, got %d", len(events["block"]))
	}
	covered := make(map[[2]int]bool)
	for _, data := range events["block"] {
		var update BlockUpdate
		if err := json.Unmarshal([]byte(data), &update); err != nil {
			t.Fatalf("Failed to decode block: %v", err)
		}
		if update.TotalBlocks != 8 || update.ImageData == "" {
			t.Errorf("Unexpected block update %+v", update)
		}
		covered[[2]int{update.X, update.Y}] = true
	}
	if len(covered) != 8 {
		t.Errorf("Expected 8 distinct blocks, got %d", len(covered))
	}

	if len(events["complete"]) != 1 {
		t.Fatalf("Expected one complete event, got %d", len(events["complete"]))
	}
	var complete CompleteUpdate
	if err := json.Unmarshal([]byte(events["complete"][0]), &complete); err != nil {
		t.Fatal(err)
	}
	if complete.CompletedBlocks != 8 || complete.Rays == 0 || complete.Thumbnail == "" {
		t.Errorf("Unexpected completion %+v", complete)
	}
}

func TestHandleRender_InvalidRequest(t *testing.T) {
	ts := newTestServer(t)

	events := readEvents(t, ts.URL+"/api/render?spp=0")
	if len(events["error"]) != 1 {
		t.Errorf("Expected one error event, got %v", events)
	}
	if len(events["block"]) != 0 {
		t.Errorf("Expected no blocks, got %d", len(events["block"]))
	}
}

func TestHandleRender_UnknownScene(t *testing.T) {
	ts := newTestServer(t)

	events := readEvents(t, ts.URL+"/api/render?scene=nonexistent")
	if len(events["error"]) != 1 || !strings.Contains(events["error"][0], "unknown scene") {
		t.Errorf("Expected unknown scene error, got %v", events["error"])
	}
}

func TestHandleRender_ClientDisconnectStopsRender(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		ts.URL+"/api/render?scene=weekend&width=200&spp=500&blockSize=16&workers=2", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if scanner.Text() == "event: start" {
			break
		}
	}
	cancel()
	resp.Body.Close()

	// Close waits for the handler, which waits for the workers
	closed := make(chan struct{})
	go func() {
		ts.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(20 * time.Second):
		t.Fatal("Render did not stop after the client disconnected")
	}
}
