package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-spiral-raytracer/pkg/renderer"
)

const pollInterval = 50 * time.Millisecond

// RenderRequest represents a render request from the client
type RenderRequest struct {
	SceneRequest
	SamplesPerPixel int   `json:"samplesPerPixel"`
	MaxDepth        int   `json:"maxDepth"`
	BlockSize       int   `json:"blockSize"`
	Workers         int   `json:"workers"`
	Seed            int64 `json:"seed"`
	Packets         bool  `json:"packets"`
	Thumbnail       int   `json:"thumbnail"` // Width of the final preview, 0 for none
}

// BlockUpdate represents a single completed block sent via SSE
type BlockUpdate struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageData   string `json:"imageData"`   // Base64 encoded PNG of just this block
	BlockNumber int    `json:"blockNumber"` // 1-based arrival order
	TotalBlocks int    `json:"totalBlocks"`
}

// CompleteUpdate is sent once the workers have exited
type CompleteUpdate struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	CompletedBlocks int     `json:"completedBlocks"`
	TotalBlocks     int     `json:"totalBlocks"`
	Rays            uint64  `json:"rays"`
	MRaysPerSecond  float64 `json:"mraysPerSecond"`
	ElapsedMs       int64   `json:"elapsedMs"`
	Workers         int     `json:"workers"`
	Thumbnail       string  `json:"thumbnail,omitempty"` // Base64 encoded PNG
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "start", "block", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender renders a frame and streams every completed block via SSE.
// A client disconnect stops the render.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	events := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, events)
	}()

	consoleChan := make(chan ConsoleMessage, 50)
	consoleCtx, stopConsole := context.WithCancel(ctx)
	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		s.streamConsoleMessages(consoleCtx, consoleChan, events)
	}()

	defer func() {
		stopConsole()
		consoleWG.Wait()
		close(events)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendEvent(ctx, events, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan, s.logger)

	rnd, err := s.newRenderer(req, webLogger)
	if err != nil {
		s.sendEvent(ctx, events, "error", err.Error())
		return
	}

	if err := rnd.Start(ctx); err != nil {
		s.sendEvent(ctx, events, "error", err.Error())
		return
	}
	defer rnd.Stop()

	stats := rnd.Stats()
	s.sendJSON(ctx, events, "start", map[string]int{
		"width":       stats.Width,
		"height":      stats.Height,
		"totalBlocks": stats.TotalBlocks,
	})

	s.streamBlocks(ctx, events, rnd, req)
}

// streamBlocks polls the renderer until the workers exit or the client leaves
func (s *Server) streamBlocks(ctx context.Context, events chan<- SSEEvent, rnd *renderer.Renderer, req *RenderRequest) {
	stats := rnd.Stats()
	frame := renderer.NewFrame(stats.Width, stats.Height)
	sent := 0

	flush := func() {
		for _, block := range rnd.Poll() {
			frame.Merge(block)
			sent++
			s.sendBlock(ctx, events, block, sent, stats.TotalBlocks)
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("client disconnected after %d/%d blocks", sent, stats.TotalBlocks)
			rnd.Stop()
			return
		case <-ticker.C:
			flush()
		case <-rnd.Done():
			flush()
			s.sendComplete(ctx, events, rnd.Stats(), frame, req.Thumbnail)
			return
		}
	}
}

func (s *Server) sendBlock(ctx context.Context, events chan<- SSEEvent, block *renderer.RenderBlock, number, total int) {
	imageData, err := imageToBase64PNG(block.Image())
	if err != nil {
		s.logger.Errorf("encoding block (%d, %d): %v", block.X, block.Y, err)
		return
	}
	s.sendJSON(ctx, events, "block", BlockUpdate{
		X:           block.X,
		Y:           block.Y,
		Width:       block.Width,
		Height:      block.Height,
		ImageData:   imageData,
		BlockNumber: number,
		TotalBlocks: total,
	})
}

func (s *Server) sendComplete(ctx context.Context, events chan<- SSEEvent, stats renderer.RenderStats, frame *renderer.Frame, thumbnailWidth int) {
	update := CompleteUpdate{
		Width:           stats.Width,
		Height:          stats.Height,
		CompletedBlocks: stats.CompletedBlocks,
		TotalBlocks:     stats.TotalBlocks,
		Rays:            stats.Rays,
		MRaysPerSecond:  stats.RaysPerSecond() / 1e6,
		ElapsedMs:       stats.Elapsed.Milliseconds(),
		Workers:         stats.Workers,
	}

	if thumbnailWidth > 0 && frame.Width > 0 {
		height := max(1, thumbnailWidth*frame.Height/frame.Width)
		thumbnail, err := imageToBase64PNG(frame.Scaled(thumbnailWidth, height))
		if err != nil {
			s.logger.Errorf("encoding thumbnail: %v", err)
		} else {
			update.Thumbnail = thumbnail
		}
	}

	s.sendJSON(ctx, events, "complete", update)
}

// newRenderer builds the requested scene and a renderer for it
func (s *Server) newRenderer(req *RenderRequest, logger *WebLogger) (*renderer.Renderer, error) {
	sc, err := buildScene(&req.SceneRequest)
	if err != nil {
		return nil, err
	}

	opts := renderer.Options{
		Width:           sc.SamplingConfig.Width,
		Height:          sc.SamplingConfig.Height,
		BlockSize:       req.BlockSize,
		SamplesPerPixel: req.SamplesPerPixel,
		MaxDepth:        req.MaxDepth,
		NumWorkers:      req.Workers,
		Seed:            req.Seed,
		PacketTracing:   req.Packets,
	}
	return renderer.NewRenderer(sc, opts, logger)
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, &req.SceneRequest); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	var err error
	if req.SamplesPerPixel, err = parseIntParam(query, "spp", 16, minSamples, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", 50, minDepth, maxDepth); err != nil {
		return nil, err
	}
	if req.BlockSize, err = parseIntParam(query, "blockSize", 32, minBlockSize, maxBlockSize); err != nil {
		return nil, err
	}
	if req.Workers, err = parseIntParam(query, "workers", 0, 0, 256); err != nil {
		return nil, err
	}
	if req.Thumbnail, err = parseIntParam(query, "thumbnail", 0, 0, maxThumbnail); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", 1, 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	if req.Packets, err = parseBoolParam(query, "packets"); err != nil {
		return nil, err
	}

	if req.Width > 800 && req.SamplesPerPixel > 100 {
		s.logger.Warningf("large image with high samples may render slowly")
	}

	return req, nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents is the only writer of w. It drains events until the channel
// is closed, discarding them once the client is gone.
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, events <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	failed := false

	for event := range events {
		if failed || ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			failed = true
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards renderer log lines as console events
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, events chan<- SSEEvent) {
	for {
		select {
		case msg := <-consoleChan:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			select {
			case events <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) sendJSON(ctx context.Context, events chan<- SSEEvent, eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Errorf("marshaling %s event: %v", eventType, err)
		return
	}
	s.sendEvent(ctx, events, eventType, string(data))
}

func (s *Server) sendEvent(ctx context.Context, events chan<- SSEEvent, eventType, data string) {
	select {
	case events <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
