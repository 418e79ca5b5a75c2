package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/log"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// Parameter limits shared by the render, inspect and scene-config endpoints
const (
	minWidth, maxWidth         = 16, 2000
	minSamples, maxSamples     = 1, 10000
	minDepth, maxDepth         = 0, 200
	minBlockSize, maxBlockSize = 8, 256
	maxAspect                  = 4.0
	maxThumbnail               = 1000

	defaultScene = "weekend"
)

// Server streams block renders to the browser over SSE
type Server struct {
	port   int
	logger log.Logger
}

// NewServer creates a new web server. A nil logger selects the "web" logger.
func NewServer(port int, logger log.Logger) *Server {
	if logger == nil {
		logger = log.New("web")
	}
	return &Server{port: port, logger: logger}
}

// SceneRequest holds the parameters every scene endpoint accepts
type SceneRequest struct {
	Scene       string  `json:"scene"`       // Preset id, e.g. "weekend"
	Width       int     `json:"width"`       // Image width
	AspectRatio float64 `json:"aspectRatio"` // 0 keeps the preset ratio
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start serves the API until the listener fails
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Noticef("starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the scene presets
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenes": scene.ListScenes()})
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	req := &SceneRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sc, err := scene.NewByName(req.Scene, geometry.CameraConfig{Width: req.Width, AspectRatio: req.AspectRatio})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scene": sc.Name,
		"defaults": map[string]interface{}{
			"width":           sc.SamplingConfig.Width,
			"height":          sc.SamplingConfig.Height,
			"aspectRatio":     sc.CameraConfig.AspectRatio,
			"samplesPerPixel": sc.SamplingConfig.SamplesPerPixel,
			"maxDepth":        sc.SamplingConfig.MaxDepth,
			"vfov":            sc.CameraConfig.VFov,
			"primitives":      len(sc.Primitives),
		},
		"limits": map[string]interface{}{
			"width":           map[string]int{"min": minWidth, "max": maxWidth},
			"samplesPerPixel": map[string]int{"min": minSamples, "max": maxSamples},
			"maxDepth":        map[string]int{"min": minDepth, "max": maxDepth},
			"blockSize":       map[string]int{"min": minBlockSize, "max": maxBlockSize},
			"aspectRatio":     map[string]float64{"min": 0, "max": maxAspect},
		},
	})
}

// parseCommonSceneParams fills the scene, width and aspect parameters
func (s *Server) parseCommonSceneParams(r *http.Request, req *SceneRequest) error {
	query := r.URL.Query()

	req.Scene = defaultScene
	if name := query.Get("scene"); name != "" {
		req.Scene = name
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, minWidth, maxWidth); err != nil {
		return err
	}
	if req.AspectRatio, err = parseFloatParam(query, "aspect", 0, 0, maxAspect); err != nil {
		return err
	}
	return nil
}

// buildScene constructs the requested preset and its BVH
func buildScene(req *SceneRequest) (*scene.Scene, error) {
	sc, err := scene.NewByName(req.Scene, geometry.CameraConfig{Width: req.Width, AspectRatio: req.AspectRatio})
	if err != nil {
		return nil, err
	}
	if err := sc.Build(geometry.BuildOptions{Strategy: geometry.SplitSAH}); err != nil {
		return nil, err
	}
	return sc, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam accepts anything strconv.ParseBool does
func parseBoolParam(values url.Values, key string) (bool, error) {
	value := values.Get(key)
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %s", key, value)
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
