package server

import (
	"fmt"
	"time"

	"github.com/df07/go-spiral-raytracer/pkg/log"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "notice", "warning", "error"
	RenderID  string    `json:"renderId"`
}

// WebLogger implements log.Logger by forwarding every message to a backing
// logger and to the browser console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	backing     log.Logger
}

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage, backing log.Logger) *WebLogger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		backing:     backing,
	}
}

func (wl *WebLogger) Debugf(format string, v ...interface{}) {
	if wl.backing != nil {
		wl.backing.Debugf(format, v...)
	}
	wl.send("debug", format, v)
}

func (wl *WebLogger) Infof(format string, v ...interface{}) {
	if wl.backing != nil {
		wl.backing.Infof(format, v...)
	}
	wl.send("info", format, v)
}

func (wl *WebLogger) Noticef(format string, v ...interface{}) {
	if wl.backing != nil {
		wl.backing.Noticef(format, v...)
	}
	wl.send("notice", format, v)
}

func (wl *WebLogger) Warningf(format string, v ...interface{}) {
	if wl.backing != nil {
		wl.backing.Warningf(format, v...)
	}
	wl.send("warning", format, v)
}

func (wl *WebLogger) Errorf(format string, v ...interface{}) {
	if wl.backing != nil {
		wl.backing.Errorf(format, v...)
	}
	wl.send("error", format, v)
}

// send never blocks; messages are dropped when the console is full
func (wl *WebLogger) send(level, format string, v []interface{}) {
	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		Message:   fmt.Sprintf(format, v...),
		Timestamp: time.Now(),
		Level:     level,
		RenderID:  wl.renderID,
	}:
	default:
	}
}
