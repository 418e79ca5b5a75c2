package server

import (
	"testing"
	"time"
)

// MockLogger records how many messages reached it
type MockLogger struct {
	calls int
}

func (m *MockLogger) Debugf(format string, v ...interface{})   { m.calls++ }
func (m *MockLogger) Infof(format string, v ...interface{})    { m.calls++ }
func (m *MockLogger) Noticef(format string, v ...interface{})  { m.calls++ }
func (m *MockLogger) Warningf(format string, v ...interface{}) { m.calls++ }
func (m *MockLogger) Errorf(format string, v ...interface{})   { m.calls++ }

func TestWebLogger_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	backing := &MockLogger{}
	logger := NewWebLogger("test-render-123", messageChan, backing)

	logger.Infof("rendering %dx%d", 64, 32)

	select {
	case msg := <-messageChan:
		if msg.Message != "rendering 64x32" {
			t.Errorf("Expected message 'rendering 64x32', got '%s'", msg.Message)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if msg.RenderID != "test-render-123" {
			t.Errorf("Expected render id 'test-render-123', got '%s'", msg.RenderID)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}

	if backing.calls != 1 {
		t.Errorf("Expected 1 backing call, got %d", backing.calls)
	}
}

func TestWebLogger_Levels(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("levels", messageChan, nil)

	logger.Debugf("d")
	logger.Infof("i")
	logger.Noticef("n")
	logger.Warningf("w")
	logger.Errorf("e")

	expected := []string{"debug", "info", "notice", "warning", "error"}
	for _, level := range expected {
		msg := <-messageChan
		if msg.Level != level {
			t.Errorf("Expected level '%s', got '%s'", level, msg.Level)
		}
	}
}

func TestWebLogger_FullChannelDoesNotBlock(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("full", messageChan, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			logger.Noticef("message %d", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Logger blocked on a full channel")
	}
	if len(messageChan) != 1 {
		t.Errorf("Expected 1 buffered message, got %d", len(messageChan))
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("nil", nil, nil)
	logger.Errorf("no console attached")
}
