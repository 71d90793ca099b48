package errors

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestHandler(maxErrors int32) (*ErrorHandler, *int32) {
	var exitCode int32 = -1
	h := &ErrorHandler{
		stopChan:      make(chan struct{}),
		maxErrors:     maxErrors,
		resetInterval: time.Hour,
		checkInterval: 10 * time.Millisecond,
		exit:          func(code int) { atomic.StoreInt32(&exitCode, int32(code)) },
	}
	return h, &exitCode
}

func TestHandlePanicCounts(t *testing.T) {
	h, _ := newTestHandler(100)

	h.HandlePanic("boom")
	h.HandlePanicFrom("dispatcher", "boom")

	if got := h.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestRecoverMiddlewareSwallowsPanic(t *testing.T) {
	prev := handler
	h, _ := newTestHandler(100)
	handler = h
	defer func() { handler = prev }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer RecoverMiddleware()()
		panic("fallo en goroutine")
	}()
	<-done

	if got := h.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestShutdownOnErrorBurst(t *testing.T) {
	h, exitCode := newTestHandler(2)
	shutdown := make(chan struct{}, 1)
	h.shutdownFunc = func() { shutdown <- struct{}{} }
	h.start()
	defer h.Stop()

	for i := 0; i < 3; i++ {
		h.IncrementError()
	}

	select {
	case <-shutdown:
	case <-time.After(2 * time.Second):
		t.Fatal("expected shutdown to be called after an error burst")
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(exitCode) != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := atomic.LoadInt32(exitCode); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}
