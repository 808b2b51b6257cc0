package layout

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	if Logger() == nil {
		t.Fatal("default logger is nil")
	}

	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	Logger().Debug("hello")
	if logs.Len() != 1 {
		t.Errorf("entries: got %d, want 1", logs.Len())
	}

	SetLogger(nil)
	if Logger() == nil {
		t.Error("SetLogger(nil) should restore the no-op logger")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(zap.New(core))
		}()
		go func() {
			defer wg.Done()
			Logger().Debug("concurrent")
		}()
	}
	wg.Wait()
}
