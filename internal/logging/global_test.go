package logging

import (
	"sync"
	"testing"
)

// resetGlobal clears the process logger so the test observes the lazy
// default path, and restores a clean slate for the next test.
func resetGlobal(t *testing.T) {
	t.Helper()
	global.Store(nil)
	t.Cleanup(func() { global.Store(nil) })
}

func TestSetGlobalAndGlobal(t *testing.T) {
	resetGlobal(t)

	l, _ := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})
	SetGlobal(l)

	if Global() != l {
		t.Error("Global() should return the logger passed to SetGlobal")
	}
}

func TestGlobalLazyDefault(t *testing.T) {
	resetGlobal(t)

	l := Global()
	if l == nil {
		t.Fatal("Global() should never return nil")
	}
	if Global() != l {
		t.Error("Global() should return the same logger on repeated calls")
	}
	if l.level != LevelInfo {
		t.Errorf("default level = %v, want %v", l.level, LevelInfo)
	}
	if l.format != FormatJSON {
		t.Errorf("default format = %v, want %v", l.format, FormatJSON)
	}
}

func TestConfigureInstallsGlobal(t *testing.T) {
	resetGlobal(t)

	l := Configure("debug", "json")
	if Global() != l {
		t.Error("Configure should install the returned logger as global")
	}
	if l.level != LevelDebug {
		t.Errorf("level = %v, want %v", l.level, LevelDebug)
	}
	if !l.addCaller {
		t.Error("Configure at debug level should record caller locations")
	}
}

func TestConfigureAboveDebug(t *testing.T) {
	resetGlobal(t)

	l := Configure("info", "text")
	if l.level != LevelInfo {
		t.Errorf("level = %v, want %v", l.level, LevelInfo)
	}
	if l.format != FormatText {
		t.Errorf("format = %v, want %v", l.format, FormatText)
	}
	if l.addCaller {
		t.Error("Configure above debug level should not record caller locations")
	}
}

func TestConfigureUnknownStrings(t *testing.T) {
	resetGlobal(t)

	l := Configure("chatty", "xml")
	if l.level != LevelInfo {
		t.Errorf("level = %v, want info default", l.level)
	}
	if l.format != FormatJSON {
		t.Errorf("format = %v, want json default", l.format)
	}
}

func TestGlobalConcurrentAccess(t *testing.T) {
	resetGlobal(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(New(Config{Level: LevelWarn, Format: FormatJSON}))
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil during concurrent access")
			}
		}()
	}
	wg.Wait()
}
