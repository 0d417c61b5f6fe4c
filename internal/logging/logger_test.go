package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func withObservedLogger(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger
	logger = zap.New(core)
	t.Cleanup(func() { logger = prev })
	return logs
}

func TestLogRawBytesAtDebug(t *testing.T) {
	logs := withObservedLogger(t, zapcore.DebugLevel)

	LogRawBytes("serial read", []byte{0xAA, 0xC0, 0x41, 0xAB})

	entries := logs.FilterMessage("serial read").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if got := fields["length"]; got != int64(4) {
		t.Errorf("length field = %v, want 4", got)
	}
	if got := fields["hex"]; got != "aac041ab" {
		t.Errorf("hex field = %q, want aac041ab", got)
	}
	if got := fields["ascii"]; got != "..A." {
		t.Errorf("ascii field = %q, want ..A.", got)
	}
}

func TestLogRawBytesSkippedAboveDebug(t *testing.T) {
	logs := withObservedLogger(t, zapcore.InfoLevel)

	LogRawBytes("serial read", []byte{0xAA, 0xC0})

	if got := logs.Len(); got != 0 {
		t.Errorf("logged %d entries at info level, want 0", got)
	}
}

func TestHexDumpTruncation(t *testing.T) {
	long := make([]byte, 300)
	dump := hexDump(long)
	if !strings.HasSuffix(dump, "...") {
		t.Error("long dump not truncated")
	}
	if len(dump) != 256*2+3 {
		t.Errorf("dump length = %d, want %d", len(dump), 256*2+3)
	}

	if hexDump(nil) != "" {
		t.Error("empty dump should be empty string")
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("unconfigured logger is not silent")
	}
}
