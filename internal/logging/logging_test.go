package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestDisabledByDefault(t *testing.T) {
	t.Setenv(EnvDebug, "")
	log, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op")
	}
}

func TestEnvEnablesDebug(t *testing.T) {
	t.Setenv(EnvDebug, "on")
	log, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("MINREG_DEBUG=on should enable debug logging")
	}
}

func TestFileOutput(t *testing.T) {
	t.Setenv(EnvDebug, "")
	path := filepath.Join(t.TempDir(), "minreg.log")
	log, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden")
	log.Info("starting chain")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "starting chain") || strings.Contains(out, "hidden") {
		t.Errorf("log file content:\n%s", out)
	}
}

func TestInvalidLevel(t *testing.T) {
	t.Setenv(EnvDebug, "")
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
