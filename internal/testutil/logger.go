// Package testutil holds helpers shared by package tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/leapstack-labs/pyconfgen/internal/logging"
)

// NewTestLogger returns a debug-level logger whose records go to t.Log,
// so they only show for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	logger, err := logging.New(tbWriter{t}, logging.LevelDebug)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
