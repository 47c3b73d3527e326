// Package logging includes tests for the zap logger helpers.
package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

// TestNewAtVerbosityMapsCountToLevel checks the -v repeat-flag mapping.
func TestNewAtVerbosityMapsCountToLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{5, zapcore.DebugLevel},
	}
	for _, tc := range cases {
		logger, err := NewAtVerbosity(tc.verbosity)
		if err != nil {
			t.Fatalf("NewAtVerbosity(%d) error = %v", tc.verbosity, err)
		}
		if !logger.Core().Enabled(tc.want) {
			t.Fatalf("verbosity %d: expected level %v enabled", tc.verbosity, tc.want)
		}
		logger.Sync() //nolint:errcheck
	}
}
