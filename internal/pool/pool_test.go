package pool

import (
	"testing"

	"go.uber.org/zap"

	"github.com/eloinsight/tempolens/internal/engine"
)

// New always spawns real engine subprocesses, so only its input validation
// is exercisable without a live UCI binary; occupancy bookkeeping is
// covered by running analyses against a pool in integration testing.
func TestNewRejectsNonPositiveSize(t *testing.T) {
	if _, err := New(0, engine.Config{}, zap.NewNop()); err == nil {
		t.Error("New(0, ...) error = nil, want an error")
	}
	if _, err := New(-1, engine.Config{}, zap.NewNop()); err == nil {
		t.Error("New(-1, ...) error = nil, want an error")
	}
}
