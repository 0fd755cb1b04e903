package worker

import (
	"context"
	"testing"
	"time"

	"pgmq/internal/model"

	"github.com/stretchr/testify/require"
)

func TestSimEngineTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		result  model.Result
		details string
	}{
		{"explicit fail", `["fail"]`, model.ResultFailed, "explicit fail instruction received"},
		{"explicit reject", `["reject"]`, model.ResultRejected, "explicit reject instruction received"},
		{"unrecognized token is a no-op", `["noop"]`, model.ResultSuccess, "fake work was done"},
		{"extra instructions are ignored", `["noop", "fail"]`, model.ResultSuccess, "fake work was done"},
		{"non-string instruction", `[42]`, model.ResultSuccess, "fake work was done"},
		{"empty list", `[]`, model.ResultRejected, "no message in list"},
		{"not a list", `"not-a-list"`, model.ResultRejected, "invalid message format"},
		{"not json at all", `{`, model.ResultRejected, "invalid message format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SimEngine{}.Process(context.Background(), []byte(tt.payload))
			require.NoError(t, err)
			require.Equal(t, tt.result, out.Result)
			require.Equal(t, tt.details, out.Details)
		})
	}
}

func TestSimEngineRaise(t *testing.T) {
	_, err := SimEngine{}.Process(context.Background(), []byte(`["raise"]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "explicit raise instruction received")
}

// The timeout instruction must ignore cancellation and overrun the deadline;
// it exists to prove the worker's guard, not the engine, enforces deadlines.
func TestSimEngineTimeoutIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := SimEngine{}.Process(ctx, []byte(`["timeout"]`))
	require.Error(t, err)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
