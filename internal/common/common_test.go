package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "mixed case warn", input: "WARN", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "unknown", input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info", "json"))

	LogInfo("batch analyzed", Fields{"count": 3})
	LogDebug("hidden", nil)

	out := buf.String()
	assert.Contains(t, out, `"msg":"batch analyzed"`)
	assert.Contains(t, out, `"count":3`)
	assert.NotContains(t, out, "hidden")

	assert.Error(t, SetupLogger(&buf, "info", "xml"))
}

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save", inner)

	assert.Equal(t, "could not save: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bare", NewUserError("bare", nil).Error())
}

func TestBackoff_Retry(t *testing.T) {
	ctx := context.Background()
	fast := Backoff{Attempts: 3, Initial: time.Millisecond, Max: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := fast.Retry(ctx, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		badRequest := errors.New("bad request")
		calls := 0
		err := fast.Retry(ctx, func() error {
			calls++
			return Permanent(badRequest)
		})
		assert.ErrorIs(t, err, badRequest)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		down := errors.New("down")
		err := fast.Retry(ctx, func() error { return down })
		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.ErrorIs(t, err, down)
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		calls := 0
		_ = Backoff{}.Retry(ctx, func() error { calls++; return errors.New("down") })
		assert.Equal(t, 1, calls)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		slow := Backoff{Attempts: 5, Initial: time.Second, Max: time.Second}
		err := slow.Retry(cancelled, func() error { return errors.New("down") })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoff_Wait(t *testing.T) {
	b := Backoff{Attempts: 10, Initial: time.Second, Max: 5 * time.Second}
	transient := errors.New("transient")

	assert.Equal(t, time.Second, b.wait(1, transient))
	assert.Equal(t, 2*time.Second, b.wait(2, transient))
	assert.Equal(t, 4*time.Second, b.wait(3, transient))
	assert.Equal(t, 5*time.Second, b.wait(4, transient))
	assert.Equal(t, 5*time.Second, b.wait(70, transient), "long runs stay capped")
	assert.Equal(t, 5*time.Second, b.wait(1, fmt.Errorf("wrapped: %w", ErrPlaidRateLimit)))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrPlaidRateLimit))
	assert.True(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(Permanent(errors.New("x"))))
	assert.False(t, IsRetryable(fmt.Errorf("outer: %w", Permanent(errors.New("x")))))
	assert.False(t, IsRetryable(context.Canceled))
	assert.Nil(t, Permanent(nil))
}
