package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})
	got := Current()
	if got.Short != 7*time.Second {
		t.Errorf("Short: got %v, want 7s", got.Short)
	}
	if got.Ping != DefaultPing || got.Report != DefaultReport {
		t.Errorf("unset values changed: got %+v", got)
	}

	Reset()
	if Short() != DefaultShort {
		t.Errorf("Short after Reset: got %v, want %v", Short(), DefaultShort)
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context did not expire")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("Err: got %v, want DeadlineExceeded", ctx.Err())
	}
}
