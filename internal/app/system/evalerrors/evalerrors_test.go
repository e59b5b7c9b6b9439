package evalerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
)

func TestIs_MatchesKindSentinel(t *testing.T) {
	err := evalerrors.Integrity("aggregate", "index %d out of range", 7)
	if !errors.Is(err, evalerrors.ErrIntegrity) {
		t.Error("expected integrity error to match ErrIntegrity")
	}
	if errors.Is(err, evalerrors.ErrConfig) {
		t.Error("integrity error should not match ErrConfig")
	}
}

func TestIs_ThroughWrapping(t *testing.T) {
	base := evalerrors.Config("settings", "missing %s", "responses_required_to_view_results")
	wrapped := fmt.Errorf("build report: %w", base)

	if !errors.Is(wrapped, evalerrors.ErrConfig) {
		t.Error("expected wrapped config error to match ErrConfig")
	}
	if got := evalerrors.KindOf(wrapped); got != evalerrors.KindConfig {
		t.Errorf("KindOf: got %v, want %v", got, evalerrors.KindConfig)
	}
}

func TestNotFound_UnwrapsCause(t *testing.T) {
	cause := errors.New("no documents")
	err := evalerrors.NotFound("load", cause, "evaluation %s", "abc")
	if !errors.Is(err, cause) {
		t.Error("expected NotFound to unwrap to its cause")
	}
	if !errors.Is(err, evalerrors.ErrNotFound) {
		t.Error("expected NotFound to match ErrNotFound")
	}
}

func TestError_Message(t *testing.T) {
	err := evalerrors.Integrity("aggregate", "item %s has no scale", "x")
	want := "aggregate: data integrity: item x has no scale"
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := evalerrors.KindOf(errors.New("plain")); got != 0 {
		t.Errorf("KindOf(plain): got %v, want 0", got)
	}
}
