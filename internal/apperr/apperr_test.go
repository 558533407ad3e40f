package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection reset")
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", base, KindInternal},
		{"invalid", InvalidInput("score %d", -1), KindInvalidInput},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("match %d", 7)), KindNotFound},
		{"tx", TransactionFailure("close season", base), KindTransactionFailure},
		{"conflict", Conflict("email %q already registered", "a@b.c"), KindConflict},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.want, got)
		}
	}
}

func TestErrorUnwrapAndMessage(t *testing.T) {
	base := errors.New("deadlock detected")
	err := TransactionFailure("close season", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected errors.Is to reach the wrapped error")
	}
	if got := err.Error(); got != "[TRANSACTION_FAILURE] close season: deadlock detected" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := InvalidInput("season name is required").Error(); got != "[INVALID_INPUT] season name is required" {
		t.Fatalf("unexpected message %q", got)
	}
	if !Is(Unauthorized("missing token"), KindUnauthorized) {
		t.Fatalf("expected unauthorized kind")
	}
}
