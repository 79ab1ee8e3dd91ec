package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", Unauthorized("no session"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not assigned"), http.StatusForbidden},
		{"not found", NotFound("Case not found"), http.StatusNotFound},
		{"validation", Validation("caseId is required"), http.StatusBadRequest},
		{"conflict", Conflict("duplicate", nil), http.StatusConflict},
		{"upstream", Upstream("db down", errors.New("dial tcp")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("loading case: %w", NotFound("Case not found")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("", cause)
	if err.Error() != "connection refused" {
		t.Errorf("Error() = %q, want cause message", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Upstream error should unwrap to its cause")
	}

	if got := Upstream("failed to load case", cause).Error(); got != "failed to load case: connection refused" {
		t.Errorf("Error() = %q, want context and cause", got)
	}

	if got := (&Error{Kind: KindForbidden}).Error(); got != "Forbidden" {
		t.Errorf("Error() = %q, want status text", got)
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", Forbidden("nope"))
	if !Is(err, KindForbidden) {
		t.Error("Is() should find forbidden kind through wrapping")
	}
	if Is(err, KindNotFound) {
		t.Error("Is() matched the wrong kind")
	}
	if Is(errors.New("plain"), KindUpstream) {
		t.Error("Is() should be false for errors outside the taxonomy")
	}
}
