package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodesAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewNotFound("entity", nil), "NOT_FOUND", http.StatusNotFound},
		{NewUnauthorized("who"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{NewConflict("dup", nil), "CONFLICT", http.StatusConflict},
		{NewInvalidTransition("nope", nil), "INVALID_TRANSITION", http.StatusUnprocessableEntity},
		{NewStaleVersion("raced", nil), "STALE_VERSION", http.StatusConflict},
		{NewAlreadyAssigned("taken", nil), "ALREADY_ASSIGNED", http.StatusConflict},
	}
	for _, tc := range cases {
		if !HasCode(tc.err, tc.code) {
			t.Errorf("%v: want code %s", tc.err, tc.code)
		}
		if de := ToDomainError(tc.err); de.HTTPStatus != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.code, de.HTTPStatus, tc.status)
		}
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	raw := errors.New("connection refused")
	de := ToDomainError(fmt.Errorf("query: %w", raw))
	if de.Code != "INTERNAL_ERROR" || de.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("wrapped error mapped to %s/%d", de.Code, de.HTTPStatus)
	}
	if !errors.Is(de, raw) {
		t.Fatal("cause lost in mapping")
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewStaleVersion("raced", nil))
	if !HasCode(err, "STALE_VERSION") {
		t.Fatal("HasCode should see through wrapping")
	}
	if HasCode(err, "CONFLICT") {
		t.Fatal("code mismatch should not match")
	}
	if HasCode(nil, "CONFLICT") {
		t.Fatal("nil error has no code")
	}
}
