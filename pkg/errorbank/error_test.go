package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{BadRequest("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{Expired("x"), http.StatusGone},
		{QuotaExceeded("x"), http.StatusTooManyRequests},
		{IllegalTransition("x"), http.StatusConflict},
		{PermissionDenied("x"), http.StatusForbidden},
		{Internal("x"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.StatusCode(); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.err.Kind(), got, tc.want)
		}
	}
}

func TestGRPCCodes(t *testing.T) {
	if got := QuotaExceeded("x").GRPCCode(); got != codes.ResourceExhausted {
		t.Errorf("quota code = %v, want ResourceExhausted", got)
	}
	if got := IllegalTransition("x").GRPCCode(); got != codes.FailedPrecondition {
		t.Errorf("transition code = %v, want FailedPrecondition", got)
	}
}

func TestWrappingPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("failed to store file", WithCause(cause))

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	if err.Error() != "failed to store file: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFromWrapsForeignErrors(t *testing.T) {
	plain := errors.New("boom")
	appErr := From(plain)
	if appErr.Kind() != KindInternal {
		t.Errorf("kind = %s, want internal", appErr.Kind())
	}

	original := NotFound("gone")
	wrapped := fmt.Errorf("loading: %w", original)
	if From(wrapped) != original {
		t.Error("From should unwrap to the original AppError")
	}
}

func TestIsKindSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Expired("file expired"))
	if !IsKind(err, KindExpired) {
		t.Error("IsKind should match through wrapping")
	}
	if IsKind(err, KindNotFound) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(errors.New("plain"), KindInternal) {
		t.Error("plain errors carry no kind")
	}
}

func TestDetails(t *testing.T) {
	err := IllegalTransition("bad edge",
		WithDetail("from", "submitted"),
		WithDetail("to", "finished"),
	)
	d := err.Details()
	if d["from"] != "submitted" || d["to"] != "finished" {
		t.Errorf("details = %v", d)
	}
}
