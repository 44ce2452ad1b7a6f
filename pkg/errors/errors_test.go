package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestWithInternalStillMatchesSentinel(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := fmt.Errorf("reader: %w", Unavailable(cause))

	if !stdErrors.Is(err, ErrBackendUnavailable) {
		t.Fatal("expected wrapped copy to match ErrBackendUnavailable")
	}
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected internal cause to stay reachable")
	}
	if stdErrors.Is(err, ErrNotFound) {
		t.Fatal("did not expect match against ErrNotFound")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	if err.Code != ErrBadRequest.Code {
		t.Fatalf("expected %s, got %s", ErrBadRequest.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrBadRequest.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if !IsBadRequest(err) {
		t.Fatal("expected IsBadRequest to match")
	}
}

func TestIsNotFound(t *testing.T) {
	postMissing := New("POST_NOT_FOUND", "Post not found", http.StatusNotFound)
	if !IsNotFound(fmt.Errorf("wrapped: %w", postMissing)) {
		t.Fatal("expected wrapped 404 to be detected")
	}
	if IsNotFound(stdErrors.New("plain")) {
		t.Fatal("plain errors are not 404s")
	}
}

func TestMissingParametersIsDistinctFromBadRequest(t *testing.T) {
	if stdErrors.Is(NewBadRequest("Invalid id"), ErrMissingParameters) {
		t.Fatal("generic bad request must not match ErrMissingParameters")
	}
	if stdErrors.Is(ErrMissingParameters, ErrBadRequest) {
		t.Fatal("ErrMissingParameters must not match ErrBadRequest")
	}
	if !stdErrors.Is(ErrMissingParameters.WithInternal(stdErrors.New("blank title")), ErrMissingParameters) {
		t.Fatal("expected wrapped copy to match ErrMissingParameters")
	}
	if !IsBadRequest(ErrMissingParameters) {
		t.Fatal("expected ErrMissingParameters to carry a 400 status")
	}
}
