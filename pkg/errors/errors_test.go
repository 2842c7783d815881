package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeUpstream, cause, "fetch leads")
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if err.Code() != CodeUpstream {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsUnwrapsThroughFmtErrorf(t *testing.T) {
	inner := New(CodeNoCredential, "no credential")
	wrapped := fmt.Errorf("sync form: %w", inner)
	typed := As(wrapped)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	if typed.Code() != CodeNoCredential {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestPreconditionCodesMapTo412(t *testing.T) {
	for _, code := range []Code{CodeNoCredential, CodeNoActiveForms} {
		if got := MetadataFor(code).HTTPStatus; got != http.StatusPreconditionFailed {
			t.Fatalf("%s: unexpected status %d", code, got)
		}
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeNoActiveForms, "nothing to sync")
	if !IsCode(err, CodeNoActiveForms) {
		t.Fatalf("expected code match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatalf("unexpected code match")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatalf("nil error must not match")
	}
}
