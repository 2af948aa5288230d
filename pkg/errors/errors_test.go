package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCauseAndCode(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeTimeout, cause, "push timed out")

	if err.Code() != CodeTimeout {
		t.Fatalf("expected code %s, got %s", CodeTimeout, err.Code())
	}
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected cause to survive unwrapping")
	}
	if got := err.Error(); got != "NETWORK_TIMEOUT: push timed out" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestAsFindsTypedErrorThroughChain(t *testing.T) {
	inner := New(CodePermission, "sync requires plus tier")
	wrapped := fmt.Errorf("engine: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodePermission {
		t.Fatalf("expected permission code, got %s", typed.Code())
	}
	if CodeOf(wrapped) != CodePermission {
		t.Fatalf("CodeOf should unwrap, got %s", CodeOf(wrapped))
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestDumpRecordsChain(t *testing.T) {
	err := Wrap(CodeOffline, stdErrors.New("dial tcp: connection refused"), "connectivity probe failed")
	d := Dump(err)
	if d.Code != CodeOffline {
		t.Fatalf("expected offline code, got %s", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected chain of at least 2, got %d", len(d.Chain))
	}
}
