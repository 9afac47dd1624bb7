package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	meta := MetadataFor(CodeNotFound)
	if meta.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404 for not found, got %d", meta.HTTPStatus)
	}
	if meta.Retryable {
		t.Fatal("not found must not be retryable")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to 500, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "load order")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if As(fmt.Errorf("outer: %w", err)) == nil {
		t.Fatal("expected typed error to be discoverable through wrapping")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeNotFound, stdErrors.New("row missing"), "find sub-order")
	dump := Dump(err)
	if dump.Code != CodeNotFound {
		t.Fatalf("expected code in dump, got %q", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
}
