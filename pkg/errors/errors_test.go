package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) status = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to 500, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("remote refused")
	err := Wrap(CodeDependency, cause, "upload asset")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to cause")
	}
	if typed := As(fmt.Errorf("outer: %w", err)); typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("As should find typed error through wrapping, got %v", typed)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(New(CodeNotFound, "media missing")) {
		t.Fatal("expected not-found detection")
	}
	if IsNotFound(New(CodeInternal, "boom")) {
		t.Fatal("internal error must not be not-found")
	}
	if IsNotFound(nil) {
		t.Fatal("nil is not not-found")
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("socket closed"), "cloudinary upload")
	dump := Dump(err)

	if dump.Code != CodeDependency {
		t.Fatalf("dump code = %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
}
