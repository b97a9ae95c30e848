package enums

import "testing"

func TestParseMediaContext(t *testing.T) {
	for _, ctx := range MediaContexts() {
		parsed, err := ParseMediaContext(ctx.String())
		if err != nil {
			t.Fatalf("ParseMediaContext(%q): %v", ctx, err)
		}
		if parsed != ctx {
			t.Fatalf("ParseMediaContext(%q) = %q", ctx, parsed)
		}
	}
	if _, err := ParseMediaContext("gallery"); err == nil {
		t.Fatal("expected error for unknown context")
	}
	if MediaContext("").IsValid() {
		t.Fatal("empty context must be invalid")
	}
}

func TestMediaTypeFromMime(t *testing.T) {
	cases := map[string]MediaType{
		"video/mp4":       MediaTypeVideo,
		"VIDEO/QuickTime": MediaTypeVideo,
		"image/png":       MediaTypeImage,
		"image/webp":      MediaTypeImage,
		"application/pdf": MediaTypeImage,
	}
	for mime, want := range cases {
		if got := MediaTypeFromMime(mime); got != want {
			t.Fatalf("MediaTypeFromMime(%q) = %q, want %q", mime, got, want)
		}
	}
}
