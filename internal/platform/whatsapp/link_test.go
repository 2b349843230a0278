package whatsapp

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestIsValidNumberBounds(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"966555862272", true},
		{"+966 555 862 272", true},
		{"123456789", false},       // 9 digits
		{"1234567890", true},       // 10 digits
		{"123456789012345", true},  // 15 digits
		{"1234567890123456", false}, // 16 digits
		{"", false},
		{"abc", false},
	}
	for _, tc := range tests {
		if got := IsValidNumber(tc.phone); got != tc.want {
			t.Fatalf("IsValidNumber(%q) = %v, want %v", tc.phone, got, tc.want)
		}
	}
}

func TestBuildURLRejectsInvalidNumber(t *testing.T) {
	if _, err := BuildURL("12345", "hello"); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestBuildURLEncodesMessage(t *testing.T) {
	link, err := BuildURL("+966 555 862 272", "طلب جديد: نيون & أكثر")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(link, "https://wa.me/966555862272?text=") {
		t.Fatalf("unexpected link prefix: %q", link)
	}

	encoded := strings.TrimPrefix(link, "https://wa.me/966555862272?text=")
	if strings.Contains(encoded, "+") {
		t.Fatalf("spaces must encode as %%20, not +: %q", encoded)
	}
	if !strings.Contains(encoded, "%20") {
		t.Fatalf("expected %%20 between words: %q", encoded)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	decoded := parsed.Query().Get("text")
	if decoded != "طلب جديد: نيون &amp; أكثر" {
		t.Fatalf("round-trip mismatch: %q", decoded)
	}
}

func TestBuildURLSanitizesMessage(t *testing.T) {
	link, err := BuildURL("966555862272", "hello\x00  <script>x</script>  world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw := strings.TrimPrefix(link, "https://wa.me/966555862272?text=")
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		t.Fatalf("unescape failed: %v", err)
	}
	if strings.Contains(decoded, "<script>") {
		t.Fatalf("markup survived: %q", decoded)
	}
	if strings.Contains(decoded, "\x00") {
		t.Fatalf("control character survived: %q", decoded)
	}
}

func TestOpenSafelyNeverPropagatesErrors(t *testing.T) {
	var opened string
	opener := OpenerFunc(func(link string) error {
		opened = link
		return nil
	})

	if ok := OpenSafely(opener, nil, "12345", "hi"); ok {
		t.Fatal("invalid number must report failure")
	}
	if opened != "" {
		t.Fatalf("opener must not be called for invalid numbers, got %q", opened)
	}

	if ok := OpenSafely(opener, nil, "966555862272", "hi"); !ok {
		t.Fatal("valid number should report success")
	}
	if !strings.HasPrefix(opened, "https://wa.me/966555862272") {
		t.Fatalf("unexpected opened link: %q", opened)
	}

	failing := OpenerFunc(func(string) error { return errors.New("boom") })
	if ok := OpenSafely(failing, nil, "966555862272", "hi"); ok {
		t.Fatal("failed open must report failure, not panic")
	}
}
