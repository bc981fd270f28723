package exifbrand

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractBrandNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := New().ExtractBrand(path); got != "" {
		t.Fatalf("expected empty brand for non-image, got %q", got)
	}
}

func TestExtractBrandMissingFile(t *testing.T) {
	if got := New().ExtractBrand(filepath.Join(t.TempDir(), "gone.jpg")); got != "" {
		t.Fatalf("expected empty brand for missing file, got %q", got)
	}
}

func TestCleanBrand(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Canon", "Canon"},
		{"NIKON CORPORATION", "NIKON"},
		{"Nikon Corporation", "Nikon"},
		{"  SONY  ", "SONY"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := cleanBrand(tc.in); got != tc.want {
			t.Errorf("cleanBrand(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
