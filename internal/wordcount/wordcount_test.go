package wordcount

import (
	"testing"
)

func TestCount_Basic(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"The quick brown fox", 4},
		{"hello, world!", 2},
		{"don't stop well-known", 3},
		{"-- dash -- separated --", 2},
		{"v2 release 2024", 3},
		{"café naïve 日本語", 3},
		{"Привет мир", 2},
	}
	for _, c := range cases {
		if got := Count(c.in); got != c.want {
			t.Fatalf("Count(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCount_DecomposedAccents(t *testing.T) {
	// "café" with a combining acute accent must still be a single word.
	if got := Count("café au lait"); got != 3 {
		t.Fatalf("expected 3 words, got %d", got)
	}
}

func TestWords_Order(t *testing.T) {
	got := Words("one, two; three")
	if len(got) != 3 || got[0] != "one" || got[2] != "three" {
		t.Fatalf("unexpected words: %v", got)
	}
}

func TestNormalize_Collapses(t *testing.T) {
	got := Normalize("  a   b\t\tc \n\n\n d  ")
	if got != "a b c\nd" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
