package corpus

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{"short text single chunk", "hello world", 100, 20, 1},
		{"exact fit single chunk", strings.Repeat("a", 100), 100, 20, 1},
		{"two chunks with overlap", strings.Repeat("a", 150), 100, 20, 2},
		{"overlap larger than size falls back", strings.Repeat("a", 250), 100, 150, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.chunkSize, tt.overlap)
			if len(chunks) != tt.wantChunks {
				t.Errorf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if len([]rune(c)) > tt.chunkSize {
					t.Errorf("chunk %d has %d runes, max %d", i, len([]rune(c)), tt.chunkSize)
				}
			}
		})
	}
}

func TestSplitTextOverlapPreservesBoundary(t *testing.T) {
	text := strings.Repeat("x", 90) + "BOUNDARY" + strings.Repeat("y", 90)
	chunks := SplitText(text, 100, 30)

	hits := 0
	for _, c := range chunks {
		if strings.Contains(c, "BOUNDARY") {
			hits++
		}
	}
	if hits < 2 {
		t.Errorf("boundary marker appears in %d chunks, want at least 2", hits)
	}
}

func TestChunkAttachesMetadata(t *testing.T) {
	chunks := Chunk(strings.Repeat("b", 250), "faq.md", 100, 20)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if c.Metadata.Source != "faq.md" {
			t.Errorf("chunk %d source = %q, want faq.md", i, c.Metadata.Source)
		}
		if c.Metadata.ChunkIndex != i {
			t.Errorf("chunk %d index = %d", i, c.Metadata.ChunkIndex)
		}
		if c.Metadata.IndexedAt.IsZero() {
			t.Errorf("chunk %d has zero IndexedAt", i)
		}
	}
}

func TestPreprocessFlattensQA(t *testing.T) {
	text := `Q: How much is the pro plan?
A: The pro plan is 99 dollars per month.
Q: Can I cancel?
A: Yes, anytime from the billing page.`

	cleaned := Preprocess(text)

	if strings.Contains(cleaned, "Q:") || strings.Contains(cleaned, "A:") {
		t.Errorf("Q/A prefixes must be stripped: %q", cleaned)
	}
	if !strings.Contains(cleaned, "99 dollars per month") {
		t.Errorf("answer text must survive flattening: %q", cleaned)
	}
	if !strings.Contains(cleaned, "How much is the pro plan?") {
		t.Errorf("question lead-in must survive flattening: %q", cleaned)
	}
}

func TestPreprocessStripsMarkup(t *testing.T) {
	text := `# Pricing Guide

The starter plan is 29 dollars.

---

Contact sales for enterprise pricing.`

	cleaned := Preprocess(text)

	if strings.Contains(cleaned, "#") {
		t.Errorf("headings must be stripped: %q", cleaned)
	}
	if strings.Contains(cleaned, "---") {
		t.Errorf("decoration lines must be stripped: %q", cleaned)
	}
	if !strings.Contains(cleaned, "29 dollars") || !strings.Contains(cleaned, "enterprise pricing") {
		t.Errorf("content must survive: %q", cleaned)
	}
}
