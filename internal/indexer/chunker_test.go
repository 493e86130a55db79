package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewChunker(t *testing.T) {
	c := NewChunker()
	if c == nil {
		t.Fatal("NewChunker() returned nil")
	}
	if c.MinRunes != minChunkSize || c.MaxRunes != maxChunkSize || c.Overlap != chunkOverlap {
		t.Errorf("NewChunker() limits = %d/%d/%d", c.MinRunes, c.MaxRunes, c.Overlap)
	}
}

func TestChunker_Chunk(t *testing.T) {
	chunker := NewChunker()

	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, chunks []Chunk)
	}{
		{
			name:    "empty content",
			content: "  \n",
			check: func(t *testing.T, chunks []Chunk) {
				if chunks == nil || len(chunks) != 0 {
					t.Errorf("chunks = %v, want empty non-nil slice", chunks)
				}
			},
		},
		{
			name:    "heading only",
			content: "# Lonely Title\n",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 0 {
					t.Errorf("chunks = %v, want none for a heading without text", chunks)
				}
			},
		},
		{
			name: "sections keep their heading path",
			content: "# Deep Learning for Cats\n\n" +
				"## Abstract\n\n" + strings.Repeat("Cats are studied in depth here. ", 4) + "\n\n" +
				"## Notes\n\n" + strings.Repeat("A note about whiskers and tails. ", 4) + "\n",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 2 {
					t.Fatalf("len(chunks) = %d, want 2: %+v", len(chunks), chunks)
				}
				if chunks[0].HeadingPath != "# Deep Learning for Cats > ## Abstract" {
					t.Errorf("chunks[0].HeadingPath = %q", chunks[0].HeadingPath)
				}
				if chunks[1].HeadingPath != "# Deep Learning for Cats > ## Notes" {
					t.Errorf("chunks[1].HeadingPath = %q", chunks[1].HeadingPath)
				}
				if !strings.HasPrefix(chunks[1].Text, "A note about whiskers") {
					t.Errorf("chunks[1].Text = %q", chunks[1].Text)
				}
			},
		},
		{
			name: "small leading section merges forward",
			content: "# Title\n\nSmith, Jane\n\n2021\n\n" +
				"## Abstract\n\n" + strings.Repeat("Abstract sentence goes here. ", 4) + "\n",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 1 {
					t.Fatalf("len(chunks) = %d, want 1: %+v", len(chunks), chunks)
				}
				if chunks[0].HeadingPath != "# Title" {
					t.Errorf("HeadingPath = %q, want the first section's path", chunks[0].HeadingPath)
				}
				want := "Smith, Jane\n\n2021\n\nAbstract sentence"
				if !strings.HasPrefix(chunks[0].Text, want) {
					t.Errorf("Text = %q, want prefix %q", chunks[0].Text, want)
				}
			},
		},
		{
			name:    "lists and inline markup flatten to text",
			content: "# T\n\n- **bold** item\n- `code` item\n\nSee <https://example.org> now.\n",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 1 {
					t.Fatalf("len(chunks) = %d, want 1", len(chunks))
				}
				want := "- bold item\n- code item\n\nSee https://example.org now."
				if chunks[0].Text != want {
					t.Errorf("Text = %q, want %q", chunks[0].Text, want)
				}
			},
		},
		{
			name:    "soft line breaks become spaces",
			content: "# T\n\nfirst line\nsecond line\n",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 1 || chunks[0].Text != "first line second line" {
					t.Errorf("chunks = %+v", chunks)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunker.Chunk([]byte(tt.content))
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunks[%d].Index = %d", i, c.Index)
				}
			}
			tt.check(t, chunks)
		})
	}
}

func TestChunker_Chunk_SizeConstraints(t *testing.T) {
	chunker := NewChunker()

	para := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)
	content := "# Paper\n\n## Full text\n\n" + strings.Repeat(para+"\n\n", 8)

	chunks := chunker.Chunk([]byte(content))
	if len(chunks) < 3 {
		t.Fatalf("len(chunks) = %d, want the long section split", len(chunks))
	}

	for i, c := range chunks {
		if n := utf8.RuneCountInString(c.Text); n > maxChunkSize {
			t.Errorf("chunks[%d] has %d runes, max %d", i, n, maxChunkSize)
		}
		if c.HeadingPath != "# Paper > ## Full text" {
			t.Errorf("chunks[%d].HeadingPath = %q", i, c.HeadingPath)
		}
		if strings.TrimSpace(c.Text) != c.Text {
			t.Errorf("chunks[%d] is not trimmed", i)
		}
	}
}

func TestChunker_Split(t *testing.T) {
	c := &Chunker{MinRunes: 1, MaxRunes: 20, Overlap: 10}

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "fits",
			in:   "short text",
			want: []string{"short text"},
		},
		{
			name: "cuts at sentence and overlaps on a word",
			in:   "One two three. Four five six seven.",
			want: []string{"One two three.", "three. Four five", "Four five six seven."},
		},
		{
			name: "cuts between words",
			in:   "alpha beta gamma delta epsilon zeta eta",
			want: []string{"alpha beta gamma", "gamma delta epsilon", "epsilon zeta eta"},
		},
		{
			name: "no boundary falls back to a hard cut",
			in:   strings.Repeat("x", 45),
			want: []string{strings.Repeat("x", 20), strings.Repeat("x", 20), strings.Repeat("x", 5)},
		},
		{
			name: "multibyte runes",
			in:   strings.Repeat("é", 25),
			want: []string{strings.Repeat("é", 20), strings.Repeat("é", 5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.split(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("split() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("split()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunker_Chunk_HeadingHierarchy(t *testing.T) {
	chunker := &Chunker{parser: NewChunker().parser, MinRunes: 1, MaxRunes: maxChunkSize}

	content := "# A\n\na text\n\n## B\n\nb text\n\n### C\n\nc text\n\n## D\n\nd text\n"
	chunks := chunker.Chunk([]byte(content))

	want := []string{"# A", "# A > ## B", "# A > ## B > ### C", "# A > ## D"}
	if len(chunks) != len(want) {
		t.Fatalf("len(chunks) = %d, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, w := range want {
		if chunks[i].HeadingPath != w {
			t.Errorf("chunks[%d].HeadingPath = %q, want %q", i, chunks[i].HeadingPath, w)
		}
	}
}
