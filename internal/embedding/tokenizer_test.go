package embedding

import (
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("hello world", 10)
	if len(ids) != 10 {
		t.Errorf("len(ids)=%d", len(ids))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("expected SEP at 3, got %d", ids[3])
	}
	if attn[0] != 1 || attn[3] != 1 || attn[4] != 0 {
		t.Errorf("attention mask: %v", attn)
	}
	for i, v := range types {
		if v != 0 {
			t.Errorf("token type %d = %d, want 0", i, v)
		}
	}
}

func TestSimpleTokenizer_TokenizePair(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.TokenizePair("query", "some passage text", 16)
	// [CLS] query [SEP] some passage text [SEP]
	if ids[0] != 101 || ids[2] != 102 || ids[6] != 102 {
		t.Errorf("layout: %v", ids)
	}
	if types[1] != 0 || types[3] != 1 || types[6] != 1 {
		t.Errorf("segments: %v", types)
	}
	if attn[6] != 1 || attn[7] != 0 {
		t.Errorf("attention: %v", attn)
	}
}

func TestSimpleTokenizer_PairTruncatesPassage(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.TokenizePair("q", "a b c d e f g h", 6)
	if len(ids) != 6 {
		t.Fatalf("len=%d", len(ids))
	}
	if ids[5] != 102 || attn[5] != 1 {
		t.Errorf("final token should be SEP: %v", ids)
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  a  b  c  ")
	if len(words) != 3 {
		t.Errorf("expected 3 words, got %v", words)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("a very long string that would overflow a naive signed hash") < 0 {
		t.Error("hash must be non-negative")
	}
}
