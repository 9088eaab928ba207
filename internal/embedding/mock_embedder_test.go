package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "Revenue grew in 2023")
	b, _ := e.Embed(ctx, "Revenue grew in 2023")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d", i)
		}
	}
	var norm float64
	for _, v := range a {
		norm += float64(v * v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm=%f, want 1", norm)
	}
}

func TestMockEmbedder_SharedWordsAreCloser(t *testing.T) {
	e := NewMockEmbedder(128)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "revenue growth")
	near, _ := e.Embed(ctx, "the revenue growth was strong")
	far, _ := e.Embed(ctx, "weather forecast tomorrow")
	if sq(q, near) >= sq(q, far) {
		t.Errorf("expected shared-word text to be closer: near=%f far=%f", sq(q, near), sq(q, far))
	}
}

func TestMockEmbedder_BatchCalls(t *testing.T) {
	e := NewMockEmbedder(8)
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || e.BatchCalls() != 1 {
		t.Errorf("len=%d calls=%d", len(out), e.BatchCalls())
	}
}

func sq(a, b []float32) float32 {
	var s float32
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
