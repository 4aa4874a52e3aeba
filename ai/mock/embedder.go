package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// MockEmbedder is a test double for ai.Embedder. With no overrides it
// derives a deterministic unit vector from each text, so the same text
// always embeds identically and tests never need a live service.
type MockEmbedder struct {
	// Dim is the width of generated vectors. Defaults to 384,
	// matching the production model.
	Dim int

	// EmbedTextFunc, when set, replaces the default single-text
	// behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc, when set, replaces the default batch behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu    sync.Mutex
	calls int
}

// NewMockEmbedder returns a mock with the default deterministic
// behavior. The concrete type is exposed so tests can override the
// embed functions and inspect call counts.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dim: 384}
}

// EmbedText embeds one text.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.record()

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return hashVector(text, m.Dim), nil
}

// EmbedTexts embeds a batch. Safe to call from several goroutines at
// once, matching how the ingestion worker pool uses it.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.record()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = hashVector(text, m.Dim)
	}
	return vectors, nil
}

// CallCount reports how many embed calls were made, a batch counting
// as one.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbedder) record() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// hashVector expands an FNV hash of the text into a unit vector of the
// given width using a small linear congruential generator.
func hashVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	state := h.Sum32()

	vector := make([]float32, dim)
	var sum float64
	for i := 0; i < dim; i++ {
		state = state*1664525 + 1013904223
		vector[i] = float32(state%1000) / 1000.0
		sum += float64(vector[i]) * float64(vector[i])
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(sum))
		for i := 0; i < dim; i++ {
			vector[i] *= inv
		}
	}
	return vector
}
