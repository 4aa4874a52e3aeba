// Package mock implements ai.Embedder for tests. Without overrides it
// hashes each text into a deterministic unit vector, so the same text
// always embeds to the same vector and distinct texts almost always
// differ.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.Dim = 8
//
//	// Inject failures or fixed vectors where a test needs them.
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	count := embedder.CallCount()
package mock
