// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai defines the text embedding contract the rest of the
// module depends on. The search core and the build pipeline both take
// an Embedder, never a concrete client, so the backend can change
// without touching either.
//
// Two implementations ship with the module:
//
//   - ai/openai talks to OpenAI-compatible embedding APIs and is the
//     one production code uses. Its constructor returns the Embedder
//     interface.
//   - ai/mock produces deterministic vectors with no external service
//     and returns its concrete type, so tests can inject behavior and
//     count calls.
//
// A typical setup:
//
//	config := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("all-minilm"),
//	)
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "seek knowledge")
package ai
