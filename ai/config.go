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


package ai

import (
	"errors"
	"strings"
)

// Config describes the embedding service a library talks to.
type Config struct {
	// EmbeddingHost is the base URL of the embedding API, for example
	// "http://localhost:11434/v1" for a local Ollama server.
	EmbeddingHost string

	// EmbeddingModel names the model the service should run, for
	// example "all-minilm" or "text-embedding-3-small".
	EmbeddingModel string

	// EmbeddingDim is the vector width the model produces. The build
	// pipeline rejects vectors of any other width before they reach
	// the index.
	EmbeddingDim int
}

// ConfigOption adjusts one Config field.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service base URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model name.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingDim sets the expected embedding vector width.
func WithEmbeddingDim(dim int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDim = dim
	}
}

// DefaultConfig targets a local Ollama instance serving all-minilm,
// whose vectors are 384 wide.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "all-minilm",
		EmbeddingDim:   384,
	}
}

// NewConfig starts from DefaultConfig and applies the given options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize appends the /v1 path segment OpenAI-compatible servers
// (Ollama, LocalAI, vLLM) expect when the host was given without it.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
}

// Validate normalizes the config and reports the first missing or
// out-of-range field.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingDim < 1 {
		return errors.New("ai config: EmbeddingDim must be positive")
	}
	return nil
}
