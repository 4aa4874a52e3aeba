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


package search

import "errors"

var (
	// ErrVerseRepositoryRequired is returned when a verse repository is not provided.
	ErrVerseRepositoryRequired = errors.New("verse repository required")

	// ErrSayingRepositoryRequired is returned when a saying repository is not provided.
	ErrSayingRepositoryRequired = errors.New("saying repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRegistryRequired is returned when an index registry is not provided.
	ErrRegistryRequired = errors.New("index registry required")

	// ErrCorruptIndex indicates that the ANN index and its id mapping
	// disagree (cardinality mismatch, or an ordinal outside the mapping).
	// The artifacts were built from different snapshots; retrying the
	// query cannot help.
	ErrCorruptIndex = errors.New("corrupt index artifacts")

	// ErrBothSourcesFailed is returned when neither the semantic nor the
	// keyword source produced a ranking.
	ErrBothSourcesFailed = errors.New("both ranking sources failed")
)
