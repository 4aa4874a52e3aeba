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


package core

import "errors"

// Domain validation errors
var (
	// ErrUnknownCorpus indicates a corpus name outside the fixed set.
	ErrUnknownCorpus = errors.New("unknown corpus")

	// ErrEmptyQuery indicates query text that is empty or whitespace only.
	ErrEmptyQuery = errors.New("query text cannot be empty")

	// ErrInvalidLimit indicates a non-positive result count request.
	ErrInvalidLimit = errors.New("result limit must be positive")

	// ErrInvalidPage indicates a page or per-page value below 1.
	ErrInvalidPage = errors.New("page numbers start at 1")

	// ErrUnknownTopic indicates a facet label with no records behind it.
	ErrUnknownTopic = errors.New("unknown topic label")

	// ErrUnknownCollection indicates a collection name outside the corpus.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidVerse indicates a Verse failed validation.
	ErrInvalidVerse = errors.New("invalid verse")

	// ErrInvalidSaying indicates a Saying failed validation.
	ErrInvalidSaying = errors.New("invalid saying")

	// ErrEmptyText indicates a record text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")
)
