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

import (
	"fmt"
	"strings"
)

// MaxPerPage caps the page size accepted by paginated lookups.
const MaxPerPage = 100

// ValidateQuery validates free-text search input.
//
// Validation rules:
//   - text must contain at least one non-whitespace character
//   - k must be positive
//
// Filter values are NOT validated here; unknown collection or topic
// filters simply match nothing.
func ValidateQuery(text string, k int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyQuery
	}
	if k <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, k)
	}
	return nil
}

// ValidatePage validates paging input for offset/limit lookups.
func ValidatePage(page, perPage int) error {
	if page < 1 || perPage < 1 {
		return fmt.Errorf("%w: page=%d perPage=%d", ErrInvalidPage, page, perPage)
	}
	if perPage > MaxPerPage {
		return fmt.Errorf("%w: perPage=%d exceeds %d", ErrInvalidPage, perPage, MaxPerPage)
	}
	return nil
}

// ClampPage normalizes caller-supplied paging values the way the HTTP
// layer does: pages below 1 become 1, per-page is forced into
// [1, MaxPerPage].
func ClampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// ValidateVerse validates a Verse according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Chapter and Number must be positive
//
// NOT validated:
//   - ID (0 is valid until the ingestion pipeline assigns one)
//   - ChapterName (some source rows omit it)
func ValidateVerse(verse *Verse) error {
	if verse == nil {
		return fmt.Errorf("%w: verse is nil", ErrInvalidVerse)
	}

	if verse.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVerse, ErrEmptyText)
	}

	if verse.Chapter < 1 || verse.Number < 1 {
		return fmt.Errorf("%w: chapter=%d number=%d", ErrInvalidVerse, verse.Chapter, verse.Number)
	}

	return nil
}

// ValidateSaying validates a Saying according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Collection must not be empty
//
// NOT validated (optional in the source data):
//   - Topic, Grade, Question
//   - ID (0 is valid until the ingestion pipeline assigns one)
func ValidateSaying(saying *Saying) error {
	if saying == nil {
		return fmt.Errorf("%w: saying is nil", ErrInvalidSaying)
	}

	if saying.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSaying, ErrEmptyText)
	}

	if saying.Collection == "" {
		return fmt.Errorf("%w: collection cannot be empty", ErrInvalidSaying)
	}

	return nil
}
