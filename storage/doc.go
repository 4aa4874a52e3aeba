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


// Package storage provides the storage abstraction layer for mishkat.
//
// This package defines repository interfaces that decouple storage
// implementation from the search core and the ingestion pipeline. Each
// corpus has its own repository: VerseRepository for the verses corpus
// and SayingRepository for the sayings corpus.
//
// Implementation packages return their concrete store types; consumers
// accept these interfaces. Both sqlite stores satisfy their repository
// interface, checked by compile-time assertions in the implementation.
//
// # Ordering Guarantees
//
// Batch lookups (GetVerses, GetSayings) preserve the caller-supplied id
// order and silently skip ids with no backing row; the search core relies
// on both properties when hydrating fused rankings. Paginated lookups
// order by a fixed key per query shape so page boundaries are stable
// across repeated calls over unchanged data.
//
// # Keyword Matching
//
// The Match methods expose the corpus full-text index. They return ids
// with the index's native rank (lower is better) and translate a
// malformed match expression into an empty result rather than an error;
// infrastructure failures still return errors.
//
// Every repository method takes a context.Context, and implementations
// must tolerate concurrent calls: the search core fans out to both
// corpora at once.
package storage
