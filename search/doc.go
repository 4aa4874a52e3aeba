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


// Package search implements hybrid retrieval over the two text corpora.
//
// A query is answered by two independent ranked sources: the flat ANN
// index over embedding vectors (semantic) and the SQLite FTS5 index
// (keyword). The Searcher runs both in parallel, merges their ranked id
// lists with reciprocal rank fusion, and hydrates the fused ids into
// records through the storage repositories. When one source fails or
// times out the query is answered from the surviving source and the
// result is flagged as degraded.
//
// The package also serves the precomputed similarity graph ("records
// related to record X") and the topic facet views, which read offline
// artifacts rather than querying the indexes live.
package search
