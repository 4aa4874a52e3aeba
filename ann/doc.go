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


// Package ann provides the nearest-neighbor index used for semantic search.
//
// FlatIndex is an exact k-NN index over fixed-dimension float32 vectors
// ranked by squared L2 distance. It is built offline by the ingestion
// pipeline, persisted to a single file, and loaded read-only at query
// time. An IDMapping file pairs every index ordinal with the record id
// it was built from; the two artifacts are only meaningful together.
//
// Search results are positions into the index (ordinals), not record
// ids. Callers translate ordinals through the IDMapping and must treat
// an out-of-range ordinal as a corrupt artifact pair.
package ann
