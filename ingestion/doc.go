// Package ingestion builds the corpus databases and index artifacts
// from CSV sources.
//
// The Pipeline type runs the build in stages:
//   - CSV import of verses, sayings, chapter info and divine names
//   - keyword index rebuild for both corpora
//   - embedding of every record text through a worker pool, with an
//     optional cache so repeat builds skip already-embedded texts
//   - vector index and id mapping artifact emission
//   - similarity edge computation between sayings
//
// Build runs all stages in order; each stage is also callable on its
// own, for example to re-embed after a model change without touching
// the imported records.
package ingestion
