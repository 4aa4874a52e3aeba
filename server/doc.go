// Package server exposes the corpus and search operations over a JSON
// HTTP API.
//
// Browse routes page through the stored records (verses by chapter,
// sayings by collection or topic) while the /search routes run hybrid
// queries through the search package. Errors are returned as
// {"error": "..."} with a 400 for invalid input, 404 for unknown
// records or labels and 500 otherwise.
package server
