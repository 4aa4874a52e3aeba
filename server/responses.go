package server

import "github.com/poiesic/mishkat/core"

// ErrorResponse is the JSON envelope returned by every failing
// endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// VerseResponse is one verse on the wire.
type VerseResponse struct {
	ID          int64  `json:"id"`
	Chapter     int    `json:"chapter"`
	Number      int    `json:"verse"`
	ChapterName string `json:"chapter_name,omitempty"`
	Text        string `json:"text"`
}

func newVerseResponse(v *core.Verse) VerseResponse {
	return VerseResponse{
		ID:          int64(v.ID),
		Chapter:     v.Chapter,
		Number:      v.Number,
		ChapterName: v.ChapterName,
		Text:        v.Text,
	}
}

func verseResponses(verses []*core.Verse) []VerseResponse {
	out := make([]VerseResponse, 0, len(verses))
	for _, v := range verses {
		out = append(out, newVerseResponse(v))
	}
	return out
}

// SayingResponse is one saying on the wire. Fields the source data
// does not provide are omitted.
type SayingResponse struct {
	ID         int64  `json:"id"`
	Collection string `json:"collection"`
	Reference  string `json:"reference,omitempty"`
	Text       string `json:"text"`
	Topic      string `json:"topic,omitempty"`
	Grade      string `json:"grade,omitempty"`
	Question   string `json:"question,omitempty"`
}

func newSayingResponse(say *core.Saying) SayingResponse {
	return SayingResponse{
		ID:         int64(say.ID),
		Collection: say.Collection,
		Reference:  say.Reference,
		Text:       say.Text,
		Topic:      say.Topic,
		Grade:      say.Grade,
		Question:   say.Question,
	}
}

func sayingResponses(sayings []*core.Saying) []SayingResponse {
	out := make([]SayingResponse, 0, len(sayings))
	for _, say := range sayings {
		out = append(out, newSayingResponse(say))
	}
	return out
}

// ChapterResponse is one chapter of the verses corpus.
type ChapterResponse struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	VerseCount  int    `json:"verse_count"`
	Revelation  string `json:"revelation,omitempty"`
}

func chapterResponses(chapters []*core.Chapter) []ChapterResponse {
	out := make([]ChapterResponse, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ChapterResponse{
			Number:      ch.Number,
			Name:        ch.Name,
			EnglishName: ch.EnglishName,
			VerseCount:  ch.VerseCount,
			Revelation:  ch.Revelation,
		})
	}
	return out
}

// NameResponse is one of the divine names.
type NameResponse struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Transliteration string `json:"transliteration"`
	Meaning         string `json:"meaning"`
}

func nameResponses(names []*core.DivineName) []NameResponse {
	out := make([]NameResponse, 0, len(names))
	for _, n := range names {
		out = append(out, NameResponse{
			ID:              n.ID,
			Name:            n.Name,
			Transliteration: n.Transliteration,
			Meaning:         n.Meaning,
		})
	}
	return out
}

// CollectionResponse summarizes one saying collection.
type CollectionResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Total       int    `json:"total"`
}

func collectionResponses(collections []*core.CollectionInfo) []CollectionResponse {
	out := make([]CollectionResponse, 0, len(collections))
	for _, col := range collections {
		out = append(out, CollectionResponse{
			Name:        col.Name,
			DisplayName: col.DisplayName,
			Total:       col.Total,
		})
	}
	return out
}

// StatsResponse summarizes both corpora.
type StatsResponse struct {
	Verses  VerseStatsResponse  `json:"verses"`
	Sayings SayingStatsResponse `json:"sayings"`
}

// VerseStatsResponse carries the verse corpus counts.
type VerseStatsResponse struct {
	Total    int `json:"total"`
	Chapters int `json:"chapters"`
}

// SayingStatsResponse carries the saying corpus counts with
// per-collection totals.
type SayingStatsResponse struct {
	Total       int                  `json:"total"`
	Topics      int                  `json:"topics"`
	Collections []CollectionResponse `json:"collections"`
}

// TopicResponse is one topic facet with its record count.
type TopicResponse struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

func topicResponses(facets []core.FacetCount) []TopicResponse {
	out := make([]TopicResponse, 0, len(facets))
	for _, f := range facets {
		out = append(out, TopicResponse{Topic: f.Label, Count: f.Count})
	}
	return out
}

// PaginationResponse describes the page window of a list response.
type PaginationResponse struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPaginationResponse(p core.Pagination) PaginationResponse {
	return PaginationResponse{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

// HitResponse is one ranked search result. Exactly one of Verse and
// Saying is set, matching Corpus.
type HitResponse struct {
	Corpus string          `json:"corpus"`
	ID     int64           `json:"id"`
	Score  float64         `json:"score"`
	Verse  *VerseResponse  `json:"verse,omitempty"`
	Saying *SayingResponse `json:"saying,omitempty"`
}

func newHitResponse(hit core.SearchHit) HitResponse {
	out := HitResponse{
		Corpus: string(hit.Corpus),
		ID:     int64(hit.ID),
		Score:  hit.Score,
	}
	if hit.Verse != nil {
		v := newVerseResponse(hit.Verse)
		out.Verse = &v
	}
	if hit.Saying != nil {
		say := newSayingResponse(hit.Saying)
		out.Saying = &say
	}
	return out
}

func hitResponses(hits []core.SearchHit) []HitResponse {
	out := make([]HitResponse, 0, len(hits))
	for _, hit := range hits {
		out = append(out, newHitResponse(hit))
	}
	return out
}

// ResultResponse is one ranked hit list. Degraded marks results fused
// from a single surviving source.
type ResultResponse struct {
	Count    int           `json:"count"`
	Degraded bool          `json:"degraded,omitempty"`
	Hits     []HitResponse `json:"hits"`
}

func newResultResponse(result *core.SearchResult) ResultResponse {
	return ResultResponse{
		Count:    len(result.Hits),
		Degraded: result.Degraded,
		Hits:     hitResponses(result.Hits),
	}
}

// SearchResponse is the envelope for single-ranking search endpoints.
type SearchResponse struct {
	Query string `json:"query"`
	ResultResponse
}

// CombinedSearchResponse holds both corpora's results side by side.
type CombinedSearchResponse struct {
	Query   string         `json:"query"`
	Verses  ResultResponse `json:"verses"`
	Sayings ResultResponse `json:"sayings"`
}

// SimilarResponse lists the precomputed neighbors of one saying.
type SimilarResponse struct {
	ID      int64         `json:"id"`
	Count   int           `json:"count"`
	Similar []HitResponse `json:"similar"`
}
