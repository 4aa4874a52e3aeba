package core

// Corpus identifies one of the two fixed text domains served by the engine.
// Each corpus has its own record store, keyword index and vector index.
type Corpus string

const (
	// CorpusVerses holds short devotional verses (Quran translations).
	CorpusVerses Corpus = "verses"
	// CorpusSayings holds narrated sayings (hadith collections).
	CorpusSayings Corpus = "sayings"
)

// Valid reports whether c names one of the two known corpora.
func (c Corpus) Valid() bool {
	return c == CorpusVerses || c == CorpusSayings
}

// ParseCorpus converts a corpus name into a Corpus, rejecting unknown names.
func ParseCorpus(name string) (Corpus, error) {
	c := Corpus(name)
	if !c.Valid() {
		return "", ErrUnknownCorpus
	}
	return c, nil
}

// RecordID addresses a record within its corpus. IDs are small positive
// integers assigned by the ingestion pipeline and stable across rebuilds
// of the derived indexes.
type RecordID int64

// Verse is a single translated verse.
type Verse struct {
	ID          RecordID
	Chapter     int    // chapter (surah) number, 1-based
	Number      int    // verse (ayah) number within the chapter, 1-based
	ChapterName string // transliterated chapter name
	Text        string // translation text
}

// Saying is a single narrated saying from one of the source collections.
// Topic, Grade and Question are optional and empty when the source data
// does not provide them.
type Saying struct {
	ID         RecordID
	Collection string
	Reference  string
	Text       string
	Topic      string
	Grade      string
	Question   string
}

// Chapter describes one chapter of the verses corpus.
type Chapter struct {
	Number      int
	Name        string
	EnglishName string
	VerseCount  int
	Revelation  string // "Meccan" or "Medinan"
}

// DivineName is one of the ninety-nine names with its transliteration
// and meaning.
type DivineName struct {
	ID              int
	Name            string
	Transliteration string
	Meaning         string
}

// CollectionInfo summarizes one saying collection.
type CollectionInfo struct {
	Name        string // stable key, e.g. "bukhari"
	DisplayName string
	Total       int
}

// ScoredID pairs a record id with a ranking score. Higher is better for
// every score produced by this module; the scale depends on the producer
// and scores from different producers are not comparable.
type ScoredID struct {
	ID    RecordID
	Score float64
}

// FacetCount is a categorical label together with the number of records
// carrying it.
type FacetCount struct {
	Label string
	Count int
}

// SearchHit is one hydrated search result. Exactly one of Verse and
// Saying is set, matching Corpus.
type SearchHit struct {
	Corpus Corpus
	ID     RecordID
	Score  float64
	Verse  *Verse
	Saying *Saying
}

// SearchResult is an ordered list of hydrated hits. Degraded is set when
// one of the two ranking sources failed and the result was fused from
// the surviving source alone.
type SearchResult struct {
	Hits     []SearchHit
	Degraded bool
}

// Pagination describes one page of a larger result set.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes page metadata for a total row count.
// TotalPages is ceil(total/perPage); zero rows yield zero pages.
func NewPagination(page, perPage, total int) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
