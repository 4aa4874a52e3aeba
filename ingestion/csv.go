package ingestion

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/mishkat/core"
)

// csvTable is a parsed CSV file with a header-indexed column lookup.
type csvTable struct {
	path   string
	header map[string]int
	rows   [][]string
}

func readTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRows)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return &csvTable{path: path, header: header, rows: records[1:]}, nil
}

// column returns the index of the first header matching one of the
// given names, or -1 when none is present.
func (t *csvTable) column(names ...string) int {
	for _, name := range names {
		if idx, ok := t.header[name]; ok {
			return idx
		}
	}
	return -1
}

func (t *csvTable) require(names ...string) (int, error) {
	if idx := t.column(names...); idx >= 0 {
		return idx, nil
	}
	return 0, fmt.Errorf("%s: %w %q", t.path, ErrMissingColumn, names[0])
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseInt converts one cell to an int, reporting the file line on
// failure. row is the zero-based data row index.
func parseInt(path string, row int, column, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: parsing %s: %w", path, row+2, column, err)
	}
	return n, nil
}

// ReadVerses loads verse rows from a CSV file. Chapter, verse, chapter
// name and text columns are required; database export header names
// (surah, ayat, name) are accepted as aliases. An id column is optional
// and rows are numbered sequentially without one.
func ReadVerses(path string) ([]*core.Verse, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	chapterCol, err := table.require("chapter", "surah")
	if err != nil {
		return nil, err
	}
	verseCol, err := table.require("verse", "ayat")
	if err != nil {
		return nil, err
	}
	nameCol, err := table.require("chapter_name", "name")
	if err != nil {
		return nil, err
	}
	textCol, err := table.require("text", "saheeh international")
	if err != nil {
		return nil, err
	}
	idCol := table.column("id")

	verses := make([]*core.Verse, 0, len(table.rows))
	for i, row := range table.rows {
		verse := &core.Verse{
			ID:          core.RecordID(i + 1),
			ChapterName: field(row, nameCol),
			Text:        field(row, textCol),
		}
		if idCol >= 0 {
			id, err := parseInt(table.path, i, "id", field(row, idCol))
			if err != nil {
				return nil, err
			}
			verse.ID = core.RecordID(id)
		}
		verse.Chapter, err = parseInt(table.path, i, "chapter", field(row, chapterCol))
		if err != nil {
			return nil, err
		}
		verse.Number, err = parseInt(table.path, i, "verse", field(row, verseCol))
		if err != nil {
			return nil, err
		}
		if err := core.ValidateVerse(verse); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", table.path, i+2, err)
		}
		verses = append(verses, verse)
	}
	return verses, nil
}

// ReadSayings loads saying rows from a CSV file. Collection, reference
// and text columns are required; topic, grade and question are
// optional. Collection keys are lowercased so filters and display name
// lookups agree.
func ReadSayings(path string) ([]*core.Saying, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	collectionCol, err := table.require("collection")
	if err != nil {
		return nil, err
	}
	referenceCol, err := table.require("reference")
	if err != nil {
		return nil, err
	}
	textCol, err := table.require("text", "hadith_text")
	if err != nil {
		return nil, err
	}
	idCol := table.column("id")
	topicCol := table.column("topic")
	gradeCol := table.column("grade")
	questionCol := table.column("question")

	sayings := make([]*core.Saying, 0, len(table.rows))
	for i, row := range table.rows {
		saying := &core.Saying{
			ID:         core.RecordID(i + 1),
			Collection: strings.ToLower(field(row, collectionCol)),
			Reference:  field(row, referenceCol),
			Text:       field(row, textCol),
			Topic:      field(row, topicCol),
			Grade:      field(row, gradeCol),
			Question:   field(row, questionCol),
		}
		if idCol >= 0 {
			id, err := parseInt(table.path, i, "id", field(row, idCol))
			if err != nil {
				return nil, err
			}
			saying.ID = core.RecordID(id)
		}
		if err := core.ValidateSaying(saying); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", table.path, i+2, err)
		}
		sayings = append(sayings, saying)
	}
	return sayings, nil
}

// ReadChapters loads chapter info rows from a CSV file.
func ReadChapters(path string) ([]*core.Chapter, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	numberCol, err := table.require("number", "surah_number")
	if err != nil {
		return nil, err
	}
	nameCol, err := table.require("name", "arabic_title")
	if err != nil {
		return nil, err
	}
	englishCol, err := table.require("english_name", "english_title")
	if err != nil {
		return nil, err
	}
	countCol, err := table.require("verse_count", "number_of_verses")
	if err != nil {
		return nil, err
	}
	revelationCol := table.column("revelation", "place_of_revelation")

	chapters := make([]*core.Chapter, 0, len(table.rows))
	for i, row := range table.rows {
		chapter := &core.Chapter{
			Name:        field(row, nameCol),
			EnglishName: field(row, englishCol),
			Revelation:  field(row, revelationCol),
		}
		chapter.Number, err = parseInt(table.path, i, "number", field(row, numberCol))
		if err != nil {
			return nil, err
		}
		chapter.VerseCount, err = parseInt(table.path, i, "verse_count", field(row, countCol))
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}
	return chapters, nil
}

// ReadDivineNames loads the names table from a CSV file.
func ReadDivineNames(path string) ([]*core.DivineName, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	nameCol, err := table.require("name", "arabic_name")
	if err != nil {
		return nil, err
	}
	translitCol, err := table.require("transliteration", "name_in_english")
	if err != nil {
		return nil, err
	}
	meaningCol, err := table.require("meaning", "name_meaning")
	if err != nil {
		return nil, err
	}
	idCol := table.column("id")

	names := make([]*core.DivineName, 0, len(table.rows))
	for i, row := range table.rows {
		name := &core.DivineName{
			ID:              i + 1,
			Name:            field(row, nameCol),
			Transliteration: field(row, translitCol),
			Meaning:         field(row, meaningCol),
		}
		if idCol >= 0 {
			name.ID, err = parseInt(table.path, i, "id", field(row, idCol))
			if err != nil {
				return nil, err
			}
		}
		names = append(names, name)
	}
	return names, nil
}
