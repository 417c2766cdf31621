package ingest

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortNatural orders filenames case-insensitively with numeric awareness,
// so track2.mp3 sorts before track10.mp3.
func sortNatural(names []string) {
	collate.New(language.Und, collate.IgnoreCase, collate.Numeric).SortStrings(names)
}
