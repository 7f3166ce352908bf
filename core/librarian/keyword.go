package librarian

import (
	"context"
	"strings"
)

// genreKeywords is evaluated in order so classification stays deterministic.
var genreKeywords = []struct {
	genre    string
	keywords []string
}{
	{"Jazz", []string{"jazz", "bossa", "swing"}},
	{"Rock", []string{"rock", "metal", "punk"}},
	{"Classical", []string{"classical", "symphony", "concerto"}},
	{"Electronic", []string{"electronic", "techno", "house"}},
}

// KeywordClassifier is the deterministic fallback classification capability.
// It scans the title for genre keywords and never fails.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the fallback classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify assigns a genre from title keywords, Unknown otherwise, with a
// single neutral mood tag and no cultural context.
func (c *KeywordClassifier) Classify(_ context.Context, info TrackInfo) (*Classification, error) {
	titleLower := strings.ToLower(info.Title)

	genre := "Unknown"
	for _, entry := range genreKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(titleLower, kw) {
				genre = entry.genre
				break
			}
		}
		if genre != "Unknown" {
			break
		}
	}

	return &Classification{
		PrimaryGenre:    genre,
		SecondaryGenres: []string{},
		MoodTags:        []string{"neutral"},
	}, nil
}
