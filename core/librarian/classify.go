// Package librarian enriches admitted tracks with genre/mood/context
// classification and a semantic embedding, then advances them to the
// compliance stage.
package librarian

import "context"

// Classification is the structured result of a classification capability.
type Classification struct {
	PrimaryGenre    string   `json:"primary_genre"`
	SecondaryGenres []string `json:"secondary_genres"`
	MoodTags        []string `json:"mood_tags"`
	CulturalContext string   `json:"cultural_context"`
}

// TrackInfo is the text a classifier works from.
type TrackInfo struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds int
}

// Classifier is the classification capability. Implementations: the remote
// LLM classifier and the deterministic keyword fallback, selected once at
// startup.
type Classifier interface {
	Classify(ctx context.Context, info TrackInfo) (*Classification, error)
}
