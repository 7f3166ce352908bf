package librarian

import (
	"context"
	"fmt"
	"strings"

	"CortexFM/logger"
	"CortexFM/model"
	"CortexFM/repository"
)

// Librarian enriches tracks at pending_enrichment and advances them to
// pending_compliance.
type Librarian struct {
	tracks     repository.TrackRepository
	artists    repository.ArtistRepository
	embeddings repository.TrackEmbeddingRepository
	classifier Classifier
	fallback   *KeywordClassifier
	embedder   Embedder
}

// New creates a Librarian. classifier is the capability selected at startup;
// the keyword fallback additionally catches its runtime failures, so a
// classification failure never propagates.
func New(
	tracks repository.TrackRepository,
	artists repository.ArtistRepository,
	embeddings repository.TrackEmbeddingRepository,
	classifier Classifier,
	embedder Embedder,
) *Librarian {
	return &Librarian{
		tracks:     tracks,
		artists:    artists,
		embeddings: embeddings,
		classifier: classifier,
		fallback:   NewKeywordClassifier(),
		embedder:   embedder,
	}
}

// EnrichBatch processes up to maxTracks tracks at pending_enrichment,
// oldest first. A failure on one track does not abort the rest; failed
// tracks stay at pending_enrichment for the next pass. Returns the number
// of tracks processed.
func (l *Librarian) EnrichBatch(ctx context.Context, maxTracks int) (int, error) {
	tracks, err := l.tracks.ListTracksByStatus(model.StatusPendingEnrichment, maxTracks)
	if err != nil {
		return 0, err
	}

	logger.Info("Enrichment batch starting", logger.Int("tracks", len(tracks)))

	processed := 0
	for _, track := range tracks {
		if err := l.Enrich(ctx, track); err != nil {
			logger.Error("Failed to enrich track",
				logger.String("trackId", track.ID),
				logger.String("title", track.Title),
				logger.ErrorField(err))
			continue
		}
		processed++
	}

	logger.Info("Enrichment batch finished",
		logger.Int("processed", processed),
		logger.Int("selected", len(tracks)))
	return processed, nil
}

// Enrich classifies and embeds one track, then transitions it to
// pending_compliance in a single transaction. Only valid for tracks at
// pending_enrichment.
func (l *Librarian) Enrich(ctx context.Context, track *model.Track) error {
	if track.Status != model.StatusPendingEnrichment {
		return fmt.Errorf("track %s is at status %s, not %s", track.ID, track.Status, model.StatusPendingEnrichment)
	}

	artistName := l.artistName(track)

	info := TrackInfo{
		Title:           track.Title,
		Artist:          artistName,
		Album:           track.Album,
		DurationSeconds: track.DurationSeconds,
	}

	classification, err := l.classifier.Classify(ctx, info)
	if err != nil {
		// The capability may be down; classification must never fail.
		logger.Warn("Classification capability failed, using keyword fallback",
			logger.String("trackId", track.ID),
			logger.ErrorField(err))
		classification, _ = l.fallback.Classify(ctx, info)
	}

	vector, err := l.embedder.Embed(ctx, embeddingText(track, artistName, classification))
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	if !track.Status.CanTransitionTo(model.StatusPendingCompliance) {
		return fmt.Errorf("illegal status transition from %s", track.Status)
	}

	track.PrimaryGenre = classification.PrimaryGenre
	track.SecondaryGenres = classification.SecondaryGenres
	track.MoodTags = classification.MoodTags
	track.CulturalContext = classification.CulturalContext
	track.Embedding = vector
	track.Status = model.StatusPendingCompliance

	tx, err := l.tracks.BeginTx()
	if err != nil {
		return err
	}
	if err := l.tracks.UpdateEnrichmentWithTx(tx, track); err != nil {
		l.tracks.RollbackTx(tx)
		track.Status = model.StatusPendingEnrichment
		return err
	}
	if err := l.embeddings.UpsertEmbeddingWithTx(tx, &model.TrackEmbedding{
		TrackID:      track.ID,
		Embedding:    vector,
		ModelVersion: l.embedder.ModelVersion(),
	}); err != nil {
		l.tracks.RollbackTx(tx)
		track.Status = model.StatusPendingEnrichment
		return err
	}
	if err := l.tracks.CommitTx(tx); err != nil {
		l.tracks.RollbackTx(tx)
		track.Status = model.StatusPendingEnrichment
		return err
	}

	logger.Info("Enriched track",
		logger.String("trackId", track.ID),
		logger.String("title", track.Title),
		logger.String("genre", track.PrimaryGenre))
	return nil
}

// artistName resolves the track's artist through an explicit lookup;
// "Unknown" when the reference cannot be resolved.
func (l *Librarian) artistName(track *model.Track) string {
	artist, err := l.artists.GetArtistByID(track.ArtistID)
	if err != nil {
		logger.Warn("Failed to resolve artist",
			logger.String("trackId", track.ID),
			logger.ErrorField(err))
		return "Unknown"
	}
	if artist == nil {
		return "Unknown"
	}
	return artist.Name
}

// embeddingText concatenates the track's descriptive fields, skipping empty
// ones, into the blob submitted to the embedding capability.
func embeddingText(track *model.Track, artistName string, c *Classification) string {
	if artistName == "" {
		artistName = "Unknown"
	}
	parts := []string{
		track.Title,
		artistName,
		track.Album,
		c.PrimaryGenre,
		strings.Join(c.SecondaryGenres, " "),
		strings.Join(c.MoodTags, " "),
		c.CulturalContext,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
