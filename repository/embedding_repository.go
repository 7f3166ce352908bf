package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"CortexFM/model"

	"github.com/google/uuid"
)

// TrackEmbeddingRepository defines the interface for embedding rows.
type TrackEmbeddingRepository interface {
	GetEmbedding(trackID, modelVersion string) (*model.TrackEmbedding, error)
	ListEmbeddingsByTrack(trackID string) ([]*model.TrackEmbedding, error)
	UpsertEmbeddingWithTx(tx *sql.Tx, embedding *model.TrackEmbedding) error
}

// mysqlTrackEmbeddingRepository implements TrackEmbeddingRepository for MySQL.
type mysqlTrackEmbeddingRepository struct {
	db *sql.DB
}

// NewMySQLTrackEmbeddingRepository creates a new mysqlTrackEmbeddingRepository.
func NewMySQLTrackEmbeddingRepository(db *sql.DB) TrackEmbeddingRepository {
	return &mysqlTrackEmbeddingRepository{db: db}
}

const embeddingColumns = `id, track_id, embedding, model_version, generated_at`

func scanEmbedding(row rowScanner) (*model.TrackEmbedding, error) {
	emb := &model.TrackEmbedding{}
	var vector sql.NullString
	err := row.Scan(&emb.ID, &emb.TrackID, &vector, &emb.ModelVersion, &emb.GeneratedAt)
	if err != nil {
		return nil, err
	}
	if vector.Valid && vector.String != "" {
		if err := json.Unmarshal([]byte(vector.String), &emb.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding vector: %w", err)
		}
	}
	return emb, nil
}

// GetEmbedding retrieves the row for one (track, model version) pair.
// Returns (nil, nil) when absent.
func (r *mysqlTrackEmbeddingRepository) GetEmbedding(trackID, modelVersion string) (*model.TrackEmbedding, error) {
	query := `SELECT ` + embeddingColumns + ` FROM track_embeddings WHERE track_id = ? AND model_version = ?`
	emb, err := scanEmbedding(r.db.QueryRow(query, trackID, modelVersion))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan embedding for track %s: %w", trackID, err)
	}
	return emb, nil
}

// ListEmbeddingsByTrack retrieves all embedding rows of one track.
func (r *mysqlTrackEmbeddingRepository) ListEmbeddingsByTrack(trackID string) ([]*model.TrackEmbedding, error) {
	query := `SELECT ` + embeddingColumns + ` FROM track_embeddings WHERE track_id = ? ORDER BY generated_at ASC`
	rows, err := r.db.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings for track %s: %w", trackID, err)
	}
	defer rows.Close()

	embeddings := make([]*model.TrackEmbedding, 0)
	for rows.Next() {
		emb, err := scanEmbedding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		embeddings = append(embeddings, emb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during embedding rows iteration: %w", err)
	}
	return embeddings, nil
}

// UpsertEmbeddingWithTx inserts the embedding row, replacing the vector when
// a row for the same (track, model version) pair already exists. Re-running
// enrichment therefore never violates the uniqueness invariant.
func (r *mysqlTrackEmbeddingRepository) UpsertEmbeddingWithTx(tx *sql.Tx, embedding *model.TrackEmbedding) error {
	if embedding.ID == "" {
		embedding.ID = uuid.NewString()
	}
	if embedding.GeneratedAt.IsZero() {
		embedding.GeneratedAt = time.Now()
	}

	vector, err := json.Marshal(embedding.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding vector: %w", err)
	}

	query := `INSERT INTO track_embeddings (id, track_id, embedding, model_version, generated_at)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE embedding = VALUES(embedding), generated_at = VALUES(generated_at)`
	_, err = tx.Exec(query, embedding.ID, embedding.TrackID, string(vector), embedding.ModelVersion, embedding.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding for track %s: %w", embedding.TrackID, err)
	}
	return nil
}
