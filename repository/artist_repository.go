package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CortexFM/model"

	"github.com/google/uuid"
)

// ArtistRepository defines the interface for artist data operations.
type ArtistRepository interface {
	GetArtistByID(id string) (*model.Artist, error)
	GetArtistByNormalizedName(nameNormalized string) (*model.Artist, error)
	GetOrCreateArtistWithTx(tx *sql.Tx, name string) (*model.Artist, error)
}

// NormalizeArtistName produces the uniqueness key for an artist.
func NormalizeArtistName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// mysqlArtistRepository implements ArtistRepository for MySQL.
type mysqlArtistRepository struct {
	db *sql.DB
}

// NewMySQLArtistRepository creates a new mysqlArtistRepository.
func NewMySQLArtistRepository(db *sql.DB) ArtistRepository {
	return &mysqlArtistRepository{db: db}
}

const artistColumns = `id, name, name_normalized, aliases, bio, track_count, total_plays, created_at, updated_at`

func scanArtist(row rowScanner) (*model.Artist, error) {
	artist := &model.Artist{}
	var aliases sql.NullString
	err := row.Scan(
		&artist.ID, &artist.Name, &artist.NameNormalized, &aliases, &artist.Bio,
		&artist.TrackCount, &artist.TotalPlays, &artist.CreatedAt, &artist.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if aliases.Valid && aliases.String != "" {
		if err := json.Unmarshal([]byte(aliases.String), &artist.Aliases); err != nil {
			return nil, fmt.Errorf("failed to unmarshal artist aliases: %w", err)
		}
	}
	return artist, nil
}

// GetArtistByID retrieves an artist by ID. Returns (nil, nil) when absent.
func (r *mysqlArtistRepository) GetArtistByID(id string) (*model.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ?`
	artist, err := scanArtist(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan artist by ID %s: %w", id, err)
	}
	return artist, nil
}

// GetArtistByNormalizedName retrieves an artist by the normalized-name key.
func (r *mysqlArtistRepository) GetArtistByNormalizedName(nameNormalized string) (*model.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE name_normalized = ?`
	artist, err := scanArtist(r.db.QueryRow(query, nameNormalized))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan artist by normalized name %s: %w", nameNormalized, err)
	}
	return artist, nil
}

// GetOrCreateArtistWithTx resolves an artist by normalized name inside the
// given transaction, creating the row when absent. A concurrent insert of the
// same name loses on the unique index and falls back to the re-read.
func (r *mysqlArtistRepository) GetOrCreateArtistWithTx(tx *sql.Tx, name string) (*model.Artist, error) {
	normalized := NormalizeArtistName(name)
	if normalized == "" {
		return nil, fmt.Errorf("artist name must not be empty")
	}

	artist, err := r.getByNormalizedNameTx(tx, normalized)
	if err != nil {
		return nil, err
	}
	if artist != nil {
		return artist, nil
	}

	now := time.Now()
	artist = &model.Artist{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		NameNormalized: normalized,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	query := `INSERT INTO artists (id, name, name_normalized, aliases, bio, track_count, total_plays, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`
	_, err = tx.Exec(query, artist.ID, artist.Name, artist.NameNormalized, "[]", "", now, now)
	if err != nil {
		if IsDuplicateEntry(err) {
			// Lost the insert race; the row exists now.
			existing, rerr := r.getByNormalizedNameTx(tx, normalized)
			if rerr != nil {
				return nil, rerr
			}
			if existing == nil {
				return nil, fmt.Errorf("artist %s created concurrently but not visible in this transaction", normalized)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert artist %s: %w", artist.Name, err)
	}
	return artist, nil
}

func (r *mysqlArtistRepository) getByNormalizedNameTx(tx *sql.Tx, normalized string) (*model.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE name_normalized = ?`
	artist, err := scanArtist(tx.QueryRow(query, normalized))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan artist by normalized name %s: %w", normalized, err)
	}
	return artist, nil
}
