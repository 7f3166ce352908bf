package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CortexFM/model"

	"github.com/go-sql-driver/mysql"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	GetTrackByID(id string) (*model.Track, error)
	GetTrackBySourceURL(sourceURL string) (*model.Track, error)
	ListTracksByStatus(status model.TrackStatus, limit int) ([]*model.Track, error)
	ListTracks(status model.TrackStatus, limit, offset int) ([]*model.Track, error)
	CountTracksByStatus(status model.TrackStatus) (int, error)
	BeginTx() (*sql.Tx, error)
	RollbackTx(tx *sql.Tx)
	CommitTx(tx *sql.Tx) error
	CreateTrackWithTx(tx *sql.Tx, track *model.Track) error
	UpdateEnrichmentWithTx(tx *sql.Tx, track *model.Track) error
}

// IsDuplicateEntry reports whether err is the MySQL duplicate-key error.
// The unique index on tracks.source_url is the real dedup enforcement point;
// the losing writer of a concurrent ingest sees this error and treats it as
// a normal rejection.
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

const trackColumns = `id, title, artist_id, album, license_id, audio_url, audio_object_key,
	duration_seconds, bitrate_kbps, format, file_size_bytes,
	primary_genre, secondary_genres, mood_tags, cultural_context,
	id3_tags, audio_fingerprint, embedding,
	source_url, collected_by, collected_at, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*model.Track, error) {
	track := &model.Track{}
	var (
		bitrate         sql.NullInt64
		fileSize        sql.NullInt64
		secondaryGenres sql.NullString
		moodTags        sql.NullString
		id3Tags         sql.NullString
		embedding       sql.NullString
	)
	err := row.Scan(
		&track.ID, &track.Title, &track.ArtistID, &track.Album, &track.LicenseID,
		&track.AudioURL, &track.AudioObjectKey,
		&track.DurationSeconds, &bitrate, &track.Format, &fileSize,
		&track.PrimaryGenre, &secondaryGenres, &moodTags, &track.CulturalContext,
		&id3Tags, &track.AudioFingerprint, &embedding,
		&track.SourceURL, &track.CollectedBy, &track.CollectedAt,
		&track.Status, &track.CreatedAt, &track.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bitrate.Valid {
		v := int(bitrate.Int64)
		track.BitrateKbps = &v
	}
	if fileSize.Valid {
		v := fileSize.Int64
		track.FileSizeBytes = &v
	}
	if err := unmarshalJSONColumn(secondaryGenres, &track.SecondaryGenres); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(moodTags, &track.MoodTags); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(id3Tags, &track.ID3Tags); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(embedding, &track.Embedding); err != nil {
		return nil, err
	}
	return track, nil
}

func unmarshalJSONColumn(col sql.NullString, dst interface{}) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), dst); err != nil {
		return fmt.Errorf("failed to unmarshal JSON column: %w", err)
	}
	return nil
}

func marshalJSONColumn(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON column: %w", err)
	}
	return string(data), nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when absent.
func (r *mysqlTrackRepository) GetTrackByID(id string) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	track, err := scanTrack(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by ID %s: %w", id, err)
	}
	return track, nil
}

// GetTrackBySourceURL retrieves a track by its exact source URL. This is the
// dedup lookup; the comparison is case-sensitive with no normalization.
func (r *mysqlTrackRepository) GetTrackBySourceURL(sourceURL string) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE source_url = ?`
	track, err := scanTrack(r.db.QueryRow(query, sourceURL))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by source URL: %w", err)
	}
	return track, nil
}

// ListTracksByStatus retrieves up to limit tracks at the given status,
// oldest first.
func (r *mysqlTrackRepository) ListTracksByStatus(status model.TrackStatus, limit int) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE status = ? ORDER BY created_at ASC LIMIT ?`
	rows, err := r.db.Query(query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks by status %s: %w", status, err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// ListTracks retrieves tracks newest first, optionally filtered by status.
func (r *mysqlTrackRepository) ListTracks(status model.TrackStatus, limit, offset int) ([]*model.Track, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		query := `SELECT ` + trackColumns + ` FROM tracks WHERE status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = r.db.Query(query, string(status), limit, offset)
	} else {
		query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = r.db.Query(query, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

func collectTracks(rows *sql.Rows) ([]*model.Track, error) {
	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during track rows iteration: %w", err)
	}
	return tracks, nil
}

// CountTracksByStatus counts tracks at the given status.
func (r *mysqlTrackRepository) CountTracksByStatus(status model.TrackStatus) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks WHERE status = ?`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks by status %s: %w", status, err)
	}
	return count, nil
}

// BeginTx starts a new transaction.
func (r *mysqlTrackRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

// RollbackTx rolls back a transaction. Safe on nil.
func (r *mysqlTrackRepository) RollbackTx(tx *sql.Tx) {
	if tx != nil {
		tx.Rollback()
	}
}

// CommitTx commits a transaction.
func (r *mysqlTrackRepository) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// CreateTrackWithTx inserts a new track inside the given transaction.
func (r *mysqlTrackRepository) CreateTrackWithTx(tx *sql.Tx, track *model.Track) error {
	query := `INSERT INTO tracks (` + trackColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateTrackWithTx: %w", err)
	}
	defer stmt.Close()

	secondaryGenres, err := marshalJSONColumn(track.SecondaryGenres)
	if err != nil {
		return err
	}
	moodTags, err := marshalJSONColumn(track.MoodTags)
	if err != nil {
		return err
	}
	id3Tags, err := marshalJSONColumn(track.ID3Tags)
	if err != nil {
		return err
	}
	embedding, err := marshalJSONColumn(track.Embedding)
	if err != nil {
		return err
	}

	var bitrate, fileSize interface{}
	if track.BitrateKbps != nil {
		bitrate = *track.BitrateKbps
	}
	if track.FileSizeBytes != nil {
		fileSize = *track.FileSizeBytes
	}

	now := time.Now()
	track.CreatedAt = now
	track.UpdatedAt = now

	_, err = stmt.Exec(
		track.ID, track.Title, track.ArtistID, track.Album, track.LicenseID,
		track.AudioURL, track.AudioObjectKey,
		track.DurationSeconds, bitrate, track.Format, fileSize,
		track.PrimaryGenre, secondaryGenres, moodTags, track.CulturalContext,
		id3Tags, track.AudioFingerprint, embedding,
		track.SourceURL, track.CollectedBy, track.CollectedAt,
		string(track.Status), track.CreatedAt, track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to execute CreateTrackWithTx: %w", err)
	}
	return nil
}

// UpdateEnrichmentWithTx writes the classification fields, the embedding and
// the new status inside the given transaction.
func (r *mysqlTrackRepository) UpdateEnrichmentWithTx(tx *sql.Tx, track *model.Track) error {
	query := `UPDATE tracks
	           SET primary_genre = ?, secondary_genres = ?, mood_tags = ?, cultural_context = ?,
	               embedding = ?, status = ?, updated_at = ?
	           WHERE id = ?`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateEnrichmentWithTx: %w", err)
	}
	defer stmt.Close()

	secondaryGenres, err := marshalJSONColumn(track.SecondaryGenres)
	if err != nil {
		return err
	}
	moodTags, err := marshalJSONColumn(track.MoodTags)
	if err != nil {
		return err
	}
	embedding, err := marshalJSONColumn(track.Embedding)
	if err != nil {
		return err
	}

	track.UpdatedAt = time.Now()
	_, err = stmt.Exec(
		track.PrimaryGenre, secondaryGenres, moodTags, track.CulturalContext,
		embedding, string(track.Status), track.UpdatedAt, track.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateEnrichmentWithTx for track %s: %w", track.ID, err)
	}
	return nil
}
