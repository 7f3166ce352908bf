package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"CortexFM/model"
)

type stubTrackRepo struct {
	tracks []*model.Track
}

func (r *stubTrackRepo) GetTrackByID(id string) (*model.Track, error) {
	for _, t := range r.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *stubTrackRepo) GetTrackBySourceURL(sourceURL string) (*model.Track, error) {
	return nil, nil
}

func (r *stubTrackRepo) ListTracksByStatus(status model.TrackStatus, limit int) ([]*model.Track, error) {
	return r.ListTracks(status, limit, 0)
}

func (r *stubTrackRepo) ListTracks(status model.TrackStatus, limit, offset int) ([]*model.Track, error) {
	out := make([]*model.Track, 0)
	for _, t := range r.tracks {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubTrackRepo) CountTracksByStatus(status model.TrackStatus) (int, error) {
	tracks, _ := r.ListTracksByStatus(status, 1<<30)
	return len(tracks), nil
}

func (r *stubTrackRepo) BeginTx() (*sql.Tx, error)                           { return nil, nil }
func (r *stubTrackRepo) RollbackTx(tx *sql.Tx)                               {}
func (r *stubTrackRepo) CommitTx(tx *sql.Tx) error                           { return nil }
func (r *stubTrackRepo) CreateTrackWithTx(tx *sql.Tx, t *model.Track) error  { return nil }
func (r *stubTrackRepo) UpdateEnrichmentWithTx(tx *sql.Tx, t *model.Track) error {
	return nil
}

type stubLicenseRepo struct {
	licenses []*model.License
}

func (r *stubLicenseRepo) GetLicenseByShortCode(code string) (*model.License, error) {
	for _, l := range r.licenses {
		if l.ShortCode == code {
			return l, nil
		}
	}
	return nil, nil
}

func (r *stubLicenseRepo) ListLicenses() ([]*model.License, error) {
	return r.licenses, nil
}

func (r *stubLicenseRepo) SeedDefaultLicenses() (int, error) { return 0, nil }

func testRouter(tracks *stubTrackRepo, licenses *stubLicenseRepo) http.Handler {
	handler := NewAPIHandler(tracks, licenses, nil, nil, 10, 10)
	return NewRouter(handler)
}

func TestGetTracksFiltersByStatus(t *testing.T) {
	tracks := &stubTrackRepo{tracks: []*model.Track{
		{ID: "t1", Title: "One", Status: model.StatusPendingEnrichment},
		{ID: "t2", Title: "Two", Status: model.StatusApproved},
	}}
	router := testRouter(tracks, &stubLicenseRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/tracks?status=approved", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Tracks []*model.Track `json:"tracks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Tracks) != 1 || body.Tracks[0].ID != "t2" {
		t.Errorf("tracks = %+v, want only t2", body.Tracks)
	}
}

func TestGetTracksRejectsUnknownStatus(t *testing.T) {
	router := testRouter(&stubTrackRepo{}, &stubLicenseRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/tracks?status=published", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetTrackByID(t *testing.T) {
	tracks := &stubTrackRepo{tracks: []*model.Track{
		{ID: "t1", Title: "One", Status: model.StatusPendingEnrichment},
	}}
	router := testRouter(tracks, &stubLicenseRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/tracks/t1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tracks/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetLicenses(t *testing.T) {
	licenses := &stubLicenseRepo{licenses: []*model.License{
		{ID: "l1", ShortCode: "CC0"},
		{ID: "l2", ShortCode: "CC-BY"},
	}}
	router := testRouter(&stubTrackRepo{}, licenses)

	req := httptest.NewRequest(http.MethodGet, "/api/licenses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body []*model.License
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 2 {
		t.Errorf("licenses = %d, want 2", len(body))
	}
}

func TestHealthDegradedWithoutBackends(t *testing.T) {
	router := testRouter(&stubTrackRepo{}, &stubLicenseRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
