package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"CortexFM/core/hunter"
	"CortexFM/core/librarian"
	"CortexFM/db"
	"CortexFM/logger"
	"CortexFM/model"
	"CortexFM/repository"

	"github.com/gorilla/mux"
)

// APIHandler handles all API requests.
type APIHandler struct {
	trackRepo   repository.TrackRepository
	licenseRepo repository.LicenseRepository
	hunter      *hunter.Hunter
	librarian   *librarian.Librarian

	hunterBatchSize    int
	librarianBatchSize int
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	licenseRepo repository.LicenseRepository,
	h *hunter.Hunter,
	l *librarian.Librarian,
	hunterBatchSize, librarianBatchSize int,
) *APIHandler {
	return &APIHandler{
		trackRepo:          trackRepo,
		licenseRepo:        licenseRepo,
		hunter:             h,
		librarian:          l,
		hunterBatchSize:    hunterBatchSize,
		librarianBatchSize: librarianBatchSize,
	}
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// HealthHandler reports readiness of the database and Redis.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if db.DB == nil {
		checks["database"] = "not connected"
		healthy = false
	} else if err := db.DB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	if db.RedisClient == nil {
		checks["redis"] = "not connected"
		healthy = false
	} else if err := db.RedisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	respondWithJSON(w, status, map[string]interface{}{
		"status": map[bool]string{true: "ok", false: "degraded"}[healthy],
		"checks": checks,
	})
}

// GetTracksHandler lists tracks, newest first, optionally filtered by status.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	status := model.TrackStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown status: "+string(status))
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	tracks, err := h.trackRepo.ListTracks(status, limit, offset)
	if err != nil {
		logger.Error("Failed to list tracks", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tracks": tracks,
		"limit":  limit,
		"offset": offset,
	})
}

// GetTrackHandler returns one track by ID.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	track, err := h.trackRepo.GetTrackByID(id)
	if err != nil {
		logger.Error("Failed to get track", logger.String("trackId", id), logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to get track")
		return
	}
	if track == nil {
		respondWithError(w, http.StatusNotFound, "track not found")
		return
	}
	respondWithJSON(w, http.StatusOK, track)
}

// GetLicensesHandler lists the known licenses.
func (h *APIHandler) GetLicensesHandler(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.licenseRepo.ListLicenses()
	if err != nil {
		logger.Error("Failed to list licenses", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list licenses")
		return
	}
	respondWithJSON(w, http.StatusOK, licenses)
}

// RunHunterHandler triggers one ingestion batch against the configured feed.
func (h *APIHandler) RunHunterHandler(w http.ResponseWriter, r *http.Request) {
	max := queryInt(r, "max", h.hunterBatchSize)
	accepted, err := h.hunter.IngestBatch(r.Context(), max)
	if err != nil {
		logger.Error("Ingestion batch failed", logger.ErrorField(err))
		respondWithError(w, http.StatusBadGateway, "ingestion batch failed: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"accepted": accepted})
}

// RunLibrarianHandler triggers one enrichment batch.
func (h *APIHandler) RunLibrarianHandler(w http.ResponseWriter, r *http.Request) {
	max := queryInt(r, "max", h.librarianBatchSize)
	processed, err := h.librarian.EnrichBatch(r.Context(), max)
	if err != nil {
		logger.Error("Enrichment batch failed", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "enrichment batch failed: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"processed": processed})
}

// RegisterRoutes attaches all API routes to the router.
func (h *APIHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", h.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/licenses", h.GetLicensesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/hunter/run", h.RunHunterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/librarian/run", h.RunLibrarianHandler).Methods(http.MethodPost)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
