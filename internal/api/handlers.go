package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"appanote/internal/metadata"
	"appanote/internal/refresh"
	"appanote/internal/store"
	"appanote/pkg/models"
)

const Version = "0.1.0"

// respondJSON writes v as a JSON response
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes an error message as a JSON response
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondStoreError maps store errors onto HTTP status codes
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrFolderNotFound), errors.Is(err, store.ErrVideoNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrFolderExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidName), errors.Is(err, store.ErrInvalidBackup):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// urlParam returns a path parameter, URL-decoded
func urlParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// handleHealth handles health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleStatus handles status endpoint
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":        running,
		"folders":        len(s.store.Folders()),
		"videos":         s.store.VideoCount(),
		"pendingFetches": s.refresher.Pending(),
		"metadataCache":  s.meta.CacheSize(),
		"version":        Version,
	})
}

// handleListFolders returns all folder names
func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"folders": s.store.Folders(),
	})
}

// handleAddFolder creates a new folder
func (s *Server) handleAddFolder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := strings.TrimSpace(body.Name)
	if err := s.store.AddFolder(name); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// handleGetFolder returns a folder with its videos and notes
func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "folder")

	folder, err := s.store.Folder(name)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":   name,
		"videos": folder.Videos,
		"notes":  folder.Notes,
	})
}

// handleSetFolderNotes replaces a folder's notes
func (s *Server) handleSetFolderNotes(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "folder")

	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.SetFolderNotes(name, body.Notes); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"name": name, "notes": body.Notes})
}

// handleListVideos returns the videos in a folder
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "folder")

	folder, err := s.store.Folder(name)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"videos": folder.Videos,
	})
}

// addVideoRequest is the payload for adding a video.
// Explicit fields override fetched metadata.
type addVideoRequest struct {
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Channel string   `json:"channel"`
	Tags    []string `json:"tags"`
	Notes   string   `json:"notes"`
}

// handleAddVideo adds a video to a folder, fetching metadata for it.
// When the synchronous fetch fails the record is stored as-is and a
// background refresh is queued.
func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	folderName := urlParam(r, "folder")

	var body addVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(body.URL) == "" {
		respondError(w, http.StatusBadRequest, "no URL provided")
		return
	}

	video := s.buildVideo(r, body)

	stored, err := s.store.AddVideo(folderName, video)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	// Records stored without metadata get a background refresh
	if stored.Title == "" || stored.ThumbnailURL == "" {
		if err := s.refresher.Queue(folderName, stored.ID, stored.URL); err != nil && !errors.Is(err, refresh.ErrAlreadyQueued) {
			s.logger.Debug().Err(err).Str("video", stored.ID).Msg("refresh not queued")
		}
	}

	respondJSON(w, http.StatusCreated, stored)
}

// buildVideo assembles a video record from the request payload plus
// fetched metadata
func (s *Server) buildVideo(r *http.Request, body addVideoRequest) models.Video {
	video := models.Video{
		URL:     body.URL,
		Title:   body.Title,
		Channel: body.Channel,
		Tags:    body.Tags,
		Notes:   body.Notes,
	}

	if id, err := metadata.ExtractVideoID(body.URL); err == nil {
		video.ID = id
	}

	meta, err := s.meta.Fetch(r.Context(), body.URL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", body.URL).Msg("metadata fetch failed, queueing refresh")
		return video
	}

	if video.Title == "" {
		video.Title = meta.Title
	}
	if video.Channel == "" {
		video.Channel = meta.Channel
	}
	video.ThumbnailURL = meta.ThumbnailURL
	video.Duration = meta.Duration
	video.PublishedAt = meta.PublishedAt
	video.Description = meta.Description

	return video
}

// handleGetVideo returns a single video
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.store.FindVideo(urlParam(r, "folder"), urlParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, video)
}

// handleUpdateVideo applies a partial update to a video
func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	folderName := urlParam(r, "folder")
	id := urlParam(r, "id")

	var update models.VideoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.UpdateVideo(folderName, id, update); err != nil {
		respondStoreError(w, err)
		return
	}

	video, err := s.store.FindVideo(folderName, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, video)
}

// handleDeleteVideo removes a video from a folder
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteVideo(urlParam(r, "folder"), urlParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMoveVideo moves a video to another folder
func (s *Server) handleMoveVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.MoveVideo(urlParam(r, "folder"), body.To, urlParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"folder": body.To})
}

// handleSearch returns videos matching the query across all folders
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": s.store.Search(query),
	})
}

// handleMetadata fetches metadata for a URL without storing anything
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("url")
	if videoURL == "" {
		respondError(w, http.StatusBadRequest, "no URL provided")
		return
	}

	meta, err := s.meta.Fetch(r.Context(), videoURL)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, meta)
}

// handleBackup writes a backup file and returns the document as a download
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	path, err := s.store.Backup(s.config.BackupDir)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info().Str("path", path).Msg("backup written")

	w.Header().Set("Content-Disposition", `attachment; filename="backup.json"`)
	respondJSON(w, http.StatusOK, s.store.Document())
}

// handleRestore replaces the store document from an uploaded JSON payload
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Restore(r.Body); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"folders": s.store.Folders(),
	})
}

// handleRefresh queues a background metadata refresh for stale records
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	queued := s.refresher.QueueStale()

	respondJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}
