package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"appanote/pkg/models"
)

var (
	ErrFolderExists   = errors.New("folder already exists")
	ErrFolderNotFound = errors.New("folder not found")
	ErrVideoNotFound  = errors.New("video not found")
	ErrInvalidName    = errors.New("invalid folder name")
	ErrStoreLocked    = errors.New("data store is locked by another process")
)

// SearchResult pairs a matching video with the folder it lives in.
type SearchResult struct {
	Folder string       `json:"folder"`
	Video  models.Video `json:"video"`
}

// Manager handles the JSON data store holding the video catalog.
// All mutations are persisted immediately.
type Manager struct {
	mu       sync.RWMutex
	dataPath string
	doc      *models.Document
	lock     *flock.Flock
}

// NewManager opens the data store at dataPath, creating an empty one if
// the file doesn't exist. A sibling lock file guards against a second
// process opening the same store.
func NewManager(dataPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dataPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fileLock := flock.New(dataPath + ".lock")
	ok, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire store lock: %w", err)
	}
	if !ok {
		return nil, ErrStoreLocked
	}

	manager := &Manager{
		dataPath: dataPath,
		doc:      models.NewDocument(),
		lock:     fileLock,
	}

	if _, err := os.Stat(dataPath); err == nil {
		if err := manager.load(); err != nil {
			fileLock.Unlock()
			return nil, fmt.Errorf("failed to load data store: %w", err)
		}
	} else {
		if err := manager.save(); err != nil {
			fileLock.Unlock()
			return nil, fmt.Errorf("failed to create data store: %w", err)
		}
	}

	return manager, nil
}

// Close releases the store lock
func (m *Manager) Close() error {
	return m.lock.Unlock()
}

// Path returns the data file path
func (m *Manager) Path() string {
	return m.dataPath
}

// AddFolder creates a new empty folder. Surrounding whitespace in the
// name is trimmed so the API and form paths agree on folder identity.
func (m *Manager) AddFolder(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.doc.Folders[name]; ok {
		return ErrFolderExists
	}

	m.doc.Folders[name] = models.Folder{Videos: []models.Video{}}

	return m.save()
}

// Folders returns all folder names, sorted
func (m *Manager) Folders() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.doc.Folders))
	for name := range m.doc.Folders {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Folder returns a copy of the named folder
func (m *Manager) Folder(name string) (models.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	folder, ok := m.doc.Folders[name]
	if !ok {
		return models.Folder{}, ErrFolderNotFound
	}

	return copyFolder(folder), nil
}

// SetFolderNotes replaces the free-form notes attached to a folder
func (m *Manager) SetFolderNotes(name, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	folder, ok := m.doc.Folders[name]
	if !ok {
		return ErrFolderNotFound
	}

	folder.Notes = notes
	m.doc.Folders[name] = folder

	return m.save()
}

// AddVideo appends a video to a folder, creating the folder if missing.
// Videos without an ID get a generated one so every record is addressable.
// The stored record is returned.
func (m *Manager) AddVideo(folderName string, video models.Video) (models.Video, error) {
	if strings.TrimSpace(folderName) == "" {
		return models.Video{}, ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	if video.AddedAt == "" {
		video.AddedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if video.Tags == nil {
		video.Tags = []string{}
	}

	folder := m.doc.Folders[folderName]
	if folder.Videos == nil {
		folder.Videos = []models.Video{}
	}
	folder.Videos = append(folder.Videos, video)
	m.doc.Folders[folderName] = folder

	return video, m.save()
}

// FindVideo returns a copy of a video by ID
func (m *Manager) FindVideo(folderName, id string) (models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	folder, ok := m.doc.Folders[folderName]
	if !ok {
		return models.Video{}, ErrFolderNotFound
	}

	for _, v := range folder.Videos {
		if v.ID == id {
			return v, nil
		}
	}

	return models.Video{}, ErrVideoNotFound
}

// UpdateVideo applies a partial update to a video record
func (m *Manager) UpdateVideo(folderName, id string, update models.VideoUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	folder, ok := m.doc.Folders[folderName]
	if !ok {
		return ErrFolderNotFound
	}

	for i := range folder.Videos {
		if folder.Videos[i].ID != id {
			continue
		}

		v := &folder.Videos[i]
		if update.Title != nil {
			v.Title = *update.Title
		}
		if update.Channel != nil {
			v.Channel = *update.Channel
		}
		if update.Tags != nil {
			v.Tags = *update.Tags
		}
		if update.Notes != nil {
			v.Notes = *update.Notes
		}
		if update.Watched != nil {
			v.Watched = *update.Watched
		}
		if update.WatchLater != nil {
			v.WatchLater = *update.WatchLater
		}

		m.doc.Folders[folderName] = folder
		return m.save()
	}

	return ErrVideoNotFound
}

// SetMetadata fills in remotely fetched fields on an existing video
func (m *Manager) SetMetadata(folderName, id string, meta models.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	folder, ok := m.doc.Folders[folderName]
	if !ok {
		return ErrFolderNotFound
	}

	for i := range folder.Videos {
		if folder.Videos[i].ID != id {
			continue
		}

		v := &folder.Videos[i]
		if meta.Title != "" {
			v.Title = meta.Title
		}
		if meta.Channel != "" {
			v.Channel = meta.Channel
		}
		if meta.ThumbnailURL != "" {
			v.ThumbnailURL = meta.ThumbnailURL
		}
		if meta.Duration != "" {
			v.Duration = meta.Duration
		}
		if meta.PublishedAt != "" {
			v.PublishedAt = meta.PublishedAt
		}
		if meta.Description != "" {
			v.Description = meta.Description
		}

		m.doc.Folders[folderName] = folder
		return m.save()
	}

	return ErrVideoNotFound
}

// ToggleWatched flips the watched flag and returns the new value
func (m *Manager) ToggleWatched(folderName, id string) (bool, error) {
	return m.toggle(folderName, id, func(v *models.Video) *bool { return &v.Watched })
}

// ToggleWatchLater flips the watch-later flag and returns the new value
func (m *Manager) ToggleWatchLater(folderName, id string) (bool, error) {
	return m.toggle(folderName, id, func(v *models.Video) *bool { return &v.WatchLater })
}

func (m *Manager) toggle(folderName, id string, field func(*models.Video) *bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	folder, ok := m.doc.Folders[folderName]
	if !ok {
		return false, ErrFolderNotFound
	}

	for i := range folder.Videos {
		if folder.Videos[i].ID != id {
			continue
		}

		flag := field(&folder.Videos[i])
		*flag = !*flag
		m.doc.Folders[folderName] = folder

		return *flag, m.save()
	}

	return false, ErrVideoNotFound
}

// MoveVideo moves a video between folders, creating the destination if missing
func (m *Manager) MoveVideo(src, dst, id string) error {
	if strings.TrimSpace(dst) == "" {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	srcFolder, ok := m.doc.Folders[src]
	if !ok {
		return ErrFolderNotFound
	}

	var moved *models.Video
	kept := make([]models.Video, 0, len(srcFolder.Videos))
	for _, v := range srcFolder.Videos {
		if v.ID == id {
			vc := v
			moved = &vc
			continue
		}
		kept = append(kept, v)
	}

	if moved == nil {
		return ErrVideoNotFound
	}

	srcFolder.Videos = kept
	m.doc.Folders[src] = srcFolder

	dstFolder := m.doc.Folders[dst]
	if dstFolder.Videos == nil {
		dstFolder.Videos = []models.Video{}
	}
	dstFolder.Videos = append(dstFolder.Videos, *moved)
	m.doc.Folders[dst] = dstFolder

	return m.save()
}

// DeleteVideo removes a video from a folder
func (m *Manager) DeleteVideo(folderName, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	folder, ok := m.doc.Folders[folderName]
	if !ok {
		return ErrFolderNotFound
	}

	kept := make([]models.Video, 0, len(folder.Videos))
	found := false
	for _, v := range folder.Videos {
		if v.ID == id {
			found = true
			continue
		}
		kept = append(kept, v)
	}

	if !found {
		return ErrVideoNotFound
	}

	folder.Videos = kept
	m.doc.Folders[folderName] = folder

	return m.save()
}

// Search returns videos matching the query across all folders.
// Matching is a case-insensitive substring check over title, channel,
// tags, notes, URL, and the folder name.
func (m *Manager) Search(query string) []SearchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	results := []SearchResult{}

	for _, name := range m.folderNames() {
		folder := m.doc.Folders[name]
		for _, v := range folder.Videos {
			hay := strings.ToLower(strings.Join([]string{
				v.Title,
				v.Channel,
				strings.Join(v.Tags, " "),
				v.Notes,
				v.URL,
				name,
			}, " "))

			if strings.Contains(hay, q) {
				results = append(results, SearchResult{Folder: name, Video: v})
			}
		}
	}

	return results
}

// VideoCount returns the total number of videos across all folders
func (m *Manager) VideoCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, folder := range m.doc.Folders {
		total += len(folder.Videos)
	}

	return total
}

// Document returns a deep copy of the current store document
func (m *Manager) Document() *models.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.copyDocument()
}

// folderNames returns sorted folder names (must be called with lock held)
func (m *Manager) folderNames() []string {
	names := make([]string, 0, len(m.doc.Folders))
	for name := range m.doc.Folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// copyDocument clones the document (must be called with lock held)
func (m *Manager) copyDocument() *models.Document {
	doc := models.NewDocument()
	for name, folder := range m.doc.Folders {
		doc.Folders[name] = copyFolder(folder)
	}
	return doc
}

func copyFolder(folder models.Folder) models.Folder {
	videos := make([]models.Video, len(folder.Videos))
	copy(videos, folder.Videos)
	return models.Folder{Videos: videos, Notes: folder.Notes}
}

// load reads the store document from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.dataPath)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse data JSON: %w", err)
	}

	if doc.Folders == nil {
		doc.Folders = make(map[string]models.Folder)
	}
	m.doc = &doc

	return nil
}

// save writes the store document to disk atomically
// (must be called with lock held)
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tmpPath := m.dataPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}

	if err := os.Rename(tmpPath, m.dataPath); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	return nil
}
