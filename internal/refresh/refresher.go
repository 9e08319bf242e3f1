package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"appanote/internal/metadata"
	"appanote/internal/store"
)

var (
	ErrAlreadyQueued    = errors.New("video already queued or fetching")
	ErrRefresherStopped = errors.New("refresher is stopped")
)

// FetchStatus represents the status of a metadata fetch
type FetchStatus int

const (
	StatusQueued FetchStatus = iota
	StatusFetching
	StatusCompleted
	StatusFailed
)

func (s FetchStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusFetching:
		return "fetching"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request represents a queued metadata refresh
type Request struct {
	Folder     string
	VideoID    string
	VideoURL   string
	QueuedAt   time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Status     FetchStatus
	Error      error
}

// Refresher fetches missing video metadata in the background and writes
// the results back into the store.
type Refresher struct {
	mu         sync.RWMutex
	client     *metadata.Client
	store      *store.Manager
	logger     zerolog.Logger
	queue      []*Request
	active     map[string]*Request
	ctx        context.Context
	cancel     context.CancelFunc
	workerWg   sync.WaitGroup
	running    bool
	maxWorkers int
}

// NewRefresher creates a new metadata refresher
func NewRefresher(client *metadata.Client, storeMgr *store.Manager, logger zerolog.Logger, maxWorkers int) *Refresher {
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	return &Refresher{
		client:     client,
		store:      storeMgr,
		logger:     logger,
		queue:      make([]*Request, 0),
		active:     make(map[string]*Request),
		maxWorkers: maxWorkers,
	}
}

// Start starts the refresher workers
func (r *Refresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.running = true

	for i := 0; i < r.maxWorkers; i++ {
		r.workerWg.Add(1)
		go r.worker()
	}

	return nil
}

// Stop stops the refresher workers
func (r *Refresher) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}

	r.cancel()
	r.running = false
	r.mu.Unlock()

	// Wait for workers to finish
	r.workerWg.Wait()

	return nil
}

// Queue adds a video to the refresh queue
func (r *Refresher) Queue(folder, videoID, videoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrRefresherStopped
	}

	// Check if already in queue or fetching
	if _, ok := r.active[videoID]; ok {
		return ErrAlreadyQueued
	}

	for _, req := range r.queue {
		if req.VideoID == videoID {
			return ErrAlreadyQueued
		}
	}

	r.queue = append(r.queue, &Request{
		Folder:   folder,
		VideoID:  videoID,
		VideoURL: videoURL,
		QueuedAt: time.Now(),
		Status:   StatusQueued,
	})

	return nil
}

// QueueStale queues every video that is missing a title or thumbnail
func (r *Refresher) QueueStale() int {
	doc := r.store.Document()

	queued := 0
	for name, folder := range doc.Folders {
		for _, v := range folder.Videos {
			if v.Title != "" && v.ThumbnailURL != "" {
				continue
			}
			if v.URL == "" {
				continue
			}
			if err := r.Queue(name, v.ID, v.URL); err == nil {
				queued++
			}
		}
	}

	return queued
}

// Pending returns the number of queued plus active requests
func (r *Refresher) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queue) + len(r.active)
}

// GetStatus returns the status of a refresh request
func (r *Refresher) GetStatus(videoID string) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if req, ok := r.active[videoID]; ok {
		reqCopy := *req
		return &reqCopy, nil
	}

	for _, req := range r.queue {
		if req.VideoID == videoID {
			reqCopy := *req
			return &reqCopy, nil
		}
	}

	return nil, errors.New("video not queued")
}

// worker processes refresh requests from the queue
func (r *Refresher) worker() {
	defer r.workerWg.Done()

	for {
		// Check if stopped
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		req := r.dequeue()
		if req == nil {
			// No work, sleep a bit
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		r.processRefresh(req)
	}
}

// dequeue removes and returns the next request from the queue
func (r *Refresher) dequeue() *Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) == 0 {
		return nil
	}

	req := r.queue[0]
	r.queue = r.queue[1:]

	// Mark as active
	r.active[req.VideoID] = req

	return req
}

// processRefresh fetches metadata and writes it back to the store
func (r *Refresher) processRefresh(req *Request) {
	defer func() {
		r.mu.Lock()
		delete(r.active, req.VideoID)
		r.mu.Unlock()
	}()

	// GetStatus reads these fields under the same mutex
	r.mu.Lock()
	req.Status = StatusFetching
	req.StartedAt = time.Now()
	r.mu.Unlock()

	meta, err := r.client.Fetch(r.ctx, req.VideoURL)
	if err == nil {
		err = r.store.SetMetadata(req.Folder, req.VideoID, meta)
	}

	r.mu.Lock()
	req.FinishedAt = time.Now()
	if err != nil {
		req.Status = StatusFailed
		req.Error = err
	} else {
		req.Status = StatusCompleted
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn().Err(err).Str("video", req.VideoID).Msg("metadata refresh failed")
		return
	}

	r.logger.Debug().Str("video", req.VideoID).Str("folder", req.Folder).Msg("metadata refreshed")
}
