package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"fodmate-backend/internal/model"
	"fodmate-backend/pkg/logger"
)

// DiskStorage persists each session as its own JSON file under
// <dataDir>/sessions, with a sessions.json index for cheap listing. A bounded
// in-memory cache fronts the files.
type DiskStorage struct {
	dataDir   string
	mu        sync.RWMutex
	cache     map[string]*model.Session
	cacheSize int
}

type sessionIndex struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDiskStorage(dataDir string, cacheSize int) *DiskStorage {
	if cacheSize <= 0 {
		cacheSize = 100
	}
	return &DiskStorage{
		dataDir:   dataDir,
		cache:     make(map[string]*model.Session),
		cacheSize: cacheSize,
	}
}

func (d *DiskStorage) Init() error {
	if err := os.MkdirAll(filepath.Join(d.dataDir, "sessions"), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	indexes, err := d.loadIndex()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, index := range indexes {
		if len(d.cache) >= d.cacheSize {
			break
		}
		session, err := d.loadSessionFile(index.ID)
		if err != nil {
			logger.Errorf("Failed to load session %s: %v", index.ID, err)
			continue
		}
		d.cache[index.ID] = session
	}

	logger.Infof("Disk storage initialized, %d sessions indexed", len(indexes))
	return nil
}

func (d *DiskStorage) Close() error {
	return nil
}

func (d *DiskStorage) indexPath() string {
	return filepath.Join(d.dataDir, "sessions.json")
}

func (d *DiskStorage) sessionPath(sessionID string) string {
	return filepath.Join(d.dataDir, "sessions", sessionID+".json")
}

func (d *DiskStorage) loadIndex() ([]*sessionIndex, error) {
	data, err := os.ReadFile(d.indexPath())
	if os.IsNotExist(err) {
		return nil, d.saveIndex(nil)
	}
	if err != nil {
		return nil, err
	}

	var indexes []*sessionIndex
	if err := json.Unmarshal(data, &indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}

func (d *DiskStorage) saveIndex(indexes []*sessionIndex) error {
	if indexes == nil {
		indexes = []*sessionIndex{}
	}
	data, err := json.MarshalIndent(indexes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(d.indexPath(), data, 0644)
}

func (d *DiskStorage) loadSessionFile(sessionID string) (*model.Session, error) {
	data, err := os.ReadFile(d.sessionPath(sessionID))
	if os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &session, nil
}

func (d *DiskStorage) saveSessionFile(session *model.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(d.sessionPath(session.ID), data, 0644)
}

// updateIndex rewrites the index entry for session; remove drops it instead.
func (d *DiskStorage) updateIndex(session *model.Session, remove bool) error {
	indexes, err := d.loadIndex()
	if err != nil {
		return err
	}

	out := indexes[:0]
	for _, index := range indexes {
		if index.ID != session.ID {
			out = append(out, index)
		}
	}
	if !remove {
		out = append(out, &sessionIndex{
			ID:        session.ID,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return d.saveIndex(out)
}

func (d *DiskStorage) CreateSession(session *model.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.saveSessionFile(session); err != nil {
		return err
	}
	if err := d.updateIndex(session, false); err != nil {
		return err
	}

	d.cacheSession(session)
	return nil
}

func (d *DiskStorage) GetSession(sessionID string) (*model.Session, error) {
	d.mu.RLock()
	if session, ok := d.cache[sessionID]; ok {
		d.mu.RUnlock()
		return session, nil
	}
	d.mu.RUnlock()

	session, err := d.loadSessionFile(sessionID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cacheSession(session)
	d.mu.Unlock()

	return session, nil
}

func (d *DiskStorage) UpdateSession(session *model.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := os.Stat(d.sessionPath(session.ID)); os.IsNotExist(err) {
		return ErrSessionNotFound
	}

	if err := d.saveSessionFile(session); err != nil {
		return err
	}
	if err := d.updateIndex(session, false); err != nil {
		return err
	}

	d.cacheSession(session)
	return nil
}

func (d *DiskStorage) DeleteSession(sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.sessionPath(sessionID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ErrSessionNotFound
	}
	if err := os.Remove(path); err != nil {
		return err
	}

	delete(d.cache, sessionID)
	return d.updateIndex(&model.Session{ID: sessionID}, true)
}

func (d *DiskStorage) ListSessions() ([]*model.Session, error) {
	indexes, err := d.loadIndex()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(indexes))
	for _, index := range indexes {
		session, err := d.GetSession(index.ID)
		if err != nil {
			logger.Errorf("Failed to load session %s: %v", index.ID, err)
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (d *DiskStorage) AddMessage(sessionID string, message *model.Message) error {
	session, err := d.GetSession(sessionID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	session.Messages = append(session.Messages, *message)
	session.UpdatedAt = time.Now()

	if err := d.saveSessionFile(session); err != nil {
		return err
	}
	return d.updateIndex(session, false)
}

func (d *DiskStorage) GetMessages(sessionID string) ([]*model.Message, error) {
	session, err := d.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	messages := make([]*model.Message, len(session.Messages))
	for i := range session.Messages {
		messages[i] = &session.Messages[i]
	}
	return messages, nil
}

// cacheSession assumes d.mu is held. Eviction is arbitrary map order, good
// enough for a bounded working set.
func (d *DiskStorage) cacheSession(session *model.Session) {
	if len(d.cache) >= d.cacheSize {
		for id := range d.cache {
			delete(d.cache, id)
			break
		}
	}
	d.cache[session.ID] = session
}
