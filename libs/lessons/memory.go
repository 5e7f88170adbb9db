package lessons

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps lesson documents in process memory. Documents are held
// in the same schemaless shape Firestore returns, so read paths behave alike.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

// ListDocuments returns copies of all documents ordered by id.
func (m *MemoryStore) ListDocuments(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		data, err := cloneData(m.docs[id])
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, nil
}

// GetDocument returns a copy of one document.
func (m *MemoryStore) GetDocument(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	data, err := cloneData(stored)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

// UpsertLesson replaces the whole document keyed by lesson.ID.
func (m *MemoryStore) UpsertLesson(ctx context.Context, lesson Lesson) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := toData(lesson)
	if err != nil {
		return fmt.Errorf("encode lesson %s: %w", lesson.ID, err)
	}
	m.mu.Lock()
	m.docs[lesson.ID] = data
	m.mu.Unlock()
	return nil
}

// PutDocument stores an arbitrary document shape under id, bypassing lesson
// validation. It exists to stage malformed documents in tests; lessons are
// written through UpsertLesson.
func (m *MemoryStore) PutDocument(id string, data map[string]any) error {
	cloned, err := cloneData(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[id] = cloned
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func toData(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func cloneData(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	return toData(data)
}
