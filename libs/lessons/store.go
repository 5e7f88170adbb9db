package lessons

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no lesson document has the requested id.
	ErrNotFound = errors.New("lesson not found")

	// ErrStoreUnavailable marks failures that make the store connection
	// itself unusable, as opposed to a failure of one call.
	ErrStoreUnavailable = errors.New("lesson store unavailable")
)

// Store reads and writes lesson documents.
// Implementations: MemoryStore (in-process), FirestoreStore (Cloud Firestore).
type Store interface {
	// ListDocuments returns every lesson document ordered by id. It either
	// returns the complete collection or an error, never a partial result.
	ListDocuments(ctx context.Context) ([]Document, error)

	// GetDocument returns one raw document or ErrNotFound.
	GetDocument(ctx context.Context, id string) (Document, error)

	// UpsertLesson creates the document keyed by lesson.ID or overwrites it.
	UpsertLesson(ctx context.Context, lesson Lesson) error
}

// ListSummaries lists the collection and projects every document.
func ListSummaries(ctx context.Context, store Store) ([]Summary, error) {
	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, Summarize(doc))
	}
	return summaries, nil
}
