package lessons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps lesson documents in a Cloud Firestore collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps an existing client. The client stays owned by the
// caller unless Close is used.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, collection: CollectionName}
}

// ListDocuments streams the collection ordered by document id. Any error
// mid-stream discards what was read so far.
func (s *FirestoreStore) ListDocuments(ctx context.Context) ([]Document, error) {
	iter := s.client.Collection(s.collection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classifyError(err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

// GetDocument fetches one document by id.
func (s *FirestoreStore) GetDocument(ctx context.Context, id string) (Document, error) {
	if id == "" || strings.Contains(id, "/") {
		return Document{}, ErrNotFound
	}
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, classifyError(err)
	}
	if !snap.Exists() {
		return Document{}, ErrNotFound
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

// UpsertLesson overwrites the document keyed by lesson.ID with the lesson.
func (s *FirestoreStore) UpsertLesson(ctx context.Context, lesson Lesson) error {
	if _, err := s.client.Collection(s.collection).Doc(lesson.ID).Set(ctx, lesson); err != nil {
		return fmt.Errorf("set %s/%s: %w", s.collection, lesson.ID, classifyError(err))
	}
	return nil
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// classifyError marks errors after which no further call can succeed.
func classifyError(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	default:
		return err
	}
}
