package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pylearn/libs/curriculum"
	"pylearn/libs/lessons"
)

func newLessonTestServer(t *testing.T, store lessons.Store) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &App{
		cfg: &Config{
			Env:           "development",
			PublicBaseURL: "https://learn.example.com",
			LessonStore:   lessonStoreMemory,
		},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		lessons: store,
	}
	router, err := app.newRouter()
	require.NoError(t, err)
	return app, router
}

func doGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f failingStore) ListDocuments(context.Context) ([]lessons.Document, error) {
	return nil, f.err
}

func (f failingStore) GetDocument(context.Context, string) (lessons.Document, error) {
	return lessons.Document{}, f.err
}

func (f failingStore) UpsertLesson(context.Context, lessons.Lesson) error {
	return f.err
}

func seededStore(t *testing.T) (*lessons.MemoryStore, []lessons.Lesson) {
	t.Helper()
	all, err := curriculum.Load()
	require.NoError(t, err)

	store := lessons.NewMemoryStore()
	_, err = lessons.Seed(context.Background(), store, all, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store, all
}

func TestAPIHomeHandler(t *testing.T) {
	_, router := newLessonTestServer(t, lessons.NewMemoryStore())

	w := doGet(t, router, "/api/")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, msgWelcome, body["message"])
	assert.Equal(t, msgDatabaseConnected, body["database"])
}

func TestEndpointsWithoutStore(t *testing.T) {
	_, router := newLessonTestServer(t, nil)

	tests := []struct {
		path    string
		message string
	}{
		{path: "/api/", message: "API running, but Firebase connection failed."},
		{path: "/api/lessons", message: "Database not initialized"},
		{path: "/api/lesson/lesson-01", message: "Database not initialized"},
		{path: "/api/lesson/does-not-exist", message: "Database not initialized"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doGet(t, router, tt.path)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeBody[map[string]string](t, w)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestListLessonsHandler(t *testing.T) {
	store, all := seededStore(t)
	_, router := newLessonTestServer(t, store)

	w := doGet(t, router, "/api/lessons")

	require.Equal(t, http.StatusOK, w.Code)
	summaries := decodeBody[[]lessons.Summary](t, w)
	require.Len(t, summaries, len(all))
	for i, lesson := range all {
		assert.Equal(t, lesson.ID, summaries[i].ID)
		assert.Equal(t, lesson.Title, summaries[i].Title)
		assert.Equal(t, len(lesson.Steps), summaries[i].StepCount)
	}
}

func TestListLessonsHandler_OrdersByIDAndDefaultsTitle(t *testing.T) {
	store := lessons.NewMemoryStore()
	require.NoError(t, store.PutDocument("lesson-03", map[string]any{"title": "A title that sorts first", "steps": []any{}}))
	require.NoError(t, store.PutDocument("lesson-01", map[string]any{"steps": "not a list"}))
	require.NoError(t, store.PutDocument("lesson-02", map[string]any{"title": "Two", "steps": []any{map[string]any{"type": "text"}}}))
	_, router := newLessonTestServer(t, store)

	w := doGet(t, router, "/api/lessons")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []lessons.Summary{
		{ID: "lesson-01", Title: "Untitled Lesson", StepCount: 0},
		{ID: "lesson-02", Title: "Two", StepCount: 1},
		{ID: "lesson-03", Title: "A title that sorts first", StepCount: 0},
	}, decodeBody[[]lessons.Summary](t, w))
}

func TestListLessonsHandler_EmptyCollectionIsArray(t *testing.T) {
	_, router := newLessonTestServer(t, lessons.NewMemoryStore())

	w := doGet(t, router, "/api/lessons")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListLessonsHandler_StoreError(t *testing.T) {
	_, router := newLessonTestServer(t, failingStore{err: errors.New("stream reset")})

	w := doGet(t, router, "/api/lessons")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Could not fetch lesson list: stream reset"}`, w.Body.String())
}

func TestGetLessonHandler_ServesSeededContentVerbatim(t *testing.T) {
	store, all := seededStore(t)
	_, router := newLessonTestServer(t, store)

	for _, lesson := range all {
		t.Run(lesson.ID, func(t *testing.T) {
			w := doGet(t, router, "/api/lesson/"+lesson.ID)
			require.Equal(t, http.StatusOK, w.Code)

			want, err := json.Marshal(lesson)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), w.Body.String())
		})
	}
}

func TestGetLessonHandler_Example(t *testing.T) {
	store := lessons.NewMemoryStore()
	lesson := lessons.Lesson{
		ID:    "lesson-01",
		Title: "1. Introduction to Python",
		Steps: []lessons.Step{
			{Type: lessons.StepQuiz, Question: "...", Options: []string{"A", "B", "C"}, Answer: "B"},
		},
	}
	_, err := lessons.Seed(context.Background(), store, []lessons.Lesson{lesson}, nil)
	require.NoError(t, err)
	_, router := newLessonTestServer(t, store)

	w := doGet(t, router, "/api/lesson/lesson-01")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"id": "lesson-01",
		"title": "1. Introduction to Python",
		"steps": [{"type": "quiz", "question": "...", "options": ["A", "B", "C"], "answer": "B"}]
	}`, w.Body.String())

	w = doGet(t, router, "/api/lessons")
	require.Equal(t, http.StatusOK, w.Code)
	summaries := decodeBody[[]map[string]any](t, w)
	require.Len(t, summaries, 1)
	assert.Equal(t, "lesson-01", summaries[0]["id"])
	assert.Equal(t, "1. Introduction to Python", summaries[0]["title"])
}

func TestGetLessonHandler_NotFound(t *testing.T) {
	store, _ := seededStore(t)
	_, router := newLessonTestServer(t, store)

	w := doGet(t, router, "/api/lesson/does-not-exist")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Lesson 'does-not-exist' not found"}`, w.Body.String())
}

func TestGetLessonHandler_MissingSteps(t *testing.T) {
	store := lessons.NewMemoryStore()
	require.NoError(t, store.PutDocument("lesson-99", map[string]any{"id": "lesson-99", "title": "Draft"}))
	_, router := newLessonTestServer(t, store)

	w := doGet(t, router, "/api/lesson/lesson-99")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Lesson content is incomplete (missing 'steps')"}`, w.Body.String())
}

func TestGetLessonHandler_ReturnsUnknownFields(t *testing.T) {
	store := lessons.NewMemoryStore()
	require.NoError(t, store.PutDocument("lesson-50", map[string]any{
		"title":  "Extra",
		"steps":  []any{},
		"author": "curriculum-team",
	}))
	_, router := newLessonTestServer(t, store)

	w := doGet(t, router, "/api/lesson/lesson-50")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"Extra","steps":[],"author":"curriculum-team"}`, w.Body.String())
}

func TestGetLessonHandler_StoreError(t *testing.T) {
	_, router := newLessonTestServer(t, failingStore{err: errors.New("deadline exceeded")})

	w := doGet(t, router, "/api/lesson/lesson-01")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Could not fetch lesson content: deadline exceeded"}`, w.Body.String())
}

func TestHealthzDoesNotNeedStore(t *testing.T) {
	_, router := newLessonTestServer(t, nil)

	w := doGet(t, router, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
