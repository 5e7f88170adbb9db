package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pylearn/libs/lessons"
)

const (
	msgStoreConnectionFailed = "API running, but Firebase connection failed."
	msgStoreNotInitialized   = "Database not initialized"
	msgWelcome               = "Welcome to the Python Learning UI API!"
	msgDatabaseConnected     = "Connected to Firestore"
	msgLessonIncomplete      = "Lesson content is incomplete (missing 'steps')"
)

var errStoreNotInitialized = &apiError{Status: http.StatusInternalServerError, Message: msgStoreNotInitialized}

// apiHomeHandler reports whether the API can reach its lesson store.
// Method: GET /api/
// Access: Public
func (a *App) apiHomeHandler(c *gin.Context) {
	if a.lessons == nil {
		writeAPIError(c, &apiError{Status: http.StatusInternalServerError, Message: msgStoreConnectionFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  msgWelcome,
		"database": msgDatabaseConnected,
	})
}

// listLessonsHandler returns every lesson as {id, title, step_count}, ordered by id.
// Method: GET /api/lessons
// Access: Public
func (a *App) listLessonsHandler(c *gin.Context) {
	if a.lessons == nil {
		writeAPIError(c, errStoreNotInitialized)
		return
	}

	summaries, err := lessons.ListSummaries(c.Request.Context(), a.lessons)
	if err != nil {
		a.log.Error("failed to fetch lesson list", "err", err)
		writeAPIError(c, &apiError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Could not fetch lesson list: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// getLessonHandler returns one lesson document exactly as stored.
// Method: GET /api/lesson/:lesson_id
// Access: Public
func (a *App) getLessonHandler(c *gin.Context) {
	if a.lessons == nil {
		writeAPIError(c, errStoreNotInitialized)
		return
	}

	lessonID := c.Param("lesson_id")
	doc, err := a.lessons.GetDocument(c.Request.Context(), lessonID)
	switch {
	case errors.Is(err, lessons.ErrNotFound):
		writeAPIError(c, &apiError{
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("Lesson '%s' not found", lessonID),
		})
		return
	case err != nil:
		a.log.Error("failed to fetch lesson content", "lesson_id", lessonID, "err", err)
		writeAPIError(c, &apiError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Could not fetch lesson content: %v", err),
		})
		return
	}

	if !doc.HasSteps() {
		a.log.Warn("lesson document has no steps", "lesson_id", lessonID)
		writeAPIError(c, &apiError{Status: http.StatusInternalServerError, Message: msgLessonIncomplete})
		return
	}

	c.JSON(http.StatusOK, doc.Data)
}
