package main

import (
	"context"

	"pylearn/libs/curriculum"
	"pylearn/libs/lessons"
)

// openLessonStore sets a.lessons according to the configured backend and
// returns a cleanup func. On failure a.lessons stays nil and the API keeps
// serving, answering every lesson request with a 500.
func (a *App) openLessonStore(ctx context.Context) func() {
	if a.cfg.LessonStore == lessonStoreMemory {
		store := lessons.NewMemoryStore()
		a.lessons = store

		all, err := curriculum.Load()
		if err == nil {
			_, err = lessons.Seed(ctx, store, all, a.log)
		}
		if err != nil {
			a.log.Error("failed to seed memory lesson store", "err", err)
		}
		a.log.Info("lesson store initialized", "backend", lessonStoreMemory, "lessons", store.Len())
		return func() {}
	}

	conn := lessons.NewConnector(a.cfg.FirebaseCredentials, a.log)
	store, err := conn.Store(ctx)
	if err != nil {
		a.log.Error("error initializing firestore", "err", err)
		return func() {}
	}
	a.lessons = store

	return func() {
		if err := conn.Close(); err != nil {
			a.log.Error("failed to close firestore client", "err", err)
		}
	}
}
