package session

import (
	"context"
	"errors"
	"strings"

	"ai-diet-planner/internal/storage"
)

// FileStore keeps each session as a JSON document on disk.
type FileStore struct {
	docs *storage.DocumentStore
}

// NewFileStore creates a FileStore over docs.
func NewFileStore(docs *storage.DocumentStore) *FileStore {
	return &FileStore{docs: docs}
}

const documentPrefix = "session-"

func documentKey(sessionID string) string {
	return documentPrefix + sessionID
}

// Load retrieves the state for sessionID.
func (f *FileStore) Load(_ context.Context, sessionID string) (*State, error) {
	st := &State{}
	err := f.docs.Load(documentKey(sessionID), st)
	if errors.Is(err, storage.ErrNotFound) {
		return &State{}, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Save writes the state for sessionID.
func (f *FileStore) Save(_ context.Context, sessionID string, st *State) error {
	return f.docs.Save(documentKey(sessionID), st)
}

// Delete removes the state for sessionID.
func (f *FileStore) Delete(_ context.Context, sessionID string) error {
	return f.docs.Delete(documentKey(sessionID))
}

// List returns the stored session IDs, sorted. IDs come back in the file-safe
// form the document store saved them under.
func (f *FileStore) List(_ context.Context) ([]string, error) {
	keys, err := f.docs.Keys()
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, k := range keys {
		if id, ok := strings.CutPrefix(k, documentPrefix); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
