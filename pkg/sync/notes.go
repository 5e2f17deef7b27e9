package sync

import (
	"context"
	"sort"
	"sync"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/pkg/logger"
	"notesync/pkg/backend"

	"github.com/google/uuid"
)

// NoteStore is a live view of the notes in the selected scope: one group, or
// all of the user's notes when no group is selected. Notes belong to a group;
// delete is soft, mirroring the group policy, so a deleted note hides from
// the collection but stays restorable until retention cleanup purges it.
//
// Switching scope cancels the old subscription before the new one starts; a
// late push from the old scope can never overwrite the new one's state.
type NoteStore struct {
	client backend.Client
	log    logger.ILogger

	mu        sync.Mutex
	gen       uint64
	userId    *uuid.UUID
	groupId   *uuid.UUID
	notes     []*entity.Note
	loading   bool
	err       string
	listeners []func()
	cancel    context.CancelFunc
}

func NewNoteStore(client backend.Client, log logger.ILogger) *NoteStore {
	return &NoteStore{client: client, log: log}
}

// SetScope re-parameterizes the store. A nil userId leaves it inactive; a nil
// groupId subscribes to all of the user's notes.
func (s *NoteStore) SetScope(userId, groupId *uuid.UUID) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	myGen := s.gen
	s.notes = nil
	s.loading = false
	s.err = ""
	s.userId = userId
	s.groupId = groupId

	if userId == nil {
		s.mu.Unlock()
		s.notify()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loading = true
	s.mu.Unlock()
	s.notify()

	snapshots, err := s.client.Notes().Subscribe(ctx, *userId, groupId)
	if err != nil {
		s.recordAsync(myGen, err)
		return
	}
	go s.watch(myGen, snapshots)
}

func (s *NoteStore) watch(gen uint64, snapshots <-chan backend.NoteSnapshot) {
	for snap := range snapshots {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		if snap.Err != nil {
			s.err = snap.Err.Error()
			s.loading = false
			s.mu.Unlock()
			s.notify()
			s.log.Warn("note_store", "subscription push failed", map[string]interface{}{"error": snap.Err.Error()})
			continue
		}
		notes := snap.Notes
		sort.SliceStable(notes, func(i, j int) bool {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		})
		s.notes = notes
		s.loading = false
		s.err = ""
		s.mu.Unlock()
		s.notify()
	}
}

func (s *NoteStore) recordAsync(gen uint64, err error) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.err = err.Error()
	s.loading = false
	s.mu.Unlock()
	s.notify()

	s.log.Warn("note_store", "subscription failed", map[string]interface{}{"error": err.Error()})
}

// Notes returns the current collection, most recently updated first.
func (s *NoteStore) Notes() []*entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

func (s *NoteStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *NoteStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *NoteStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *NoteStore) notify() {
	s.mu.Lock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// AddNote creates a note in the selected group. Items is passed only for
// checklist-type groups; a plain note carries none.
func (s *NoteStore) AddNote(ctx context.Context, title, content string, items []entity.NoteItem) (uuid.UUID, error) {
	s.mu.Lock()
	userId := s.userId
	groupId := s.groupId
	s.mu.Unlock()
	if userId == nil {
		return uuid.Nil, s.recordErr(errs.ErrNotAuthenticated)
	}
	if groupId == nil {
		return uuid.Nil, s.recordErr(errs.ErrNoGroupSelected)
	}

	id, err := s.client.Notes().Insert(ctx, *groupId, title, content, items)
	if err != nil {
		return uuid.Nil, s.recordErr(err)
	}
	return id, nil
}

// UpdateNote writes the fields relevant to the group's type. Items replaces
// the whole array when non-nil. The backend always bumps UpdatedAt, even when
// the values did not change.
func (s *NoteStore) UpdateNote(ctx context.Context, id uuid.UUID, title, content string, items []entity.NoteItem) error {
	patch := backend.NotePatch{Title: &title, Content: &content}
	if items != nil {
		patch.Items = &items
	}
	if err := s.client.Notes().Update(ctx, id, patch); err != nil {
		return s.recordErr(err)
	}
	return nil
}

// DeleteNote soft-deletes, like DeleteGroup.
func (s *NoteStore) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Notes().SetDeleted(ctx, id, true); err != nil {
		return s.recordErr(err)
	}
	return nil
}

func (s *NoteStore) RestoreNote(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Notes().SetDeleted(ctx, id, false); err != nil {
		return s.recordErr(err)
	}
	return nil
}

// AddItem appends a checklist entry to the note's items and writes the whole
// array back.
func (s *NoteStore) AddItem(ctx context.Context, noteId uuid.UUID, text string) error {
	note, err := s.findNote(noteId)
	if err != nil {
		return s.recordErr(err)
	}

	items := make([]entity.NoteItem, 0, len(note.Items)+1)
	items = append(items, note.Items...)
	items = append(items, entity.NoteItem{
		Id:        uuid.New(),
		Text:      text,
		Completed: false,
		CreatedAt: time.Now().UTC(),
	})
	return s.writeItems(ctx, noteId, items)
}

// ToggleItem flips Completed on one entry; Text and Id stay untouched.
func (s *NoteStore) ToggleItem(ctx context.Context, noteId, itemId uuid.UUID) error {
	note, err := s.findNote(noteId)
	if err != nil {
		return s.recordErr(err)
	}

	items := make([]entity.NoteItem, len(note.Items))
	copy(items, note.Items)
	found := false
	for i := range items {
		if items[i].Id == itemId {
			items[i].Completed = !items[i].Completed
			found = true
			break
		}
	}
	if !found {
		return s.recordErr(errs.ErrNotFound)
	}
	return s.writeItems(ctx, noteId, items)
}

func (s *NoteStore) RemoveItem(ctx context.Context, noteId, itemId uuid.UUID) error {
	note, err := s.findNote(noteId)
	if err != nil {
		return s.recordErr(err)
	}

	items := make([]entity.NoteItem, 0, len(note.Items))
	found := false
	for _, item := range note.Items {
		if item.Id == itemId {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return s.recordErr(errs.ErrNotFound)
	}
	return s.writeItems(ctx, noteId, items)
}

// findNote works off the current collection: item mutations edit what the
// user currently sees, not a row fetched fresh from the backend.
func (s *NoteStore) findNote(id uuid.UUID) (*entity.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, note := range s.notes {
		if note.Id == id {
			return note, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (s *NoteStore) writeItems(ctx context.Context, noteId uuid.UUID, items []entity.NoteItem) error {
	if err := s.client.Notes().Update(ctx, noteId, backend.NotePatch{Items: &items}); err != nil {
		return s.recordErr(err)
	}
	return nil
}

func (s *NoteStore) recordErr(err error) error {
	s.mu.Lock()
	s.err = err.Error()
	s.mu.Unlock()
	s.notify()

	s.log.Warn("note_store", "mutation failed", map[string]interface{}{"error": err.Error()})
	return err
}

// Close tears the store down. Equivalent to SetScope(nil, nil).
func (s *NoteStore) Close() {
	s.SetScope(nil, nil)
}
