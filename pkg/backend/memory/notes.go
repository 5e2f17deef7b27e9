package memory

import (
	"context"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/pkg/backend"

	"github.com/google/uuid"
)

type noteCollection struct {
	c *Client
}

func (n noteCollection) Subscribe(ctx context.Context, userId uuid.UUID, groupId *uuid.UUID) (<-chan backend.NoteSnapshot, error) {
	c := n.c
	c.mu.Lock()
	defer c.mu.Unlock()

	var scope *uuid.UUID
	if groupId != nil {
		g := *groupId
		scope = &g
	}

	sub := &subscriber[backend.NoteSnapshot]{
		ctx:    ctx,
		out:    make(chan backend.NoteSnapshot),
		notify: make(chan struct{}, 1),
		snapshot: func() backend.NoteSnapshot {
			c.mu.Lock()
			defer c.mu.Unlock()
			var result []*entity.Note
			for _, note := range c.notes {
				if note.UserId != userId || note.IsDeleted {
					continue
				}
				if scope != nil && note.GroupId != *scope {
					continue
				}
				cp := copyNote(note)
				result = append(result, cp)
			}
			return backend.NoteSnapshot{Notes: result}
		},
	}
	c.noteSubs = append(c.noteSubs, sub)
	go sub.run()
	sub.wake()
	return sub.out, nil
}

func (n noteCollection) Insert(ctx context.Context, groupId uuid.UUID, title, content string, items []entity.NoteItem) (uuid.UUID, error) {
	c := n.c
	c.mu.Lock()
	defer c.mu.Unlock()

	user, err := c.currentUser()
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := c.ownedGroup(groupId); err != nil {
		return uuid.Nil, err
	}

	// A plain note never carries an items field; an empty checklist keeps
	// its empty (non-nil) array.
	var its []entity.NoteItem
	if items != nil {
		its = make([]entity.NoteItem, len(items))
		copy(its, items)
	}

	now := c.stamp()
	note := &entity.Note{
		Id:        uuid.New(),
		Title:     title,
		Content:   content,
		Items:     its,
		GroupId:   groupId,
		UserId:    user.Id,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.notes[note.Id] = note
	c.wakeNoteSubs()
	return note.Id, nil
}

func (n noteCollection) Update(ctx context.Context, id uuid.UUID, patch backend.NotePatch) error {
	c := n.c
	c.mu.Lock()
	defer c.mu.Unlock()

	note, err := c.ownedNote(id)
	if err != nil {
		return err
	}

	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Items != nil {
		its := make([]entity.NoteItem, len(*patch.Items))
		copy(its, *patch.Items)
		note.Items = its
	}
	note.UpdatedAt = c.stamp()
	c.wakeNoteSubs()
	return nil
}

func (n noteCollection) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	c := n.c
	c.mu.Lock()
	defer c.mu.Unlock()

	note, err := c.ownedNote(id)
	if err != nil {
		return err
	}

	now := c.stamp()
	note.IsDeleted = deleted
	note.UpdatedAt = now
	if deleted {
		t := now
		note.DeletedAt = &t
	} else {
		note.DeletedAt = nil
	}
	c.wakeNoteSubs()
	return nil
}

func (n noteCollection) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	c := n.c
	c.mu.Lock()
	defer c.mu.Unlock()

	var purged int64
	for id, note := range c.notes {
		if note.IsDeleted && note.DeletedAt != nil && note.DeletedAt.Before(cutoff) {
			delete(c.notes, id)
			purged++
		}
	}
	if purged > 0 {
		c.wakeNoteSubs()
	}
	return purged, nil
}

func (c *Client) ownedNote(id uuid.UUID) (*entity.Note, error) {
	user, err := c.currentUser()
	if err != nil {
		return nil, err
	}
	note, ok := c.notes[id]
	if !ok || note.UserId != user.Id {
		return nil, errs.ErrNotFound
	}
	return note, nil
}

func (c *Client) wakeNoteSubs() {
	for _, sub := range c.noteSubs {
		sub.wake()
	}
}

func copyNote(n *entity.Note) *entity.Note {
	cp := *n
	if n.Items != nil {
		cp.Items = make([]entity.NoteItem, len(n.Items))
		copy(cp.Items, n.Items)
	}
	return &cp
}
