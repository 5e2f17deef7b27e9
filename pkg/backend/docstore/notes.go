package docstore

import (
	"context"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/repository/specification"
	"notesync/pkg/backend"
	"notesync/pkg/feed"

	"github.com/google/uuid"
)

type noteCollection struct {
	c *Client
}

func (n noteCollection) Subscribe(ctx context.Context, userId uuid.UUID, groupId *uuid.UUID) (<-chan backend.NoteSnapshot, error) {
	changes, err := n.c.feed.Subscribe(ctx)
	if err != nil {
		return nil, errs.Backend("notes.subscribe", err)
	}

	out := make(chan backend.NoteSnapshot)
	go func() {
		defer close(out)

		push := func() bool {
			select {
			case out <- n.query(ctx, userId, groupId):
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !push() {
			return
		}
		for change := range changes {
			if change.Collection != feed.CollectionNotes || change.UserId != userId {
				continue
			}
			// A group-scoped subscription ignores changes in other groups
			// when the change names one.
			if groupId != nil && change.GroupId != nil && *change.GroupId != *groupId {
				continue
			}
			if !push() {
				return
			}
		}
	}()
	return out, nil
}

func (n noteCollection) query(ctx context.Context, userId uuid.UUID, groupId *uuid.UUID) backend.NoteSnapshot {
	uow := n.c.uowFactory.NewUnitOfWork(ctx)
	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	}
	if groupId != nil {
		specs = append(specs, specification.ByGroupID{GroupID: *groupId})
	}

	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return backend.NoteSnapshot{Err: errs.Backend("notes.query", err)}
	}
	return backend.NoteSnapshot{Notes: notes}
}

func (n noteCollection) Insert(ctx context.Context, groupId uuid.UUID, title, content string, items []entity.NoteItem) (uuid.UUID, error) {
	user, err := n.c.currentUser()
	if err != nil {
		return uuid.Nil, err
	}

	uow := n.c.uowFactory.NewUnitOfWork(ctx)
	group, err := uow.GroupRepository().FindOne(ctx,
		specification.ByID{ID: groupId},
		specification.UserOwnedBy{UserID: user.Id},
	)
	if err != nil {
		return uuid.Nil, errs.Backend("notes.insert", err)
	}
	if group == nil {
		return uuid.Nil, errs.ErrNotFound
	}

	note := &entity.Note{
		Id:        uuid.New(),
		Title:     title,
		Content:   content,
		Items:     items,
		GroupId:   groupId,
		UserId:    user.Id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.NoteRepository().Create(ctx, note); err != nil {
		return uuid.Nil, errs.Backend("notes.insert", err)
	}

	n.c.announceNotes(user.Id, &groupId)
	return note.Id, nil
}

func (n noteCollection) Update(ctx context.Context, id uuid.UUID, patch backend.NotePatch) error {
	user, err := n.c.currentUser()
	if err != nil {
		return err
	}

	uow := n.c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: user.Id},
	)
	if err != nil {
		return errs.Backend("notes.update", err)
	}
	if note == nil {
		return errs.ErrNotFound
	}

	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Items != nil {
		note.Items = *patch.Items
	}
	note.UpdatedAt = time.Now()
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return errs.Backend("notes.update", err)
	}

	n.c.announceNotes(user.Id, &note.GroupId)
	return nil
}

func (n noteCollection) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	user, err := n.c.currentUser()
	if err != nil {
		return err
	}

	uow := n.c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: user.Id},
		specification.WithDeleted{},
	)
	if err != nil {
		return errs.Backend("notes.set_deleted", err)
	}
	if note == nil {
		return errs.ErrNotFound
	}

	if deleted {
		err = uow.NoteRepository().SoftDelete(ctx, id)
	} else {
		err = uow.NoteRepository().Restore(ctx, id)
	}
	if err != nil {
		return errs.Backend("notes.set_deleted", err)
	}

	n.c.announceNotes(user.Id, &note.GroupId)
	return nil
}

func (n noteCollection) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	uow := n.c.uowFactory.NewUnitOfWork(ctx)
	purged, err := uow.NoteRepository().PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, errs.Backend("notes.purge", err)
	}
	return purged, nil
}
