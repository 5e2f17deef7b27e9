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

type groupCollection struct {
	c *Client
}

func (g groupCollection) Subscribe(ctx context.Context, userId uuid.UUID) (<-chan backend.GroupSnapshot, error) {
	changes, err := g.c.feed.Subscribe(ctx)
	if err != nil {
		return nil, errs.Backend("groups.subscribe", err)
	}

	out := make(chan backend.GroupSnapshot)
	go func() {
		defer close(out)

		push := func() bool {
			select {
			case out <- g.query(ctx, userId):
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !push() {
			return
		}
		for change := range changes {
			if change.Collection != feed.CollectionGroups || change.UserId != userId {
				continue
			}
			if !push() {
				return
			}
		}
	}()
	return out, nil
}

func (g groupCollection) query(ctx context.Context, userId uuid.UUID) backend.GroupSnapshot {
	uow := g.c.uowFactory.NewUnitOfWork(ctx)
	groups, err := uow.GroupRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return backend.GroupSnapshot{Err: errs.Backend("groups.query", err)}
	}
	return backend.GroupSnapshot{Groups: groups}
}

func (g groupCollection) Insert(ctx context.Context, title string, groupType entity.GroupType) (uuid.UUID, error) {
	user, err := g.c.currentUser()
	if err != nil {
		return uuid.Nil, err
	}

	uow := g.c.uowFactory.NewUnitOfWork(ctx)
	group := &entity.Group{
		Id:        uuid.New(),
		Title:     title,
		Type:      groupType,
		UserId:    user.Id,
		CreatedBy: user.Email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.GroupRepository().Create(ctx, group); err != nil {
		return uuid.Nil, errs.Backend("groups.insert", err)
	}

	g.announce(user.Id)
	return group.Id, nil
}

func (g groupCollection) Update(ctx context.Context, id uuid.UUID, patch backend.GroupPatch) error {
	user, err := g.c.currentUser()
	if err != nil {
		return err
	}

	uow := g.c.uowFactory.NewUnitOfWork(ctx)
	group, err := uow.GroupRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: user.Id},
	)
	if err != nil {
		return errs.Backend("groups.update", err)
	}
	if group == nil {
		return errs.ErrNotFound
	}

	if patch.Title != nil {
		group.Title = *patch.Title
	}
	group.UpdatedAt = time.Now()
	if err := uow.GroupRepository().Update(ctx, group); err != nil {
		return errs.Backend("groups.update", err)
	}

	g.announce(user.Id)
	return nil
}

// SetDeleted cascades to member notes inside one transaction, so the group
// and its notes flip together.
func (g groupCollection) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	user, err := g.c.currentUser()
	if err != nil {
		return err
	}

	uow := g.c.uowFactory.NewUnitOfWork(ctx)
	group, err := uow.GroupRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: user.Id},
		specification.WithDeleted{},
	)
	if err != nil {
		return errs.Backend("groups.set_deleted", err)
	}
	if group == nil {
		return errs.ErrNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return errs.Backend("groups.set_deleted", err)
	}
	defer uow.Rollback()

	if deleted {
		err = uow.GroupRepository().SoftDelete(ctx, id)
	} else {
		err = uow.GroupRepository().Restore(ctx, id)
	}
	if err != nil {
		return errs.Backend("groups.set_deleted", err)
	}

	if deleted {
		err = uow.NoteRepository().SoftDeleteByGroupId(ctx, id)
	} else {
		err = uow.NoteRepository().RestoreByGroupId(ctx, id)
	}
	if err != nil {
		return errs.Backend("groups.set_deleted", err)
	}

	if err := uow.Commit(); err != nil {
		return errs.Backend("groups.set_deleted", err)
	}

	g.announce(user.Id)
	g.c.announceNotes(user.Id, &id)
	return nil
}

func (g groupCollection) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	uow := g.c.uowFactory.NewUnitOfWork(ctx)
	purged, err := uow.GroupRepository().PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, errs.Backend("groups.purge", err)
	}
	return purged, nil
}

func (g groupCollection) announce(userId uuid.UUID) {
	if err := g.c.feed.Publish(feed.Change{Collection: feed.CollectionGroups, UserId: userId}); err != nil {
		g.c.log.Warn("docstore", "failed to publish group change", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Client) announceNotes(userId uuid.UUID, groupId *uuid.UUID) {
	if err := c.feed.Publish(feed.Change{Collection: feed.CollectionNotes, UserId: userId, GroupId: groupId}); err != nil {
		c.log.Warn("docstore", "failed to publish note change", map[string]interface{}{"error": err.Error()})
	}
}
