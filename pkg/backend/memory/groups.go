package memory

import (
	"context"
	"fmt"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/pkg/backend"

	"github.com/google/uuid"
)

type groupCollection struct {
	c *Client
}

func (g groupCollection) Subscribe(ctx context.Context, userId uuid.UUID) (<-chan backend.GroupSnapshot, error) {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &subscriber[backend.GroupSnapshot]{
		ctx:    ctx,
		out:    make(chan backend.GroupSnapshot),
		notify: make(chan struct{}, 1),
		snapshot: func() backend.GroupSnapshot {
			c.mu.Lock()
			defer c.mu.Unlock()
			var result []*entity.Group
			for _, grp := range c.groups {
				if grp.UserId == userId && !grp.IsDeleted {
					cp := *grp
					result = append(result, &cp)
				}
			}
			return backend.GroupSnapshot{Groups: result}
		},
	}
	c.groupSubs = append(c.groupSubs, sub)
	go sub.run()
	sub.wake()
	return sub.out, nil
}

func (g groupCollection) Insert(ctx context.Context, title string, groupType entity.GroupType) (uuid.UUID, error) {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()

	user, err := c.currentUser()
	if err != nil {
		return uuid.Nil, err
	}
	if !groupType.Valid() {
		return uuid.Nil, errs.Backend("groups.insert", fmt.Errorf("unknown group type %q", groupType))
	}

	now := c.stamp()
	grp := &entity.Group{
		Id:        uuid.New(),
		Title:     title,
		Type:      groupType,
		UserId:    user.Id,
		CreatedBy: user.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.groups[grp.Id] = grp
	c.wakeGroupSubs()
	return grp.Id, nil
}

func (g groupCollection) Update(ctx context.Context, id uuid.UUID, patch backend.GroupPatch) error {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()

	grp, err := c.ownedGroup(id)
	if err != nil {
		return err
	}

	if patch.Title != nil {
		grp.Title = *patch.Title
	}
	grp.UpdatedAt = c.stamp()
	c.wakeGroupSubs()
	return nil
}

func (g groupCollection) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()

	grp, err := c.ownedGroup(id)
	if err != nil {
		return err
	}

	now := c.stamp()
	grp.IsDeleted = deleted
	grp.UpdatedAt = now
	if deleted {
		t := now
		grp.DeletedAt = &t
	} else {
		grp.DeletedAt = nil
	}

	// Member notes follow the group.
	for _, note := range c.notes {
		if note.GroupId != id {
			continue
		}
		note.IsDeleted = deleted
		note.UpdatedAt = now
		if deleted {
			t := now
			note.DeletedAt = &t
		} else {
			note.DeletedAt = nil
		}
	}

	c.wakeGroupSubs()
	c.wakeNoteSubs()
	return nil
}

func (g groupCollection) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()

	var purged int64
	for id, grp := range c.groups {
		if grp.IsDeleted && grp.DeletedAt != nil && grp.DeletedAt.Before(cutoff) {
			delete(c.groups, id)
			purged++
		}
	}
	if purged > 0 {
		c.wakeGroupSubs()
	}
	return purged, nil
}

// ownedGroup looks a group up including soft-deleted rows (restore needs
// them) and enforces ownership. Callers hold c.mu.
func (c *Client) ownedGroup(id uuid.UUID) (*entity.Group, error) {
	user, err := c.currentUser()
	if err != nil {
		return nil, err
	}
	grp, ok := c.groups[id]
	if !ok || grp.UserId != user.Id {
		return nil, errs.ErrNotFound
	}
	return grp, nil
}

func (c *Client) wakeGroupSubs() {
	for _, sub := range c.groupSubs {
		sub.wake()
	}
}
