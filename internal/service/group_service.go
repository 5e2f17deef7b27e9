package service

import (
	"context"
	"time"

	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"
	"notesync/pkg/feed"

	"github.com/google/uuid"
)

type IGroupService interface {
	Create(ctx context.Context, userId uuid.UUID, userEmail string, req *dto.CreateGroupRequest) (*dto.CreateGroupResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GroupResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateGroupRequest) (*dto.UpdateGroupResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type groupService struct {
	uowFactory    unitofwork.RepositoryFactory
	syncPublisher ISyncPublisher
	log           logger.ILogger
}

func NewGroupService(uowFactory unitofwork.RepositoryFactory, syncPublisher ISyncPublisher, log logger.ILogger) IGroupService {
	return &groupService{
		uowFactory:    uowFactory,
		syncPublisher: syncPublisher,
		log:           log,
	}
}

func (s *groupService) Create(ctx context.Context, userId uuid.UUID, userEmail string, req *dto.CreateGroupRequest) (*dto.CreateGroupResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	group := &entity.Group{
		Id:        uuid.New(),
		Title:     req.Title,
		Type:      entity.GroupType(req.Type),
		UserId:    userId,
		CreatedBy: userEmail,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.GroupRepository().Create(ctx, group); err != nil {
		return nil, err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionGroups, userId, nil)
	return &dto.CreateGroupResponse{Id: group.Id}, nil
}

func (s *groupService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GroupResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	groups, err := uow.GroupRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GroupResponse, 0, len(groups))
	for _, group := range groups {
		res = append(res, &dto.GroupResponse{
			Id:        group.Id,
			Title:     group.Title,
			Type:      string(group.Type),
			CreatedBy: group.CreatedBy,
			CreatedAt: group.CreatedAt,
			UpdatedAt: group.UpdatedAt,
			DeletedAt: group.DeletedAt,
		})
	}
	return res, nil
}

func (s *groupService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateGroupRequest) (*dto.UpdateGroupResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	group, err := uow.GroupRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, errs.ErrNotFound
	}

	group.Title = req.Title
	group.UpdatedAt = time.Now()
	if err := uow.GroupRepository().Update(ctx, group); err != nil {
		return nil, err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionGroups, userId, nil)
	return &dto.UpdateGroupResponse{Id: group.Id}, nil
}

// Delete soft-deletes the group and cascades to its notes in one
// transaction; both disappear from live views together and both come back on
// Restore.
func (s *groupService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	group, err := uow.GroupRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if group == nil {
		return errs.ErrNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.GroupRepository().SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := uow.NoteRepository().SoftDeleteByGroupId(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionGroups, userId, nil)
	s.syncPublisher.Announce(ctx, feed.CollectionNotes, userId, &id)
	s.log.Info("group_service", "group soft-deleted", map[string]interface{}{"group_id": id})
	return nil
}

func (s *groupService) Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	group, err := uow.GroupRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
		specification.WithDeleted{},
	)
	if err != nil {
		return err
	}
	if group == nil {
		return errs.ErrNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.GroupRepository().Restore(ctx, id); err != nil {
		return err
	}
	if err := uow.NoteRepository().RestoreByGroupId(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionGroups, userId, nil)
	s.syncPublisher.Announce(ctx, feed.CollectionNotes, userId, &id)
	s.log.Info("group_service", "group restored", map[string]interface{}{"group_id": id})
	return nil
}
