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

type INoteService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID, groupId *uuid.UUID) ([]*dto.NoteResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type noteService struct {
	uowFactory    unitofwork.RepositoryFactory
	syncPublisher ISyncPublisher
	log           logger.ILogger
}

func NewNoteService(uowFactory unitofwork.RepositoryFactory, syncPublisher ISyncPublisher, log logger.ILogger) INoteService {
	return &noteService{
		uowFactory:    uowFactory,
		syncPublisher: syncPublisher,
		log:           log,
	}
}

func (s *noteService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// The note must land in a live group the caller owns.
	group, err := uow.GroupRepository().FindOne(ctx,
		specification.ByID{ID: req.GroupId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, errs.ErrNotFound
	}

	note := &entity.Note{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Items:     req.Items,
		GroupId:   req.GroupId,
		UserId:    userId,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.NoteRepository().Create(ctx, note); err != nil {
		return nil, err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionNotes, userId, &req.GroupId)
	return &dto.CreateNoteResponse{Id: note.Id}, nil
}

func (s *noteService) GetAll(ctx context.Context, userId uuid.UUID, groupId *uuid.UUID) ([]*dto.NoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	}
	if groupId != nil {
		specs = append(specs, specification.ByGroupID{GroupID: *groupId})
	}

	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		res = append(res, toNoteResponse(note))
	}
	return res, nil
}

func (s *noteService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, errs.ErrNotFound
	}
	return toNoteResponse(note), nil
}

func (s *noteService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, errs.ErrNotFound
	}

	note.Title = req.Title
	note.Content = req.Content
	if req.Items != nil {
		note.Items = *req.Items
	}
	note.UpdatedAt = time.Now()
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionNotes, userId, &note.GroupId)
	return &dto.UpdateNoteResponse{Id: note.Id}, nil
}

func (s *noteService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if note == nil {
		return errs.ErrNotFound
	}

	if err := uow.NoteRepository().SoftDelete(ctx, id); err != nil {
		return err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionNotes, userId, &note.GroupId)
	s.log.Info("note_service", "note soft-deleted", map[string]interface{}{"note_id": id})
	return nil
}

func (s *noteService) Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
		specification.WithDeleted{},
	)
	if err != nil {
		return err
	}
	if note == nil {
		return errs.ErrNotFound
	}

	if err := uow.NoteRepository().Restore(ctx, id); err != nil {
		return err
	}

	s.syncPublisher.Announce(ctx, feed.CollectionNotes, userId, &note.GroupId)
	s.log.Info("note_service", "note restored", map[string]interface{}{"note_id": id})
	return nil
}

func toNoteResponse(note *entity.Note) *dto.NoteResponse {
	return &dto.NoteResponse{
		Id:        note.Id,
		Title:     note.Title,
		Content:   note.Content,
		Items:     note.Items,
		GroupId:   note.GroupId,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
		DeletedAt: note.DeletedAt,
	}
}
