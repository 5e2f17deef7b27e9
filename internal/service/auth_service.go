package service

import (
	"context"
	"time"

	"notesync/internal/config"
	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/contract"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"
	"notesync/pkg/events"
	pktNats "notesync/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	revokedTokens  contract.TokenRepository
	eventPublisher *pktNats.Publisher
	authConfig     config.AuthConfig
	log            logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	revokedTokens contract.TokenRepository,
	eventPublisher *pktNats.Publisher,
	authConfig config.AuthConfig,
	log logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		revokedTokens:  revokedTokens,
		eventPublisher: eventPublisher,
		authConfig:     authConfig,
		log:            log,
	}
}

func (s *authService) generateToken(user *entity.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"exp":     time.Now().Add(s.authConfig.TokenExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.authConfig.JwtSecret))
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.NewAuthError(errs.AuthEmailInUse, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	s.publishAuthEvent(ctx, events.TypeUserLogin, user)
	s.log.Info("auth_service", "user registered", map[string]interface{}{"user_id": user.Id, "email": user.Email})

	return &dto.RegisterResponse{Id: user.Id, Email: user.Email, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NewAuthError(errs.AuthWrongCredentials, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errs.NewAuthError(errs.AuthWrongCredentials, "invalid email or password")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	s.publishAuthEvent(ctx, events.TypeUserLogin, user)
	s.log.Info("auth_service", "user logged in", map[string]interface{}{"user_id": user.Id})

	return &dto.LoginResponse{Id: user.Id, Email: user.Email, Token: token}, nil
}

// Logout revokes the presented token for the remainder of its lifetime. The
// revocation list is checked by the JWT middleware on every request.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.revokedTokens.Revoke(ctx, token, s.authConfig.TokenExpiry); err != nil {
		return err
	}
	s.log.Info("auth_service", "user logged out", nil)

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type:       events.TypeUserLogout,
			Data:       map[string]interface{}{},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("auth_service", "failed to publish logout event", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// publishAuthEvent is auxiliary; a broker outage never fails the auth call.
func (s *authService) publishAuthEvent(ctx context.Context, eventType string, user *entity.User) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"user_id": user.Id.String(),
			"email":   user.Email,
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("auth_service", "failed to publish auth event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
