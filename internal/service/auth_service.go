package service

import (
	"context"
	"errors"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/config"
	"prf-forms-be/internal/dto"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/gateway"
	"prf-forms-be/internal/pkg/logger"
	"prf-forms-be/internal/repository/memory"
	"prf-forms-be/internal/repository/specification"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, token string, userId uuid.UUID) error
}

type authService struct {
	uowFactory  unitofwork.RepositoryFactory
	sessions    *memory.SessionRepository
	docStore    *store.DocumentStore
	syncGateway *gateway.SyncGateway
	authCfg     config.AuthConfig
	logger      logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.SessionRepository,
	docStore *store.DocumentStore,
	syncGateway *gateway.SyncGateway,
	authCfg config.AuthConfig,
	log logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:  uowFactory,
		sessions:    sessions,
		docStore:    docStore,
		syncGateway: syncGateway,
		authCfg:     authCfg,
		logger:      log,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	role := entity.UserRoleMedic
	if req.Role != "" {
		role = entity.UserRole(req.Role)
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		PasswordHash: &hashStr,
		FullName:     req.FullName,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{Id: user.Id}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil || user == nil {
		return nil, errors.New("invalid credentials")
	}
	if user.PasswordHash == nil {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, errors.New("user account is blocked")
	}

	expiresAt := time.Now().Add(s.authCfg.SessionTTL)
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    user.Role,
		"exp":     expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.authCfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	s.sessions.Save(&entity.Session{
		Token:     signedToken,
		UserId:    user.Id,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	})

	// Bind the working set to this identity and recover any snapshot
	// left by a previous session.
	s.docStore.SetUser(user.Id)
	restored := false
	if err := s.syncGateway.RestoreLocal(ctx, user.Id); err != nil {
		s.logger.Warn("AuthService", "Failed to restore local snapshot", map[string]interface{}{
			"user_id": user.Id.String(),
			"error":   err.Error(),
		})
	} else {
		restored = len(s.docStore.List()) > 0
	}

	s.logger.Info("AuthService", "User logged in", map[string]interface{}{
		"user_id":  user.Id.String(),
		"restored": restored,
	})

	return &dto.LoginResponse{
		Token:     signedToken,
		UserId:    user.Id,
		Role:      string(user.Role),
		ExpiresAt: expiresAt,
		Restored:  restored,
	}, nil
}

// Logout drops the session and wipes the working set. Nothing from the
// previous identity stays loadable afterwards.
func (s *authService) Logout(ctx context.Context, token string, userId uuid.UUID) error {
	if session, ok := s.sessions.Get(token); !ok || session.UserId != userId {
		return apperr.ErrUnauthenticated
	}
	s.sessions.Delete(token)
	s.docStore.ClearAll()

	if err := s.syncGateway.DropLocal(ctx, userId); err != nil {
		s.logger.Warn("AuthService", "Failed to drop local snapshot", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
	return nil
}
