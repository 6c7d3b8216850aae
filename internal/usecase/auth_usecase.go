package usecase

import (
	"context"
	"errors"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"
	"clinic-booking/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TokenTypeBearer = "bearer"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminPasswordEmpty = errors.New("admin password is required")
)

type AuthUsecase interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, adminID int, tokenID string) error
	GetCurrentAdmin(ctx context.Context, adminID int) (*dto.AdminResponse, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}

type authUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	adminRepo    repository.AdminRepository
	auditService service.AuditService
	jwtService   *jwt.JWTService
	redisClient  *redis.Client
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	adminRepo repository.AdminRepository,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
) AuthUsecase {
	return &authUsecase{
		db:           db,
		log:          log,
		adminRepo:    adminRepo,
		auditService: auditService,
		jwtService:   jwtService,
		redisClient:  redisClient,
	}
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	admin, err := u.adminRepo.FindByUsername(u.db.WithContext(ctx), req.Username)
	if err != nil {
		u.log.Warnf("Failed to find admin by username: %+v", err)
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, tokenID, err := u.jwtService.GenerateAccessToken(admin.ID, admin.Username, entity.RoleAdmin)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	// Store token in Redis, its presence marks it as not revoked
	if err := u.redisClient.Set(ctx, jwt.TokenStoreKey(admin.ID, tokenID), "valid", u.jwtService.GetAccessExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}

	adminID := admin.ID
	if err := u.auditService.LogEvent(ctx, u.db, &adminID, entity.AuditActionAdminLogin, entity.JSON{"username": admin.Username}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

func (u *authUsecase) Logout(ctx context.Context, adminID int, tokenID string) error {
	if err := u.redisClient.Del(ctx, jwt.TokenStoreKey(adminID, tokenID)).Err(); err != nil {
		u.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}

	if err := u.auditService.LogEvent(ctx, u.db, &adminID, entity.AuditActionAdminLogout, nil); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return nil
}

func (u *authUsecase) GetCurrentAdmin(ctx context.Context, adminID int) (*dto.AdminResponse, error) {
	admin, err := u.adminRepo.FindByID(u.db.WithContext(ctx), adminID)
	if err != nil {
		u.log.Warnf("Failed to find admin by ID: %+v", err)
		return nil, err
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}

	return converter.AdminToResponse(admin), nil
}

// EnsureAdmin creates the admin account if no admin has that username yet.
// An existing account keeps its password.
func (u *authUsecase) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := u.adminRepo.FindByUsername(u.db.WithContext(ctx), username)
	if err != nil {
		u.log.Warnf("Failed to find admin by username: %+v", err)
		return err
	}
	if existing != nil {
		return nil
	}

	if password == "" {
		return ErrAdminPasswordEmpty
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	admin := &entity.Admin{
		Username: username,
		Password: string(hashedPassword),
	}
	if err := u.adminRepo.Create(u.db.WithContext(ctx), admin); err != nil {
		if isDuplicateKeyError(err, "username") {
			return nil
		}
		u.log.Warnf("Failed to create admin: %+v", err)
		return err
	}

	u.log.Infof("Admin account %q created", username)
	return nil
}
