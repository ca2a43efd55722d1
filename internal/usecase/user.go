package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/auth"
	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository"
)

// RegisterInput данные для регистрации пользователя
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginResult выданный токен доступа
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// UserUseCase реализует бизнес-логику для пользователей и их сессий
type UserUseCase struct {
	userRepo    repository.UserRepository
	revocations repository.TokenRevocationStore
	tokens      *auth.TokenManager
}

// NewUserUseCase создает новый usecase для пользователей
func NewUserUseCase(
	userRepo repository.UserRepository,
	revocations repository.TokenRevocationStore,
	tokens *auth.TokenManager,
) *UserUseCase {
	return &UserUseCase{
		userRepo:    userRepo,
		revocations: revocations,
		tokens:      tokens,
	}
}

// Register создает пользователя с bcrypt хешем пароля
func (uc *UserUseCase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domainErrors.InvalidField("username", "username is required")
	}
	if in.Password == "" {
		return nil, domainErrors.InvalidField("password", "password is required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainErrors.ErrUserExists) {
			return nil, domainErrors.NewDomainError(
				domainErrors.CodeUserExists,
				"username already taken",
				domainErrors.ErrUserExists,
			).WithField("username", "username already taken")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login проверяет пароль и выдает токен доступа
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	invalid := domainErrors.NewDomainError(
		domainErrors.CodeInvalidCredentials,
		"invalid username or password",
		domainErrors.ErrInvalidCredentials,
	)

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid
	}

	token, claims, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Logout отзывает токен до истечения его срока
func (uc *UserUseCase) Logout(ctx context.Context, token string) error {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return unauthorized("invalid token")
	}

	if err := uc.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// Authenticate возвращает ID владельца действующего токена
func (uc *UserUseCase) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return uuid.Nil, unauthorized("invalid token")
	}

	revoked, err := uc.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to check token: %w", err)
	}
	if revoked {
		return uuid.Nil, unauthorized("token revoked")
	}

	userID, err := claims.UserID()
	if err != nil {
		return uuid.Nil, unauthorized("invalid token")
	}

	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return uuid.Nil, unauthorized("user no longer exists")
		}
		return uuid.Nil, fmt.Errorf("failed to get user: %w", err)
	}

	return userID, nil
}

// GetProfile возвращает пользователя по ID
func (uc *UserUseCase) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageError(err, "user", "get user")
	}
	return user, nil
}

// UpdateProfile меняет email и имя пользователя
func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID uuid.UUID, upd entity.ProfileUpdate) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageError(err, "user", "get user")
	}

	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, storageError(err, "user", "update user")
	}

	return user, nil
}

// DeleteUser удаляет пользователя. Задачи и команды остаются без автора и создателя.
func (uc *UserUseCase) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := uc.userRepo.Delete(ctx, userID); err != nil {
		return storageError(err, "user", "delete user")
	}
	return nil
}

// SetIsStaff устанавливает флаг администратора системы
func (uc *UserUseCase) SetIsStaff(ctx context.Context, userID uuid.UUID, isStaff bool) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageError(err, "user", "get user")
	}

	user.IsStaff = isStaff
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
