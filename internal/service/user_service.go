package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cryptic/delivery-user-service/internal/domain"
	"github.com/cryptic/delivery-user-service/internal/repository"
	"github.com/cryptic/delivery-user-service/pkg/events"
	"github.com/cryptic/delivery-user-service/pkg/logger"
)

type UserService interface {
	GetByID(ctx context.Context, id int64) (*domain.UserResponse, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserResponse, error)
	List(ctx context.Context, limit, offset int) ([]domain.UserResponse, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.UserResponse, error)
	Update(ctx context.Context, id int64, req *domain.UpdateUserRequest) (*domain.UserResponse, error)
	ChangePassword(ctx context.Context, id int64, req *domain.ChangePasswordRequest) error
	UpdateStatus(ctx context.Context, id int64, status domain.UserStatus) error
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	userRepo repository.UserRepository
	hasher   Hasher
	eventBus events.Publisher
}

func NewUserService(userRepo repository.UserRepository, hasher Hasher, eventBus events.Publisher) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		eventBus: eventBus,
	}
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return user.ToResponse(), nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.UserResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user with email %s", domain.ErrNotFound, email)
	}
	return user.ToResponse(), nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]domain.UserResponse, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return toUserResponses(users), nil
}

func (s *userService) ListByRole(ctx context.Context, role domain.Role) ([]domain.UserResponse, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", domain.ErrValidationFailed)
	}
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return toUserResponses(users), nil
}

func toUserResponses(users []domain.User) []domain.UserResponse {
	responses := make([]domain.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *users[i].ToResponse())
	}
	return responses
}

func (s *userService) Update(ctx context.Context, id int64, req *domain.UpdateUserRequest) (*domain.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}

	// Re-check phone uniqueness when it actually changes
	if req.Phone != nil && *req.Phone != user.Phone {
		exists, err := s.userRepo.ExistsByPhone(ctx, *req.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check phone: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: phone number already exists: %s", domain.ErrDuplicateIdentity, *req.Phone)
		}
	}

	updated, err := s.userRepo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}

	logger.InfoContext(ctx, "User updated", "user_id", id)

	return updated.ToResponse(), nil
}

func (s *userService) ChangePassword(ctx context.Context, id int64, req *domain.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}

	valid, err := s.hasher.Matches(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		logger.WarnContext(ctx, "Password change rejected", "user_id", id)
		return fmt.Errorf("%w: current password is incorrect", domain.ErrInvalidCredentials)
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, id, newHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.InfoContext(ctx, "Password changed", "user_id", id)

	return nil
}

func (s *userService) UpdateStatus(ctx context.Context, id int64, status domain.UserStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid user status", domain.ErrValidationFailed)
	}

	if err := s.userRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
		}
		return fmt.Errorf("failed to update status: %w", err)
	}

	logger.InfoContext(ctx, "User status updated", "user_id", id, "status", status)

	if err := s.eventBus.Publish(ctx, events.UserStatusUpdated, events.UserStatusUpdatedEvent{
		UserID:    id,
		Status:    string(status),
		UpdatedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user status event", "error", err, "user_id", id)
	}

	return nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.InfoContext(ctx, "User deleted", "user_id", id)

	if err := s.eventBus.Publish(ctx, events.UserDeleted, events.UserDeletedEvent{
		UserID:    id,
		DeletedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user deleted event", "error", err, "user_id", id)
	}

	return nil
}
