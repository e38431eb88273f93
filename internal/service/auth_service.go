package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cryptic/delivery-user-service/internal/domain"
	"github.com/cryptic/delivery-user-service/internal/mailer"
	"github.com/cryptic/delivery-user-service/internal/repository"
	"github.com/cryptic/delivery-user-service/pkg/auth"
	"github.com/cryptic/delivery-user-service/pkg/events"
	"github.com/cryptic/delivery-user-service/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	driverRepo repository.DriverRepository
	hasher     Hasher
	tokens     *auth.Tokens
	mailer     mailer.Service
	eventBus   events.Publisher
}

func NewAuthService(
	userRepo repository.UserRepository,
	driverRepo repository.DriverRepository,
	hasher Hasher,
	tokens *auth.Tokens,
	mailer mailer.Service,
	eventBus events.Publisher,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		driverRepo: driverRepo,
		hasher:     hasher,
		tokens:     tokens,
		mailer:     mailer,
		eventBus:   eventBus,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Registering new user", "email", req.Email, "role", req.Role)

	// Uniqueness pre-checks. These are the friendly rejection path; the
	// database constraints remain the guard against concurrent registrations.
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already exists: %s", domain.ErrDuplicateIdentity, req.Email)
	}

	exists, err = s.userRepo.ExistsByPhone(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: phone number already exists: %s", domain.ErrDuplicateIdentity, req.Phone)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         req.Role,
		Status:       domain.UserActive,
	}

	var user *domain.User
	if req.Role == domain.RoleDriver {
		if req.LicenseNo == "" {
			return nil, fmt.Errorf("%w: license number is required for drivers", domain.ErrValidationFailed)
		}

		exists, err = s.driverRepo.ExistsByLicense(ctx, req.LicenseNo)
		if err != nil {
			return nil, fmt.Errorf("failed to check license: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: license number already exists: %s", domain.ErrDuplicateIdentity, req.LicenseNo)
		}

		newDriver := &domain.Driver{
			LicenseNo:       req.LicenseNo,
			VehicleInfo:     req.VehicleInfo,
			Status:          domain.DriverOffline,
			CurrentOrderID:  nil,
			Rating:          domain.DefaultRating,
			TotalDeliveries: 0,
		}

		var driver *domain.Driver
		user, driver, err = s.userRepo.CreateDriverAccount(ctx, newUser, newDriver)
		if err != nil {
			return nil, fmt.Errorf("failed to create driver account: %w", err)
		}
		logger.InfoContext(ctx, "Driver profile created", "user_id", user.ID, "driver_id", driver.ID)
	} else {
		user, err = s.userRepo.Create(ctx, newUser)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	logger.InfoContext(ctx, "User created", "user_id", user.ID)

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         string(user.Role),
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	// Don't fail registration if the welcome mail can't be sent
	if err := s.mailer.SendWelcomeEmail(user.Email, user.Name, string(user.Role)); err != nil {
		logger.WarnContext(ctx, "Failed to send welcome email", "error", err, "user_id", user.ID)
	}

	return s.issueTokenPair(user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Login attempt", "email", req.Email)

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrInvalidCredentials)
	}

	valid, err := s.hasher.Matches(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrInvalidCredentials)
	}

	if user.Status != domain.UserActive {
		return nil, fmt.Errorf("%w: account is %s", domain.ErrAccountNotUsable, user.Status)
	}

	logger.InfoContext(ctx, "User logged in", "user_id", user.ID)

	return s.issueTokenPair(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: refresh token has expired", domain.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrInvalidCredentials)
	}

	// Access tokens must not be usable to mint new pairs.
	if claims.Typ != auth.TypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", domain.ErrInvalidCredentials)
	}

	user, err := s.userRepo.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}

	if user.Status != domain.UserActive {
		return nil, fmt.Errorf("%w: account is %s", domain.ErrAccountNotUsable, user.Status)
	}

	logger.InfoContext(ctx, "Refreshing token pair", "user_id", user.ID)

	// Rotation: a brand-new pair every time, never the presented token.
	return s.issueTokenPair(user)
}

func (s *authService) issueTokenPair(user *domain.User) (*domain.AuthResponse, error) {
	accessToken, err := s.tokens.NewAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokens.NewRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &domain.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Role:         user.Role,
		Name:         user.Name,
		Email:        user.Email,
		Phone:        user.Phone,
	}, nil
}
