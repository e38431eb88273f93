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

type DriverService interface {
	GetByID(ctx context.Context, id int64) (*domain.DriverResponse, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.DriverResponse, error)
	List(ctx context.Context) ([]domain.DriverResponse, error)
	ListByStatus(ctx context.Context, status domain.DriverStatus) ([]domain.DriverResponse, error)
	ListAvailable(ctx context.Context) ([]domain.DriverResponse, error)
	UpdateStatus(ctx context.Context, driverID int64, req *domain.UpdateDriverStatusRequest) (*domain.DriverResponse, error)
	AssignOrder(ctx context.Context, driverID, orderID int64) error
	CompleteOrder(ctx context.Context, driverID int64) error
	UpdateRating(ctx context.Context, driverID int64, rating float64) error
}

type driverService struct {
	driverRepo repository.DriverRepository
	userRepo   repository.UserRepository
	eventBus   events.Publisher
}

func NewDriverService(driverRepo repository.DriverRepository, userRepo repository.UserRepository, eventBus events.Publisher) DriverService {
	return &driverService{
		driverRepo: driverRepo,
		userRepo:   userRepo,
		eventBus:   eventBus,
	}
}

func (s *driverService) GetByID(ctx context.Context, id int64) (*domain.DriverResponse, error) {
	driver, err := s.driverRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return nil, fmt.Errorf("%w: driver %d", domain.ErrNotFound, id)
	}

	// Single-entity reads require the owning user; a dangling profile is an
	// error here, unlike list reads which degrade.
	user, err := s.userRepo.FindByID(ctx, driver.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user for driver %d", domain.ErrNotFound, id)
	}

	return domain.NewDriverResponse(driver, user), nil
}

func (s *driverService) GetByUserID(ctx context.Context, userID int64) (*domain.DriverResponse, error) {
	driver, err := s.driverRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return nil, fmt.Errorf("%w: driver for user %d", domain.ErrNotFound, userID)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}

	return domain.NewDriverResponse(driver, user), nil
}

func (s *driverService) List(ctx context.Context) ([]domain.DriverResponse, error) {
	drivers, err := s.driverRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return s.withUsers(ctx, drivers), nil
}

func (s *driverService) ListByStatus(ctx context.Context, status domain.DriverStatus) ([]domain.DriverResponse, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid driver status", domain.ErrValidationFailed)
	}
	drivers, err := s.driverRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return s.withUsers(ctx, drivers), nil
}

func (s *driverService) ListAvailable(ctx context.Context) ([]domain.DriverResponse, error) {
	drivers, err := s.driverRepo.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available drivers: %w", err)
	}
	return s.withUsers(ctx, drivers), nil
}

// withUsers joins each driver with its owning user for the response shape.
// A missing user degrades the contact fields rather than dropping the driver.
func (s *driverService) withUsers(ctx context.Context, drivers []domain.Driver) []domain.DriverResponse {
	responses := make([]domain.DriverResponse, 0, len(drivers))
	for i := range drivers {
		d := &drivers[i]
		user, err := s.userRepo.FindByID(ctx, d.UserID)
		if err != nil {
			logger.WarnContext(ctx, "Failed to load driver user", "error", err, "driver_id", d.ID)
			user = nil
		}
		responses = append(responses, *domain.NewDriverResponse(d, user))
	}
	return responses
}

func (s *driverService) UpdateStatus(ctx context.Context, driverID int64, req *domain.UpdateDriverStatusRequest) (*domain.DriverResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.FindByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return nil, fmt.Errorf("%w: driver %d", domain.ErrNotFound, driverID)
	}

	oldStatus := driver.Status

	// Unconditional overwrite: any status is reachable from any status.
	updated, err := s.driverRepo.UpdateStatus(ctx, driverID, req.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update driver status: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: driver %d", domain.ErrNotFound, driverID)
	}

	logger.InfoContext(ctx, "Driver status updated",
		"driver_id", driverID, "old_status", oldStatus, "new_status", req.Status)

	if err := s.eventBus.Publish(ctx, events.DriverStatusUpdated, events.DriverStatusUpdatedEvent{
		DriverID:  driverID,
		OldStatus: string(oldStatus),
		NewStatus: string(req.Status),
		UpdatedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish driver status event", "error", err, "driver_id", driverID)
	}

	user, err := s.userRepo.FindByID(ctx, updated.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user for driver %d", domain.ErrNotFound, driverID)
	}

	return domain.NewDriverResponse(updated, user), nil
}

func (s *driverService) AssignOrder(ctx context.Context, driverID, orderID int64) error {
	driver, err := s.driverRepo.FindByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return fmt.Errorf("%w: driver %d", domain.ErrNotFound, driverID)
	}

	// A driver with an order still accepts the new one; the previous
	// reference is overwritten, which is worth a warning in the logs.
	if driver.CurrentOrderID != nil {
		logger.WarnContext(ctx, "Driver already has an active order",
			"driver_id", driverID, "current_order_id", *driver.CurrentOrderID, "new_order_id", orderID)
	}

	if _, err := s.driverRepo.AssignOrder(ctx, driverID, orderID); err != nil {
		return fmt.Errorf("failed to assign order: %w", err)
	}

	logger.InfoContext(ctx, "Order assigned", "driver_id", driverID, "order_id", orderID)

	if err := s.eventBus.Publish(ctx, events.DriverOrderAssigned, events.DriverOrderAssignedEvent{
		DriverID:   driverID,
		OrderID:    orderID,
		AssignedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish order assigned event", "error", err, "driver_id", driverID)
	}

	return nil
}

func (s *driverService) CompleteOrder(ctx context.Context, driverID int64) error {
	driver, err := s.driverRepo.FindByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return fmt.Errorf("%w: driver %d", domain.ErrNotFound, driverID)
	}

	// The completed order may be nil; the transition proceeds identically.
	completedOrderID := driver.CurrentOrderID

	updated, err := s.driverRepo.CompleteOrder(ctx, driverID)
	if err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("%w: driver %d", domain.ErrNotFound, driverID)
	}

	logger.InfoContext(ctx, "Order completed",
		"driver_id", driverID, "order_id", completedOrderID, "total_deliveries", updated.TotalDeliveries)

	if err := s.eventBus.Publish(ctx, events.DriverOrderCompleted, events.DriverOrderCompletedEvent{
		DriverID:        driverID,
		OrderID:         completedOrderID,
		TotalDeliveries: updated.TotalDeliveries,
		CompletedAt:     time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish order completed event", "error", err, "driver_id", driverID)
	}

	return nil
}

func (s *driverService) UpdateRating(ctx context.Context, driverID int64, rating float64) error {
	if err := s.driverRepo.UpdateRating(ctx, driverID, rating); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: driver %d", domain.ErrNotFound, driverID)
		}
		return fmt.Errorf("failed to update rating: %w", err)
	}

	logger.InfoContext(ctx, "Driver rating updated", "driver_id", driverID, "rating", rating)

	return nil
}
