package domain

import (
	"fmt"
	"time"
)

type DriverStatus string

const (
	DriverOnline   DriverStatus = "ONLINE"
	DriverOffline  DriverStatus = "OFFLINE"
	DriverBusy     DriverStatus = "BUSY"
	DriverInactive DriverStatus = "INACTIVE"
)

var validDriverStatuses = map[DriverStatus]bool{
	DriverOnline:   true,
	DriverOffline:  true,
	DriverBusy:     true,
	DriverInactive: true,
}

func (s DriverStatus) Valid() bool {
	return validDriverStatuses[s]
}

// DefaultRating is assigned to every new driver profile.
const DefaultRating = 5.0

type Driver struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	LicenseNo       string       `json:"license_no"`
	VehicleInfo     string       `json:"vehicle_info"`
	Status          DriverStatus `json:"status"`
	CurrentOrderID  *int64       `json:"current_order_id"`
	Rating          float64      `json:"rating"`
	TotalDeliveries int          `json:"total_deliveries"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Available reports whether the driver can be picked for a new order.
func (d *Driver) Available() bool {
	return d.Status == DriverOnline && d.CurrentOrderID == nil
}

// DriverResponse joins a driver with its owning user's contact fields. Name,
// email and phone are empty when the owning user could not be loaded.
type DriverResponse struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	Name            string       `json:"name,omitempty"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	LicenseNo       string       `json:"license_no"`
	VehicleInfo     string       `json:"vehicle_info"`
	Status          DriverStatus `json:"status"`
	CurrentOrderID  *int64       `json:"current_order_id"`
	Rating          float64      `json:"rating"`
	TotalDeliveries int          `json:"total_deliveries"`
	CreatedAt       time.Time    `json:"created_at"`
}

// NewDriverResponse composes the denormalized read shape from the two
// entities. A nil user degrades the contact fields instead of failing.
func NewDriverResponse(d *Driver, u *User) *DriverResponse {
	resp := &DriverResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		LicenseNo:       d.LicenseNo,
		VehicleInfo:     d.VehicleInfo,
		Status:          d.Status,
		CurrentOrderID:  d.CurrentOrderID,
		Rating:          d.Rating,
		TotalDeliveries: d.TotalDeliveries,
		CreatedAt:       d.CreatedAt,
	}
	if u != nil {
		resp.Name = u.Name
		resp.Email = u.Email
		resp.Phone = u.Phone
	}
	return resp
}

type UpdateDriverStatusRequest struct {
	Status DriverStatus `json:"status"`
}

func (r *UpdateDriverStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: invalid driver status", ErrValidationFailed)
	}
	return nil
}

type AssignOrderRequest struct {
	OrderID int64 `json:"order_id"`
}

func (r *AssignOrderRequest) Validate() error {
	if r.OrderID <= 0 {
		return fmt.Errorf("%w: order_id is required", ErrValidationFailed)
	}
	return nil
}

type UpdateRatingRequest struct {
	Rating float64 `json:"rating"`
}
