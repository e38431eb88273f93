package domain

import (
	"errors"
	"testing"
)

func validRegister() *RegisterRequest {
	return &RegisterRequest{
		Name:     "Alice Smith",
		Email:    "alice@example.com",
		Phone:    "+15550001111",
		Password: "supersecret",
		Role:     RoleCustomer,
	}
}

func TestRegisterRequestNormalize(t *testing.T) {
	req := validRegister()
	req.Email = "  Alice@Example.COM "
	req.Role = ""

	req.Normalize()

	if req.Email != "alice@example.com" {
		t.Errorf("email = %q", req.Email)
	}
	if req.Role != RoleCustomer {
		t.Errorf("role = %q, want default CUSTOMER", req.Role)
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"blank name", func(r *RegisterRequest) { r.Name = "  " }},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"bad phone", func(r *RegisterRequest) { r.Phone = "555" }},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }},
		{"unknown role", func(r *RegisterRequest) { r.Role = "WIZARD" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegister()
			tt.mutate(req)
			req.Normalize()
			if err := req.Validate(); !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("want ErrValidationFailed, got %v", err)
			}
		})
	}

	req := validRegister()
	req.Normalize()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestDriverAvailable(t *testing.T) {
	orderID := int64(42)

	tests := []struct {
		name   string
		driver Driver
		want   bool
	}{
		{"online idle", Driver{Status: DriverOnline}, true},
		{"online mid-delivery", Driver{Status: DriverOnline, CurrentOrderID: &orderID}, false},
		{"busy", Driver{Status: DriverBusy}, false},
		{"offline", Driver{Status: DriverOffline}, false},
		{"inactive", Driver{Status: DriverInactive}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.driver.Available(); got != tt.want {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewDriverResponseDegradesMissingUser(t *testing.T) {
	d := &Driver{ID: 1, UserID: 2, LicenseNo: "LIC1", Status: DriverOnline, Rating: DefaultRating}

	resp := NewDriverResponse(d, nil)
	if resp.Name != "" || resp.Email != "" || resp.Phone != "" {
		t.Errorf("contact fields set without a user: %q / %q / %q", resp.Name, resp.Email, resp.Phone)
	}
	if resp.LicenseNo != "LIC1" || resp.Status != DriverOnline {
		t.Errorf("driver fields lost: %q / %q", resp.LicenseNo, resp.Status)
	}

	u := &User{Name: "Dan", Email: "d@x.com", Phone: "+15551234567"}
	resp = NewDriverResponse(d, u)
	if resp.Name != "Dan" || resp.Email != "d@x.com" {
		t.Errorf("joined fields = %q / %q", resp.Name, resp.Email)
	}
}
