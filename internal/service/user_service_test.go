package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cryptic/delivery-user-service/internal/domain"
)

func newUserFixture(t *testing.T) (*mockStore, UserService, *domain.User) {
	t.Helper()

	store := newMockStore()
	svc := NewUserService(store, fakeHasher{}, &mockBus{})

	user, err := store.Create(context.Background(), &domain.User{
		Name:         "Alice Smith",
		Email:        "alice@example.com",
		Phone:        "+15550001111",
		PasswordHash: "hashed:supersecret",
		Role:         domain.RoleCustomer,
		Status:       domain.UserActive,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return store, svc, user
}

func TestGetByIDUnknownUser(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	_, err := svc.GetByID(context.Background(), 999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdatePhoneDuplicate(t *testing.T) {
	store, svc, user := newUserFixture(t)

	if _, err := store.Create(context.Background(), &domain.User{
		Name: "Bob", Email: "bob@example.com", Phone: "+15550002222",
		PasswordHash: "hashed:x", Role: domain.RoleCustomer, Status: domain.UserActive,
	}); err != nil {
		t.Fatalf("seed second user: %v", err)
	}

	taken := "+15550002222"
	_, err := svc.Update(context.Background(), user.ID, &domain.UpdateUserRequest{Phone: &taken})
	if !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("want ErrDuplicateIdentity, got %v", err)
	}
}

func TestUpdateKeepingOwnPhone(t *testing.T) {
	_, svc, user := newUserFixture(t)

	// Re-submitting the current phone is not a collision.
	name := "Alice Renamed"
	same := user.Phone
	resp, err := svc.Update(context.Background(), user.ID, &domain.UpdateUserRequest{Name: &name, Phone: &same})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.Name != "Alice Renamed" {
		t.Errorf("name = %q", resp.Name)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	store, svc, user := newUserFixture(t)

	err := svc.ChangePassword(context.Background(), user.ID, &domain.ChangePasswordRequest{
		CurrentPassword: "wrongpassword",
		NewPassword:     "newsecret123",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if store.users[user.ID].PasswordHash != "hashed:supersecret" {
		t.Error("password hash changed despite rejection")
	}
}

func TestChangePasswordSuccess(t *testing.T) {
	store, svc, user := newUserFixture(t)

	err := svc.ChangePassword(context.Background(), user.ID, &domain.ChangePasswordRequest{
		CurrentPassword: "supersecret",
		NewPassword:     "newsecret123",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if store.users[user.ID].PasswordHash != "hashed:newsecret123" {
		t.Errorf("hash = %q", store.users[user.ID].PasswordHash)
	}
}

func TestUpdateStatusValidatesValue(t *testing.T) {
	store, svc, user := newUserFixture(t)

	if err := svc.UpdateStatus(context.Background(), user.ID, "FROZEN"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("want ErrValidationFailed, got %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), user.ID, domain.UserSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if store.users[user.ID].Status != domain.UserSuspended {
		t.Errorf("status = %s", store.users[user.ID].Status)
	}
}

func TestDeleteUser(t *testing.T) {
	store, svc, user := newUserFixture(t)

	if err := svc.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.users) != 0 {
		t.Errorf("store has %d users after delete", len(store.users))
	}

	if err := svc.Delete(context.Background(), user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestListByRoleRejectsUnknownRole(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	_, err := svc.ListByRole(context.Background(), "WIZARD")
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("want ErrValidationFailed, got %v", err)
	}
}
