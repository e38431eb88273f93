package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cryptic/delivery-user-service/internal/domain"
)

// mockStore is an in-memory stand-in for both repositories.
type mockStore struct {
	nextUserID   int64
	nextDriverID int64
	users        map[int64]*domain.User
	drivers      map[int64]*domain.Driver
}

func newMockStore() *mockStore {
	return &mockStore{
		nextUserID:   1,
		nextDriverID: 1,
		users:        make(map[int64]*domain.User),
		drivers:      make(map[int64]*domain.Driver),
	}
}

// ---------- UserRepository ----------

func (m *mockStore) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if m.emailTaken(u.Email) || m.phoneTaken(u.Phone) {
		return nil, fmt.Errorf("%w: email or phone already exists", domain.ErrDuplicateIdentity)
	}
	created := *u
	created.ID = m.nextUserID
	m.nextUserID++
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.users[created.ID] = &created
	return &created, nil
}

func (m *mockStore) CreateDriverAccount(ctx context.Context, u *domain.User, d *domain.Driver) (*domain.User, *domain.Driver, error) {
	// Atomic: the license check happens before either record is created
	if m.licenseTaken(d.LicenseNo) {
		return nil, nil, fmt.Errorf("%w: license number already exists", domain.ErrDuplicateIdentity)
	}
	createdUser, err := m.Create(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	createdDriver := *d
	createdDriver.ID = m.nextDriverID
	m.nextDriverID++
	createdDriver.UserID = createdUser.ID
	createdDriver.CreatedAt = time.Now()
	createdDriver.UpdatedAt = createdDriver.CreatedAt
	m.drivers[createdDriver.ID] = &createdDriver
	return createdUser, &createdDriver, nil
}

func (m *mockStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *mockStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return m.emailTaken(email), nil
}

func (m *mockStore) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	return m.phoneTaken(phone), nil
}

func (m *mockStore) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var users []domain.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockStore) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var users []domain.User
	for _, u := range m.users {
		if u.Role == role {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (m *mockStore) Update(_ context.Context, id int64, req *domain.UpdateUserRequest) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

func (m *mockStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockStore) UpdateStatus(_ context.Context, id int64, status domain.UserStatus) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Status = status
	return nil
}

func (m *mockStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockStore) emailTaken(email string) bool {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return true
		}
	}
	return false
}

func (m *mockStore) phoneTaken(phone string) bool {
	for _, u := range m.users {
		if u.Phone == phone {
			return true
		}
	}
	return false
}

func (m *mockStore) licenseTaken(licenseNo string) bool {
	for _, d := range m.drivers {
		if d.LicenseNo == licenseNo {
			return true
		}
	}
	return false
}

// ---------- DriverRepository ----------

// mockDriverRepo shares the store but satisfies the driver interface, whose
// method names collide with the user one.
type mockDriverRepo struct {
	s *mockStore
}

func (m *mockDriverRepo) FindByID(ctx context.Context, id int64) (*domain.Driver, error) {
	return m.s.findDriverByID(ctx, id)
}

func (m *mockDriverRepo) FindByUserID(ctx context.Context, userID int64) (*domain.Driver, error) {
	return m.s.findDriverByUserID(ctx, userID)
}

func (m *mockDriverRepo) ExistsByLicense(ctx context.Context, licenseNo string) (bool, error) {
	return m.s.licenseTaken(licenseNo), nil
}

func (m *mockDriverRepo) List(ctx context.Context) ([]domain.Driver, error) {
	return m.s.listDrivers(ctx)
}

func (m *mockDriverRepo) ListByStatus(ctx context.Context, status domain.DriverStatus) ([]domain.Driver, error) {
	return m.s.listDriversByStatus(ctx, status)
}

func (m *mockDriverRepo) ListAvailable(ctx context.Context) ([]domain.Driver, error) {
	return m.s.listAvailableDrivers(ctx)
}

func (m *mockDriverRepo) UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus) (*domain.Driver, error) {
	return m.s.updateDriverStatus(ctx, id, status)
}

func (m *mockDriverRepo) AssignOrder(ctx context.Context, id, orderID int64) (*domain.Driver, error) {
	return m.s.assignOrder(ctx, id, orderID)
}

func (m *mockDriverRepo) CompleteOrder(ctx context.Context, id int64) (*domain.Driver, error) {
	return m.s.completeOrder(ctx, id)
}

func (m *mockDriverRepo) UpdateRating(ctx context.Context, id int64, rating float64) error {
	return m.s.updateRating(ctx, id, rating)
}

func (m *mockStore) findDriverByID(_ context.Context, id int64) (*domain.Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (m *mockStore) findDriverByUserID(_ context.Context, userID int64) (*domain.Driver, error) {
	for _, d := range m.drivers {
		if d.UserID == userID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockStore) listDrivers(_ context.Context) ([]domain.Driver, error) {
	var drivers []domain.Driver
	for _, d := range m.drivers {
		drivers = append(drivers, *d)
	}
	return drivers, nil
}

func (m *mockStore) listDriversByStatus(_ context.Context, status domain.DriverStatus) ([]domain.Driver, error) {
	var drivers []domain.Driver
	for _, d := range m.drivers {
		if d.Status == status {
			drivers = append(drivers, *d)
		}
	}
	return drivers, nil
}

func (m *mockStore) listAvailableDrivers(_ context.Context) ([]domain.Driver, error) {
	var drivers []domain.Driver
	for _, d := range m.drivers {
		if d.Available() {
			drivers = append(drivers, *d)
		}
	}
	return drivers, nil
}

func (m *mockStore) updateDriverStatus(_ context.Context, id int64, status domain.DriverStatus) (*domain.Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, nil
	}
	d.Status = status
	d.UpdatedAt = time.Now()
	copied := *d
	return &copied, nil
}

func (m *mockStore) assignOrder(_ context.Context, id, orderID int64) (*domain.Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, nil
	}
	d.CurrentOrderID = &orderID
	d.Status = domain.DriverBusy
	d.UpdatedAt = time.Now()
	copied := *d
	return &copied, nil
}

func (m *mockStore) completeOrder(_ context.Context, id int64) (*domain.Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, nil
	}
	d.CurrentOrderID = nil
	d.Status = domain.DriverOnline
	d.TotalDeliveries++
	d.UpdatedAt = time.Now()
	copied := *d
	return &copied, nil
}

func (m *mockStore) updateRating(_ context.Context, id int64, rating float64) error {
	d, ok := m.drivers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	d.Rating = rating
	return nil
}

// ---------- other collaborators ----------

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Matches(password, hash string) (bool, error) {
	return hash == "hashed:"+password, nil
}

type mockMailer struct {
	sent []string
}

func (m *mockMailer) SendWelcomeEmail(toEmail, toName, role string) error {
	m.sent = append(m.sent, toEmail)
	return nil
}

type mockBus struct {
	published []string
}

func (m *mockBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.published = append(m.published, subject)
	return nil
}

func (m *mockBus) Close() error { return nil }
