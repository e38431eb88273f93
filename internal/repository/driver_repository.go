package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptic/delivery-user-service/internal/domain"
)

type DriverRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Driver, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Driver, error)
	ExistsByLicense(ctx context.Context, licenseNo string) (bool, error)
	List(ctx context.Context) ([]domain.Driver, error)
	ListByStatus(ctx context.Context, status domain.DriverStatus) ([]domain.Driver, error)
	// ListAvailable returns drivers that are ONLINE with no assigned order.
	ListAvailable(ctx context.Context) ([]domain.Driver, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus) (*domain.Driver, error)
	AssignOrder(ctx context.Context, id, orderID int64) (*domain.Driver, error)
	// CompleteOrder clears the current order, moves the driver back ONLINE and
	// bumps total_deliveries in one statement.
	CompleteOrder(ctx context.Context, id int64) (*domain.Driver, error)
	UpdateRating(ctx context.Context, id int64, rating float64) error
}

type driverRepository struct {
	pool *pgxpool.Pool
}

func NewDriverRepository(pool *pgxpool.Pool) DriverRepository {
	return &driverRepository{pool: pool}
}

const driverCols = `id, user_id, license_no, vehicle_info, status, current_order_id, rating, total_deliveries, created_at, updated_at`

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	var d domain.Driver
	err := row.Scan(
		&d.ID, &d.UserID, &d.LicenseNo, &d.VehicleInfo, &d.Status, &d.CurrentOrderID,
		&d.Rating, &d.TotalDeliveries, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *driverRepository) FindByID(ctx context.Context, id int64) (*domain.Driver, error) {
	const q = `SELECT ` + driverCols + ` FROM drivers WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	d, err := scanDriver(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *driverRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Driver, error) {
	const q = `SELECT ` + driverCols + ` FROM drivers WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	d, err := scanDriver(r.pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *driverRepository) ExistsByLicense(ctx context.Context, licenseNo string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM drivers WHERE license_no = $1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, licenseNo).Scan(&exists)
	return exists, err
}

func (r *driverRepository) List(ctx context.Context) ([]domain.Driver, error) {
	const q = `SELECT ` + driverCols + ` FROM drivers ORDER BY created_at DESC`
	return r.query(ctx, q)
}

func (r *driverRepository) ListByStatus(ctx context.Context, status domain.DriverStatus) ([]domain.Driver, error) {
	const q = `SELECT ` + driverCols + ` FROM drivers WHERE status = $1 ORDER BY created_at DESC`
	return r.query(ctx, q, status)
}

func (r *driverRepository) ListAvailable(ctx context.Context) ([]domain.Driver, error) {
	const q = `
		SELECT ` + driverCols + `
		FROM drivers
		WHERE status = 'ONLINE' AND current_order_id IS NULL
		ORDER BY rating DESC`
	return r.query(ctx, q)
}

func (r *driverRepository) query(ctx context.Context, q string, args ...any) ([]domain.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.LicenseNo, &d.VehicleInfo, &d.Status, &d.CurrentOrderID,
			&d.Rating, &d.TotalDeliveries, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *driverRepository) UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus) (*domain.Driver, error) {
	const q = `
		UPDATE drivers
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + driverCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	d, err := scanDriver(r.pool.QueryRow(ctx, q, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *driverRepository) AssignOrder(ctx context.Context, id, orderID int64) (*domain.Driver, error) {
	const q = `
		UPDATE drivers
		SET current_order_id = $2, status = 'BUSY', updated_at = now()
		WHERE id = $1
		RETURNING ` + driverCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	d, err := scanDriver(r.pool.QueryRow(ctx, q, id, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *driverRepository) CompleteOrder(ctx context.Context, id int64) (*domain.Driver, error) {
	const q = `
		UPDATE drivers
		SET current_order_id = NULL,
			status = 'ONLINE',
			total_deliveries = total_deliveries + 1,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + driverCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	d, err := scanDriver(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *driverRepository) UpdateRating(ctx context.Context, id int64, rating float64) error {
	const q = `UPDATE drivers SET rating = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, rating)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
