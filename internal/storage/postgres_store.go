package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/fleet-live/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) LoadRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, code, passenger_id, driver_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, status, fare_cents, created_at, updated_at FROM bookings ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.Code, &b.PassengerID, &b.DriverID, &b.Pickup.Lat, &b.Pickup.Lng, &b.Dropoff.Lat, &b.Dropoff.Lng, &b.Status, &b.FareCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SaveBooking(ctx context.Context, b *models.Booking) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO bookings(id, code, passenger_id, driver_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, status, fare_cents, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET driver_id=EXCLUDED.driver_id, status=EXCLUDED.status, fare_cents=EXCLUDED.fare_cents, updated_at=EXCLUDED.updated_at`,
		b.ID, b.Code, b.PassengerID, b.DriverID, b.Pickup.Lat, b.Pickup.Lng, b.Dropoff.Lat, b.Dropoff.Lng, b.Status, b.FareCents, b.CreatedAt, b.UpdatedAt)
	return err
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE bookings SET status=$1, updated_at=$2 WHERE id=$3`, status, time.Now(), id)
	return err
}
