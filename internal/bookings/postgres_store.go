package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/prism-crm/internal/leads"
)

const bookingColumns = `id, lead_id, building, tour_date, tour_time, status, created_at`

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	leads.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps bookings in Postgres.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store backed by a pgx pool.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresStore{db: db}
}

// WithTx runs fn inside a database transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin tx: %w", err)
	}

	if err := fn(&postgresTx{tx: tx, leads: leads.NewPostgresRepository(tx)}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("bookings: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit: %w", err)
	}
	return nil
}

// TakenSlots lists booked tour times for a building and date.
func (s *PostgresStore) TakenSlots(ctx context.Context, building, date string) ([]string, error) {
	query := `
		SELECT tour_time
		FROM bookings
		WHERE building = $1 AND tour_date = $2 AND status <> $3
		ORDER BY id ASC
	`
	rows, err := s.db.Query(ctx, query, building, date, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("bookings: taken slots: %w", err)
	}
	defer rows.Close()

	slots := []string{}
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("bookings: scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: taken slots: %w", err)
	}
	return slots, nil
}

// ListByLead returns a lead's bookings, oldest first.
func (s *PostgresStore) ListByLead(ctx context.Context, leadID int64) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE lead_id = $1 ORDER BY id ASC`
	rows, err := s.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list by lead: %w", err)
	}
	defer rows.Close()

	out := []*Booking{}
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.LeadID, &b.Building, &b.TourDate, &b.TourTime, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan booking: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list by lead: %w", err)
	}
	return out, nil
}

type postgresTx struct {
	tx    pgx.Tx
	leads *leads.PostgresRepository
}

func (t *postgresTx) FindLeadByContact(ctx context.Context, email, phone string) (*leads.Lead, error) {
	return t.leads.FindByContact(ctx, email, phone)
}

func (t *postgresTx) CreateLead(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error) {
	return t.leads.Create(ctx, req)
}

func (t *postgresTx) InsertBooking(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (lead_id, building, tour_date, tour_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	out := *b
	if err := t.tx.QueryRow(ctx, query, b.LeadID, b.Building, b.TourDate, b.TourTime, b.Status).
		Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("bookings: insert booking: %w", err)
	}
	return &out, nil
}
