package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

// PostgresStore persists registrations in PostgreSQL. The uniqueness constraint
// on (event_id, principal_id) is the source of truth for idempotency; the
// capacity predicate rides inside the write statement so check and effect are
// one atomic operation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, reg *Registration, capacity *int) error {
	query := `
		INSERT INTO registrations (event_id, principal_id, status, created_at, updated_at)
		SELECT $1, $2, $3, $4, $4
		WHERE $5::int IS NULL OR (
			SELECT count(*) FROM registrations
			WHERE event_id = $1 AND status IN ('confirmed', 'attended')
		) < $5
	`
	rows, err := s.execCapacityGuarded(ctx, reg.EventID, capacity, query,
		reg.EventID.String(), reg.PrincipalID.String(), string(reg.Status),
		reg.CreatedAt, nullInt(capacity),
	)
	if err != nil {
		return classifyRegErr(err, "insert registration")
	}
	if rows == 0 {
		return ErrEventFull
	}
	return nil
}

// execCapacityGuarded runs a capacity-checked write. When a capacity limit is
// set, the statement executes in a transaction holding a per-event advisory
// lock, so two concurrent writes cannot both read a count below the limit.
func (s *PostgresStore) execCapacityGuarded(ctx context.Context, eventID domain.EventID, capacity *int, query string, args ...any) (int64, error) {
	if capacity == nil {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, eventID.String()); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, tx.Commit()
}

func (s *PostgresStore) Find(ctx context.Context, eventID domain.EventID, principalID domain.PrincipalID) (*Registration, error) {
	query := `
		SELECT event_id, principal_id, status, created_at, updated_at
		FROM registrations
		WHERE event_id = $1 AND principal_id = $2
	`
	var (
		reg          Registration
		eventStr     string
		principalStr string
		status       string
	)
	err := s.db.QueryRowContext(ctx, query, eventID.String(), principalID.String()).
		Scan(&eventStr, &principalStr, &status, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classifyRegErr(err, "find registration")
	}
	evID, err := domain.ParseEventID(eventStr)
	if err != nil {
		return nil, fmt.Errorf("malformed event id %q: %w", eventStr, err)
	}
	pID, err := domain.ParsePrincipalID(principalStr)
	if err != nil {
		return nil, fmt.Errorf("malformed principal id %q: %w", principalStr, err)
	}
	reg.EventID = evID
	reg.PrincipalID = pID
	reg.Status = Status(status)
	return &reg, nil
}

func (s *PostgresStore) Revive(ctx context.Context, eventID domain.EventID, principalID domain.PrincipalID, capacity *int, now time.Time) (int64, error) {
	query := `
		UPDATE registrations SET status = 'confirmed', updated_at = $3
		WHERE event_id = $1 AND principal_id = $2 AND status = 'cancelled'
		AND ($4::int IS NULL OR (
			SELECT count(*) FROM registrations
			WHERE event_id = $1 AND status IN ('confirmed', 'attended')
		) < $4)
	`
	rows, err := s.execCapacityGuarded(ctx, eventID, capacity, query,
		eventID.String(), principalID.String(), now, nullInt(capacity))
	if err != nil {
		return 0, classifyRegErr(err, "revive registration")
	}
	return rows, nil
}

func (s *PostgresStore) Cancel(ctx context.Context, eventID domain.EventID, principalID domain.PrincipalID, now time.Time) (int64, error) {
	query := `
		UPDATE registrations SET status = 'cancelled', updated_at = $3
		WHERE event_id = $1 AND principal_id = $2 AND status <> 'cancelled'
	`
	res, err := s.db.ExecContext(ctx, query, eventID.String(), principalID.String(), now)
	if err != nil {
		return 0, classifyRegErr(err, "cancel registration")
	}
	return res.RowsAffected()
}

func (s *PostgresStore) CountActive(ctx context.Context, eventID domain.EventID) (int, error) {
	query := `
		SELECT count(*) FROM registrations
		WHERE event_id = $1 AND status IN ('confirmed', 'attended')
	`
	var n int
	if err := s.db.QueryRowContext(ctx, query, eventID.String()).Scan(&n); err != nil {
		return 0, classifyRegErr(err, "count registrations")
	}
	return n, nil
}

// classifyRegErr maps driver errors to infrastructure sentinels. The unique
// violation is the expected signal of a concurrent or repeated registration.
func classifyRegErr(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
		case pqErr.Code.Class() == "08":
			return fmt.Errorf("%s: %w", op, sentinel.ErrUnavailable)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
