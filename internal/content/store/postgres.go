package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"podium/internal/authz"
	"podium/internal/content/models"
	"podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

// Postgres persists resources in PostgreSQL. Every lifecycle transition is a
// single conditional statement, so the ownership/active check and the effect
// are indivisible; the row-level transaction is the only mutual exclusion.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const resourceColumns = "id, owner_id, kind, title, body, status, is_public, capacity, deleted_at, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID.IsZero() {
		resource.ID = domain.NewResourceID()
	}
	query := `
		INSERT INTO resources (` + resourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		resource.ID.String(), resource.OwnerID.String(), string(resource.Kind),
		resource.Title, resource.Body, string(resource.Status), resource.IsPublic,
		nullInt(resource.Capacity), resource.CreatedAt, resource.UpdatedAt,
	)
	if err != nil {
		return classify(err, "create resource")
	}
	return nil
}

// scopeClause renders the visibility predicate applied server-side on every
// read. The clause must stay equivalent to authz.Scope.Allows.
func scopeClause(scope authz.Scope, args []any) (string, []any) {
	args = append(args, scope.OwnerID.String())
	owner := fmt.Sprintf("owner_id = $%d", len(args))
	if scope.IncludePublic {
		return "deleted_at IS NULL AND (" + owner + " OR is_public = TRUE)", args
	}
	return "deleted_at IS NULL AND " + owner, args
}

func (s *Postgres) Find(ctx context.Context, id domain.ResourceID, scope authz.Scope) (*models.Resource, error) {
	args := []any{id.String()}
	clause, args := scopeClause(scope, args)
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1 AND ` + clause
	row := s.db.QueryRowContext(ctx, query, args...)
	resource, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify(err, "find resource")
	}
	return resource, nil
}

func (s *Postgres) List(ctx context.Context, scope authz.Scope, limit int) ([]*models.Resource, error) {
	clause, args := scopeClause(scope, nil)
	args = append(args, limit)
	query := `
		SELECT ` + resourceColumns + ` FROM resources
		WHERE ` + clause + `
		ORDER BY updated_at DESC, id
		LIMIT $` + fmt.Sprint(len(args))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list resources")
	}
	defer rows.Close()

	var out []*models.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, classify(err, "scan resource")
		}
		out = append(out, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "list resources")
	}
	return out, nil
}

func (s *Postgres) UpdateFields(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, fields models.Fields, now time.Time) (time.Time, error) {
	// GREATEST can advance the marker past $6 under clock regression, so the
	// statement returns the marker it actually stored.
	query := `
		UPDATE resources SET
			title = COALESCE($3, title),
			body = COALESCE($4, body),
			status = COALESCE($5, status),
			updated_at = GREATEST($6, updated_at + interval '1 microsecond')
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		RETURNING updated_at
	`
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, query,
		id.String(), owner.String(),
		nullString(fields.Title), nullString(fields.Body), nullStatus(fields.Status), now,
	).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, sentinel.ErrNotFound
	}
	if err != nil {
		return time.Time{}, classify(err, "update resource fields")
	}
	return updatedAt, nil
}

func (s *Postgres) SoftDelete(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, now time.Time) (int64, error) {
	query := `
		UPDATE resources SET
			deleted_at = $3,
			updated_at = GREATEST($3, updated_at + interval '1 microsecond')
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	res, err := s.db.ExecContext(ctx, query, id.String(), owner.String(), now)
	if err != nil {
		return 0, classify(err, "soft delete resource")
	}
	return res.RowsAffected()
}

func (s *Postgres) SetVisibility(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, public bool, now time.Time) (int64, error) {
	query := `
		UPDATE resources SET
			is_public = $3,
			updated_at = GREATEST($4, updated_at + interval '1 microsecond')
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	res, err := s.db.ExecContext(ctx, query, id.String(), owner.String(), public, now)
	if err != nil {
		return 0, classify(err, "set resource visibility")
	}
	return res.RowsAffected()
}

func (s *Postgres) Duplicate(ctx context.Context, source domain.ResourceID, owner domain.PrincipalID, now time.Time) (domain.ResourceID, error) {
	newID := domain.NewResourceID()
	query := `
		INSERT INTO resources (` + resourceColumns + `)
		SELECT $1, owner_id, kind, title || $4, body, 'draft', FALSE, capacity, NULL, $5, $5
		FROM resources
		WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL
	`
	res, err := s.db.ExecContext(ctx, query, newID.String(), source.String(), owner.String(), models.CopySuffix, now)
	if err != nil {
		return domain.ResourceID{}, classify(err, "duplicate resource")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.ResourceID{}, fmt.Errorf("duplicate resource: %w", err)
	}
	if rows == 0 {
		return domain.ResourceID{}, sentinel.ErrNotFound
	}
	return newID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*models.Resource, error) {
	var (
		resource  models.Resource
		idStr     string
		ownerStr  string
		kind      string
		status    string
		capacity  sql.NullInt64
		deletedAt sql.NullTime
	)
	err := row.Scan(&idStr, &ownerStr, &kind, &resource.Title, &resource.Body,
		&status, &resource.IsPublic, &capacity, &deletedAt,
		&resource.CreatedAt, &resource.UpdatedAt)
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseResourceID(idStr)
	if err != nil {
		return nil, fmt.Errorf("malformed resource id %q: %w", idStr, err)
	}
	ownerID, err := domain.ParsePrincipalID(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("malformed owner id %q: %w", ownerStr, err)
	}
	resource.ID = id
	resource.OwnerID = ownerID
	resource.Kind = models.Kind(kind)
	resource.Status = models.Status(status)
	if capacity.Valid {
		c := int(capacity.Int64)
		resource.Capacity = &c
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		resource.DeletedAt = &t
	}
	return &resource, nil
}

// classify maps driver errors onto infrastructure sentinels so services can
// recover uniqueness conflicts and surface transient outages as retryable.
func classify(err error, op string) error {
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

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStatus(s *models.Status) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
