// store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

type Postgres struct {
	db  DB
	now func() time.Time
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Connect opens a pool and checks that the database answers.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

const contactColumns = `id::text, workspace_id, name, COALESCE(email, ''), phone, notes, parsed, created_at, updated_at`

func (p *Postgres) Create(ctx context.Context, c *domain.Contact) error {
	if err := validate(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	parsed, err := json.Marshal(c.Parsed)
	if err != nil {
		return fmt.Errorf("failed to encode parsed notes: %w", err)
	}

	now := p.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err = p.db.Exec(ctx, `
		INSERT INTO contacts (id, workspace_id, name, email, phone, notes, parsed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.WorkspaceID, c.Name, nullIfEmpty(c.Email), c.Phone, c.Notes, parsed, c.CreatedAt, c.UpdatedAt)
	return mapError(err)
}

func (p *Postgres) Get(ctx context.Context, workspaceID, id string) (*domain.Contact, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)
	return scanContact(row)
}

func (p *Postgres) FindByEmail(ctx context.Context, workspaceID, email string) (*domain.Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrNotFound
	}
	row := p.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE workspace_id = $1 AND lower(email) = lower($2) LIMIT 1`,
		workspaceID, email)
	return scanContact(row)
}

func (p *Postgres) List(ctx context.Context, workspaceID string) ([]*domain.Contact, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE workspace_id = $1 ORDER BY created_at, id`,
		workspaceID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	contacts := []*domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return contacts, nil
}

func (p *Postgres) Update(ctx context.Context, c *domain.Contact) error {
	if err := validate(c); err != nil {
		return err
	}
	parsed, err := json.Marshal(c.Parsed)
	if err != nil {
		return fmt.Errorf("failed to encode parsed notes: %w", err)
	}

	c.UpdatedAt = p.now().UTC()
	row := p.db.QueryRow(ctx, `
		UPDATE contacts
		SET name = $3, email = $4, phone = $5, notes = $6, parsed = $7, updated_at = $8
		WHERE workspace_id = $1 AND id = $2
		RETURNING created_at`,
		c.WorkspaceID, c.ID, c.Name, nullIfEmpty(c.Email), c.Phone, c.Notes, parsed, c.UpdatedAt)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, workspaceID, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM contacts WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var (
		c      domain.Contact
		parsed []byte
	)
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Email, &c.Phone, &c.Notes, &parsed, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapError(err)
	}

	c.Parsed = domain.NewParsedNote()
	if len(parsed) > 0 {
		if err := json.Unmarshal(parsed, &c.Parsed); err != nil {
			return nil, fmt.Errorf("failed to decode parsed notes for %s: %w", c.ID, err)
		}
		fillGroups(&c.Parsed)
	}
	return &c, nil
}

// fillGroups restores empty slices for groups missing from stored JSON.
func fillGroups(p *domain.ParsedNote) {
	empty := domain.NewParsedNote()
	if p.Estimate == nil {
		p.Estimate = empty.Estimate
	}
	if p.Customer == nil {
		p.Customer = empty.Customer
	}
	if p.Location == nil {
		p.Location = empty.Location
	}
	if p.Vendor == nil {
		p.Vendor = empty.Vendor
	}
	if p.Totals == nil {
		p.Totals = empty.Totals
	}
	if p.Other == nil {
		p.Other = empty.Other
	}
	if p.LineItems == nil {
		p.LineItems = empty.LineItems
	}
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// mapError translates driver errors into the store's sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return fmt.Errorf("%w: %s", ErrInvalid, pgErr.Message)
		case pgerrcode.InvalidTextRepresentation:
			// malformed UUID in a lookup
			return ErrNotFound
		}
	}
	return err
}
