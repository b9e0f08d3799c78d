// Package postgres implements the source-of-record boundary (authz.Records)
// against the shared application database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"

	"github.com/commercekit/authctx/pkg/authz"
)

// Records answers membership and user-preference lookups from PostgreSQL.
// It is the only source of truth; every cached copy is derived from what
// these queries return.
type Records struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Records {
	return &Records{db: db}
}

// Open connects to PostgreSQL and verifies connectivity.
func Open(url string) (*Records, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Records{db: db}, nil
}

// Close closes the underlying database handle.
func (r *Records) Close() error {
	return r.db.Close()
}

// Ping verifies database connectivity, for health checks.
func (r *Records) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FindMembership returns the unique membership row for the
// (organization, user) pair joined with the organization's display fields,
// or (nil, nil) when the user is not a member.
func (r *Records) FindMembership(ctx context.Context, organizationID, userID string) (*authz.Membership, error) {
	query := `
		SELECT m.id, m.role, o.slug, o.name, o.description
		FROM members m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.organization_id = $1 AND m.user_id = $2
	`
	member := &authz.Membership{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, organizationID, userID).Scan(
		&member.ID, &member.Role, &member.OrganizationSlug,
		&member.OrganizationName, &description,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	if description.Valid {
		member.OrganizationDescription = description.String
	}

	return member, nil
}

// FindUserPreferences returns the user's persisted preferences, or
// (nil, nil) when the user does not exist.
func (r *Records) FindUserPreferences(ctx context.Context, userID string) (*authz.UserPreferences, error) {
	query := `SELECT active_organization_id FROM users WHERE id = $1`

	var activeOrgID sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&activeOrgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user preferences: %w", err)
	}

	prefs := &authz.UserPreferences{}
	if activeOrgID.Valid {
		prefs.ActiveOrganizationID = activeOrgID.String
	}
	return prefs, nil
}
