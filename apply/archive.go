package apply

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const insertApplication = `
INSERT INTO applications (
	user_id, display_name, full_name, iban, months_in_city, phone, referrer,
	motivation, experience, primary_url, secondary_url, needs_cleanup
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Archive persists finished applications to Postgres for operator review
// beyond the lifetime of the process.
type Archive struct {
	db *sqlx.DB
}

// NewArchive wraps the database handle.
func NewArchive(db *sqlx.DB) *Archive {
	return &Archive{db: db}
}

// Insert stores one finished application row.
func (a *Archive) Insert(ctx context.Context, sess Session, needsCleanup bool) error {
	_, err := a.db.ExecContext(ctx, insertApplication,
		sess.UserID,
		sess.DisplayName,
		sess.Page1.FullName,
		sess.Page1.IBAN,
		sess.Page1.MonthsInCity,
		sess.Page1.Phone,
		sess.Page1.Referrer,
		sess.Page2.Motivation,
		sess.Page2.Experience,
		sess.Uploads.PrimaryURL,
		sess.Uploads.SecondaryURL,
		needsCleanup,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}
