package apply

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchiveMock(t *testing.T) (*Archive, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewArchive(sqlx.NewDb(db, "sqlmock")), mock
}

func TestArchiveInsert(t *testing.T) {
	arch, mock := newArchiveMock(t)

	sess := Session{
		UserID:      1001,
		DisplayName: "Ion Pop",
		Page1:       page1Filled,
		Page2:       Page2{Motivation: "vreau să ajut", Experience: "2 ani"},
		Uploads: Uploads{
			PrimaryURL:   "https://x/buletin.jpg",
			SecondaryURL: "https://x/id.jpg",
		},
	}

	mock.ExpectExec("INSERT INTO applications").
		WithArgs(
			int64(1001), "Ion Pop",
			"Ion Pop", "RO49AAAA1B31007593840000", "6", "0722000000", "un prieten",
			"vreau să ajut", "2 ani",
			"https://x/buletin.jpg", "https://x/id.jpg", true,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, arch.Insert(context.Background(), sess, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveInsertWrapsError(t *testing.T) {
	arch, mock := newArchiveMock(t)

	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(errors.New("connection reset"))

	err := arch.Insert(context.Background(), Session{UserID: 1}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert application")
	assert.NoError(t, mock.ExpectationsWereMet())
}
