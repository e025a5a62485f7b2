package lessonservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/lessonhub/internal/common"
)

var ErrVersionNotFound = errors.New("version not found")

const versionColumns = `id, lesson_id, version, content, content_format, created_by, created_at, change_description`

func scanVersion(row rowScanner) (*Version, error) {
	var v Version
	err := row.Scan(&v.ID, &v.LessonID, &v.Version, &v.Content, &v.ContentFormat, &v.CreatedBy, &v.CreatedAt, &v.ChangeDescription)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// insertVersion appends a snapshot to the ledger. The ledger is never updated
// in place; rows only disappear when their lesson is deleted.
func (m *LessonModel) insertVersion(ctx context.Context, tx *sql.Tx, v *Version) error {
	query := `
		INSERT INTO lesson_versions (lesson_id, version, content, content_format, created_by, change_description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := tx.QueryRowContext(ctx, query, v.LessonID, v.Version, v.Content, v.ContentFormat, v.CreatedBy, v.ChangeDescription).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return writeError(err)
	}

	return nil
}

// listVersions returns the snapshots of a lesson, most recent first.
func (m *LessonModel) listVersions(ctx context.Context, lessonID int) ([]Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM lesson_versions
		WHERE lesson_id = $1
		ORDER BY version DESC`

	rows, err := m.db.QueryContext(ctx, query, lessonID)
	if err != nil {
		return nil, common.ClassifyDBError(err)
	}
	defer rows.Close()

	versions := []Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, common.ClassifyDBError(err)
		}
		versions = append(versions, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, common.ClassifyDBError(err)
	}

	return versions, nil
}

func (m *LessonModel) getVersion(ctx context.Context, lessonID, version int) (*Version, error) {
	query := `SELECT ` + versionColumns + ` FROM lesson_versions WHERE lesson_id = $1 AND version = $2`

	v, err := scanVersion(m.db.QueryRowContext(ctx, query, lessonID, version))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrVersionNotFound
		default:
			return nil, common.ClassifyDBError(err)
		}
	}

	return v, nil
}
