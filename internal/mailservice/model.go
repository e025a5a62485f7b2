package mailservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/lessonhub/internal/common"
)

func NewRecipientModel(db *sql.DB) *RecipientModel {
	return &RecipientModel{db: db}
}

// EnrolledRecipients returns every user enrolled in the course, ordered by
// enrollment time.
func (m *RecipientModel) EnrolledRecipients(ctx context.Context, courseID int) ([]Recipient, error) {
	query := `
		SELECT u.username, u.email, c.title
		FROM enrollments e
		INNER JOIN users u ON u.id = e.user_id
		INNER JOIN courses c ON c.id = e.course_id
		WHERE e.course_id = $1
		ORDER BY e.enrolled_at, u.id`

	rows, err := m.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, common.ClassifyDBError(err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.Username, &r.Email, &r.CourseTitle); err != nil {
			return nil, common.ClassifyDBError(err)
		}
		recipients = append(recipients, r)
	}

	if err := rows.Err(); err != nil {
		return nil, common.ClassifyDBError(err)
	}

	return recipients, nil
}
