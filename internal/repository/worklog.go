package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emilianohg/timegrid/internal/models"
)

var ErrWorklogNotFound = errors.New("worklog not found")

const worklogSelect = `
	SELECT w.id, w.issue_id, w.author, w.started, w.duration_minutes, w.comment, w.created_at, w.updated_at,
	       i.id, i.key, i.summary, i.assignee, i.parent_id, i.original_estimate_seconds, i.created_at
	FROM worklogs w
	LEFT JOIN issues i ON i.id = w.issue_id
`

type WorklogRepo struct {
	db *sql.DB
}

func NewWorklogRepo(db *sql.DB) *WorklogRepo {
	return &WorklogRepo{db: db}
}

func (r *WorklogRepo) Create(ctx context.Context, w models.Worklog) (*models.Worklog, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO worklogs (issue_id, author, started, duration_minutes, comment)
		VALUES (?, ?, ?, ?, ?)
	`, w.IssueID, w.Author, w.Started.UTC(), w.DurationMinutes, w.Comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create worklog: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *WorklogRepo) Update(ctx context.Context, w models.Worklog) (*models.Worklog, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE worklogs
		SET issue_id = ?, started = ?, duration_minutes = ?, comment = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, w.IssueID, w.Started.UTC(), w.DurationMinutes, w.Comment, w.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update worklog %d: %w", w.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %d", ErrWorklogNotFound, w.ID)
	}

	return r.GetByID(ctx, w.ID)
}

func (r *WorklogRepo) GetByID(ctx context.Context, id int64) (*models.Worklog, error) {
	row := r.db.QueryRowContext(ctx, worklogSelect+` WHERE w.id = ?`, id)

	w, err := scanWorklog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ListByDateRange returns author's worklogs started in [from, to).
func (r *WorklogRepo) ListByDateRange(ctx context.Context, author string, from, to time.Time) ([]models.Worklog, error) {
	rows, err := r.db.QueryContext(ctx, worklogSelect+`
		WHERE w.author = ? AND w.started >= ? AND w.started < ?
		ORDER BY w.started ASC
	`, author, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var worklogs []models.Worklog
	for rows.Next() {
		w, err := scanWorklog(rows)
		if err != nil {
			return nil, err
		}
		worklogs = append(worklogs, *w)
	}
	return worklogs, rows.Err()
}

func (r *WorklogRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM worklogs WHERE id = ?", id)
	return err
}

func scanWorklog(s rowScanner) (*models.Worklog, error) {
	var w models.Worklog
	var issueID sql.NullInt64
	var (
		iID       sql.NullInt64
		iKey      sql.NullString
		iSummary  sql.NullString
		iAssignee sql.NullString
		iParent   sql.NullInt64
		iEstimate sql.NullInt64
		iCreated  sql.NullTime
	)

	if err := s.Scan(
		&w.ID, &issueID, &w.Author, &w.Started, &w.DurationMinutes, &w.Comment, &w.CreatedAt, &w.UpdatedAt,
		&iID, &iKey, &iSummary, &iAssignee, &iParent, &iEstimate, &iCreated,
	); err != nil {
		return nil, err
	}

	w.Started = w.Started.Local()
	if issueID.Valid {
		w.IssueID = &issueID.Int64
	}
	if iID.Valid {
		issue := &models.Issue{
			ID:                      iID.Int64,
			Key:                     iKey.String,
			Summary:                 iSummary.String,
			Assignee:                iAssignee.String,
			OriginalEstimateSeconds: iEstimate.Int64,
			CreatedAt:               iCreated.Time,
		}
		if iParent.Valid {
			issue.ParentID = &iParent.Int64
		}
		w.Issue = issue
	}
	return &w, nil
}
