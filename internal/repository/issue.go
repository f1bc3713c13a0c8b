package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/emilianohg/timegrid/internal/models"
)

var ErrIssueNotFound = errors.New("issue not found")

const issueColumns = `i.id, i.key, i.summary, i.assignee, i.parent_id, i.original_estimate_seconds, i.created_at`

type IssueRepo struct {
	db *sql.DB
}

func NewIssueRepo(db *sql.DB) *IssueRepo {
	return &IssueRepo{db: db}
}

func (r *IssueRepo) Create(ctx context.Context, issue models.Issue) (*models.Issue, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO issues (key, summary, assignee, parent_id, original_estimate_seconds)
		VALUES (?, ?, ?, ?, ?)
	`, issue.Key, issue.Summary, issue.Assignee, issue.ParentID, issue.OriginalEstimateSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue %s: %w", issue.Key, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *IssueRepo) GetByID(ctx context.Context, id int64) (*models.Issue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues i WHERE i.id = ?`, id)
	return scanIssue(row)
}

// GetByKey returns nil without error when no issue has the key.
func (r *IssueRepo) GetByKey(ctx context.Context, key string) (*models.Issue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues i WHERE i.key = ?`, key)
	return scanIssue(row)
}

// Search matches the query against issue keys and summaries. An empty assignee
// searches every issue.
func (r *IssueRepo) Search(ctx context.Context, query, assignee string, limit int) ([]models.Issue, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues i
		WHERE (i.key LIKE ? ESCAPE '\' OR i.summary LIKE ? ESCAPE '\')
		  AND (? = '' OR i.assignee = ?)
		ORDER BY i.key = ? COLLATE NOCASE DESC, i.key
		LIMIT ?
	`, pattern, pattern, assignee, assignee, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIssues(rows)
}

// Suggestions lists issues assigned to assignee, the ones user logged work on
// most recently first.
func (r *IssueRepo) Suggestions(ctx context.Context, user, assignee string, limit int) ([]models.Issue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues i
		LEFT JOIN worklogs w ON w.issue_id = i.id AND w.author = ?
		WHERE i.assignee = ?
		GROUP BY i.id
		ORDER BY MAX(w.started) IS NULL, MAX(w.started) DESC, i.key
		LIMIT ?
	`, user, assignee, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIssues(rows)
}

func (r *IssueRepo) Favorites(ctx context.Context, user string) ([]models.Issue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM favorites f
		JOIN issues i ON i.id = f.issue_id
		WHERE f.user = ?
		ORDER BY i.key
	`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIssues(rows)
}

func (r *IssueRepo) AddFavorite(ctx context.Context, user, key string) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO favorites (user, issue_id)
		SELECT ?, id FROM issues WHERE key = ?
	`, user, key)
	if err != nil {
		return err
	}
	return r.requireIssue(ctx, result, key)
}

func (r *IssueRepo) RemoveFavorite(ctx context.Context, user, key string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE user = ? AND issue_id = (SELECT id FROM issues WHERE key = ?)
	`, user, key)
	return err
}

func (r *IssueRepo) SetOriginalEstimate(ctx context.Context, key string, seconds int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE issues SET original_estimate_seconds = ? WHERE key = ?", seconds, key)
	if err != nil {
		return err
	}
	return r.requireIssue(ctx, result, key)
}

// requireIssue turns a no-op write into ErrIssueNotFound when the key is unknown.
func (r *IssueRepo) requireIssue(ctx context.Context, result sql.Result, key string) error {
	n, err := result.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	issue, err := r.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if issue == nil {
		return fmt.Errorf("%w: %s", ErrIssueNotFound, key)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssueInto(s rowScanner, i *models.Issue) error {
	var parentID sql.NullInt64
	if err := s.Scan(&i.ID, &i.Key, &i.Summary, &i.Assignee, &parentID, &i.OriginalEstimateSeconds, &i.CreatedAt); err != nil {
		return err
	}
	if parentID.Valid {
		i.ParentID = &parentID.Int64
	}
	return nil
}

func scanIssue(row *sql.Row) (*models.Issue, error) {
	var i models.Issue
	err := scanIssueInto(row, &i)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func scanIssues(rows *sql.Rows) ([]models.Issue, error) {
	var issues []models.Issue
	for rows.Next() {
		var i models.Issue
		if err := scanIssueInto(rows, &i); err != nil {
			return nil, err
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
