package editor

import (
	"context"

	"github.com/emilianohg/timegrid/internal/models"
)

// IssueSource is where the picker and the estimate check get issues from.
type IssueSource interface {
	SearchIssues(ctx context.Context, query, assignee string) ([]models.Issue, error)
	// FavoritesAndSuggestions returns both collections from a single call. An
	// empty assignee means the authenticated user.
	FavoritesAndSuggestions(ctx context.Context, assignee string) (models.Shortlist, error)
	FullIssue(ctx context.Context, key string) (*models.Issue, error)
	SetOriginalEstimate(ctx context.Context, key string, seconds int64) error
	AddFavorite(ctx context.Context, key string) error
	RemoveFavorite(ctx context.Context, key string) error
}

// WorklogStore persists drafts. Calls are made once per save; the editor never
// retries.
type WorklogStore interface {
	CreateWorklog(ctx context.Context, w models.Worklog) (*models.Worklog, error)
	UpdateWorklog(ctx context.Context, w models.Worklog) (*models.Worklog, error)
}
