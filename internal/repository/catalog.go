package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/emilianohg/timegrid/internal/models"
)

// Catalog binds the issue and worklog repos to the authenticated user. It is
// the collaborator the editor talks to.
type Catalog struct {
	issues   *IssueRepo
	worklogs *WorklogRepo
	limit    int

	mu   sync.RWMutex
	user string
}

func NewCatalog(db *sql.DB, user string, limit int) *Catalog {
	if limit <= 0 {
		limit = 20
	}
	return &Catalog{
		issues:   NewIssueRepo(db),
		worklogs: NewWorklogRepo(db),
		user:     user,
		limit:    limit,
	}
}

func (c *Catalog) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// SetUser switches the authenticated user. Requests already in flight keep
// the user they started with.
func (c *Catalog) SetUser(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
}

func (c *Catalog) SearchIssues(ctx context.Context, query, assignee string) ([]models.Issue, error) {
	return c.issues.Search(ctx, query, assignee, c.limit)
}

// FavoritesAndSuggestions returns both collections from one call. An empty
// assignee means the current user.
func (c *Catalog) FavoritesAndSuggestions(ctx context.Context, assignee string) (models.Shortlist, error) {
	user := c.User()
	if assignee == "" {
		assignee = user
	}

	favorites, err := c.issues.Favorites(ctx, user)
	if err != nil {
		return models.Shortlist{}, fmt.Errorf("failed to load favorites: %w", err)
	}

	suggestions, err := c.issues.Suggestions(ctx, user, assignee, c.limit)
	if err != nil {
		return models.Shortlist{}, fmt.Errorf("failed to load suggestions: %w", err)
	}

	return models.Shortlist{Favorites: favorites, Suggestions: suggestions}, nil
}

func (c *Catalog) FullIssue(ctx context.Context, key string) (*models.Issue, error) {
	return c.issues.GetByKey(ctx, key)
}

func (c *Catalog) SetOriginalEstimate(ctx context.Context, key string, seconds int64) error {
	return c.issues.SetOriginalEstimate(ctx, key, seconds)
}

func (c *Catalog) AddFavorite(ctx context.Context, key string) error {
	return c.issues.AddFavorite(ctx, c.User(), key)
}

func (c *Catalog) RemoveFavorite(ctx context.Context, key string) error {
	return c.issues.RemoveFavorite(ctx, c.User(), key)
}

func (c *Catalog) CreateWorklog(ctx context.Context, w models.Worklog) (*models.Worklog, error) {
	w.Author = c.User()
	return c.worklogs.Create(ctx, w)
}

func (c *Catalog) UpdateWorklog(ctx context.Context, w models.Worklog) (*models.Worklog, error) {
	return c.worklogs.Update(ctx, w)
}
