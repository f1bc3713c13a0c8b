package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/emilianohg/timegrid/internal/config"
	"github.com/emilianohg/timegrid/internal/db"
	"github.com/emilianohg/timegrid/internal/grid"
	"github.com/emilianohg/timegrid/internal/logging"
	"github.com/emilianohg/timegrid/internal/models"
	"github.com/emilianohg/timegrid/internal/repository"
	"github.com/emilianohg/timegrid/internal/tui"
)

var userFlag string

var rootCmd = &cobra.Command{
	Use:   "timegrid",
	Short: "Worklog time grid",
	Long:  `Timegrid shows your worklogs on a week grid. Drag and stretch them with the mouse, and log time against issues.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		logger, closer, err := logging.Open(cfg.LogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			os.Exit(1)
		}
		defer closer.Close()

		database := mustOpenDB(cfg)
		defer db.Close()

		logger.Info("starting", "user", cfg.User)
		if err := tui.Run(database, cfg, logger); err != nil {
			logger.Error("tui exited", "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage the local issue catalog",
}

var issueAddCmd = &cobra.Command{
	Use:   "add KEY SUMMARY",
	Short: "Add an issue to the catalog",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		database := mustOpenDB(cfg)
		defer db.Close()

		ctx := context.Background()
		issues := repository.NewIssueRepo(database)

		issue := models.Issue{Key: strings.ToUpper(args[0]), Summary: args[1]}
		issue.Assignee, _ = cmd.Flags().GetString("assignee")

		if estimate, _ := cmd.Flags().GetDuration("estimate"); estimate > 0 {
			issue.OriginalEstimateSeconds = int64(estimate.Seconds())
		}

		if parentKey, _ := cmd.Flags().GetString("parent"); parentKey != "" {
			parent, err := issues.GetByKey(ctx, strings.ToUpper(parentKey))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading parent: %v\n", err)
				os.Exit(1)
			}
			if parent == nil {
				fmt.Fprintf(os.Stderr, "Parent issue %s not found\n", parentKey)
				os.Exit(1)
			}
			issue.ParentID = &parent.ID
		}

		created, err := issues.Create(ctx, issue)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added %s\n", created.Label())
	},
}

var issueEstimateCmd = &cobra.Command{
	Use:   "estimate KEY DURATION",
	Short: "Set the original estimate of an issue (e.g. 4h, 90m)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		estimate, err := time.ParseDuration(args[1])
		if err != nil || estimate <= 0 {
			fmt.Fprintf(os.Stderr, "Invalid duration: %s (expected e.g. 4h or 90m)\n", args[1])
			os.Exit(1)
		}

		cfg := mustLoadConfig()
		database := mustOpenDB(cfg)
		defer db.Close()

		key := strings.ToUpper(args[0])
		if err := repository.NewIssueRepo(database).SetOriginalEstimate(context.Background(), key, int64(estimate.Seconds())); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Estimate of %s set to %s\n", key, estimate)
	},
}

var issueFavCmd = &cobra.Command{
	Use:   "fav KEY",
	Short: "Mark an issue as favorite",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setFavorite(args[0], true)
	},
}

var issueUnfavCmd = &cobra.Command{
	Use:   "unfav KEY",
	Short: "Remove an issue from favorites",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setFavorite(args[0], false)
	},
}

var issueSearchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search issues, or list favorites and suggestions without a query",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		database := mustOpenDB(cfg)
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()

		catalog := repository.NewCatalog(database, cfg.User, cfg.ResultLimit)
		assignee, _ := cmd.Flags().GetString("assignee")

		var list models.Shortlist
		var err error
		if len(args) > 0 {
			list.Suggestions, err = catalog.SearchIssues(ctx, args[0], assignee)
			if err == nil {
				// favorites are only needed for the star column
				var favs models.Shortlist
				favs, err = catalog.FavoritesAndSuggestions(ctx, assignee)
				list.Favorites = favs.Favorites
			}
		} else {
			list, err = catalog.FavoritesAndSuggestions(ctx, assignee)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printIssues(list)
	},
}

var worklogCmd = &cobra.Command{
	Use:   "worklog",
	Short: "List and delete worklogs",
}

var worklogListCmd = &cobra.Command{
	Use:   "ls [YYYY-MM-DD]",
	Short: "List the worklogs of the week containing a date (default: this week)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date := time.Now()
		if len(args) > 0 {
			parsed, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid date: %s (expected YYYY-MM-DD)\n", args[0])
				os.Exit(1)
			}
			date = parsed
		}

		cfg := mustLoadConfig()
		database := mustOpenDB(cfg)
		defer db.Close()

		r := grid.Week(date, time.Weekday(cfg.VisibleDaysStart), time.Weekday(cfg.VisibleDaysEnd))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()

		worklogs, err := repository.NewWorklogRepo(database).ListByDateRange(ctx, cfg.User, r.Start, r.End.AddDate(0, 0, 1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printWorklogs(cfg.User, r, worklogs)
	},
}

var worklogRemoveCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a worklog",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid worklog id: %s\n", args[0])
			os.Exit(1)
		}

		cfg := mustLoadConfig()
		database := mustOpenDB(cfg)
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()

		worklogs := repository.NewWorklogRepo(database)
		w, err := worklogs.GetByID(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if w == nil || w.Author != cfg.User {
			fmt.Fprintf(os.Stderr, "Worklog %d not found for %s\n", id, cfg.User)
			os.Exit(1)
		}

		if err := worklogs.Delete(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted worklog %d\n", id)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		path, err := cfg.ResolveDatabasePath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving database path: %v\n", err)
			os.Exit(1)
		}
		database, err := db.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		status, err := db.GetMigrationStatus(database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading migration status: %v\n", err)
			os.Exit(1)
		}
		if status.Dirty {
			fmt.Fprintf(os.Stderr, "Database is dirty at version %d, fix it manually\n", status.CurrentVersion)
			os.Exit(1)
		}
		if !status.Pending {
			fmt.Printf("Database is up to date (version %d)\n", status.CurrentVersion)
			return
		}

		if err := db.Migrate(database); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Migrated from version %d to %d\n", status.CurrentVersion, status.LatestVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Act as this user instead of the configured one")

	issueAddCmd.Flags().StringP("assignee", "a", "", "Assignee of the issue")
	issueAddCmd.Flags().StringP("parent", "p", "", "Key of the parent issue")
	issueAddCmd.Flags().Duration("estimate", 0, "Original estimate (e.g. 4h)")
	issueSearchCmd.Flags().StringP("assignee", "a", "", "Only issues assigned to this user")

	issueCmd.AddCommand(issueAddCmd)
	issueCmd.AddCommand(issueEstimateCmd)
	issueCmd.AddCommand(issueFavCmd)
	issueCmd.AddCommand(issueUnfavCmd)
	issueCmd.AddCommand(issueSearchCmd)

	worklogCmd.AddCommand(worklogListCmd)
	worklogCmd.AddCommand(worklogRemoveCmd)

	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(worklogCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if userFlag != "" {
		cfg.User = userFlag
	}
	return cfg
}

func mustOpenDB(cfg *config.Config) *sql.DB {
	path, err := cfg.ResolveDatabasePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving database path: %v\n", err)
		os.Exit(1)
	}

	database, err := db.OpenAndMigrate(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return database
}

func setFavorite(key string, favorite bool) {
	cfg := mustLoadConfig()
	database := mustOpenDB(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	catalog := repository.NewCatalog(database, cfg.User, cfg.ResultLimit)
	key = strings.ToUpper(key)

	var err error
	if favorite {
		err = catalog.AddFavorite(ctx, key)
	} else {
		err = catalog.RemoveFavorite(ctx, key)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if favorite {
		fmt.Printf("%s added to favorites of %s\n", key, cfg.User)
	} else {
		fmt.Printf("%s removed from favorites of %s\n", key, cfg.User)
	}
}

func printIssues(list models.Shortlist) {
	bold := color.New(color.Bold)
	star := color.New(color.FgHiYellow)
	faint := color.New(color.Faint)

	if len(list.Suggestions) == 0 && len(list.Favorites) == 0 {
		faint.Println("No issues found.")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow("", bold.Sprint("Key"), bold.Sprint("Summary"), bold.Sprint("Assignee"), bold.Sprint("Estimate"))

	rows := list.Suggestions
	if len(rows) == 0 {
		rows = list.Favorites
	}
	for _, issue := range rows {
		mark := ""
		if list.IsFavorite(issue.Key) {
			mark = star.Sprint("★")
		}
		estimate := faint.Sprint("-")
		if issue.HasEstimate() {
			estimate = (time.Duration(issue.OriginalEstimateSeconds) * time.Second).String()
		}
		tbl.AddRow(mark, issue.Key, issue.Summary, issue.Assignee, estimate)
	}

	_, _ = fmt.Fprintln(color.Output, tbl)
}

func printWorklogs(user string, r grid.DateRange, worklogs []models.Worklog) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	_, _ = bold.Fprintf(color.Output, "%s, %s → %s\n\n", user, grid.FormatDate(r.Start), grid.FormatDate(r.End))
	if len(worklogs) == 0 {
		faint.Println("No worklogs.")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 50
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Day"), bold.Sprint("Time"), bold.Sprint("Issue"), bold.Sprint("Comment"))

	total := 0
	for _, w := range worklogs {
		start := grid.MinuteOfDay(w.Started)
		end := min(start+w.DurationMinutes, grid.MinutesPerDay)
		total += end - start

		issue := faint.Sprint("-")
		if w.Issue != nil {
			issue = w.Issue.Key
		}
		tbl.AddRow(w.ID, w.Started.Format("Mon 02"), grid.FormatTime(start)+"-"+grid.FormatTime(end), issue, w.Comment)
	}

	_, _ = fmt.Fprintln(color.Output, tbl)
	_, _ = fmt.Fprintf(color.Output, "\nTotal: %s\n", time.Duration(total)*time.Minute)
}
