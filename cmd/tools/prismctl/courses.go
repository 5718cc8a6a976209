// cmd/tools/prismctl/courses.go
package main

import (
	"context"
	"fmt"
	"time"

	"prism-workers/internal/catalog"
	"prism-workers/internal/common/database"
	"prism-workers/internal/models"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Manage the course catalog",
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, c *catalog.Courses) error {
			courses, err := c.List(ctx)
			if err != nil {
				return err
			}
			for _, course := range courses {
				state := "active"
				if !course.Active {
					state = "inactive"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-40s %s\n", course.Code, course.Name, state)
			}
			return nil
		})
	},
}

var coursesAddCmd = &cobra.Command{
	Use:   "add <code> <name>",
	Short: "Add or reactivate a course",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, c *catalog.Courses) error {
			if err := c.Upsert(ctx, models.Course{Code: args[0], Name: args[1]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "course %s saved\n", args[0])
			return nil
		})
	},
}

func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, c *catalog.Courses) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(ctx, catalog.NewCourses(pg.DB))
}
