// Package catalog reads the course catalog from Postgres.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prism-workers/internal/models"
)

var ErrCourseNotFound = errors.New("COURSE_NOT_FOUND")

type Courses struct {
	db *sql.DB
}

func NewCourses(db *sql.DB) *Courses {
	return &Courses{db: db}
}

// Get returns an active course by code.
func (c *Courses) Get(ctx context.Context, code string) (*models.Course, error) {
	var course models.Course
	err := c.db.QueryRowContext(ctx,
		`SELECT code, name, active FROM courses WHERE code = $1`, code,
	).Scan(&course.Code, &course.Name, &course.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, code)
		}
		return nil, fmt.Errorf("query course %s: %w", code, err)
	}
	if !course.Active {
		return nil, fmt.Errorf("%w: %s is inactive", ErrCourseNotFound, code)
	}
	return &course, nil
}

func (c *Courses) List(ctx context.Context) ([]models.Course, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT code, name, active FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []models.Course
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(&course.Code, &course.Name, &course.Active); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, course)
	}
	return out, rows.Err()
}

// Upsert adds or renames a course and marks it active.
func (c *Courses) Upsert(ctx context.Context, course models.Course) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO courses (code, name, active) VALUES ($1, $2, TRUE)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, active = TRUE`,
		course.Code, course.Name)
	if err != nil {
		return fmt.Errorf("upsert course %s: %w", course.Code, err)
	}
	return nil
}
