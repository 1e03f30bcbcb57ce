package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/pkg/database"
)

// batchSize keeps each INSERT well under the postgres parameter limit.
const batchSize = 200

// upsert writes rows in batches of multi-row INSERT ... ON CONFLICT (id)
// statements. row returns the values of row i in column order.
func upsert(ctx context.Context, db database.DBTX, table string, columns []string, n int, row func(i int) []any) error {
	var updates []string
	for _, c := range columns[1:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	suffix := " ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")

	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)

		var sb strings.Builder
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))
		args := make([]any, 0, (end-start)*len(columns))
		for i := start; i < end; i++ {
			if i > start {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			for c := range columns {
				if c > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "$%d", len(args)+c+1)
			}
			sb.WriteString(")")
			args = append(args, row(i)...)
		}
		sb.WriteString(suffix)

		if _, err := db.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", table, start, end, err)
		}
	}
	return nil
}

var artworkColumns = []string{
	"id", "title", "description", "image_url", "collection_name", "price", "availability_status",
	"technique", "size_category", "dominant_colors", "mood_tags", "created_year", "created_at",
}

// InsertArtworks upserts the artworks.
func InsertArtworks(ctx context.Context, db database.DBTX, items []domain.Artwork) error {
	return upsert(ctx, db, "artworks", artworkColumns, len(items), func(i int) []any {
		a := items[i]
		return []any{
			a.ID, a.Title, a.Description, a.ImageURL, a.CollectionName, a.Price, a.AvailabilityStatus,
			a.Technique, a.SizeCategory, a.DominantColors, a.MoodTags, a.CreatedYear, a.CreatedAt,
		}
	})
}

var classColumns = []string{
	"id", "title", "description", "starts_at", "duration_minutes", "capacity", "spots_taken", "price", "level",
}

// InsertClasses upserts the class schedules.
func InsertClasses(ctx context.Context, db database.DBTX, items []domain.ClassSchedule) error {
	return upsert(ctx, db, "class_schedules", classColumns, len(items), func(i int) []any {
		c := items[i]
		return []any{c.ID, c.Title, c.Description, c.StartsAt, c.DurationMinutes, c.Capacity, c.SpotsTaken, c.Price, c.Level}
	})
}

var enrollmentColumns = []string{"id", "email", "course_name", "progress", "status", "enrolled_at"}

// InsertEnrollments upserts the student enrollments.
func InsertEnrollments(ctx context.Context, db database.DBTX, items []domain.StudentEnrollment) error {
	return upsert(ctx, db, "student_enrollments", enrollmentColumns, len(items), func(i int) []any {
		e := items[i]
		return []any{e.ID, e.Email, e.CourseName, e.Progress, e.Status, e.EnrolledAt}
	})
}
