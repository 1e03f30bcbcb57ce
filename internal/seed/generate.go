// Package seed generates a deterministic demo catalog and class calendar and
// writes it to the postgres backend.
package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/pkg/slug"
)

var (
	titleHeads = []string{"Maré", "Quiet", "Late", "Salt", "Golden", "Açude", "Paper", "Low", "Northern", "Velvet", "Dry", "Open"}
	titleTails = []string{"Hours", "Tide", "Garden", "Horizon", "Fields", "Window", "Study", "Harbour", "Bloom", "Dunes", "Room", "Light"}

	techniques  = []string{"oil", "acrylic", "watercolour", "gouache", "charcoal", "mixed media", "linocut"}
	sizes       = []string{"small", "medium", "large"}
	palette     = []string{"blue", "ochre", "terracotta", "green", "white", "black", "pink", "gold", "grey"}
	moods       = []string{"calm", "bold", "playful", "melancholic", "warm", "dreamy"}
	collections = []string{"Coastline", "Interiors", "After Rain", "Studies", ""}

	classTitles = []struct {
		title, level string
		minutes      int
		price        float64
	}{
		{"Watercolour basics", "beginner", 120, 45},
		{"Oil portrait workshop", "intermediate", 180, 80},
		{"Abstract acrylics", "all levels", 150, 55},
		{"Linocut printing", "beginner", 180, 70},
		{"Plein air sketching", "all levels", 120, 35},
	}
)

// sizePrice is the base price band per size category.
var sizePrice = map[string][2]float64{
	"small":  {80, 400},
	"medium": {300, 1200},
	"large":  {900, 4000},
}

// Artworks returns n generated artworks. The same rng seed always yields the
// same catalog, so re-running the seed updates rows in place.
func Artworks(rng *rand.Rand, n int, now time.Time) []domain.Artwork {
	out := make([]domain.Artwork, 0, n)
	for i := range n {
		title := titleHeads[rng.IntN(len(titleHeads))] + " " + titleTails[rng.IntN(len(titleTails))]
		size := sizes[rng.IntN(len(sizes))]
		band := sizePrice[size]
		price := math.Round((band[0]+rng.Float64()*(band[1]-band[0]))/10) * 10

		status := domain.AvailabilityAvailable
		switch r := rng.IntN(10); {
		case r == 0:
			status = domain.AvailabilitySold
		case r == 1:
			status = domain.AvailabilityReserved
		}

		created := now.Add(-time.Duration(rng.IntN(365*24)) * time.Hour)
		id := fmt.Sprintf("%s-%d", slug.Generate(title), i+1)
		out = append(out, domain.Artwork{
			ID:                 id,
			Title:              title,
			Description:        fmt.Sprintf("%s on %s.", title, []string{"canvas", "paper", "linen board"}[rng.IntN(3)]),
			ImageURL:           "/images/artworks/" + id + ".jpg",
			CollectionName:     collections[rng.IntN(len(collections))],
			Price:              price,
			AvailabilityStatus: status,
			Technique:          techniques[rng.IntN(len(techniques))],
			SizeCategory:       size,
			DominantColors:     pick(rng, palette, 1+rng.IntN(3)),
			MoodTags:           pick(rng, moods, 1+rng.IntN(2)),
			CreatedYear:        created.Year(),
			CreatedAt:          created.UTC(),
		})
	}
	return out
}

// Classes returns n schedules spread over the weeks after now, one per
// working day at 10:00 or 18:00 UTC.
func Classes(rng *rand.Rand, n int, now time.Time) []domain.ClassSchedule {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]domain.ClassSchedule, 0, n)
	for len(out) < n {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Sunday {
			continue
		}
		c := classTitles[rng.IntN(len(classTitles))]
		hour := 10
		if rng.IntN(2) == 1 {
			hour = 18
		}
		capacity := 6 + rng.IntN(7)
		out = append(out, domain.ClassSchedule{
			ID:              fmt.Sprintf("%s-%s", slug.Generate(c.title), day.Format("20060102")),
			Title:           c.title,
			StartsAt:        day.Add(time.Duration(hour) * time.Hour),
			DurationMinutes: c.minutes,
			Capacity:        capacity,
			SpotsTaken:      rng.IntN(capacity + 1),
			Price:           c.price,
			Level:           c.level,
		})
	}
	return out
}

// Enrollments returns demo dashboard courses for email.
func Enrollments(rng *rand.Rand, email string, now time.Time) []domain.StudentEnrollment {
	courses := []string{"Colour theory I", "Oil painting foundations", "Sketchbook habits"}
	out := make([]domain.StudentEnrollment, 0, len(courses))
	for i, course := range courses {
		progress := rng.IntN(101)
		status := "active"
		if progress == 100 {
			status = "completed"
		}
		out = append(out, domain.StudentEnrollment{
			ID:         fmt.Sprintf("enr-%s-%d", slug.Generate(email), i+1),
			Email:      email,
			CourseName: course,
			Progress:   progress,
			Status:     status,
			EnrolledAt: now.AddDate(0, -i-1, 0).UTC(),
		})
	}
	return out
}

// pick returns k distinct values from src in random order.
func pick(rng *rand.Rand, src []string, k int) []string {
	idx := rng.Perm(len(src))[:min(k, len(src))]
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
