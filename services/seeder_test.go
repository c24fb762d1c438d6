package services

import (
	"context"
	"testing"

	"github.com/krshsl/interviewprep/models"
)

func TestSeedDatabaseIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	seeder := NewDatabaseSeeder(repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := seeder.SeedDatabase(ctx); err != nil {
			t.Fatalf("SeedDatabase() run %d error = %v", i+1, err)
		}
	}

	if len(repo.profiles) != 2 {
		t.Errorf("profiles = %d, expected 2", len(repo.profiles))
	}
	admin, _ := repo.GetProfileByEmail(ctx, "admin@example.com")
	if admin == nil || admin.Role != models.RoleAdmin {
		t.Fatalf("admin = %+v", admin)
	}

	courses, _ := repo.ListCourses(ctx)
	if len(courses) != 3 {
		t.Fatalf("courses = %d, expected 3", len(courses))
	}
	for _, course := range courses {
		if course.CreatedBy == nil || *course.CreatedBy != admin.ID {
			t.Errorf("course %q created_by = %v, expected admin", course.Title, course.CreatedBy)
		}

		questions, _ := repo.ListInterviewQuestions(ctx, course.ID)
		seen := map[string]bool{}
		for _, q := range questions {
			seen[q.Difficulty] = true
		}
		if len(questions) != 3 || !seen[models.DifficultyEasy] || !seen[models.DifficultyMedium] || !seen[models.DifficultyHard] {
			t.Errorf("course %q questions = %d difficulties = %v", course.Title, len(questions), seen)
		}
	}
}
