package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krshsl/interviewprep/models"
	"golang.org/x/crypto/bcrypt"
)

// SeedStore is what the seeder needs from the repository.
type SeedStore interface {
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	CreateQuestion(ctx context.Context, question *models.Question) error
}

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo SeedStore
}

type seedCourse struct {
	course    models.Course
	questions []models.Question
}

func NewDatabaseSeeder(repo SeedStore) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase(ctx context.Context) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	profiles := []models.Profile{
		{
			Email:    "admin@example.com",
			Password: string(hashedPassword),
			FullName: "Demo Admin",
			Role:     models.RoleAdmin,
		},
		{
			Email:    "student@example.com",
			Password: string(hashedPassword),
			FullName: "Demo Student",
			Role:     models.RoleStudent,
		},
	}

	var admin *models.Profile
	for _, profile := range profiles {
		seeded, err := s.seedProfile(ctx, profile)
		if err != nil {
			slog.Error("Failed to seed profile", "email", profile.Email, "error", err)
			continue
		}
		if seeded.Role == models.RoleAdmin {
			admin = seeded
		}
	}
	if admin == nil {
		return fmt.Errorf("admin profile not available")
	}

	existing, err := s.repo.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}
	titles := make(map[string]bool, len(existing))
	for _, course := range existing {
		titles[course.Title] = true
	}

	for _, seed := range defaultCourses() {
		if titles[seed.course.Title] {
			slog.Info("Course already exists, skipping", "title", seed.course.Title)
			continue
		}
		if err := s.seedCourse(ctx, admin.ID, seed); err != nil {
			slog.Error("Failed to seed course", "title", seed.course.Title, "error", err)
		}
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

// seedProfile returns the existing profile for the email or creates it.
func (s *DatabaseSeeder) seedProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	existing, err := s.repo.GetProfileByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking profile %s: %w", profile.Email, err)
	}
	if existing != nil {
		slog.Info("Profile already exists, skipping", "email", profile.Email)
		return existing, nil
	}

	if err := s.repo.CreateProfile(ctx, &profile); err != nil {
		return nil, fmt.Errorf("failed to create profile %s: %w", profile.Email, err)
	}
	return &profile, nil
}

func (s *DatabaseSeeder) seedCourse(ctx context.Context, adminID string, seed seedCourse) error {
	course := seed.course
	course.CreatedBy = &adminID
	if err := s.repo.CreateCourse(ctx, &course); err != nil {
		return err
	}

	for _, question := range seed.questions {
		question.CourseID = course.ID
		if err := s.repo.CreateQuestion(ctx, &question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
	}
	return nil
}

func defaultCourses() []seedCourse {
	return []seedCourse{
		{
			course: models.Course{
				Title:       "Go Backend Fundamentals",
				Description: "Core language and service design questions for backend roles.",
				Category:    "Backend Development",
			},
			questions: []models.Question{
				{
					QuestionText:   "What is the difference between a goroutine and an operating system thread?",
					Difficulty:     models.DifficultyEasy,
					ExpectedAnswer: "Goroutines are scheduled by the Go runtime onto a small pool of OS threads, start with small growable stacks and are cheap to create.",
				},
				{
					QuestionText:   "How would you stop a group of goroutines when a request is cancelled?",
					Difficulty:     models.DifficultyMedium,
					ExpectedAnswer: "Pass a context.Context, select on ctx.Done() in each goroutine and wait for them with a WaitGroup or errgroup.",
				},
				{
					QuestionText:   "Design a rate limiter for an HTTP API that runs on several instances.",
					Difficulty:     models.DifficultyHard,
					ExpectedAnswer: "Use a shared store such as Redis with a token bucket or sliding window keyed per client, with atomic updates and sensible fallbacks.",
				},
			},
		},
		{
			course: models.Course{
				Title:       "Behavioral Interview Basics",
				Description: "Common behavioral questions answered with the STAR method.",
				Category:    "Behavioral",
			},
			questions: []models.Question{
				{
					QuestionText:   "Tell me about yourself.",
					Difficulty:     models.DifficultyEasy,
					ExpectedAnswer: "A short summary of current role, relevant experience and why this position is the next step.",
				},
				{
					QuestionText:   "Describe a time you disagreed with a teammate. How did you resolve it?",
					Difficulty:     models.DifficultyMedium,
					ExpectedAnswer: "Situation, task, action and result; shows listening, focus on the shared goal and a constructive outcome.",
				},
				{
					QuestionText:   "Tell me about a project that failed and what you learned from it.",
					Difficulty:     models.DifficultyHard,
					ExpectedAnswer: "Takes ownership, explains the cause honestly and names concrete changes made afterwards.",
				},
			},
		},
		{
			course: models.Course{
				Title:       "SQL and Data Modeling",
				Description: "Relational modeling, indexing and query questions.",
				Category:    "Databases",
			},
			questions: []models.Question{
				{
					QuestionText:   "What is the difference between an inner join and a left join?",
					Difficulty:     models.DifficultyEasy,
					ExpectedAnswer: "An inner join keeps only matching rows; a left join keeps every row from the left table with nulls where nothing matches.",
				},
				{
					QuestionText:   "When would you add an index and what does it cost?",
					Difficulty:     models.DifficultyMedium,
					ExpectedAnswer: "For selective filters, joins and sorts; indexes speed reads but cost storage and slow down writes.",
				},
				{
					QuestionText:   "How would you model course enrollments so that history survives a course being deleted?",
					Difficulty:     models.DifficultyHard,
					ExpectedAnswer: "Soft deletes or snapshotting the needed course fields onto the enrollment, with foreign keys that do not cascade history away.",
				},
			},
		},
	}
}
