package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/krshsl/interviewprep/models"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("record already exists")

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.Profile{},
		&models.Course{},
		&models.Question{},
		&models.Interview{},
		&models.InterviewAnswer{},
		&models.SupportQuery{},
		&models.RefreshToken{},
		&models.PermanentToken{},
	)
}

// Ping checks the underlying connection pool.
func (r *GORMRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translateError maps postgres errors onto repository errors. An id that is
// not a valid uuid cannot match any row, so it reads as not found.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrDuplicate
		case invalidTextRepresentation:
			return gorm.ErrRecordNotFound
		}
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(translateError(err), gorm.ErrRecordNotFound)
}

// Profile operations
func (r *GORMRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		slog.Error("Failed to create profile", "error", err)
		return translateError(err)
	}
	slog.Info("Profile created", "user_id", profile.ID, "email", profile.Email, "role", profile.Role)
	return nil
}

func (r *GORMRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get profile by email", "error", err, "email", email)
		return nil, err
	}
	return &profile, nil
}

func (r *GORMRepository) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get profile by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &profile, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) CreatePermanentToken(ctx context.Context, token *models.PermanentToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create permanent token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetPermanentToken(ctx context.Context, token string) (*models.PermanentToken, error) {
	var permanentToken models.PermanentToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&permanentToken).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get permanent token", "error", err)
		return nil, err
	}
	return &permanentToken, nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PermanentToken{}).Error; err != nil {
			slog.Error("Failed to delete user permanent tokens", "error", err, "user_id", userID)
			return err
		}
		return nil
	})
}

// Course operations
func (r *GORMRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		slog.Error("Failed to create course", "error", err)
		return translateError(err)
	}
	slog.Info("Course created", "course_id", course.ID, "title", course.Title)
	return nil
}

func (r *GORMRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&courses).Error; err != nil {
		slog.Error("Failed to list courses", "error", err)
		return nil, err
	}
	return courses, nil
}

func (r *GORMRepository) ListCourseTitles(ctx context.Context) ([]models.CourseTitle, error) {
	var titles []models.CourseTitle
	err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Select("id", "title").
		Order("title").
		Find(&titles).Error
	if err != nil {
		slog.Error("Failed to list course titles", "error", err)
		return nil, err
	}
	return titles, nil
}

func (r *GORMRepository) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("id = ?", courseID).First(&course).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get course", "error", err, "course_id", courseID)
		return nil, err
	}
	return &course, nil
}

func (r *GORMRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	err := r.db.WithContext(ctx).
		Model(course).
		Select("title", "description", "category").
		Updates(course).Error
	if err != nil {
		slog.Error("Failed to update course", "error", err, "course_id", course.ID)
		return err
	}
	slog.Info("Course updated", "course_id", course.ID, "title", course.Title)
	return nil
}

// DeleteCourse removes the course and its questions together.
func (r *GORMRepository) DeleteCourse(ctx context.Context, courseID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", courseID).Delete(&models.Course{}).Error
	})
	if err != nil {
		slog.Error("Failed to delete course", "error", err, "course_id", courseID)
		return err
	}
	slog.Info("Course deleted", "course_id", courseID)
	return nil
}

func (r *GORMRepository) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&count).Error
	return count, err
}

// Question operations
func (r *GORMRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		slog.Error("Failed to create question", "error", err, "course_id", question.CourseID)
		return err
	}
	slog.Info("Question created", "question_id", question.ID, "course_id", question.CourseID)
	return nil
}

// ListQuestions returns the course's questions newest first.
func (r *GORMRepository) ListQuestions(ctx context.Context, courseID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&questions).Error
	if isNotFound(err) {
		return []models.Question{}, nil
	}
	if err != nil {
		slog.Error("Failed to list questions", "error", err, "course_id", courseID)
		return nil, err
	}
	return questions, nil
}

// ListInterviewQuestions returns the course's questions in the order they are asked.
func (r *GORMRepository) ListInterviewQuestions(ctx context.Context, courseID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&questions).Error
	if isNotFound(err) {
		return []models.Question{}, nil
	}
	if err != nil {
		slog.Error("Failed to list interview questions", "error", err, "course_id", courseID)
		return nil, err
	}
	return questions, nil
}

func (r *GORMRepository) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Where("id = ?", questionID).First(&question).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get question", "error", err, "question_id", questionID)
		return nil, err
	}
	return &question, nil
}

func (r *GORMRepository) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", questionID).Delete(&models.Question{}).Error; err != nil {
		slog.Error("Failed to delete question", "error", err, "question_id", questionID)
		return err
	}
	slog.Info("Question deleted", "question_id", questionID)
	return nil
}

func (r *GORMRepository) CountQuestions(ctx context.Context, courseID string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Question{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	err := query.Count(&count).Error
	return count, err
}

// Interview operations

// CreateInterview stores the interview and its answers in one transaction.
func (r *GORMRepository) CreateInterview(ctx context.Context, interview *models.Interview) error {
	if err := r.db.WithContext(ctx).Create(interview).Error; err != nil {
		slog.Error("Failed to create interview", "error", err, "student_id", interview.StudentID)
		return err
	}
	slog.Info("Interview created", "interview_id", interview.ID, "student_id", interview.StudentID,
		"course_id", interview.CourseID, "questions_answered", interview.QuestionsAnswered)
	return nil
}

// ListInterviews returns the student's interviews newest first with the course title loaded.
func (r *GORMRepository) ListInterviews(ctx context.Context, studentID string) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Course", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Order("date DESC").
		Find(&interviews).Error
	if err != nil {
		slog.Error("Failed to list interviews", "error", err, "student_id", studentID)
		return nil, err
	}
	return interviews, nil
}

func (r *GORMRepository) GetInterview(ctx context.Context, interviewID string) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.WithContext(ctx).
		Where("id = ?", interviewID).
		Preload("Course").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&interview).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get interview", "error", err, "interview_id", interviewID)
		return nil, err
	}
	return &interview, nil
}

func (r *GORMRepository) CountInterviews(ctx context.Context, studentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Interview{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}

// Support operations
func (r *GORMRepository) CreateSupportQuery(ctx context.Context, query *models.SupportQuery) error {
	if err := r.db.WithContext(ctx).Create(query).Error; err != nil {
		slog.Error("Failed to create support query", "error", err, "user_id", query.UserID)
		return err
	}
	slog.Info("Support query created", "query_id", query.ID, "user_id", query.UserID)
	return nil
}

func (r *GORMRepository) ListSupportQueries(ctx context.Context) ([]models.SupportQuery, error) {
	var queries []models.SupportQuery
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&queries).Error; err != nil {
		slog.Error("Failed to list support queries", "error", err)
		return nil, err
	}
	return queries, nil
}

// ResolveSupportQuery marks the query resolved. It reports false when no row matched.
func (r *GORMRepository) ResolveSupportQuery(ctx context.Context, queryID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SupportQuery{}).
		Where("id = ?", queryID).
		Update("status", models.SupportStatusResolved)
	if isNotFound(result.Error) {
		return false, nil
	}
	if result.Error != nil {
		slog.Error("Failed to resolve support query", "error", result.Error, "query_id", queryID)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GORMRepository) CountSupportQueries(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SupportQuery{}).Count(&count).Error
	return count, err
}
