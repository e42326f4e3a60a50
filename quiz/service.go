package quiz

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolhub/models"
)

// Service owns the quiz attempt lifecycle: absent -> in-progress ->
// completed, with completed terminal. It enforces one attempt per
// (quiz, student) pair, backed by the composite unique index on the
// attempts table.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type InitResult struct {
	AttemptID     uint  `json:"attemptId"`
	Resumed       bool  `json:"resumed"`
	Answers       []int `json:"answers"`
	QuestionOrder []int `json:"questionOrder"`
}

type FinalizeResult struct {
	AttemptID uint `json:"attemptId"`
	Score     int  `json:"score"`
	Answered  int  `json:"answeredCount"`
}

// Initialize starts or resumes an attempt. On resume the stored answers
// and question order are returned; the caller's proposed order is only
// honored when a brand new attempt is created, which is the one moment
// the order is fixed for the attempt's lifetime.
func (s *Service) Initialize(quizID, studentID uint, proposedOrder []int) (*InitResult, error) {
	if quizID == 0 || studentID == 0 {
		return nil, ErrInvalidInput
	}

	var attempt models.QuizAttempt
	err := s.DB.Where("quiz_id = ? AND student_id = ?", quizID, studentID).First(&attempt).Error
	switch {
	case err == nil:
		return s.resume(&attempt)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "looking up attempt")
	}

	var qz models.Quiz
	if err := s.DB.First(&qz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "looking up quiz")
	}

	attempt = models.QuizAttempt{
		QuizID:        quizID,
		StudentID:     studentID,
		Status:        models.AttemptInProgress,
		Answers:       datatypes.JSONSlice[int]{},
		QuestionOrder: datatypes.JSONSlice[int](proposedOrder),
		LastUpdated:   time.Now().UTC(),
		Session:       qz.Session,
	}
	s.snapshotStudent(&attempt, studentID)

	if err := s.DB.Create(&attempt).Error; err != nil {
		// A concurrent Initialize may have won the race; the unique
		// index rejects the duplicate, so fall back to resume.
		var existing models.QuizAttempt
		if lookupErr := s.DB.Where("quiz_id = ? AND student_id = ?", quizID, studentID).
			First(&existing).Error; lookupErr == nil {
			return s.resume(&existing)
		}
		return nil, errors.Wrap(err, "creating attempt")
	}

	return &InitResult{
		AttemptID:     attempt.ID,
		Resumed:       false,
		Answers:       []int{},
		QuestionOrder: proposedOrder,
	}, nil
}

func (s *Service) resume(attempt *models.QuizAttempt) (*InitResult, error) {
	if attempt.Status == models.AttemptCompleted {
		return nil, ErrAlreadyCompleted
	}
	return &InitResult{
		AttemptID:     attempt.ID,
		Resumed:       true,
		Answers:       attempt.Answers,
		QuestionOrder: attempt.QuestionOrder,
	}, nil
}

// SaveProgress overwrites the stored answers of an in-progress attempt.
// It is the autosave path: repeat calls with the same payload are
// harmless, and it never creates an attempt that does not exist.
func (s *Service) SaveProgress(attemptID uint, answers []int) error {
	if attemptID == 0 || answers == nil {
		return ErrInvalidInput
	}

	var attempt models.QuizAttempt
	if err := s.DB.First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "looking up attempt")
	}
	if attempt.Status == models.AttemptCompleted {
		return ErrAlreadyCompleted
	}

	err := s.DB.Model(&attempt).Updates(map[string]interface{}{
		"answers":      datatypes.JSONSlice[int](answers),
		"last_updated": time.Now().UTC(),
	}).Error
	return errors.Wrap(err, "saving progress")
}

// Finalize submits an attempt. A completed attempt stays completed: a
// second submission is a conflict, never a silent re-score. When an
// in-progress record exists its stored question order is authoritative
// for scoring; the caller-supplied order only applies on the
// direct-submit path where no prior record exists.
func (s *Service) Finalize(quizID, studentID uint, answers, order []int) (*FinalizeResult, error) {
	if quizID == 0 || studentID == 0 || answers == nil {
		return nil, ErrInvalidInput
	}

	var qz models.Quiz
	err := s.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.id ASC")
	}).First(&qz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "looking up quiz")
	}

	key := make([]int, len(qz.Questions))
	for i, q := range qz.Questions {
		key[i] = q.CorrectIndex
	}

	now := time.Now().UTC()

	var attempt models.QuizAttempt
	err = s.DB.Where("quiz_id = ? AND student_id = ?", quizID, studentID).First(&attempt).Error
	switch {
	case err == nil:
		if attempt.Status == models.AttemptCompleted {
			return nil, ErrAlreadySubmitted
		}
		// The order fixed at initialize is authoritative, empty meaning
		// identity presentation. A caller-supplied order on submit must
		// not re-map answers for an existing attempt.
		effectiveOrder := []int(attempt.QuestionOrder)
		score, answered := Score(answers, key, effectiveOrder)

		updates := map[string]interface{}{
			"status":         models.AttemptCompleted,
			"answers":        datatypes.JSONSlice[int](answers),
			"question_order": datatypes.JSONSlice[int](effectiveOrder),
			"score":          score,
			"submitted_at":   now,
			"last_updated":   now,
		}
		if err := s.DB.Model(&attempt).Updates(updates).Error; err != nil {
			return nil, errors.Wrap(err, "completing attempt")
		}
		return &FinalizeResult{AttemptID: attempt.ID, Score: score, Answered: answered}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Direct submit without an explicit Initialize.
		score, answered := Score(answers, key, order)
		attempt = models.QuizAttempt{
			QuizID:        quizID,
			StudentID:     studentID,
			Status:        models.AttemptCompleted,
			Answers:       datatypes.JSONSlice[int](answers),
			QuestionOrder: datatypes.JSONSlice[int](order),
			Score:         score,
			SubmittedAt:   &now,
			LastUpdated:   now,
			Session:       qz.Session,
		}
		s.snapshotStudent(&attempt, studentID)
		if err := s.DB.Create(&attempt).Error; err != nil {
			// Lost a race against a concurrent submit or init.
			var existing models.QuizAttempt
			if lookupErr := s.DB.Where("quiz_id = ? AND student_id = ?", quizID, studentID).
				First(&existing).Error; lookupErr == nil && existing.Status == models.AttemptCompleted {
				return nil, ErrAlreadySubmitted
			}
			return nil, errors.Wrap(err, "creating completed attempt")
		}
		return &FinalizeResult{AttemptID: attempt.ID, Score: score, Answered: answered}, nil

	default:
		return nil, errors.Wrap(err, "looking up attempt")
	}
}

// DeleteQuiz removes a quiz together with every attempt referencing it.
// Attempts go first, inside one transaction with the quiz itself, so a
// failure partway leaves the quiz in place rather than half-deleted.
func (s *Service) DeleteQuiz(quizID uint) error {
	if quizID == 0 {
		return ErrInvalidInput
	}

	var qz models.Quiz
	if err := s.DB.First(&qz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "looking up quiz")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, quizID).Error
	})
	return errors.Wrap(err, "deleting quiz")
}

// DeleteAttempt removes a single attempt, staff-only.
func (s *Service) DeleteAttempt(attemptID uint) error {
	res := s.DB.Delete(&models.QuizAttempt{}, attemptID)
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting attempt")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAttemptsForQuiz bulk-deletes every attempt for a quiz without
// touching the quiz itself.
func (s *Service) DeleteAttemptsForQuiz(quizID uint) (int64, error) {
	res := s.DB.Where("quiz_id = ?", quizID).Delete(&models.QuizAttempt{})
	return res.RowsAffected, errors.Wrap(res.Error, "deleting attempts")
}

func (s *Service) snapshotStudent(attempt *models.QuizAttempt, studentID uint) {
	var student models.Student
	if err := s.DB.First(&student, studentID).Error; err != nil {
		// A missing student record leaves the snapshot empty, same as
		// the attempt outliving the student.
		return
	}
	attempt.StudentName = student.FullName
	attempt.StudentGRNumber = student.GRNumber
	attempt.StudentRollNumber = student.RollNumber
	attempt.ClassName = student.AdmissionFor
	attempt.StudentEmail = student.Email
}
