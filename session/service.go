package session

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"schoolhub/models"
)

// governed lists every record type that carries a session tag and is
// therefore touched by bulk rename/delete. Keep this in one place: a
// type filtered by Scope but missing here would survive a session
// delete with a dangling tag.
var governed = []interface{}{
	&models.Student{},
	&models.Fee{},
	&models.Notice{},
	&models.ExamResultSet{},
	&models.Schedule{},
	&models.Attendance{},
	&models.QuizAttempt{},
}

// Service implements the academic-session partition: the shared read
// filter plus create/rename/delete/transfer. Bulk operations commit in
// independent batches of BatchSize and report how many records they
// actually touched; there is no rollback of batches already committed.
type Service struct {
	DB *gorm.DB
	// Legacy is the session that untagged records belong to.
	Legacy    string
	BatchSize int
}

func NewService(db *gorm.DB, legacy string, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{DB: db, Legacy: legacy, BatchSize: batchSize}
}

// Scope is the one session read filter. A nil or empty request matches
// everything; the legacy session additionally matches records with no
// session tag at all. Every session-aware query path must use this.
func (s *Service) Scope(requested *string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if requested == nil || *requested == "" {
			return db
		}
		if *requested == s.Legacy {
			return db.Where("session = ? OR session IS NULL", *requested)
		}
		return db.Where("session = ?", *requested)
	}
}

// List returns known session names, newest first. Sessions exist through
// their marker row, so empty sessions still list.
func (s *Service) List() ([]string, error) {
	var metas []models.SessionMeta
	if err := s.DB.Order("created_at DESC").Find(&metas).Error; err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}
	seen := make(map[string]bool)
	names := make([]string, 0, len(metas)+1)
	for _, m := range metas {
		name := strings.TrimSpace(m.SessionName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if !seen[s.Legacy] {
		names = append(names, s.Legacy)
	}
	return names, nil
}

// Create registers a session by name. Creating an existing session is a
// no-op rather than an error; data may already be using the name.
func (s *Service) Create(name, createdBy string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidInput
	}
	meta := models.SessionMeta{SessionName: name, CreatedBy: createdBy}
	err := s.DB.Where("session_name = ?", name).FirstOrCreate(&meta).Error
	return errors.Wrap(err, "creating session")
}

// Rename bulk-patches the session tag on every governed record carrying
// oldName, in independent batch commits, then renames the marker row.
// The returned count is what actually committed; a failure partway
// leaves earlier batches renamed.
func (s *Service) Rename(oldName, newName string) (int, error) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" || oldName == newName {
		return 0, ErrInvalidInput
	}
	if oldName == s.Legacy {
		return 0, ErrProtected
	}

	updated := 0
	for _, model := range governed {
		n, err := s.patchBatches(model, oldName, newName)
		updated += n
		if err != nil {
			return updated, err
		}
	}

	res := s.DB.Model(&models.SessionMeta{}).
		Where("session_name = ?", oldName).
		Update("session_name", newName)
	if res.Error != nil {
		return updated, errors.Wrap(res.Error, "renaming session marker")
	}
	if updated == 0 && res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return updated, nil
}

// Delete removes every governed record carrying the session tag, in
// independent batch commits, then drops the marker row. Returns the
// count actually deleted; zero with no error means nothing matched.
func (s *Service) Delete(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidInput
	}
	if name == s.Legacy {
		return 0, ErrProtected
	}

	deleted := 0
	for _, model := range governed {
		n, err := s.deleteBatches(model, name)
		deleted += n
		if err != nil {
			return deleted, err
		}
	}

	if err := s.DB.Where("session_name = ?", name).
		Delete(&models.SessionMeta{}).Error; err != nil {
		return deleted, errors.Wrap(err, "deleting session marker")
	}
	return deleted, nil
}

// Transfer copies students from one session into another under a
// class-to-class promotion mapping ("KG" -> "1", "1" -> "2", ...).
// Copies get new identity; the source session is left untouched.
// Classes absent from the mapping are skipped.
func (s *Service) Transfer(fromSession, toSession string, mapping map[string]string) (int, error) {
	fromSession = strings.TrimSpace(fromSession)
	toSession = strings.TrimSpace(toSession)
	if fromSession == "" || toSession == "" || len(mapping) == 0 {
		return 0, ErrInvalidInput
	}

	created := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for fromClass, toClass := range mapping {
			if toClass == "" {
				continue
			}

			var students []models.Student
			if err := tx.Scopes(s.Scope(&fromSession)).
				Where("admission_for = ?", fromClass).
				Find(&students).Error; err != nil {
				return err
			}

			for _, st := range students {
				clone := st
				clone.Model = gorm.Model{}
				clone.AdmissionFor = toClass
				target := toSession
				clone.Session = &target
				if err := tx.Create(&clone).Error; err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "transferring students")
	}
	return created, nil
}

// patchBatches updates session old -> new on one model type, one batch
// commit at a time. Partial completion is reported through the count.
func (s *Service) patchBatches(model interface{}, oldName, newName string) (int, error) {
	total := 0
	for {
		var ids []uint
		if err := s.DB.Model(model).
			Where("session = ?", oldName).
			Limit(s.BatchSize).
			Pluck("id", &ids).Error; err != nil {
			return total, errors.Wrap(err, "collecting batch")
		}
		if len(ids) == 0 {
			return total, nil
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Model(model).
				Where("id IN ?", ids).
				Update("session", newName).Error
		})
		if err != nil {
			return total, errors.Wrap(err, "committing rename batch")
		}
		total += len(ids)
	}
}

func (s *Service) deleteBatches(model interface{}, name string) (int, error) {
	total := 0
	for {
		var ids []uint
		if err := s.DB.Model(model).
			Where("session = ?", name).
			Limit(s.BatchSize).
			Pluck("id", &ids).Error; err != nil {
			return total, errors.Wrap(err, "collecting batch")
		}
		if len(ids) == 0 {
			return total, nil
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Where("id IN ?", ids).Delete(model).Error
		})
		if err != nil {
			return total, errors.Wrap(err, "committing delete batch")
		}
		total += len(ids)
	}
}
