package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"schoolhub/models"
)

const legacy = "2025-2026"

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SessionMeta{},
		&models.Student{},
		&models.Fee{},
		&models.Notice{},
		&models.ExamResultSet{},
		&models.ExamStudentResult{},
		&models.Schedule{},
		&models.Attendance{},
		&models.QuizAttempt{},
	))
	return db
}

func newStudent(session *string, class string) models.Student {
	return models.Student{
		FullName:     "Student",
		AdmissionFor: class,
		Session:      session,
	}
}

func strptr(s string) *string { return &s }

func TestScopeLegacyMatchesUntagged(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	require.NoError(t, db.Create(&models.Student{FullName: "Untagged"}).Error)
	require.NoError(t, db.Create(&models.Student{FullName: "Legacy", Session: strptr(legacy)}).Error)
	require.NoError(t, db.Create(&models.Student{FullName: "Next", Session: strptr("2026-2027")}).Error)

	var got []models.Student
	require.NoError(t, db.Scopes(svc.Scope(strptr(legacy))).Find(&got).Error)
	require.Len(t, got, 2)

	got = nil
	require.NoError(t, db.Scopes(svc.Scope(strptr("2026-2027"))).Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, "Next", got[0].FullName)

	// No requested session means no filter at all.
	got = nil
	require.NoError(t, db.Scopes(svc.Scope(nil)).Find(&got).Error)
	assert.Len(t, got, 3)
}

func TestListAlwaysIncludesLegacy(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	names, err := svc.List()
	require.NoError(t, err)
	assert.Equal(t, []string{legacy}, names)

	require.NoError(t, svc.Create("2026-2027", "admin"))
	names, err = svc.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-2027", legacy}, names)
}

func TestListNewestFirst(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	older := models.SessionMeta{SessionName: "2026-2027"}
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, svc.Create("2027-2028", "admin"))

	names, err := svc.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"2027-2028", "2026-2027", legacy}, names)
}

func TestCreateIsIdempotent(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	require.NoError(t, svc.Create("2026-2027", "admin"))
	require.NoError(t, svc.Create("2026-2027", "other"))

	var count int64
	require.NoError(t, db.Model(&models.SessionMeta{}).
		Where("session_name = ?", "2026-2027").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.ErrorIs(t, svc.Create("   ", "admin"), ErrInvalidInput)
}

func TestRenameCountsAcrossBatches(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)
	require.NoError(t, svc.Create("2026-2027", "admin"))

	// 250 tagged records at batch size 100 take three batch commits.
	for i := 0; i < 250; i++ {
		st := newStudent(strptr("2026-2027"), "5")
		st.FullName = fmt.Sprintf("Student %d", i)
		require.NoError(t, db.Create(&st).Error)
	}
	require.NoError(t, db.Create(&models.Student{FullName: "Other", Session: strptr("2027-2028")}).Error)

	updated, err := svc.Rename("2026-2027", "2026-27")
	require.NoError(t, err)
	assert.Equal(t, 250, updated)

	var remaining, renamed int64
	require.NoError(t, db.Model(&models.Student{}).
		Where("session = ?", "2026-2027").Count(&remaining).Error)
	require.NoError(t, db.Model(&models.Student{}).
		Where("session = ?", "2026-27").Count(&renamed).Error)
	assert.Zero(t, remaining)
	assert.EqualValues(t, 250, renamed)

	var markers int64
	require.NoError(t, db.Model(&models.SessionMeta{}).
		Where("session_name = ?", "2026-27").Count(&markers).Error)
	assert.EqualValues(t, 1, markers)
}

func TestRenameTouchesEveryGovernedType(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	tag := strptr("2026-2027")
	require.NoError(t, db.Create(&models.Student{FullName: "S", Session: tag}).Error)
	require.NoError(t, db.Create(&models.Fee{StudentID: 1, Month: "April", Year: 2026, Session: tag}).Error)
	require.NoError(t, db.Create(&models.Attendance{StudentID: 1, Date: "2026-04-01", Status: "present", Session: tag}).Error)

	updated, err := svc.Rename("2026-2027", "2026-27")
	require.NoError(t, err)
	assert.Equal(t, 3, updated)
}

func TestRenameGuards(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	_, err := svc.Rename(legacy, "anything")
	assert.ErrorIs(t, err, ErrProtected)

	_, err = svc.Rename("2026-2027", "2026-2027")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Rename("never-existed", "new-name")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesRecordsAndMarker(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)
	require.NoError(t, svc.Create("2026-2027", "admin"))

	tag := strptr("2026-2027")
	require.NoError(t, db.Create(&models.Student{FullName: "S", Session: tag}).Error)
	require.NoError(t, db.Create(&models.Fee{StudentID: 1, Month: "April", Year: 2026, Session: tag}).Error)
	require.NoError(t, db.Create(&models.Student{FullName: "Keep", Session: strptr(legacy)}).Error)

	deleted, err := svc.Delete("2026-2027")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	var students, markers int64
	require.NoError(t, db.Model(&models.Student{}).Count(&students).Error)
	require.NoError(t, db.Model(&models.SessionMeta{}).
		Where("session_name = ?", "2026-2027").Count(&markers).Error)
	assert.EqualValues(t, 1, students)
	assert.Zero(t, markers)
}

func TestDeleteLegacyIsProtected(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	_, err := svc.Delete(legacy)
	assert.ErrorIs(t, err, ErrProtected)
}

func TestTransferCopiesUnderMapping(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	// Untagged students count as legacy, so a transfer out of the legacy
	// session picks them up too.
	require.NoError(t, db.Create(&models.Student{FullName: "Tagged", AdmissionFor: "5", Session: strptr(legacy)}).Error)
	require.NoError(t, db.Create(&models.Student{FullName: "Untagged", AdmissionFor: "5"}).Error)
	require.NoError(t, db.Create(&models.Student{FullName: "Unmapped", AdmissionFor: "8", Session: strptr(legacy)}).Error)

	created, err := svc.Transfer(legacy, "2026-2027", map[string]string{"5": "6", "KG": ""})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	var copies []models.Student
	require.NoError(t, db.Where("session = ?", "2026-2027").Find(&copies).Error)
	require.Len(t, copies, 2)
	for _, c := range copies {
		assert.Equal(t, "6", c.AdmissionFor)
	}

	// Source rows keep their session and class.
	var source int64
	require.NoError(t, db.Model(&models.Student{}).
		Where("admission_for = ? AND (session = ? OR session IS NULL)", "5", legacy).
		Count(&source).Error)
	assert.EqualValues(t, 2, source)
}

func TestTransferRequiresMapping(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, legacy, 100)

	_, err := svc.Transfer(legacy, "2026-2027", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Transfer("", "2026-2027", map[string]string{"5": "6"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
