package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"schoolhub/config"
	"schoolhub/mailer"
	"schoolhub/models"
	"schoolhub/routes"
	"schoolhub/utils"
)

var (
	app       *fiber.App
	db        *gorm.DB
	cfg       *config.Config
	admin     models.User
	jwtToken  string
	testQuiz  models.Quiz
	testStudn models.Student
)

func TestMain(m *testing.M) {
	setup()
	os.Exit(m.Run())
}

func setup() {
	cfg = &config.Config{
		JWTSecret:        "testsecret",
		LegacySession:    "2025-2026",
		SessionBatchSize: 100,
	}

	var err error
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}
	if err := utils.Migrate(db); err != nil {
		panic(err)
	}

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg, mailer.NewConsole(logrus.New()))

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	admin = models.User{
		Email:        "admin@school.test",
		PasswordHash: string(hash),
		DisplayName:  "Admin",
		Role:         models.RoleAdmin,
	}
	db.Create(&admin)

	testStudn = models.Student{
		FullName:     "Hamza Tariq",
		GRNumber:     "GR-100",
		RollNumber:   "7",
		AdmissionFor: "6",
	}
	db.Create(&testStudn)

	testQuiz = models.Quiz{
		Title:         "Maths Weekly",
		Subject:       "Maths",
		TargetType:    models.TargetClass,
		ClassName:     "6",
		QuestionLimit: 2,
		Questions: []models.QuizQuestion{
			{Question: "2+2", Options: datatypes.JSONSlice[string]{"3", "4"}, CorrectIndex: 1},
			{Question: "3+3", Options: datatypes.JSONSlice[string]{"6", "7"}, CorrectIndex: 0},
		},
	}
	db.Create(&testQuiz)
}

func doJSON(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestLogin(t *testing.T) {
	status, result := doJSON(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "admin@school.test",
		"password": "password",
	})
	assert.Equal(t, fiber.StatusOK, status)

	data, _ := result["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	jwtToken = data["token"].(string)
}

func TestLoginWrongPassword(t *testing.T) {
	status, _ := doJSON(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "admin@school.test",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestMe(t *testing.T) {
	status, result := doJSON(t, "GET", "/api/auth/me", jwtToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, "admin@school.test", data["email"])
}

func TestMeWithoutToken(t *testing.T) {
	status, _ := doJSON(t, "GET", "/api/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestQuizPortalFlow(t *testing.T) {
	status, result := doJSON(t, "POST", "/api/quiz/init", "", map[string]interface{}{
		"quizId":        testQuiz.ID,
		"studentId":     testStudn.ID,
		"questionOrder": []int{1, 0},
	})
	assert.Equal(t, fiber.StatusOK, status)
	data, _ := result["data"].(map[string]interface{})
	attemptID := data["attemptId"].(float64)
	assert.False(t, data["resumed"].(bool))

	status, _ = doJSON(t, "POST", "/api/quiz/save", "", map[string]interface{}{
		"attemptId": attemptID,
		"answers":   []int{0, -1},
	})
	assert.Equal(t, fiber.StatusOK, status)

	// key [1,0] through order [1,0]: answers [0,1] score 2.
	status, result = doJSON(t, "POST", "/api/quiz-results", "", map[string]interface{}{
		"quizId":    testQuiz.ID,
		"studentId": testStudn.ID,
		"answers":   []int{0, 1},
	})
	assert.Equal(t, fiber.StatusOK, status)
	data, _ = result["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["score"])

	// Second submission conflicts and keeps the stored score.
	status, _ = doJSON(t, "POST", "/api/quiz-results", "", map[string]interface{}{
		"quizId":    testQuiz.ID,
		"studentId": testStudn.ID,
		"answers":   []int{1, 1},
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestListResultsRequiresAdmin(t *testing.T) {
	status, _ := doJSON(t, "GET", "/api/quiz-results", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, result := doJSON(t, "GET", "/api/quiz-results", jwtToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["ok"])
}

func TestSessionMutationNeedsSuperAdmin(t *testing.T) {
	status, _ := doJSON(t, "POST", "/api/sessions/create", jwtToken, map[string]string{
		"name": "2026-2027",
	})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestFeePatchPaidStampsToday(t *testing.T) {
	fee := models.Fee{
		StudentID: testStudn.ID,
		ClassName: "6",
		Month:     "April",
		Year:      2026,
		Status:    models.FeeStatusUnpaid,
		PaidDate:  "2026-01-01",
	}
	if err := db.Create(&fee).Error; err != nil {
		t.Fatal(err)
	}

	status, _ := doJSON(t, "PATCH", fmt.Sprintf("/api/fees/%d", fee.ID), jwtToken, map[string]interface{}{
		"status": "paid",
	})
	assert.Equal(t, fiber.StatusOK, status)

	// Paid without an explicit date stamps today, replacing any stale date.
	var updated models.Fee
	if err := db.First(&updated, fee.ID).Error; err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, models.FeeStatusPaid, updated.Status)
	assert.Equal(t, time.Now().Format("2006-01-02"), updated.PaidDate)
}

func TestSettingsSingleton(t *testing.T) {
	status, result := doJSON(t, "GET", "/api/important", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, result["data"])

	status, _ = doJSON(t, "PUT", "/api/important", "", map[string]interface{}{
		"schoolAddress": "12 Canal Road",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doJSON(t, "PUT", "/api/important", jwtToken, map[string]interface{}{
		"schoolAddress": "12 Canal Road",
		"phoneNumber":   "021-1234567",
		"classFees":     []map[string]interface{}{{"className": "6", "amount": 1500}},
	})
	assert.Equal(t, fiber.StatusCreated, status)

	// A partial update leaves the other fields alone.
	status, _ = doJSON(t, "PUT", "/api/important", jwtToken, map[string]interface{}{
		"cardIssueDate": "2026-01-01",
	})
	assert.Equal(t, fiber.StatusOK, status)

	status, result = doJSON(t, "GET", "/api/important", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, "12 Canal Road", data["SchoolAddress"])
	assert.Equal(t, "2026-01-01", data["CardIssueDate"])
	fees, _ := data["ClassFees"].([]interface{})
	assert.Len(t, fees, 1)
}

func TestHealth(t *testing.T) {
	status, result := doJSON(t, "GET", "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["ok"])
}
