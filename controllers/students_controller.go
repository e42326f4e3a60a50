package controllers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/session"
	"schoolhub/utils"
)

type StudentsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions *session.Service
	validate *validator.Validate
}

func NewStudentsController(db *gorm.DB, cfg *config.Config, sessions *session.Service) *StudentsController {
	return &StudentsController{DB: db, Cfg: cfg, Sessions: sessions, validate: validator.New()}
}

type studentInput struct {
	FullName           string `json:"fullName" validate:"required"`
	FatherName         string `json:"fatherName"`
	FatherCnic         string `json:"fatherCnic"`
	DOB                string `json:"dob"`
	RollNumber         string `json:"rollNumber"`
	GRNumber           string `json:"grNumber"`
	Gender             string `json:"gender" validate:"omitempty,oneof=male female"`
	Nationality        string `json:"nationality"`
	CnicOrBform        string `json:"cnicOrBform"`
	AdmissionFor       string `json:"admissionFor" validate:"required"`
	Email              string `json:"email" validate:"omitempty,email"`
	PhoneNumber        string `json:"phoneNumber"`
	WhatsappNumber     string `json:"whatsappNumber"`
	Address            string `json:"address"`
	MedicalCondition   string `json:"medicalCondition"`
	FormerEducation    string `json:"formerEducation"`
	PreviousInstitute  string `json:"previousInstitute"`
	LastExamPercentage string `json:"lastExamPercentage"`
	GuardianName       string `json:"guardianName"`
	GuardianContact    string `json:"guardianContact"`
	GuardianCnic       string `json:"guardianCnic"`
	GuardianRelation   string `json:"guardianRelation"`
	PhotoURL           string `json:"photoUrl"`
	IssueDate          string `json:"issueDate"`
	ExpiryDate         string `json:"expiryDate"`
	Session            string `json:"session"`
}

func (sc *StudentsController) List(c *fiber.Ctx) error {
	query := sc.DB.Model(&models.Student{}).Scopes(sc.Sessions.Scope(sessionParam(c)))

	if className := c.Query("className"); className != "" {
		query = query.Where("admission_for = ?", className)
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"full_name LIKE ? OR roll_number LIKE ? OR gr_number LIKE ?",
			like, like, like,
		)
	}

	var students []models.Student
	if err := query.Order("admission_for ASC, roll_number ASC").
		Limit(limitParam(c, 500, 200)).Find(&students).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, students)
}

func (sc *StudentsController) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid student ID")
	}

	var student models.Student
	if err := sc.DB.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Student not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, student)
}

func (sc *StudentsController) Create(c *fiber.Ctx) error {
	var input studentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := sc.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}

	student := studentFromInput(input)
	if err := sc.DB.Create(&student).Error; err != nil {
		return utils.InternalServerError(c, "Could not create student")
	}
	return utils.Created(c, student)
}

func (sc *StudentsController) Patch(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid student ID")
	}

	var patch map[string]interface{}
	if err := c.BodyParser(&patch); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if len(patch) == 0 {
		return utils.BadRequest(c, "Empty patch")
	}

	var student models.Student
	if err := sc.DB.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Student not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	// Only whitelisted columns are patchable; the client sends the same
	// camelCase field names it reads.
	updates := map[string]interface{}{}
	for key, column := range studentPatchColumns {
		if v, ok := patch[key]; ok {
			updates[column] = v
		}
	}
	if len(updates) == 0 {
		return utils.BadRequest(c, "No recognized fields in patch")
	}

	if err := sc.DB.Model(&student).Updates(updates).Error; err != nil {
		return utils.InternalServerError(c, "Could not update student")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": student.ID})
}

func (sc *StudentsController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid student ID")
	}

	res := sc.DB.Delete(&models.Student{}, id)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete student")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Student not found")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

var studentPatchColumns = map[string]string{
	"fullName":           "full_name",
	"fatherName":         "father_name",
	"fatherCnic":         "father_cnic",
	"dob":                "dob",
	"rollNumber":         "roll_number",
	"grNumber":           "gr_number",
	"gender":             "gender",
	"nationality":        "nationality",
	"cnicOrBform":        "cnic_or_bform",
	"admissionFor":       "admission_for",
	"email":              "email",
	"phoneNumber":        "phone_number",
	"whatsappNumber":     "whatsapp_number",
	"address":            "address",
	"medicalCondition":   "medical_condition",
	"formerEducation":    "former_education",
	"previousInstitute":  "previous_institute",
	"lastExamPercentage": "last_exam_percentage",
	"guardianName":       "guardian_name",
	"guardianContact":    "guardian_contact",
	"guardianCnic":       "guardian_cnic",
	"guardianRelation":   "guardian_relation",
	"photoUrl":           "photo_url",
	"issueDate":          "issue_date",
	"expiryDate":         "expiry_date",
	"session":            "session",
}

func studentFromInput(input studentInput) models.Student {
	student := models.Student{
		FullName:           input.FullName,
		FatherName:         input.FatherName,
		FatherCnic:         input.FatherCnic,
		DOB:                input.DOB,
		RollNumber:         input.RollNumber,
		GRNumber:           input.GRNumber,
		Gender:             input.Gender,
		Nationality:        input.Nationality,
		CnicOrBform:        input.CnicOrBform,
		AdmissionFor:       input.AdmissionFor,
		Email:              input.Email,
		PhoneNumber:        input.PhoneNumber,
		WhatsappNumber:     input.WhatsappNumber,
		Address:            input.Address,
		MedicalCondition:   input.MedicalCondition,
		FormerEducation:    input.FormerEducation,
		PreviousInstitute:  input.PreviousInstitute,
		LastExamPercentage: input.LastExamPercentage,
		GuardianName:       input.GuardianName,
		GuardianContact:    input.GuardianContact,
		GuardianCnic:       input.GuardianCnic,
		GuardianRelation:   input.GuardianRelation,
		PhotoURL:           input.PhotoURL,
		IssueDate:          input.IssueDate,
		ExpiryDate:         input.ExpiryDate,
	}
	if input.Session != "" {
		s := input.Session
		student.Session = &s
	}
	return student
}

// sessionParam reads the session filter off the query string; nil means
// no filter.
func sessionParam(c *fiber.Ctx) *string {
	if s := c.Query("session"); s != "" {
		return &s
	}
	return nil
}

func limitParam(c *fiber.Ctx, max, fallback int) int {
	limit := c.QueryInt("limit", fallback)
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
