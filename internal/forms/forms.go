// Package forms binds raw HTML form values and turns them into typed,
// validated inputs. Raw forms keep the submitted strings so a page can be
// re-rendered with what the user typed.
package forms

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

const DateLayout = "2006-01-02"

var (
	validate   *validator.Validate
	translator ut.Translator

	requiredTag  = "required"
	requiredText = "This field is required."
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report errors under the form field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterTranslation(
		requiredTag, translator,
		func(t ut.Translator) error { return t.Add(requiredTag, requiredText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(requiredTag, fe.Field())
			return s
		},
	)
}

// Errors maps a form field name to the message shown next to it.
type Errors map[string]string

func (e Errors) Any() bool { return len(e) > 0 }

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func check(v interface{}) Errors {
	errs := Errors{}
	err := validate.Struct(v)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), fe.Translate(translator))
	}
	return errs
}

type LoginForm struct {
	Email string `form:"email" validate:"required,email,max=120"`
}

func (f *LoginForm) Clean() (string, Errors) {
	f.Email = strings.TrimSpace(f.Email)
	errs := check(f)
	return strings.ToLower(f.Email), errs
}

type TaskForm struct {
	Title       string `form:"title" validate:"required,max=140"`
	Description string `form:"description"`
	DueDate     string `form:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Points      string `form:"points" validate:"omitempty,number"`
	TeamID      string `form:"team_id" validate:"omitempty,number"`
}

type TaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Points      int `form:"points" validate:"min=1,max=1000"`
	TeamID      *uint
}

// Clean validates the task form. An empty points field means the default
// points value; an empty or zero team means the task has no team.
func (f *TaskForm) Clean() (TaskInput, Errors) {
	f.Title = strings.TrimSpace(f.Title)
	f.DueDate = strings.TrimSpace(f.DueDate)
	f.Points = strings.TrimSpace(f.Points)
	f.TeamID = strings.TrimSpace(f.TeamID)

	in := TaskInput{Title: f.Title, Description: strings.TrimSpace(f.Description), Points: models.DefaultPoints}
	errs := check(f)
	if errs.Any() {
		return in, errs
	}

	if f.Points != "" {
		n, err := strconv.Atoi(f.Points)
		if err != nil {
			errs.Add("points", "points must be a whole number")
			return in, errs
		}
		in.Points = n
	}
	if f.DueDate != "" {
		d, _ := time.Parse(DateLayout, f.DueDate)
		in.DueDate = &d
	}
	if f.TeamID != "" && f.TeamID != "0" {
		id, err := strconv.ParseUint(f.TeamID, 10, 0)
		if err != nil {
			errs.Add("team_id", "Choose a team from this course.")
			return in, errs
		}
		teamID := uint(id)
		in.TeamID = &teamID
	}
	return in, check(in)
}

type GradeForm struct {
	Score string `form:"score" validate:"omitempty,number"`
}

type gradeInput struct {
	Score int `form:"score" validate:"min=0,max=1000"`
}

// Clean returns the submitted score, or nil when the field was left blank.
func (f *GradeForm) Clean() (*int, Errors) {
	f.Score = strings.TrimSpace(f.Score)
	errs := check(f)
	if errs.Any() || f.Score == "" {
		return nil, errs
	}
	n, err := strconv.Atoi(f.Score)
	if err != nil {
		errs.Add("score", "score must be a whole number")
		return nil, errs
	}
	if errs = check(gradeInput{Score: n}); errs.Any() {
		return nil, errs
	}
	return &n, errs
}

type CommentForm struct {
	Body string `form:"body" validate:"required,max=2000"`
}

func (f *CommentForm) Clean() (string, Errors) {
	f.Body = strings.TrimSpace(f.Body)
	return f.Body, check(f)
}

type TeamForm struct {
	Name string `form:"name" validate:"required,max=80"`
}

func (f *TeamForm) Clean() (string, Errors) {
	f.Name = strings.TrimSpace(f.Name)
	return f.Name, check(f)
}

type MemberForm struct {
	UserID string `form:"user_id" validate:"required,number"`
}

func (f *MemberForm) Clean() (uint, Errors) {
	f.UserID = strings.TrimSpace(f.UserID)
	errs := check(f)
	if errs.Any() {
		return 0, errs
	}
	id, err := strconv.ParseUint(f.UserID, 10, 0)
	if err != nil {
		errs.Add("user_id", "Choose a student to add.")
		return 0, errs
	}
	return uint(id), errs
}

type CourseMemberForm struct {
	Email string `form:"email" validate:"required,email,max=120"`
	Role  string `form:"role" validate:"required,oneof=student ta instructor"`
}

func (f *CourseMemberForm) Clean() (string, models.Role, Errors) {
	f.Email = strings.TrimSpace(f.Email)
	f.Role = strings.ToLower(strings.TrimSpace(f.Role))
	errs := check(f)
	if errs.Any() {
		return "", "", errs
	}
	return strings.ToLower(f.Email), models.Role(f.Role), errs
}
