package waitlist

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/collabifyy/internal/model"
)

// Submission はウェイトリスト登録フォームの入力。
// userIdはセッションから決定されるため含めない。
type Submission struct {
	UserType        string `json:"userType" validate:"required,oneof=creator brand"`
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email,max=320"`
	CompanyOrHandle string `json:"companyOrHandle" validate:"required,max=200"`
	Message         string `json:"message" validate:"required,max=2000"`
}

// fieldMessages はフィールドと違反したタグの組み合わせごとのメッセージ。
var fieldMessages = map[string]map[string]string{
	"userType": {
		"required": "Please select a user type",
		"oneof":    "Please select a user type",
	},
	"name": {
		"required": "Name is required",
		"max":      "Name is too long",
	},
	"email": {
		"required": "Email is required",
		"email":    "Invalid email address",
		"max":      "Email is too long",
	},
	"companyOrHandle": {
		"required": "Company or Social Handle is required",
		"max":      "Company or Social Handle is too long",
	},
	"message": {
		"required": "Please provide a short message",
		"max":      "Message is too long",
	},
}

// newValidator はJSONフィールド名でエラーを報告するvalidatorを生成する。
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateSubmission は入力を検証し、違反したすべてのフィールドを返す。
// 違反がない場合はnilを返す。
func validateSubmission(v *validator.Validate, sub *Submission) ([]model.FieldError, error) {
	err := v.Struct(sub)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, model.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe.Field(), fe.Tag()),
		})
	}
	return fields, nil
}

func fieldMessage(field, tag string) string {
	if msg, ok := fieldMessages[field][tag]; ok {
		return msg
	}
	return "Invalid value"
}
