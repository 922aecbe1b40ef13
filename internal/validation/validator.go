package validation

import (
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
)

const maxModelNameLength = 200

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerateRequest checks the fields of a generation request. Empty
// optional fields are fine: the service fills in defaults.
func (v *Validator) ValidateGenerateRequest(req *dto.GenerateQuizRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Text) == "" {
		errors = append(errors, domain.NewMissingFieldError("text"))
	}

	// zero means "use the default"
	if n := int(req.NumQuestions); n < 0 || n > domain.MaxQuestionCount {
		errors = append(errors, domain.NewOutOfRangeError("numQuestions", n, domain.MinQuestionCount, domain.MaxQuestionCount))
	}

	if d := strings.TrimSpace(req.Difficulty); d != "" && !domain.Difficulty(strings.ToLower(d)).Valid() {
		errors = append(errors, domain.NewInvalidFormatError("difficulty", req.Difficulty))
	}

	if m := strings.TrimSpace(req.ModelType); m != "" {
		if _, ok := domain.ParseProviderKind(m); !ok {
			errors = append(errors, domain.NewInvalidFormatError("modelType", req.ModelType))
		}
	}

	if !isValidLanguage(req.Language) {
		errors = append(errors, domain.NewInvalidFormatError("language", req.Language))
	}

	if len(req.Model) > maxModelNameLength {
		errors = append(errors, domain.NewOutOfRangeError("model", len(req.Model), 1, maxModelNameLength))
	}

	return errors
}

func isValidLanguage(s string) bool {
	switch domain.Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", domain.LanguageEnglish, domain.LanguageFrench:
		return true
	default:
		return false
	}
}
