package planner

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrInvalidRequest is returned for preferences or indices rejected before any model call.
	ErrInvalidRequest = errors.New("invalid meal plan request")
	// ErrGenerationFailed wraps failures of the text generation call itself.
	ErrGenerationFailed = errors.New("meal plan generation failed")
	// ErrNoJSON means the model output contained no brace-delimited object.
	ErrNoJSON = errors.New("no valid JSON found in response")
	// ErrMalformedResponse means the extracted text was not valid JSON.
	ErrMalformedResponse = errors.New("malformed JSON in response")
	// ErrInvalidPlanFormat means the JSON was valid but not shaped like a plan or meal.
	ErrInvalidPlanFormat = errors.New("invalid meal plan format")
	// ErrIndexOutOfRange is returned when a day or meal index does not exist in the plan.
	ErrIndexOutOfRange = errors.New("meal index out of range")
	// ErrNoActivePlan is returned when regenerating without a current plan.
	ErrNoActivePlan = errors.New("no active meal plan")
)

// UserMessage returns a description of err that is safe to show to end users.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return capitalize(strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": "))
	case errors.Is(err, ErrIndexOutOfRange):
		return "The meal to regenerate does not exist in the plan."
	case errors.Is(err, ErrNoActivePlan):
		return "No active meal plan. Generate one first."
	case errors.Is(err, ErrPlanNotFound):
		return "Saved meal plan not found."
	case errors.Is(err, ErrNoJSON):
		return "No valid JSON found in AI response."
	case errors.Is(err, ErrMalformedResponse):
		return "Invalid response format, please try again."
	case errors.Is(err, ErrInvalidPlanFormat):
		return "Invalid meal plan format from AI."
	case errors.Is(err, context.DeadlineExceeded):
		return "Meal plan generation timed out. Please try again."
	case errors.Is(err, ErrGenerationFailed):
		return "Failed to generate meal plan. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
