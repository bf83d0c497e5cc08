package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ashureev/peakchat/internal/domain"
)

// ParseError reports model output that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse feedback: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a decoded result that breaks a presence or range
// rule. Field is the JSON path of the first offending field.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feedback: field %s failed %s", e.Field, e.Rule)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func resultValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the presence and score range rules on r.
func Validate(r *domain.FeedbackResult) error {
	err := resultValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		return &ValidationError{Field: field, Rule: fe.Tag()}
	}
	return &ValidationError{Rule: err.Error()}
}

// Decode turns raw model output into a validated result. Strings go through
// the normalization pipeline; structured values are used as they are.
func Decode(raw any) (domain.FeedbackResult, error) {
	var result domain.FeedbackResult
	switch v := raw.(type) {
	case string:
		if err := decodeText(v, &result); err != nil {
			return domain.FeedbackResult{}, err
		}
	case []byte:
		if err := decodeText(string(v), &result); err != nil {
			return domain.FeedbackResult{}, err
		}
	case json.RawMessage:
		if err := decodeRaw(v, &result); err != nil {
			return domain.FeedbackResult{}, err
		}
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return domain.FeedbackResult{}, &ParseError{Err: err}
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return domain.FeedbackResult{}, &ParseError{Err: err}
		}
	case domain.FeedbackResult:
		result = v
	case *domain.FeedbackResult:
		if v == nil {
			return domain.FeedbackResult{}, &ParseError{Err: errors.New("nil result")}
		}
		result = *v
	default:
		return domain.FeedbackResult{}, &ParseError{Err: fmt.Errorf("unsupported input type %T", raw)}
	}

	if err := Validate(&result); err != nil {
		return domain.FeedbackResult{}, err
	}
	return result, nil
}

// Parse decodes raw and returns Default() on any failure.
func Parse(raw any) domain.FeedbackResult {
	result, err := Decode(raw)
	if err != nil {
		slog.Warn("feedback output rejected, using default", "error", err)
		return Default()
	}
	return result
}

func decodeText(s string, out *domain.FeedbackResult) error {
	normalized := DefaultPipeline().Apply(s)
	if err := json.Unmarshal([]byte(normalized), out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// decodeRaw handles message content that is either a JSON string literal
// holding the model text or an already structured object.
func decodeRaw(raw json.RawMessage, out *domain.FeedbackResult) error {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return &ParseError{Err: errors.New("empty content")}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return &ParseError{Err: err}
		}
		return decodeText(s, out)
	case trimmed[0] == '{':
		if err := json.Unmarshal(trimmed, out); err != nil {
			return &ParseError{Err: err}
		}
		return nil
	default:
		return &ParseError{Err: fmt.Errorf("unexpected content starting with %q", trimmed[0])}
	}
}
