// Package bind decodes JSON request bodies and validates them with go-playground/validator
package bind

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

// DefaultMaxBytes caps a request body when JSONOptions.MaxBytes is zero
const DefaultMaxBytes = 1 << 20

// MaxObjectKeyBytes is the longest object key the objectkey rule accepts
const MaxObjectKeyBytes = 1024

// JSONOptions controls how a body is decoded
type JSONOptions struct {
	// MaxBytes caps the body; zero means DefaultMaxBytes
	MaxBytes int64
	// DisallowUnknown rejects fields the target type does not declare
	DisallowUnknown bool
}

// Validator pairs the validator with its english translator
type Validator struct {
	V     *validator.Validate
	Trans ut.Translator
}

// Get returns the process wide validator, built on first use
var Get = sync.OnceValue(newValidator)

func newValidator() *Validator {
	loc := en.New()
	trans, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())

	// messages name fields the way clients spell them
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-", "":
			return f.Name
		}
		return name
	})
	_ = entrans.RegisterDefaultTranslations(v, trans)

	_ = v.RegisterValidation("bucket", validBucket)
	_ = v.RegisterValidation("objectkey", validObjectKey)
	translate(v, trans, "bucket", "{0} must be a valid bucket name")
	translate(v, trans, "objectkey", "{0} must be UTF-8 of at most 1024 bytes")
	translate(v, trans, "min", "{0} must be at least {1}")
	translate(v, trans, "max", "{0} must be at most {1}")

	return &Validator{V: v, Trans: trans}
}

// translate registers a short message for tag
func translate(v *validator.Validate, trans ut.Translator, tag, msg string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, msg, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// validBucket accepts S3 style bucket names: 3 to 63 of [a-z0-9.-], alphanumeric at both ends
func validBucket(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 3 || len(s) > 63 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		alnum := c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
		if !alnum && ((c != '.' && c != '-') || i == 0 || i == len(s)-1) {
			return false
		}
	}
	return true
}

// validObjectKey accepts UTF-8 keys of at most MaxObjectKeyBytes bytes, not runes
func validObjectKey(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) <= MaxObjectKeyBytes && utf8.ValidString(s)
}

// ParseJSON decodes one JSON value from the body into T and validates it
// decode problems are JSON errors, rule violations are Validation errors carrying the field
func ParseJSON[T any](r *http.Request, o JSONOptions) (T, error) {
	var zero, dst T
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.C(r.Context()).Warn().Err(err).Msg("close request body")
		}
	}()

	limit := o.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limit))
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(&dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return zero, perr.JSONErrf("empty body")
		case errors.As(err, &tooBig):
			return zero, perr.JSONErrf("body exceeds %d bytes", tooBig.Limit)
		}
		return zero, perr.Wrap(err, perr.ErrorCodeJSON, "invalid JSON")
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}

	if err := Validate(r.Context(), dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Validate runs the struct rules on v; a violation is a Validation error carrying the field
func Validate(ctx context.Context, v any) error {
	err := Get().V.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.C(ctx).Error().Err(err).Msg("validator misuse")
		return perr.Internalf("cannot validate %T", v)
	}
	field, msg := FirstViolation(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// FirstViolation returns the namespace and translated message of the first rule err reports
func FirstViolation(err error) (field, msg string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		return ns, fe.Translate(Get().Trans)
	}
	if err == nil {
		return "", ""
	}
	return "", err.Error()
}
