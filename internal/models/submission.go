package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/yyvfuruta/intake/internal/validator"
)

// DateLayout is the form in which appointment dates are received and emitted.
const DateLayout = "2006-01-02"

const (
	nameMinLength = 2
	nameMaxLength = 100
)

// Field keys used in validation errors.
const (
	FieldName            = "name"
	FieldGender          = "gender"
	FieldBloodType       = "bloodType"
	FieldTermsAccepted   = "termsAccepted"
	FieldAppointmentDate = "appointmentDate"
)

const (
	MsgNameTooShort    = "name must be at least 2 characters"
	MsgNameTooLong     = "name must be at most 100 characters"
	MsgGender          = "select a gender option"
	MsgBloodType       = "select a blood-type option"
	MsgTermsAccepted   = "you must accept the terms"
	MsgAppointmentDate = "select a date after today"
)

type Gender string

const (
	GenderMale        Gender = "Masculino"
	GenderFemale      Gender = "Feminino"
	GenderUndisclosed Gender = "Prefiro não responder"
)

// Genders lists every accepted gender in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderUndisclosed}

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

// BloodTypes lists every accepted blood type in display order.
var BloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

// RawSubmission holds the field values as received from the form, before any
// validation. TermsAccepted is left untyped so that non-boolean input reaches
// validation instead of failing to decode.
type RawSubmission struct {
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	BloodType       string `json:"bloodType"`
	TermsAccepted   any    `json:"termsAccepted"`
	AppointmentDate string `json:"appointmentDate"`
}

// Submission is a fully validated and normalized RawSubmission.
type Submission struct {
	Name            string    `json:"name"`
	Gender          Gender    `json:"gender"`
	BloodType       BloodType `json:"bloodType"`
	TermsAccepted   bool      `json:"termsAccepted"`
	AppointmentDate string    `json:"appointmentDate"`
}

var nameField = validator.Field[string, string]{
	Key: FieldName,
	Rules: []validator.Rule[string]{
		{
			Check:   func(s string) bool { return validator.MinLength(strings.TrimSpace(s), nameMinLength) },
			Message: MsgNameTooShort,
		},
		{
			Check:   func(s string) bool { return validator.MaxLength(strings.TrimSpace(s), nameMaxLength) },
			Message: MsgNameTooLong,
		},
	},
	Normalize: NormalizeName,
}

var genderField = validator.Field[string, Gender]{
	Key: FieldGender,
	Rules: []validator.Rule[string]{
		{
			Check:   func(s string) bool { return validator.PermittedValue(Gender(s), Genders...) },
			Message: MsgGender,
		},
	},
	Normalize: func(s string) Gender { return Gender(s) },
}

var bloodTypeField = validator.Field[string, BloodType]{
	Key: FieldBloodType,
	Rules: []validator.Rule[string]{
		{
			Check:   func(s string) bool { return validator.PermittedValue(BloodType(s), BloodTypes...) },
			Message: MsgBloodType,
		},
	},
	Normalize: func(s string) BloodType { return BloodType(s) },
}

var termsField = validator.Field[any, bool]{
	Key: FieldTermsAccepted,
	Rules: []validator.Rule[any]{
		{
			Check: func(v any) bool {
				accepted, ok := v.(bool)
				return ok && accepted
			},
			Message: MsgTermsAccepted,
		},
	},
	Normalize: func(any) bool { return true },
}

// appointmentDateField is built per call because its rule depends on now.
func appointmentDateField(now time.Time) validator.Field[string, string] {
	return validator.Field[string, string]{
		Key: FieldAppointmentDate,
		Rules: []validator.Rule[string]{
			{
				Check: func(s string) bool {
					t, err := ParseAppointmentDate(s)
					return err == nil && t.After(now)
				},
				Message: MsgAppointmentDate,
			},
		},
		Normalize: func(s string) string {
			t, _ := ParseAppointmentDate(s)
			return t.UTC().Format(DateLayout)
		},
	}
}

// ValidateSubmission checks every field of raw independently, recording one
// message per invalid field in v. It returns the normalized submission only
// when all fields passed.
func ValidateSubmission(v *validator.Validator, raw *RawSubmission, now time.Time) *Submission {
	name, _ := nameField.Validate(v, raw.Name)
	gender, _ := genderField.Validate(v, raw.Gender)
	bloodType, _ := bloodTypeField.Validate(v, raw.BloodType)
	terms, _ := termsField.Validate(v, raw.TermsAccepted)
	date, _ := appointmentDateField(now).Validate(v, raw.AppointmentDate)

	if !v.Valid() {
		return nil
	}

	return &Submission{
		Name:            name,
		Gender:          gender,
		BloodType:       bloodType,
		TermsAccepted:   terms,
		AppointmentDate: date,
	}
}

// Validate is ValidateSubmission with a fresh validator. On failure the error
// is a *validator.ValidationError.
func Validate(raw RawSubmission, now time.Time) (*Submission, error) {
	v := validator.New()
	sub := ValidateSubmission(v, &raw, now)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return sub, nil
}

// NormalizeName trims s, collapses runs of whitespace to a single space and
// upper-cases the first letter of every word. The rest of each word is left
// as typed.
func NormalizeName(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// ParseAppointmentDate accepts a calendar date in DateLayout, read as UTC
// midnight, or a full RFC 3339 timestamp.
func ParseAppointmentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
