package profile

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUnknownField     = errors.New("unknown profile field")
	ErrVerificationOnly = errors.New("field is changed only through verification")
	ErrInvalidValue     = errors.New("invalid profile field value")
)

type Profile struct {
	ID              int       `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Bio             string    `json:"bio"`
	Location        string    `json:"location"`
	Phone           *string   `json:"phone"`
	Specialties     []string  `json:"specialties"`
	Languages       []string  `json:"languages"`
	Height          *float64  `json:"height"`
	Weight          *float64  `json:"weight"`
	ExperienceYears *float64  `json:"experienceYears"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Field string

const (
	FieldEmail           Field = "email"
	FieldFirstName       Field = "firstName"
	FieldLastName        Field = "lastName"
	FieldBio             Field = "bio"
	FieldLocation        Field = "location"
	FieldPhone           Field = "phone"
	FieldSpecialties     Field = "specialties"
	FieldLanguages       Field = "languages"
	FieldHeight          Field = "height"
	FieldWeight          Field = "weight"
	FieldExperienceYears Field = "experienceYears"
)

// FieldSpec describes one editable field of a profile.
type FieldSpec struct {
	Field  Field
	Column string
	Kind   ValueKind
	Label  string
	// Nullable fields also accept a null Value.
	Nullable bool
	// Required fields are always sent with a save, taken from the baseline
	// when they were not edited.
	Required bool
	// VerificationOnly fields cannot be edited directly.
	VerificationOnly bool
	// Min and Max bound number fields, both exclusive unless MinInclusive.
	Min, Max     float64
	MinInclusive bool

	get func(p *Profile) Value
	set func(p *Profile, v Value)
}

var fieldSpecs = []FieldSpec{
	{
		Field: FieldEmail, Column: "email", Kind: KindString, Label: "Email",
		VerificationOnly: true,
		get:              func(p *Profile) Value { return String(p.Email) },
		set:              func(p *Profile, v Value) { p.Email = v.AsString() },
	},
	{
		Field: FieldFirstName, Column: "first_name", Kind: KindString, Label: "First name",
		Required: true,
		get:      func(p *Profile) Value { return String(p.FirstName) },
		set:      func(p *Profile, v Value) { p.FirstName = v.AsString() },
	},
	{
		Field: FieldLastName, Column: "last_name", Kind: KindString, Label: "Last name",
		Required: true,
		get:      func(p *Profile) Value { return String(p.LastName) },
		set:      func(p *Profile, v Value) { p.LastName = v.AsString() },
	},
	{
		Field: FieldBio, Column: "bio", Kind: KindString, Label: "Bio",
		get: func(p *Profile) Value { return String(p.Bio) },
		set: func(p *Profile, v Value) { p.Bio = v.AsString() },
	},
	{
		Field: FieldLocation, Column: "location", Kind: KindString, Label: "Location",
		get: func(p *Profile) Value { return String(p.Location) },
		set: func(p *Profile, v Value) { p.Location = v.AsString() },
	},
	{
		Field: FieldPhone, Column: "phone", Kind: KindString, Label: "Phone",
		Nullable: true,
		get:      func(p *Profile) Value { return stringPtrValue(p.Phone) },
		set:      func(p *Profile, v Value) { p.Phone = valueStringPtr(v) },
	},
	{
		Field: FieldSpecialties, Column: "specialties", Kind: KindStrings, Label: "Specialties",
		get: func(p *Profile) Value { return Strings(p.Specialties...) },
		set: func(p *Profile, v Value) { p.Specialties = v.AsStrings() },
	},
	{
		Field: FieldLanguages, Column: "languages", Kind: KindStrings, Label: "Languages",
		get: func(p *Profile) Value { return Strings(p.Languages...) },
		set: func(p *Profile, v Value) { p.Languages = v.AsStrings() },
	},
	{
		Field: FieldHeight, Column: "height", Kind: KindNumber, Label: "Height (cm)",
		Nullable: true, Min: 0, Max: 300,
		get: func(p *Profile) Value { return numberPtrValue(p.Height) },
		set: func(p *Profile, v Value) { p.Height = valueNumberPtr(v) },
	},
	{
		Field: FieldWeight, Column: "weight", Kind: KindNumber, Label: "Weight (kg)",
		Nullable: true, Min: 0, Max: 500,
		get: func(p *Profile) Value { return numberPtrValue(p.Weight) },
		set: func(p *Profile, v Value) { p.Weight = valueNumberPtr(v) },
	},
	{
		Field: FieldExperienceYears, Column: "experience_years", Kind: KindNumber, Label: "Experience (years)",
		Nullable: true, Min: 0, Max: 100, MinInclusive: true,
		get: func(p *Profile) Value { return numberPtrValue(p.ExperienceYears) },
		set: func(p *Profile, v Value) { p.ExperienceYears = valueNumberPtr(v) },
	},
}

var fieldSpecsByField = func() map[Field]*FieldSpec {
	m := make(map[Field]*FieldSpec, len(fieldSpecs))
	for i := range fieldSpecs {
		m[fieldSpecs[i].Field] = &fieldSpecs[i]
	}
	return m
}()

// Fields returns all profile fields in display order.
func Fields() []FieldSpec {
	specs := make([]FieldSpec, len(fieldSpecs))
	copy(specs, fieldSpecs)
	return specs
}

func SpecOf(field Field) (FieldSpec, bool) {
	spec, ok := fieldSpecsByField[field]
	if !ok {
		return FieldSpec{}, false
	}
	return *spec, true
}

// RequiredFields returns the fields every save payload must carry.
func RequiredFields() []Field {
	var required []Field
	for _, spec := range fieldSpecs {
		if spec.Required {
			required = append(required, spec.Field)
		}
	}
	return required
}

// CheckField reports whether field can be edited directly.
func CheckField(field Field) error {
	spec, ok := fieldSpecsByField[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if spec.VerificationOnly {
		return fmt.Errorf("%w: %s", ErrVerificationOnly, field)
	}
	return nil
}

// CheckKind reports whether v has the right shape for field. Value ranges
// are not checked.
func CheckKind(field Field, v Value) error {
	if err := CheckField(field); err != nil {
		return err
	}
	spec := fieldSpecsByField[field]

	if v.IsNull() {
		if !spec.Nullable {
			return fmt.Errorf("%w: %s cannot be null", ErrInvalidValue, field)
		}
		return nil
	}
	if v.Kind() != spec.Kind {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrInvalidValue, field, spec.Kind, v.Kind())
	}
	return nil
}

// CheckValue reports whether v can be set directly on field.
func CheckValue(field Field, v Value) error {
	if err := CheckKind(field, v); err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}

	spec := fieldSpecsByField[field]
	switch spec.Kind {
	case KindNumber:
		n := v.AsNumber()
		lowOK := n > spec.Min || (spec.MinInclusive && n == spec.Min)
		if !lowOK || n >= spec.Max {
			return fmt.Errorf("%w: %s out of range: %g", ErrInvalidValue, field, n)
		}
	case KindStrings:
		if slices.Contains(v.AsStrings(), "") {
			return fmt.Errorf("%w: %s contains an empty entry", ErrInvalidValue, field)
		}
	}

	return nil
}

// Get returns the current value of field, or null for unknown fields.
func (p *Profile) Get(field Field) Value {
	spec, ok := fieldSpecsByField[field]
	if !ok {
		return Null()
	}
	return spec.get(p)
}

// Apply sets a directly editable field.
func (p *Profile) Apply(field Field, v Value) error {
	if err := CheckValue(field, v); err != nil {
		return err
	}
	fieldSpecsByField[field].set(p, v)
	return nil
}

// Set is Apply without the range checks. Drafts use it, so they can hold
// whatever the user typed until the server says otherwise.
func (p *Profile) Set(field Field, v Value) error {
	if err := CheckKind(field, v); err != nil {
		return err
	}
	fieldSpecsByField[field].set(p, v)
	return nil
}

// ApplyInput applies all fields of in, stopping at the first invalid one.
func (p *Profile) ApplyInput(in Input) error {
	for _, field := range in.Fields() {
		if err := p.Apply(field, in[field]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Phone = clonePtr(p.Phone)
	c.Height = clonePtr(p.Height)
	c.Weight = clonePtr(p.Weight)
	c.ExperienceYears = clonePtr(p.ExperienceYears)
	c.Specialties = slices.Clone(p.Specialties)
	c.Languages = slices.Clone(p.Languages)
	return &c
}

func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

func sortFields(fields []Field) {
	sort.Slice(fields, func(i, j int) bool {
		return fields[i] < fields[j]
	})
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func stringPtrValue(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

func valueStringPtr(v Value) *string {
	if v.IsNull() {
		return nil
	}
	s := v.AsString()
	return &s
}

func numberPtrValue(n *float64) Value {
	if n == nil {
		return Null()
	}
	return Number(*n)
}

func valueNumberPtr(v Value) *float64 {
	if v.IsNull() {
		return nil
	}
	n := v.AsNumber()
	return &n
}
