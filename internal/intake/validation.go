package intake

import (
	"context"
	"fmt"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"
	"time"

	"homecare/pkg/types"

	"github.com/go-playground/validator/v10"
)

// Lookup answers referential-existence checks for foreign-key fields.
type Lookup interface {
	Exists(ctx context.Context, entity types.Entity, id int64) (bool, error)
}

// ValidationErrors maps a field name to every constraint message it violated.
type ValidationErrors map[string][]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

func (e ValidationErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e ValidationErrors) Has(field string) bool {
	return len(e[field]) > 0
}

// FieldRule is the ordered constraint list for a single payload field.
type FieldRule struct {
	Field       string
	Constraints []Constraint
}

// ValidationSpec is the declarative rule set of a category. Fields are
// checked in order; Exclusive groups run after every field rule.
type ValidationSpec struct {
	Fields    []FieldRule
	Exclusive []ExclusiveGroup
}

// ExclusiveGroup requires exactly one of Fields to be present. A violation
// is reported on every field in the group.
type ExclusiveGroup struct {
	Fields []string
}

// Field starts a FieldRule.
func Field(name string, constraints ...Constraint) FieldRule {
	return FieldRule{Field: name, Constraints: constraints}
}

// Merge concatenates specs in order.
func Merge(specs ...ValidationSpec) ValidationSpec {
	var out ValidationSpec
	for _, spec := range specs {
		out.Fields = append(out.Fields, spec.Fields...)
		out.Exclusive = append(out.Exclusive, spec.Exclusive...)
	}
	return out
}

// check is the state a constraint sees while it runs.
type check struct {
	field    string
	value    any
	present  bool
	payload  Payload
	lookup   Lookup
	validate *validator.Validate
	now      time.Time
	grace    time.Duration
}

// Constraint is a single declarative predicate on a field. Implicit
// constraints run even when the field is absent; the rest are skipped for
// absent fields. A non-empty message is a violation; an error aborts
// validation (lookup failures). Volatile constraints depend on the clock or
// on lookup tables and are only rechecked for fields an update changes.
type Constraint struct {
	Name     string
	implicit bool
	volatile bool
	run      func(ctx context.Context, c *check) (string, error)
}

type Validator struct {
	lookup   Lookup
	validate *validator.Validate
	now      func() time.Time
	grace    time.Duration
}

// NewValidator builds a Validator. grace is how far in the past a
// not-before-now time may lie.
func NewValidator(lookup Lookup, grace time.Duration) *Validator {
	return &Validator{
		lookup:   lookup,
		validate: validator.New(),
		now:      time.Now,
		grace:    grace,
	}
}

// WithClock replaces the time source, mainly for tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate runs spec against p and collects every violation. The first
// failing constraint of a field stops that field's remaining constraints.
func (v *Validator) Validate(ctx context.Context, spec ValidationSpec, p Payload) (ValidationErrors, error) {
	return v.validateChanged(ctx, spec, p, nil)
}

// validateChanged runs spec against p. A nil changed set means every field is new.
func (v *Validator) validateChanged(ctx context.Context, spec ValidationSpec, p Payload, changed map[string]bool) (ValidationErrors, error) {
	errs := ValidationErrors{}
	now := v.now()

	for _, rule := range spec.Fields {
		c := &check{
			field:    rule.Field,
			value:    p[rule.Field],
			present:  p.Present(rule.Field),
			payload:  p,
			lookup:   v.lookup,
			validate: v.validate,
			now:      now,
			grace:    v.grace,
		}

		for _, constraint := range rule.Constraints {
			if !c.present && !constraint.implicit {
				continue
			}

			if constraint.volatile && changed != nil && !changed[rule.Field] {
				continue
			}

			msg, err := constraint.run(ctx, c)
			if err != nil {
				return nil, fmt.Errorf("failed to check %s on %s: %w", constraint.Name, rule.Field, err)
			}

			if msg != "" {
				errs.Add(rule.Field, msg)
				break
			}
		}
	}

	for _, group := range spec.Exclusive {
		checkExclusive(errs, p, group.Fields)
	}

	if len(errs) == 0 {
		return nil, nil
	}

	return errs, nil
}

// checkExclusive counts the present fields of a group; anything other than
// exactly one is reported on each field.
func checkExclusive(errs ValidationErrors, p Payload, fields []string) {
	count := 0
	for _, field := range fields {
		if p.Present(field) {
			count++
		}
	}

	if count == 1 {
		return
	}

	others := func(field string) string {
		out := make([]string, 0, len(fields)-1)
		for _, f := range fields {
			if f != field {
				out = append(out, f)
			}
		}
		return strings.Join(out, " / ")
	}

	for _, field := range fields {
		if count == 0 {
			errs.Add(field, fmt.Sprintf("The %s field is required when none of %s are present.", field, others(field)))
			continue
		}
		errs.Add(field, fmt.Sprintf("The %s field must not be combined with %s.", field, others(field)))
	}
}

// Condition is a named predicate over the whole payload.
type Condition struct {
	Desc string
	Fn   func(Payload) bool
}

// Filled holds when field is present.
func Filled(field string) Condition {
	return Condition{
		Desc: field + " is present",
		Fn:   func(p Payload) bool { return p.Present(field) },
	}
}

// Truthy holds when field coerces to true.
func Truthy(field string) Condition {
	return Condition{
		Desc: field + " is true",
		Fn:   func(p Payload) bool { return p.Bool(field) },
	}
}

// Equals holds when field's string value equals value.
func Equals(field, value string) Condition {
	return Condition{
		Desc: fmt.Sprintf("%s is %s", field, value),
		Fn: func(p Payload) bool {
			s := p.String(field)
			return s != nil && *s == value
		},
	}
}

// Not negates a condition.
func Not(cond Condition) Condition {
	return Condition{
		Desc: "not " + cond.Desc,
		Fn:   func(p Payload) bool { return !cond.Fn(p) },
	}
}

// AnyOf holds when at least one condition holds.
func AnyOf(conds ...Condition) Condition {
	descs := make([]string, len(conds))
	for i, cond := range conds {
		descs[i] = cond.Desc
	}

	return Condition{
		Desc: strings.Join(descs, " or "),
		Fn: func(p Payload) bool {
			for _, cond := range conds {
				if cond.Fn(p) {
					return true
				}
			}
			return false
		},
	}
}

// AllOf holds when every condition holds.
func AllOf(conds ...Condition) Condition {
	descs := make([]string, len(conds))
	for i, cond := range conds {
		descs[i] = cond.Desc
	}

	return Condition{
		Desc: strings.Join(descs, " and "),
		Fn: func(p Payload) bool {
			for _, cond := range conds {
				if !cond.Fn(p) {
					return false
				}
			}
			return true
		},
	}
}

func Required() Constraint {
	return Constraint{
		Name:     "required",
		implicit: true,
		run: func(_ context.Context, c *check) (string, error) {
			if c.present {
				return "", nil
			}
			return fmt.Sprintf("The %s field is required.", c.field), nil
		},
	}
}

// RequiredIf makes the field required while cond holds.
func RequiredIf(cond Condition) Constraint {
	return Constraint{
		Name:     "required_if",
		implicit: true,
		run: func(_ context.Context, c *check) (string, error) {
			if c.present || !cond.Fn(c.payload) {
				return "", nil
			}
			return fmt.Sprintf("The %s field is required when %s.", c.field, cond.Desc), nil
		},
	}
}

// RequiredUnless makes the field required unless cond holds.
func RequiredUnless(cond Condition) Constraint {
	return Constraint{
		Name:     "required_unless",
		implicit: true,
		run: func(_ context.Context, c *check) (string, error) {
			if c.present || cond.Fn(c.payload) {
				return "", nil
			}
			return fmt.Sprintf("The %s field is required unless %s.", c.field, cond.Desc), nil
		},
	}
}

// RequiredWithout makes the field required when any of others is absent.
func RequiredWithout(others ...string) Constraint {
	return Constraint{
		Name:     "required_without",
		implicit: true,
		run: func(_ context.Context, c *check) (string, error) {
			if c.present {
				return "", nil
			}
			for _, other := range others {
				if !c.payload.Present(other) {
					return fmt.Sprintf("The %s field is required when %s is not present.", c.field, other), nil
				}
			}
			return "", nil
		},
	}
}

// RequiredWithoutAll makes the field required when every one of others is absent.
func RequiredWithoutAll(others ...string) Constraint {
	return Constraint{
		Name:     "required_without_all",
		implicit: true,
		run: func(_ context.Context, c *check) (string, error) {
			if c.present {
				return "", nil
			}
			for _, other := range others {
				if c.payload.Present(other) {
					return "", nil
				}
			}
			return fmt.Sprintf("The %s field is required when none of %s are present.", c.field, strings.Join(others, " / ")), nil
		},
	}
}

func Integer() Constraint {
	return Constraint{
		Name: "integer",
		run: func(_ context.Context, c *check) (string, error) {
			if _, ok := toInt64(c.value); ok {
				return "", nil
			}
			return fmt.Sprintf("The %s must be an integer.", c.field), nil
		},
	}
}

func Numeric() Constraint {
	return Constraint{
		Name: "numeric",
		run: func(_ context.Context, c *check) (string, error) {
			if _, ok := toFloat64(c.value); ok {
				return "", nil
			}
			return fmt.Sprintf("The %s must be a number.", c.field), nil
		},
	}
}

// String requires a string no longer than max characters.
func String(max int) Constraint {
	return Constraint{
		Name: "string",
		run: func(_ context.Context, c *check) (string, error) {
			s, ok := c.value.(string)
			if !ok {
				return fmt.Sprintf("The %s must be a string.", c.field), nil
			}
			if err := c.validate.Var(strings.TrimSpace(s), "max="+strconv.Itoa(max)); err != nil {
				return fmt.Sprintf("The %s may not be greater than %d characters.", c.field, max), nil
			}
			return "", nil
		},
	}
}

func Boolean() Constraint {
	return Constraint{
		Name: "boolean",
		run: func(_ context.Context, c *check) (string, error) {
			if _, ok := parseBoolean(c.value); ok {
				return "", nil
			}
			return fmt.Sprintf("The %s field must be true or false.", c.field), nil
		},
	}
}

func Date() Constraint {
	return Constraint{
		Name: "date",
		run: func(_ context.Context, c *check) (string, error) {
			if _, ok := toTime(c.value); ok {
				return "", nil
			}
			return fmt.Sprintf("The %s is not a valid date.", c.field), nil
		},
	}
}

// In restricts a string field to the listed values.
func In(values ...string) Constraint {
	tag := "oneof=" + strings.Join(values, " ")
	return Constraint{
		Name: "in",
		run: func(_ context.Context, c *check) (string, error) {
			s, ok := toString(c.value)
			if !ok || c.validate.Var(s, tag) != nil {
				return fmt.Sprintf("The selected %s is invalid.", c.field), nil
			}
			return "", nil
		},
	}
}

// IntIn restricts an integer field to the listed values.
func IntIn(values ...int) Constraint {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	tag := "oneof=" + strings.Join(parts, " ")

	return Constraint{
		Name: "in",
		run: func(_ context.Context, c *check) (string, error) {
			n, ok := toInt64(c.value)
			if !ok || c.validate.Var(int(n), tag) != nil {
				return fmt.Sprintf("The selected %s is invalid.", c.field), nil
			}
			return "", nil
		},
	}
}

// Between bounds a numeric field inclusively.
func Between(min, max float64) Constraint {
	tag := fmt.Sprintf("gte=%s,lte=%s", formatBound(min), formatBound(max))
	return Constraint{
		Name: "between",
		run: func(_ context.Context, c *check) (string, error) {
			f, ok := toFloat64(c.value)
			if !ok || c.validate.Var(f, tag) != nil {
				return fmt.Sprintf("The %s must be between %s and %s.", c.field, formatBound(min), formatBound(max)), nil
			}
			return "", nil
		},
	}
}

// Min bounds a numeric field from below, inclusively.
func Min(min float64) Constraint {
	tag := "gte=" + formatBound(min)
	return Constraint{
		Name: "min",
		run: func(_ context.Context, c *check) (string, error) {
			f, ok := toFloat64(c.value)
			if !ok || c.validate.Var(f, tag) != nil {
				return fmt.Sprintf("The %s must be at least %s.", c.field, formatBound(min)), nil
			}
			return "", nil
		},
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// After requires a date strictly later than the date in other. It passes
// when other is absent or unparseable; other's own rules report that.
func After(other string) Constraint {
	return Constraint{
		Name: "after",
		run: func(_ context.Context, c *check) (string, error) {
			value, ok := toTime(c.value)
			if !ok {
				return fmt.Sprintf("The %s is not a valid date.", c.field), nil
			}
			ref := c.payload.Time(other)
			if ref == nil || value.After(*ref) {
				return "", nil
			}
			return fmt.Sprintf("The %s must be a date after %s.", c.field, other), nil
		},
	}
}

// NotBeforeNow requires a time no earlier than now minus the validator's grace.
func NotBeforeNow() Constraint {
	return Constraint{
		Name:     "after_or_equal_now",
		volatile: true,
		run: func(_ context.Context, c *check) (string, error) {
			value, ok := toTime(c.value)
			if !ok {
				return fmt.Sprintf("The %s is not a valid date.", c.field), nil
			}
			if value.Before(c.now.Add(-c.grace)) {
				return fmt.Sprintf("The %s must be a date after or equal to now.", c.field), nil
			}
			return "", nil
		},
	}
}

// Exists requires the referenced entity to resolve through the lookup.
func Exists(entity types.Entity) Constraint {
	return Constraint{
		Name:     "exists",
		volatile: true,
		run: func(ctx context.Context, c *check) (string, error) {
			id, ok := toInt64(c.value)
			if !ok {
				return fmt.Sprintf("The %s must be an integer.", c.field), nil
			}
			found, err := c.lookup.Exists(ctx, entity, id)
			if err != nil {
				return "", err
			}
			if !found {
				return fmt.Sprintf("The selected %s is invalid.", c.field), nil
			}
			return "", nil
		},
	}
}

// FilePath requires an already-stored file reference, never a raw upload.
func FilePath() Constraint {
	return Constraint{
		Name: "file_path",
		run: func(_ context.Context, c *check) (string, error) {
			if _, ok := c.value.(string); ok {
				return "", nil
			}
			if _, ok := c.value.(*multipart.FileHeader); ok {
				return fmt.Sprintf("The %s upload was not stored.", c.field), nil
			}
			return fmt.Sprintf("The %s must be a file path.", c.field), nil
		},
	}
}

// FileList requires a path, a list of paths, or a JSON-encoded list of paths.
func FileList(max int) Constraint {
	return Constraint{
		Name: "file_list",
		run: func(_ context.Context, c *check) (string, error) {
			if s, ok := c.value.(string); ok && looksLikeJSONArray(strings.TrimSpace(s)) && !validJSONArray(strings.TrimSpace(s)) {
				return fmt.Sprintf("The %s must be a valid JSON array.", c.field), nil
			}
			switch c.value.(type) {
			case string, []string, []any:
			default:
				return fmt.Sprintf("The %s must be a list of files.", c.field), nil
			}
			if files := NormalizeFileList(c.value); len(files) > max {
				return fmt.Sprintf("The %s may not have more than %d items.", c.field, max), nil
			}
			return "", nil
		},
	}
}

// IntList requires a list of integers, natively or JSON-encoded.
func IntList() Constraint {
	return Constraint{
		Name: "int_list",
		run: func(_ context.Context, c *check) (string, error) {
			if s, ok := c.value.(string); ok && looksLikeJSONArray(strings.TrimSpace(s)) && !validJSONArray(strings.TrimSpace(s)) {
				return fmt.Sprintf("The %s must be a valid JSON array.", c.field), nil
			}
			if NormalizeIntList(c.value) == nil {
				return fmt.Sprintf("The %s must be a list of integers.", c.field), nil
			}
			return "", nil
		},
	}
}

// EachExists checks every id in an integer list against the lookup.
func EachExists(entity types.Entity) Constraint {
	return Constraint{
		Name:     "each_exists",
		volatile: true,
		run: func(ctx context.Context, c *check) (string, error) {
			for _, id := range NormalizeIntList(c.value) {
				found, err := c.lookup.Exists(ctx, entity, id)
				if err != nil {
					return "", err
				}
				if !found {
					return fmt.Sprintf("The selected %s entry %d is invalid.", c.field, id), nil
				}
			}
			return "", nil
		},
	}
}
