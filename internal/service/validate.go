package service

import (
	"fmt"
	"strings"

	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

const msgRequired = "This field is required."

// fieldErrors collects per-field validation messages in the
// {"field": ["message"]} shape API consumers parse.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) require(rec domain.Record, fields ...string) {
	for _, field := range fields {
		v, ok := rec[field]
		if !ok || v == nil {
			f.add(field, msgRequired)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			f.add(field, "This field may not be blank.")
		}
	}
}

func (f fieldErrors) choice(rec domain.Record, field string, choices ...string) {
	v, ok := rec[field]
	if !ok || v == nil {
		return
	}
	s := fmt.Sprint(v)
	for _, c := range choices {
		if s == c {
			return
		}
	}
	f.add(field, fmt.Sprintf("%q is not a valid choice.", s))
}

func (f fieldErrors) positive(rec domain.Record, field string) {
	if _, ok := rec[field]; !ok {
		return
	}
	if domain.FloatField(rec, field) <= 0 {
		f.add(field, "Ensure this value is greater than 0.")
	}
}

func (f fieldErrors) nonNegative(rec domain.Record, field string) {
	if _, ok := rec[field]; !ok {
		return
	}
	if domain.FloatField(rec, field) < 0 {
		f.add(field, "Ensure this value is greater than or equal to 0.")
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewFieldErrors(f)
}

// pick copies the allowed keys of rec.
func pick(rec domain.Record, keys ...string) domain.Record {
	out := make(domain.Record, len(keys))
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			out[k] = v
		}
	}
	return out
}
