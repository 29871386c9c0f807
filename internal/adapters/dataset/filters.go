package dataset

import "github.com/okian/transformdiag/internal/domain/record"

// WithLogScale keeps rows whose log_scale cell equals v. An empty v keeps all.
func WithLogScale(v string) record.Predicate {
	return optional("log_scale", v)
}

// WithEstimate keeps rows of one estimate kind. An empty v keeps all.
func WithEstimate(v string) record.Predicate {
	return optional("estimate", v)
}

// WithTarget keeps rows of one target distribution. An empty v keeps all.
func WithTarget(v string) record.Predicate {
	return optional("target", v)
}

func optional(field, v string) record.Predicate {
	if v == "" {
		return func(record.Record) bool { return true }
	}
	return record.FieldEquals(field, v)
}
