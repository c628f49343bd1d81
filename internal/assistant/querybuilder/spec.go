// internal/assistant/querybuilder/spec.go
package querybuilder

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidQuerySpec = errors.New("INVALID_QUERY_SPEC")

type Field string

const (
	FieldFirstName      Field = "first_name"
	FieldDate           Field = "date"
	FieldWeekday        Field = "weekday"
	FieldStartTime      Field = "start_time"
	FieldLoadPercentage Field = "load_percentage"
)

var allowedFields = map[Field]struct{}{
	FieldFirstName:      {},
	FieldDate:           {},
	FieldWeekday:        {},
	FieldStartTime:      {},
	FieldLoadPercentage: {},
}

func (f Field) Valid() bool {
	_, ok := allowedFields[f]
	return ok
}

type Operator string

const (
	OpEqual        Operator = "="
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
)

func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpGreaterEqual, OpLessEqual:
		return true
	}
	return false
}

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Predicate compares a field against a named bound parameter.
type Predicate struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Param    string   `json:"param"`
}

type OrderTerm struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

// QuerySpec is a compiled meeting query. Predicates are joined with AND.
// Values only travel in params, never in the predicate text.
type QuerySpec struct {
	predicates []Predicate
	params     map[string]interface{}
	orderBy    []OrderTerm
	limit      int
}

func (q QuerySpec) Predicates() []Predicate {
	return append([]Predicate(nil), q.predicates...)
}

func (q QuerySpec) Params() map[string]interface{} {
	out := make(map[string]interface{}, len(q.params))
	for k, v := range q.params {
		out[k] = v
	}
	return out
}

func (q QuerySpec) Param(name string) (interface{}, bool) {
	v, ok := q.params[name]
	return v, ok
}

func (q QuerySpec) OrderBy() []OrderTerm {
	return append([]OrderTerm(nil), q.orderBy...)
}

func (q QuerySpec) Limit() int {
	return q.limit
}

// Validate checks fields against the allowlist and that every predicate has
// a bound value.
func (q QuerySpec) Validate() error {
	if q.limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuerySpec, q.limit)
	}
	for _, p := range q.predicates {
		if !p.Field.Valid() {
			return fmt.Errorf("%w: field %q not allowed", ErrInvalidQuerySpec, p.Field)
		}
		if !p.Operator.Valid() {
			return fmt.Errorf("%w: operator %q not allowed", ErrInvalidQuerySpec, p.Operator)
		}
		v, ok := q.params[p.Param]
		if !ok {
			return fmt.Errorf("%w: no value bound for %q", ErrInvalidQuerySpec, p.Param)
		}
		switch v.(type) {
		case string, float64:
		default:
			return fmt.Errorf("%w: unsupported value type %T for %q", ErrInvalidQuerySpec, v, p.Param)
		}
	}
	for _, o := range q.orderBy {
		if !o.Field.Valid() {
			return fmt.Errorf("%w: order field %q not allowed", ErrInvalidQuerySpec, o.Field)
		}
		if o.Direction != Asc && o.Direction != Desc {
			return fmt.Errorf("%w: direction %q not allowed", ErrInvalidQuerySpec, o.Direction)
		}
	}
	return nil
}

type wireSpec struct {
	Predicates []Predicate            `json:"predicates"`
	Params     map[string]interface{} `json:"params"`
	OrderBy    []OrderTerm            `json:"orderBy"`
	Limit      int                    `json:"limit"`
}

func (q QuerySpec) MarshalJSON() ([]byte, error) {
	predicates := q.predicates
	if predicates == nil {
		predicates = []Predicate{}
	}
	params := q.params
	if params == nil {
		params = map[string]interface{}{}
	}
	return json.Marshal(wireSpec{
		Predicates: predicates,
		Params:     params,
		OrderBy:    q.orderBy,
		Limit:      q.limit,
	})
}

// UnmarshalJSON rejects specs that would not pass Validate.
func (q *QuerySpec) UnmarshalJSON(data []byte) error {
	var w wireSpec
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuerySpec, err)
	}
	spec := QuerySpec{
		predicates: w.Predicates,
		params:     w.Params,
		orderBy:    w.OrderBy,
		limit:      w.Limit,
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	*q = spec
	return nil
}
