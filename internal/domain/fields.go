package domain

import (
	"fmt"
	"math"
)

// fieldSpec describes one mutable MatchEvent field: how to read it, compare
// two values, and write a (possibly JSON-decoded) value back. The aggregator
// diffs with this table and the projector applies edits with it, so the two
// cannot drift apart.
type fieldSpec struct {
	name  string
	get   func(*MatchEvent) any
	equal func(a, b any) bool
	set   func(*MatchEvent, any) error
}

// eventFields covers every MatchEvent field except the immutable identifiers
// (event_id, local_event_id). Scalars compare on the canonical value, floats
// use IEEE equality (the feed echoes bit-identical values when unchanged),
// qualifiers compare as multisets.
var eventFields = []fieldSpec{
	{
		name:  "type_id",
		get:   func(e *MatchEvent) any { return e.TypeID },
		equal: intEqual,
		set: func(e *MatchEvent, v any) error {
			n, err := asInt(v)
			if err != nil {
				return err
			}
			e.TypeID = n
			return nil
		},
	},
	{
		name:  "period_id",
		get:   func(e *MatchEvent) any { return e.PeriodID },
		equal: intEqual,
		set: func(e *MatchEvent, v any) error {
			n, err := asInt(v)
			if err != nil {
				return err
			}
			e.PeriodID = n
			return nil
		},
	},
	{
		name:  "time_min",
		get:   func(e *MatchEvent) any { return e.TimeMin },
		equal: intEqual,
		set: func(e *MatchEvent, v any) error {
			n, err := asInt(v)
			if err != nil {
				return err
			}
			e.TimeMin = n
			return nil
		},
	},
	{
		name:  "time_sec",
		get:   func(e *MatchEvent) any { return e.TimeSec },
		equal: intEqual,
		set: func(e *MatchEvent, v any) error {
			n, err := asInt(v)
			if err != nil {
				return err
			}
			e.TimeSec = n
			return nil
		},
	},
	{
		name:  "contestant_id",
		get:   func(e *MatchEvent) any { return e.ContestantID },
		equal: stringEqual,
		set: func(e *MatchEvent, v any) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			e.ContestantID = s
			return nil
		},
	},
	{
		name:  "player_id",
		get:   func(e *MatchEvent) any { return e.PlayerID },
		equal: stringEqual,
		set: func(e *MatchEvent, v any) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			e.PlayerID = s
			return nil
		},
	},
	{
		name:  "player_name",
		get:   func(e *MatchEvent) any { return e.PlayerName },
		equal: stringEqual,
		set: func(e *MatchEvent, v any) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			e.PlayerName = s
			return nil
		},
	},
	{
		name:  "outcome",
		get:   func(e *MatchEvent) any { return e.Outcome },
		equal: intPtrEqual,
		set: func(e *MatchEvent, v any) error {
			p, err := asIntPtr(v)
			if err != nil {
				return err
			}
			e.Outcome = p
			return nil
		},
	},
	{
		name:  "x",
		get:   func(e *MatchEvent) any { return e.X },
		equal: floatPtrEqual,
		set: func(e *MatchEvent, v any) error {
			p, err := asFloatPtr(v)
			if err != nil {
				return err
			}
			e.X = p
			return nil
		},
	},
	{
		name:  "y",
		get:   func(e *MatchEvent) any { return e.Y },
		equal: floatPtrEqual,
		set: func(e *MatchEvent, v any) error {
			p, err := asFloatPtr(v)
			if err != nil {
				return err
			}
			e.Y = p
			return nil
		},
	},
	{
		name: "qualifiers",
		get:  func(e *MatchEvent) any { return e.Qualifiers },
		equal: func(a, b any) bool {
			qa, errA := asQualifiers(a)
			qb, errB := asQualifiers(b)
			if errA != nil || errB != nil {
				return false
			}
			return QualifiersEqual(qa, qb)
		},
		set: func(e *MatchEvent, v any) error {
			qs, err := asQualifiers(v)
			if err != nil {
				return err
			}
			e.Qualifiers = qs
			return nil
		},
	},
	{
		name:  "time_stamp",
		get:   func(e *MatchEvent) any { return e.TimeStamp },
		equal: stringPtrEqual,
		set: func(e *MatchEvent, v any) error {
			p, err := asStringPtr(v)
			if err != nil {
				return err
			}
			e.TimeStamp = p
			return nil
		},
	},
	{
		name:  "last_modified",
		get:   func(e *MatchEvent) any { return e.LastModified },
		equal: stringPtrEqual,
		set: func(e *MatchEvent, v any) error {
			p, err := asStringPtr(v)
			if err != nil {
				return err
			}
			e.LastModified = p
			return nil
		},
	},
}

// DiffEvents compares every mutable field of prev against next and returns
// the changed values plus the pre-edit values. Both maps share the same key
// set. Empty maps mean the event is unchanged.
func DiffEvents(prev, next *MatchEvent) (changed, old map[string]any) {
	changed = map[string]any{}
	old = map[string]any{}
	for _, f := range eventFields {
		ov := f.get(prev)
		nv := f.get(next)
		if !f.equal(ov, nv) {
			changed[f.name] = nv
			old[f.name] = ov
		}
	}
	return changed, old
}

// ApplyField writes value into the named field of e, coercing JSON-decoded
// representations (float64 numbers, []any qualifier lists) to the canonical
// types. It reports whether the field name is known; unknown names leave e
// untouched so callers can warn and move on.
func ApplyField(e *MatchEvent, name string, value any) (bool, error) {
	for _, f := range eventFields {
		if f.name == name {
			if err := f.set(e, value); err != nil {
				return true, fmt.Errorf("apply field %s: %w", name, err)
			}
			return true, nil
		}
	}
	return false, nil
}

// ── comparators ──

func intEqual(a, b any) bool {
	na, errA := asInt(a)
	nb, errB := asInt(b)
	return errA == nil && errB == nil && na == nb
}

func stringEqual(a, b any) bool {
	sa, errA := asString(a)
	sb, errB := asString(b)
	return errA == nil && errB == nil && sa == sb
}

func intPtrEqual(a, b any) bool {
	pa, errA := asIntPtr(a)
	pb, errB := asIntPtr(b)
	if errA != nil || errB != nil {
		return false
	}
	if pa == nil || pb == nil {
		return pa == nil && pb == nil
	}
	return *pa == *pb
}

func floatPtrEqual(a, b any) bool {
	pa, errA := asFloatPtr(a)
	pb, errB := asFloatPtr(b)
	if errA != nil || errB != nil {
		return false
	}
	if pa == nil || pb == nil {
		return pa == nil && pb == nil
	}
	return *pa == *pb
}

func stringPtrEqual(a, b any) bool {
	pa, errA := asStringPtr(a)
	pb, errB := asStringPtr(b)
	if errA != nil || errB != nil {
		return false
	}
	if pa == nil || pb == nil {
		return pa == nil && pb == nil
	}
	return *pa == *pb
}

// ── coercion ──

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integral number %v", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("cannot coerce %T to int", v)
}

func asIntPtr(v any) (*int, error) {
	if v == nil {
		return nil, nil
	}
	if p, ok := v.(*int); ok {
		return p, nil
	}
	n, err := asInt(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func asFloatPtr(v any) (*float64, error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case *float64:
		return f, nil
	case float64:
		return &f, nil
	case int:
		x := float64(f)
		return &x, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to *float64", v)
}

func asString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("cannot coerce %T to string", v)
}

func asStringPtr(v any) (*string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case *string:
		return s, nil
	case string:
		return &s, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to *string", v)
}

func asQualifiers(v any) ([]Qualifier, error) {
	switch qs := v.(type) {
	case nil:
		return nil, nil
	case []Qualifier:
		return qs, nil
	case []any:
		out := make([]Qualifier, 0, len(qs))
		for _, item := range qs {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("qualifier entry is %T, want object", item)
			}
			id, err := asInt(m["qualifier_id"])
			if err != nil {
				return nil, fmt.Errorf("qualifier id: %w", err)
			}
			q := Qualifier{QualifierID: id}
			if raw, present := m["value"]; present && raw != nil {
				s, err := asString(raw)
				if err != nil {
					return nil, fmt.Errorf("qualifier value: %w", err)
				}
				q.Value = &s
			}
			out = append(out, q)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to qualifiers", v)
}
