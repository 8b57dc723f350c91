package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(v string) *string    { return &v }
func intp(v int) *int          { return &v }
func f64p(v float64) *float64  { return &v }
func i64p(v int64) *int64      { return &v }
func i32p(v int32) *int32      { return &v }

func TestQualifiersEqualIgnoresOrder(t *testing.T) {
	a := []Qualifier{
		{QualifierID: 140, Value: strp("37.2")},
		{QualifierID: 141},
	}
	b := []Qualifier{
		{QualifierID: 141},
		{QualifierID: 140, Value: strp("37.2")},
	}
	assert.True(t, QualifiersEqual(a, b))
	assert.True(t, QualifiersEqual(nil, nil))
	assert.True(t, QualifiersEqual(nil, []Qualifier{}))
}

func TestQualifiersEqualDetectsDifferences(t *testing.T) {
	base := []Qualifier{{QualifierID: 140, Value: strp("37.2")}}

	tests := []struct {
		name  string
		other []Qualifier
	}{
		{name: "different value", other: []Qualifier{{QualifierID: 140, Value: strp("40.0")}}},
		{name: "value removed", other: []Qualifier{{QualifierID: 140}}},
		{name: "different id", other: []Qualifier{{QualifierID: 141, Value: strp("37.2")}}},
		{name: "extra entry", other: []Qualifier{{QualifierID: 140, Value: strp("37.2")}, {QualifierID: 5}}},
		{name: "empty", other: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, QualifiersEqual(base, tt.other))
		})
	}
}

func TestQualifiersEqualIsMultisetNotSet(t *testing.T) {
	// Duplicate entries count; {140, 140} differs from {140}.
	a := []Qualifier{{QualifierID: 140}, {QualifierID: 140}}
	b := []Qualifier{{QualifierID: 140}}
	assert.False(t, QualifiersEqual(a, b))
}

func TestDiffEventsDetectsPerFieldChanges(t *testing.T) {
	prev := MatchEvent{
		FeedEventID: 1001, LocalEventID: 1, TypeID: 34, PeriodID: 1,
		ContestantID: "H", PlayerID: "p1", Outcome: intp(1),
		X: f64p(50), Y: f64p(50),
		Qualifiers: []Qualifier{{QualifierID: 140, Value: strp("p3")}},
	}

	next := prev
	next.Outcome = intp(0)
	next.LastModified = strp("2024-08-17T14:05:00")

	changed, old := DiffEvents(&prev, &next)
	require.Len(t, changed, 2)
	assert.Equal(t, intp(0), changed["outcome"])
	assert.Equal(t, intp(1), old["outcome"])
	assert.Contains(t, changed, "last_modified")
	assert.Nil(t, old["last_modified"])
}

func TestDiffEventsIdenticalIsEmpty(t *testing.T) {
	ev := MatchEvent{
		FeedEventID: 1001, LocalEventID: 1, TypeID: 34, PeriodID: 1,
		Qualifiers: []Qualifier{{QualifierID: 140, Value: strp("p3")}},
	}
	same := ev
	// Re-emitted qualifier list in a different order is still "same".
	same.Qualifiers = []Qualifier{{QualifierID: 140, Value: strp("p3")}}

	changed, old := DiffEvents(&ev, &same)
	assert.Empty(t, changed)
	assert.Empty(t, old)
}

func TestDiffEventsQualifierReorderIsNoop(t *testing.T) {
	prev := MatchEvent{
		FeedEventID: 1001, LocalEventID: 1,
		Qualifiers: []Qualifier{{QualifierID: 140, Value: strp("p3")}, {QualifierID: 5}},
	}
	next := prev
	next.Qualifiers = []Qualifier{{QualifierID: 5}, {QualifierID: 140, Value: strp("p3")}}

	changed, _ := DiffEvents(&prev, &next)
	assert.Empty(t, changed)
}

func TestApplyFieldCoercesJSONDecodedValues(t *testing.T) {
	ev := MatchEvent{FeedEventID: 1001, LocalEventID: 1}

	// A changed-map that went through JSONB: numbers are float64, qualifier
	// lists are []any of maps.
	payload := `{
		"type_id": 16,
		"outcome": 1,
		"x": 75.5,
		"player_id": "p9",
		"time_stamp": "2024-08-17T14:03:00",
		"qualifiers": [{"qualifier_id": 140, "value": "37.2"}, {"qualifier_id": 5}]
	}`
	var changed map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &changed))

	for name, value := range changed {
		known, err := ApplyField(&ev, name, value)
		require.True(t, known, "field %s", name)
		require.NoError(t, err, "field %s", name)
	}

	assert.Equal(t, 16, ev.TypeID)
	assert.Equal(t, intp(1), ev.Outcome)
	assert.Equal(t, f64p(75.5), ev.X)
	assert.Equal(t, "p9", ev.PlayerID)
	assert.Equal(t, strp("2024-08-17T14:03:00"), ev.TimeStamp)
	require.Len(t, ev.Qualifiers, 2)
	assert.Equal(t, 140, ev.Qualifiers[0].QualifierID)
	assert.Equal(t, strp("37.2"), ev.Qualifiers[0].Value)
	assert.Nil(t, ev.Qualifiers[1].Value)
}

func TestApplyFieldUnknownName(t *testing.T) {
	ev := MatchEvent{}
	known, err := ApplyField(&ev, "var_decision", "overturned")
	assert.False(t, known)
	assert.NoError(t, err)
}

func TestApplyFieldUncoercibleValue(t *testing.T) {
	ev := MatchEvent{}
	known, err := ApplyField(&ev, "type_id", "not a number")
	assert.True(t, known)
	assert.Error(t, err)
}

func TestRawEventConversion(t *testing.T) {
	payload := `{
		"id": 1001, "eventId": 1, "typeId": 34, "periodId": 1,
		"timeMin": 0, "timeSec": 0, "contestantId": "H", "playerId": "p1",
		"outcome": 1, "x": 50, "y": 50,
		"qualifier": [{"qualifierId": 140, "value": "p3"}]
	}`
	var raw RawEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	require.True(t, raw.Valid())

	ev := raw.ToMatchEvent()
	assert.Equal(t, int64(1001), ev.FeedEventID)
	assert.Equal(t, int32(1), ev.LocalEventID)
	assert.Equal(t, 34, ev.TypeID)
	assert.Equal(t, "H", ev.ContestantID)
	assert.Equal(t, intp(1), ev.Outcome)
	assert.Equal(t, f64p(50), ev.X)
	require.Len(t, ev.Qualifiers, 1)
	assert.Equal(t, 140, ev.Qualifiers[0].QualifierID)
}

func TestRawEventValidity(t *testing.T) {
	assert.False(t, (&RawEvent{EventID: i32p(1)}).Valid())
	assert.False(t, (&RawEvent{ID: i64p(1)}).Valid())
	assert.True(t, (&RawEvent{ID: i64p(1), EventID: i32p(1)}).Valid())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, (&MatchEvent{TypeID: TypeIDEnd, PeriodID: PeriodSecondHalf}).IsTerminal())
	assert.False(t, (&MatchEvent{TypeID: TypeIDEnd, PeriodID: PeriodFirstHalf}).IsTerminal())
	assert.False(t, (&MatchEvent{TypeID: 1, PeriodID: PeriodSecondHalf}).IsTerminal())
}

func TestDomainEventConstructors(t *testing.T) {
	added := NewGlobalEventAdded("match-1", MatchEvent{FeedEventID: 1001, LocalEventID: 1})
	assert.Equal(t, KindGlobalEventAdded, added.Kind)
	assert.Equal(t, "match-1", added.AggregateID)
	assert.Equal(t, int64(1001), added.FeedEventID())
	assert.False(t, added.OccurredOn.IsZero())

	edited := NewEventEdited("match-1", 1001,
		map[string]any{"outcome": 1}, map[string]any{"outcome": nil})
	assert.Equal(t, KindEventEdited, edited.Kind)
	assert.Equal(t, int64(1001), edited.FeedEventID())
	assert.NotEqual(t, added.DomainEventID, edited.DomainEventID)
}
