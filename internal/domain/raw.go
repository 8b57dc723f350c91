package domain

// RawEvent is one event as delivered by the polled feed. Every field except
// id and eventId is optional; absent fields mean null, not "unchanged",
// because the feed re-sends the full event shape on every snapshot.
type RawEvent struct {
	ID           *int64         `json:"id"`
	EventID      *int32         `json:"eventId"`
	TypeID       *int           `json:"typeId"`
	PeriodID     *int           `json:"periodId"`
	TimeMin      *int           `json:"timeMin"`
	TimeSec      *int           `json:"timeSec"`
	ContestantID *string        `json:"contestantId"`
	PlayerID     *string        `json:"playerId"`
	PlayerName   *string        `json:"playerName"`
	Outcome      *int           `json:"outcome"`
	X            *float64       `json:"x"`
	Y            *float64       `json:"y"`
	Qualifiers   []RawQualifier `json:"qualifier"`
	TimeStamp    *string        `json:"timeStamp"`
	LastModified *string        `json:"lastModified"`
}

// RawQualifier is a qualifier in feed shape.
type RawQualifier struct {
	QualifierID int     `json:"qualifierId"`
	Value       *string `json:"value,omitempty"`
}

// Valid reports whether the raw event carries both mandatory identifiers.
func (r *RawEvent) Valid() bool {
	return r.ID != nil && r.EventID != nil
}

// ToMatchEvent converts the raw feed shape into the canonical MatchEvent.
// Callers must check Valid first.
func (r *RawEvent) ToMatchEvent() MatchEvent {
	ev := MatchEvent{
		FeedEventID:  *r.ID,
		LocalEventID: *r.EventID,
		TypeID:       intOrZero(r.TypeID),
		PeriodID:     intOrZero(r.PeriodID),
		TimeMin:      intOrZero(r.TimeMin),
		TimeSec:      intOrZero(r.TimeSec),
		ContestantID: stringOrEmpty(r.ContestantID),
		PlayerID:     stringOrEmpty(r.PlayerID),
		PlayerName:   stringOrEmpty(r.PlayerName),
		Outcome:      r.Outcome,
		X:            r.X,
		Y:            r.Y,
		TimeStamp:    r.TimeStamp,
		LastModified: r.LastModified,
	}
	if len(r.Qualifiers) > 0 {
		ev.Qualifiers = make([]Qualifier, len(r.Qualifiers))
		for i, q := range r.Qualifiers {
			ev.Qualifiers[i] = Qualifier{QualifierID: q.QualifierID, Value: q.Value}
		}
	}
	return ev
}

// FeedSnapshot is the top-level payload of a match events poll.
type FeedSnapshot struct {
	LiveData struct {
		Event []RawEvent `json:"event"`
	} `json:"liveData"`
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
