// Package fallback ingests a match from a scraped page of the alternate
// provider when the primary feed is down: the embedded payload is repaired,
// normalized into projection rows under internal ids, and published on the
// same bus as live data.
package fallback

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coded is the alternate provider's enum shape.
type Coded struct {
	Value       int    `json:"value"`
	DisplayName string `json:"displayName"`
}

// PageQualifier is a qualifier in page shape: the id hides inside type.value.
type PageQualifier struct {
	Type  Coded   `json:"type"`
	Value *string `json:"value"`
}

// PageEvent is one event as embedded in the page source. Ids are numeric in
// this provider's namespace.
type PageEvent struct {
	ID          *int64          `json:"id"`
	EventID     *int32          `json:"eventId"`
	Minute      *int            `json:"minute"`
	Second      *int            `json:"second"`
	TeamID      *int64          `json:"teamId"`
	PlayerID    *int64          `json:"playerId"`
	X           *float64        `json:"x"`
	Y           *float64        `json:"y"`
	Type        *Coded          `json:"type"`
	Period      *Coded          `json:"period"`
	OutcomeType *Coded          `json:"outcomeType"`
	Qualifiers  []PageQualifier `json:"qualifiers"`
}

// Formation is one team arrangement; parallel slices are indexed by player.
type Formation struct {
	FormationID        int               `json:"formationId"`
	FormationName      string            `json:"formationName"`
	PlayerIDs          []int64           `json:"playerIds"`
	JerseyNumbers      []int             `json:"jerseyNumbers"`
	FormationSlots     []int             `json:"formationSlots"`
	FormationPositions []json.RawMessage `json:"formationPositions"`
	CaptainPlayerID    int64             `json:"captainPlayerId"`
}

// TeamSheet is one side's roster block.
type TeamSheet struct {
	TeamID     int64       `json:"teamId"`
	Name       string      `json:"name"`
	Formations []Formation `json:"formations"`
}

// PageData is the payload embedded in the page source.
type PageData struct {
	PlayerIDNameDictionary map[string]string `json:"playerIdNameDictionary"`
	Events                 []PageEvent       `json:"events"`
	Home                   TeamSheet         `json:"home"`
	Away                   TeamSheet         `json:"away"`
}

// Parse decodes the embedded payload, repairing the two artifacts scraping
// commonly produces: a clipped trailing brace and a trailing comma before
// the final brace. Any other malformation is fatal.
func Parse(payload []byte) (*PageData, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		repaired := repair(payload)
		if err2 := json.Unmarshal(repaired, &raw); err2 != nil {
			return nil, fmt.Errorf("parse page payload: %w", err)
		}
		payload = repaired
	}

	for _, field := range []string{"playerIdNameDictionary", "events", "home", "away"} {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("page payload missing required field %q", field)
		}
	}

	var data PageData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode page payload: %w", err)
	}
	return &data, nil
}

func repair(payload []byte) []byte {
	b := bytes.TrimSpace(payload)

	// Clipped scrape: the closing brace of the top-level object is missing.
	if !bytes.HasSuffix(b, []byte("}")) {
		b = append(append([]byte{}, b...), '}')
	}

	// Trailing comma before the final brace.
	inner := bytes.TrimSpace(b[:len(b)-1])
	if bytes.HasSuffix(inner, []byte(",")) {
		inner = inner[:len(inner)-1]
		b = append(append([]byte{}, inner...), '}')
	}
	return b
}
