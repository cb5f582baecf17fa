package model

import "encoding/json"

// Match is the resolved output row for one entity. An empty FirmID means the
// entity ended unmatched.
type Match struct {
	EntityID       string  `json:"entity_id"`
	FirmID         string  `json:"firm_id"`
	Confidence     float64 `json:"confidence"`
	Method         Method  `json:"method,omitempty"`
	Tier           Tier    `json:"tier"`
	Ambiguous      bool    `json:"ambiguous"`
	RunnerUpFirmID string  `json:"runner_up_firm_id,omitempty"`
	MatchedKey     string  `json:"matched_key,omitempty"`
	CandidateCount int     `json:"candidate_count"`
}

// Matched reports whether the row resolved to a firm.
func (m Match) Matched() bool {
	return m.FirmID != ""
}

// Unmatched returns the explicit no-match row for an entity.
func Unmatched(entityID string) Match {
	return Match{EntityID: entityID, Tier: TierNone}
}

// MarshalJSON writes firm_id as null for unmatched rows.
func (m Match) MarshalJSON() ([]byte, error) {
	type plain Match
	var firm *string
	if m.FirmID != "" {
		firm = &m.FirmID
	}
	return json.Marshal(struct {
		plain
		FirmID *string `json:"firm_id"`
	}{plain: plain(m), FirmID: firm})
}

// UnmarshalJSON accepts a null firm_id as unmatched.
func (m *Match) UnmarshalJSON(data []byte) error {
	type plain Match
	var aux struct {
		plain
		FirmID *string `json:"firm_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Match(aux.plain)
	m.FirmID = ""
	if aux.FirmID != nil {
		m.FirmID = *aux.FirmID
	}
	return nil
}
