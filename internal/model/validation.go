package model

import "strings"

// Label is the human verdict on a sampled match.
type Label string

const (
	LabelUnlabeled Label = ""
	LabelCorrect   Label = "correct"
	LabelIncorrect Label = "incorrect"
	LabelUncertain Label = "uncertain"
)

// ParseLabel maps the spellings labelers actually type onto a Label.
// Unknown values are reported with ok=false.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unlabeled":
		return LabelUnlabeled, true
	case "correct", "yes", "y", "1", "true":
		return LabelCorrect, true
	case "incorrect", "no", "n", "0", "false", "wrong":
		return LabelIncorrect, true
	case "uncertain", "?", "unsure", "maybe":
		return LabelUncertain, true
	default:
		return LabelUnlabeled, false
	}
}

// ValidationRecord is one sampled match handed to a human labeler.
type ValidationRecord struct {
	Index   int    `json:"index"`
	Stratum string `json:"stratum,omitempty"`
	Match   Match  `json:"match"`
	Label   Label  `json:"label"`
	Note    string `json:"note,omitempty"`
}
