package model

// PlacedUnit is a single resource positioned on the map
type PlacedUnit struct {
	ID       string       `json:"id"`
	Kind     ResourceKind `json:"kind"`
	Position Point        `json:"position"`
	Strategy Strategy     `json:"strategy"`
	Sequence int          `json:"sequence"` // order of placement within the session

	// Overlapping is set when conflict avoidance ran out of attempts and the
	// unit was accepted closer than its minimum separation
	Overlapping bool `json:"overlapping,omitempty"`
}

// Severity grades a threat finding
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ThreatFinding is a synthesized risk attached to a location
type ThreatFinding struct {
	ID                 string   `json:"id"`
	Severity           Severity `json:"severity"`
	Category           string   `json:"category"`
	Title              string   `json:"title"`
	Location           Point    `json:"location"`
	Description        string   `json:"description"`
	RecommendedActions []string `json:"recommended_actions"`
}
