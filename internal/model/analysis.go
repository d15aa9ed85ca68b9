package model

// AnalysisPhase is the coarse state of the analysis pipeline
type AnalysisPhase int

const (
	AnalysisIdle AnalysisPhase = iota
	AnalysisAnalyzing
	AnalysisComplete
	AnalysisError
)

func (p AnalysisPhase) String() string {
	switch p {
	case AnalysisIdle:
		return "idle"
	case AnalysisAnalyzing:
		return "analyzing"
	case AnalysisComplete:
		return "complete"
	case AnalysisError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON payloads
func (p AnalysisPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// AnalysisStage is one scripted step of the analysis
type AnalysisStage struct {
	Name     string `json:"name" mapstructure:"name" validate:"required"`
	Progress int    `json:"progress" mapstructure:"progress" validate:"gte=0,lte=100"`
	Message  string `json:"message" mapstructure:"message"`
}

// AnalysisState is a snapshot of the pipeline. Stage, Progress and Message
// are only meaningful while analyzing; Err only in the error phase.
type AnalysisState struct {
	Phase    AnalysisPhase `json:"phase"`
	Stage    string        `json:"stage,omitempty"`
	Progress int           `json:"progress"`
	Message  string        `json:"message,omitempty"`
	Err      string        `json:"error,omitempty"`
}
