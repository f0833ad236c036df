package models

// CrisisLevel is the assessed risk severity of a user message.
// Levels are totally ordered: None < Low < Medium < High < Critical.
type CrisisLevel int

const (
	// CrisisNone means no risk signals were detected.
	CrisisNone CrisisLevel = iota
	// CrisisLow covers severe sadness and feeling overwhelmed.
	CrisisLow
	// CrisisMedium covers hopelessness and worthlessness.
	CrisisMedium
	// CrisisHigh covers self-harm and passive suicidal ideation.
	CrisisHigh
	// CrisisCritical covers explicit suicidal intent.
	CrisisCritical
)

// String returns the level name used in logs and API responses.
func (l CrisisLevel) String() string {
	switch l {
	case CrisisCritical:
		return "CRITICAL"
	case CrisisHigh:
		return "HIGH"
	case CrisisMedium:
		return "MEDIUM"
	case CrisisLow:
		return "LOW"
	default:
		return "NONE"
	}
}

// EmergencyResource is a static, region-selectable crisis contact.
type EmergencyResource struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Description  string `json:"description"`
	Availability string `json:"availability"`
}

// CrisisAssessment is the result of evaluating a message against all
// risk pattern tiers. Derived purely from the message text.
type CrisisAssessment struct {
	Level                CrisisLevel         `json:"level"`
	Confidence           float64             `json:"confidence"`
	MatchedSignals       []string            `json:"matchedSignals"`
	RequiresIntervention bool                `json:"requiresIntervention"`
	Resources            []EmergencyResource `json:"resources,omitempty"`
}
