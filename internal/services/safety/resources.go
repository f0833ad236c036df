package safety

import (
	"fmt"
	"strings"

	"github.com/havenmind/agent-service/internal/domain/models"
)

// emergencyResources is static, region-selectable reference data.
var emergencyResources = map[string][]models.EmergencyResource{
	"US": {
		{
			Name:         "988 Suicide & Crisis Lifeline",
			Contact:      "988",
			Description:  "Free, confidential support for people in distress",
			Availability: "24/7",
		},
		{
			Name:         "Crisis Text Line",
			Contact:      "Text HOME to 741741",
			Description:  "Text-based crisis counseling",
			Availability: "24/7",
		},
		{
			Name:         "Emergency Services",
			Contact:      "911",
			Description:  "Immediate emergency assistance",
			Availability: "24/7",
		},
	},
	"UK": {
		{
			Name:         "Samaritans",
			Contact:      "116 123",
			Description:  "Free, confidential emotional support",
			Availability: "24/7",
		},
		{
			Name:         "Emergency Services",
			Contact:      "999",
			Description:  "Immediate emergency assistance",
			Availability: "24/7",
		},
	},
}

// ResourcesForRegion returns the emergency resources for a region,
// falling back to US resources for unknown regions.
func ResourcesForRegion(region string) []models.EmergencyResource {
	if resources, ok := emergencyResources[strings.ToUpper(region)]; ok {
		return resources
	}
	return emergencyResources["US"]
}

// FormatResourceBlock renders resources as deterministic text. The block
// is assembled from static data regardless of what the model produces.
func FormatResourceBlock(resources []models.EmergencyResource) string {
	var b strings.Builder
	b.WriteString("If you are in immediate danger, please reach out right now:\n")
	for _, r := range resources {
		b.WriteString(fmt.Sprintf("- %s: %s (%s, %s)\n", r.Name, r.Contact, r.Description, r.Availability))
	}
	b.WriteString("You don't have to go through this alone.")
	return b.String()
}
