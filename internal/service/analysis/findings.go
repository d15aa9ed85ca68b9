package analysis

import (
	"fmt"

	"guardplan/internal/model"
	"guardplan/internal/util"
)

type findingTemplate struct {
	severity    model.Severity
	category    string
	title       string
	description string
	actions     []string
	locate      func(ne, sw, c model.Point) model.Point
}

// One finding at each compass extreme of the bounding box
var findingTemplates = []findingTemplate{
	{
		severity:    model.SeverityHigh,
		category:    "vehicle",
		title:       "Vehicle Ram Attack Vector",
		description: "Open approach on the north side allows vehicles to reach the crowd at speed.",
		actions:     []string{"Deploy concrete barriers", "Install bollards", "Position security checkpoint"},
		locate:      func(ne, _, c model.Point) model.Point { return model.Point{Lat: ne.Lat, Lng: c.Lng} },
	},
	{
		severity:    model.SeverityMedium,
		category:    "crowd",
		title:       "Crowd Bottleneck",
		description: "Narrow west approach will congest during ingress and egress peaks.",
		actions:     []string{"Widen entrance area", "Add flow control barriers", "Station crowd control team"},
		locate:      func(_, sw, c model.Point) model.Point { return model.Point{Lat: c.Lat, Lng: sw.Lng} },
	},
	{
		severity:    model.SeverityMedium,
		category:    "emergency",
		title:       "Limited Emergency Access",
		description: "Emergency vehicle access is restricted on the east side. Could delay response time.",
		actions:     []string{"Establish emergency lane", "Position medical team nearby", "Create alternate evacuation route"},
		locate:      func(ne, _, c model.Point) model.Point { return model.Point{Lat: c.Lat, Lng: ne.Lng} },
	},
	{
		severity:    model.SeverityMedium,
		category:    "perimeter",
		title:       "Weak Perimeter Section",
		description: "Southern boundary has low visibility and no physical barrier.",
		actions:     []string{"Install motion sensors", "Add lighting", "Increase patrol frequency"},
		locate:      func(_, sw, c model.Point) model.Point { return model.Point{Lat: sw.Lat, Lng: c.Lng} },
	},
}

// SynthesizeFindings places the canned threat findings around the perimeter.
// The result is deterministic for a given perimeter.
func SynthesizeFindings(p model.Perimeter) []model.ThreatFinding {
	if !p.Valid() {
		return nil
	}
	ne, sw := util.BoundsOf(p)
	c := util.Centroid(p)

	findings := make([]model.ThreatFinding, 0, len(findingTemplates))
	for i, tpl := range findingTemplates {
		actions := make([]string, len(tpl.actions))
		copy(actions, tpl.actions)
		findings = append(findings, model.ThreatFinding{
			ID:                 fmt.Sprintf("threat-%d", i+1),
			Severity:           tpl.severity,
			Category:           tpl.category,
			Title:              tpl.title,
			Location:           tpl.locate(ne, sw, c),
			Description:        tpl.description,
			RecommendedActions: actions,
		})
	}
	return findings
}
