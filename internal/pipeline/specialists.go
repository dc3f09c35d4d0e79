package pipeline

import (
	"fmt"

	"planforge/internal/domain"
)

// Candidate is one specialist's weighted contribution before ranking.
type Candidate struct {
	Name      string
	Decision  string
	Reasoning string
	Score     float64
	Weight    float64
}

// Specialist produces exactly one candidate from the request and the derived
// environmental profile. Specialists are independent of each other; the
// declared order below matters only as the tie-break for ranking.
type Specialist struct {
	Name string
	Run  func(req domain.DesignRequest, env domain.EnvironmentalProfile) Candidate
}

var specialists = []Specialist{
	{
		Name: "architect",
		Run: func(_ domain.DesignRequest, env domain.EnvironmentalProfile) Candidate {
			return Candidate{
				Name:      "architect",
				Decision:  fmt.Sprintf("Primary living spaces aligned to %s", env.Solar.PreferredExposure),
				Reasoning: "Optimized for natural daylight",
				Score:     8.5,
				Weight:    1.0,
			}
		},
	},
	{
		Name: "meteorologist",
		Run: func(_ domain.DesignRequest, env domain.EnvironmentalProfile) Candidate {
			return Candidate{
				Name:      "meteorologist",
				Decision:  fmt.Sprintf("Cross-ventilation windows oriented towards %s", env.Wind.PrevailingDirection),
				Reasoning: "Uses prevailing wind data",
				Score:     8.2,
				Weight:    0.9,
			}
		},
	},
	{
		Name: "geologist",
		Run: func(_ domain.DesignRequest, env domain.EnvironmentalProfile) Candidate {
			return Candidate{
				Name:      "geologist",
				Decision:  fmt.Sprintf("Foundation tuned for elevation %vm", env.ElevationM),
				Reasoning: "Reduced moisture and settlement risks",
				Score:     8.0,
				Weight:    0.95,
			}
		},
	},
	{
		Name: "structural_engineer",
		Run: func(_ domain.DesignRequest, _ domain.EnvironmentalProfile) Candidate {
			return Candidate{
				Name:      "structural_engineer",
				Decision:  "Load-bearing walls increased to 230mm",
				Reasoning: "Safety-first structure for regional conditions",
				Score:     8.8,
				Weight:    1.0,
			}
		},
	},
	{
		Name: "site_engineer",
		Run: func(req domain.DesignRequest, _ domain.EnvironmentalProfile) Candidate {
			return Candidate{
				Name:      "site_engineer",
				Decision:  fmt.Sprintf("Road-facing side set to %s", req.Plot.RoadFacing),
				Reasoning: "Supports practical site access",
				Score:     7.8,
				Weight:    0.85,
			}
		},
	},
	{
		Name: "vastu_expert",
		Run: func(req domain.DesignRequest, _ domain.EnvironmentalProfile) Candidate {
			if !req.Requirements.ApplyVastu {
				return Candidate{
					Name:      "vastu_expert",
					Decision:  "Vastu optional adjustments skipped",
					Reasoning: "User disabled vastu preferences",
					Score:     7.0,
					Weight:    0.7,
				}
			}
			return Candidate{
				Name:      "vastu_expert",
				Decision:  "Kitchen placed in south-east zone",
				Reasoning: "Follows vastu guidance where practical",
				Score:     7.6,
				Weight:    0.7,
			}
		},
	},
	{
		Name: "interior_designer",
		Run: func(_ domain.DesignRequest, _ domain.EnvironmentalProfile) Candidate {
			return Candidate{
				Name:      "interior_designer",
				Decision:  "Circulation path minimized across common rooms",
				Reasoning: "Improves comfort and usable space",
				Score:     8.1,
				Weight:    0.75,
			}
		},
	},
	{
		Name: "construction_builder",
		Run: func(_ domain.DesignRequest, _ domain.EnvironmentalProfile) Candidate {
			return Candidate{
				Name:      "construction_builder",
				Decision:  "Material schedule generated with climate-adaptive specs",
				Reasoning: "Construction-ready deliverable generated",
				Score:     8.3,
				Weight:    0.9,
			}
		},
	},
}

// Names returns the specialist names in declaration order.
func Names() []string {
	names := make([]string, len(specialists))
	for i, s := range specialists {
		names[i] = s.Name
	}
	return names
}
