// Package output assembles decisions and validation into deliverable
// metadata. It returns artifact descriptors only; generating the actual
// artifacts is out of scope.
package output

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"planforge/internal/domain"
)

// Assemble builds the final DesignResult with a fresh design id, the fixed
// artifact path set, and the summary mapping.
func Assemble(req domain.DesignRequest, decisions []domain.DesignDecision, validation domain.ValidationReport) domain.DesignResult {
	designID := uuid.New().String()
	area := round2(req.Plot.Dimensions.Length * req.Plot.Dimensions.Width)

	files := map[string]string{
		"floor_plan_2d":           fmt.Sprintf("/artifacts/%s/floor_plan.svg", designID),
		"autocad_file":            fmt.Sprintf("/artifacts/%s/floor_plan.dxf", designID),
		"3d_model":                fmt.Sprintf("/artifacts/%s/model.gltf", designID),
		"documentation":           fmt.Sprintf("/artifacts/%s/design_report.pdf", designID),
		"sun_analysis":            fmt.Sprintf("/artifacts/%s/sun_path.png", designID),
		"ventilation_analysis":    fmt.Sprintf("/artifacts/%s/ventilation.png", designID),
		"material_specifications": fmt.Sprintf("/artifacts/%s/bom.json", designID),
	}

	roomCount := req.Requirements.Bedrooms +
		req.Requirements.Bathrooms +
		req.Requirements.Kitchen +
		req.Requirements.LivingRoom +
		req.Requirements.DiningRoom

	var scoreSum float64
	for _, d := range decisions {
		scoreSum += d.Score
	}
	count := len(decisions)
	if count == 0 {
		count = 1
	}

	efficiency := "A"
	if validation.StructuralScore >= 8.0 {
		efficiency = "A+"
	}
	vastuCompliance := 0
	if req.Requirements.ApplyVastu {
		vastuCompliance = 92
	}

	summary := map[string]any{
		"total_area":         fmt.Sprintf("%v sq %s", area, unitOrDefault(req.Plot.Dimensions.Unit)),
		"room_count":         roomCount,
		"optimization_score": round2(scoreSum / float64(count)),
		"energy_efficiency":  efficiency,
		"vastu_compliance":   vastuCompliance,
	}

	return domain.DesignResult{
		DesignID:        designID,
		Files:           files,
		Summary:         summary,
		DesignDecisions: decisions,
		Validation:      validation,
	}
}

func unitOrDefault(unit string) string {
	if unit == "" {
		return "feet"
	}
	return unit
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
