package output

import (
	"strings"
	"testing"

	"planforge/internal/domain"
)

func buildRequest(applyVastu bool) domain.DesignRequest {
	return domain.DesignRequest{
		Plot: domain.Plot{
			Dimensions: domain.PlotDimensions{Length: 40.5, Width: 30, Unit: "feet"},
		},
		Requirements: domain.Requirements{
			Bedrooms: 3, Bathrooms: 2, Kitchen: 1, LivingRoom: 1, DiningRoom: 1,
			ApplyVastu: applyVastu,
		},
	}
}

var artifactKeys = []string{
	"floor_plan_2d", "autocad_file", "3d_model", "documentation",
	"sun_analysis", "ventilation_analysis", "material_specifications",
}

func TestAssemble(t *testing.T) {
	decisions := []domain.DesignDecision{
		{Agent: "structural_engineer", Score: 8.8},
		{Agent: "architect", Score: 8.5},
	}
	validation := domain.ValidationReport{StructuralScore: 9.0}

	result := Assemble(buildRequest(true), decisions, validation)

	if result.DesignID == "" {
		t.Fatal("missing design id")
	}
	if len(result.Files) != len(artifactKeys) {
		t.Errorf("got %d artifacts, want %d", len(result.Files), len(artifactKeys))
	}
	for _, key := range artifactKeys {
		path, ok := result.Files[key]
		if !ok {
			t.Errorf("missing artifact %s", key)
			continue
		}
		if !strings.HasPrefix(path, "/artifacts/"+result.DesignID+"/") {
			t.Errorf("artifact %s path = %s", key, path)
		}
	}
	if got := result.Summary["total_area"]; got != "1215 sq feet" {
		t.Errorf("total_area = %v, want 1215 sq feet", got)
	}
	if got := result.Summary["room_count"]; got != 8 {
		t.Errorf("room_count = %v, want 8", got)
	}
	if got := result.Summary["optimization_score"]; got != 8.65 {
		t.Errorf("optimization_score = %v, want 8.65", got)
	}
	if got := result.Summary["energy_efficiency"]; got != "A+" {
		t.Errorf("energy_efficiency = %v, want A+ at structural 9.0", got)
	}
	if got := result.Summary["vastu_compliance"]; got != 92 {
		t.Errorf("vastu_compliance = %v, want 92", got)
	}
}

func TestAssembleVastuDisabledAndLowStructural(t *testing.T) {
	result := Assemble(buildRequest(false), nil, domain.ValidationReport{StructuralScore: 7.9})
	if got := result.Summary["vastu_compliance"]; got != 0 {
		t.Errorf("vastu_compliance = %v, want 0", got)
	}
	if got := result.Summary["energy_efficiency"]; got != "A" {
		t.Errorf("energy_efficiency = %v, want A below structural 8.0", got)
	}
	// Empty decision list must not divide by zero.
	if got := result.Summary["optimization_score"]; got != 0.0 {
		t.Errorf("optimization_score = %v, want 0", got)
	}
}

func TestAssembleFreshIDPerCall(t *testing.T) {
	a := Assemble(buildRequest(true), nil, domain.ValidationReport{})
	b := Assemble(buildRequest(true), nil, domain.ValidationReport{})
	if a.DesignID == b.DesignID {
		t.Error("design ids should be unique per assembly")
	}
}
