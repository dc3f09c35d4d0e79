package validate

import (
	"context"
	"testing"

	"planforge/internal/domain"
	"planforge/internal/environment"
	"planforge/internal/pipeline"
)

func analyzed(t *testing.T, orientation string) (domain.DesignRequest, domain.EnvironmentalProfile, []domain.DesignDecision) {
	t.Helper()
	req := domain.DesignRequest{
		Location: domain.Location{
			Address:     "Bangalore",
			Coordinates: domain.Coordinates{Lat: 12.9716, Lon: 77.5946},
		},
		Plot: domain.Plot{
			Dimensions:  domain.PlotDimensions{Length: 40, Width: 30},
			Orientation: orientation,
			RoadFacing:  "east",
		},
		Requirements: domain.Requirements{
			Bedrooms: 3, Bathrooms: 2, Kitchen: 1, LivingRoom: 1, DiningRoom: 1,
			ApplyVastu: true,
		},
	}
	env, err := environment.New().Profile(req.Location.Coordinates.Lat, req.Location.Coordinates.Lon)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	decisions, err := pipeline.Execute(context.Background(), req, env)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return req, env, decisions
}

func TestEvaluateMismatchedOrientation(t *testing.T) {
	// North-facing plot at a northern latitude: preferred exposure is south,
	// so the orientation penalty applies and only the sunlight issue fires.
	req, env, decisions := analyzed(t, "north")
	report := Evaluate(req, env, decisions)

	if report.SunlightScore != 4.8 {
		t.Errorf("sunlight = %v, want 4.8", report.SunlightScore)
	}
	if report.VentilationScore != 8.5 {
		t.Errorf("ventilation = %v, want 8.5", report.VentilationScore)
	}
	if report.StructuralScore != 9.0 {
		t.Errorf("structural = %v, want 9.0", report.StructuralScore)
	}
	if report.EnergyEfficiency != "B" {
		t.Errorf("energy = %s, want B", report.EnergyEfficiency)
	}
	if report.Compliant {
		t.Error("compliant = true, want false")
	}
	if len(report.Issues) != 1 || report.Issues[0] != issueSunlight {
		t.Errorf("issues = %v, want only the sunlight diagnostic", report.Issues)
	}
}

func TestEvaluateMatchedOrientation(t *testing.T) {
	req, env, decisions := analyzed(t, "south")
	report := Evaluate(req, env, decisions)

	if report.SunlightScore != 8.0 {
		t.Errorf("sunlight = %v, want 8.0", report.SunlightScore)
	}
	if report.EnergyEfficiency != "A" {
		t.Errorf("energy = %s, want A", report.EnergyEfficiency)
	}
	if !report.Compliant {
		t.Error("compliant = false, want true")
	}
	if len(report.Issues) != 0 {
		t.Errorf("issues = %v, want none", report.Issues)
	}
}

func TestEvaluateMissingRecommendations(t *testing.T) {
	req, env, _ := analyzed(t, "south")
	decisions := []domain.DesignDecision{
		{Agent: "architect", Decision: "Primary living spaces aligned to south", Score: 8.5},
	}
	report := Evaluate(req, env, decisions)
	if report.VentilationScore != 6.0 {
		t.Errorf("ventilation = %v, want 6.0", report.VentilationScore)
	}
	if report.StructuralScore != 6.5 {
		t.Errorf("structural = %v, want 6.5", report.StructuralScore)
	}
	wantIssues := []string{issueVentilation, issueStructural}
	if len(report.Issues) != 2 || report.Issues[0] != wantIssues[0] || report.Issues[1] != wantIssues[1] {
		t.Errorf("issues = %v, want %v", report.Issues, wantIssues)
	}
	// (8.0 + 6.0 + 6.5) / 3 = 6.83: below both thresholds.
	if report.Compliant || report.EnergyEfficiency != "B" {
		t.Errorf("compliant=%v energy=%s, want false/B", report.Compliant, report.EnergyEfficiency)
	}
}
