// Package validate applies rule-based scientific checks to a generated
// design: sun-path orientation, cross-ventilation coverage, and structural
// adequacy.
package validate

import (
	"math"
	"strings"

	"planforge/internal/domain"
)

const (
	issueSunlight    = "Plot orientation is not optimal for local sun path"
	issueVentilation = "Cross-ventilation recommendation missing"
	issueStructural  = "Structural load validation recommendation missing"
)

// Evaluate scores the request, profile, and decision list into a compliance
// report. It is a pure function; the report is never mutated afterwards.
func Evaluate(req domain.DesignRequest, env domain.EnvironmentalProfile, decisions []domain.DesignDecision) domain.ValidationReport {
	orientationMatch := 0.6
	preferred := env.Solar.PreferredExposure
	if preferred != "" && strings.HasPrefix(strings.ToLower(req.Plot.Orientation), preferred[:1]) {
		orientationMatch = 1.0
	}
	sunlightScore := round2(8.0 * orientationMatch)

	ventilationScore := 6.0
	if anyDecisionContains(decisions, "ventilation") {
		ventilationScore = 8.5
	}
	structuralScore := 6.5
	if anyDecisionContains(decisions, "load-bearing") {
		structuralScore = 9.0
	}

	avg := (sunlightScore + ventilationScore + structuralScore) / 3

	var issues []string
	if sunlightScore < 7.0 {
		issues = append(issues, issueSunlight)
	}
	if ventilationScore < 7.0 {
		issues = append(issues, issueVentilation)
	}
	if structuralScore < 7.0 {
		issues = append(issues, issueStructural)
	}

	grade := "B"
	if avg >= 8 {
		grade = "A"
	}
	return domain.ValidationReport{
		SunlightScore:    sunlightScore,
		VentilationScore: ventilationScore,
		StructuralScore:  structuralScore,
		EnergyEfficiency: grade,
		Compliant:        avg >= 7.5,
		Issues:           issues,
	}
}

func anyDecisionContains(decisions []domain.DesignDecision, needle string) bool {
	for _, d := range decisions {
		if strings.Contains(strings.ToLower(d.Decision), needle) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
