package environment

import (
	"testing"
	"time"
)

func TestProfileBangalore(t *testing.T) {
	svc := New()
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	p, err := svc.Profile(12.9716, 77.5946)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Geolocation.Timezone != "UTC+5:00" {
		t.Errorf("timezone = %s, want UTC+5:00", p.Geolocation.Timezone)
	}
	if p.Solar.PreferredExposure != "south" {
		t.Errorf("preferred exposure = %s, want south", p.Solar.PreferredExposure)
	}
	if p.Solar.AnnualSolarIndex != 6.37 {
		t.Errorf("solar index = %v, want 6.37", p.Solar.AnnualSolarIndex)
	}
	if p.Wind.PrevailingDirection != "SW" {
		t.Errorf("wind direction = %s, want SW", p.Wind.PrevailingDirection)
	}
	if p.Wind.AvgSpeedMps != 4.47 {
		t.Errorf("wind speed = %v, want 4.47", p.Wind.AvgSpeedMps)
	}
	if p.RainfallMM != 894.57 {
		t.Errorf("rainfall = %v, want 894.57", p.RainfallMM)
	}
	if p.Weather.AverageTempC != 23.92 {
		t.Errorf("average temp = %v, want 23.92", p.Weather.AverageTempC)
	}
	if p.ElevationM != 277.5 {
		t.Errorf("elevation = %v, want 277.5", p.ElevationM)
	}
	if !p.CollectedAt.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("collected_at = %v", p.CollectedAt)
	}
}

func TestProfileSouthernHemisphere(t *testing.T) {
	p, err := New().Profile(-33.8688, 151.2093) // Sydney
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Solar.PreferredExposure != "north" {
		t.Errorf("preferred exposure = %s, want north", p.Solar.PreferredExposure)
	}
	if p.Wind.PrevailingDirection != "NW" {
		t.Errorf("wind direction = %s, want NW", p.Wind.PrevailingDirection)
	}
	if p.Geolocation.Timezone != "UTC+10:00" {
		t.Errorf("timezone = %s, want UTC+10:00", p.Geolocation.Timezone)
	}
}

func TestProfileNegativeLongitudeTimezone(t *testing.T) {
	p, err := New().Profile(40.7128, -74.006) // New York
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Geolocation.Timezone != "UTC-5:00" {
		t.Errorf("timezone = %s, want UTC-5:00", p.Geolocation.Timezone)
	}
}

func TestProfileDeterministic(t *testing.T) {
	svc := New()
	a, err := svc.Profile(12.9716, 77.5946)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	b, err := svc.Profile(12.9716, 77.5946)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	// Timestamp aside, two derivations of the same coordinates are identical.
	a.CollectedAt = time.Time{}
	b.CollectedAt = time.Time{}
	if a != b {
		t.Errorf("profiles differ:\n%+v\n%+v", a, b)
	}
}
