package domain

import "time"

// JobStatus is the lifecycle state of an analysis job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type Coordinates struct {
	Lat float64 `json:"lat" minimum:"-90" maximum:"90"`
	Lon float64 `json:"lon" minimum:"-180" maximum:"180"`
}

type Location struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

type PlotDimensions struct {
	Length float64 `json:"length" exclusiveMinimum:"0"`
	Width  float64 `json:"width" exclusiveMinimum:"0"`
	Unit   string  `json:"unit,omitempty" default:"feet"`
}

type Plot struct {
	Dimensions  PlotDimensions `json:"dimensions"`
	Orientation string         `json:"orientation"`
	RoadFacing  string         `json:"road_facing"`
}

type Requirements struct {
	Bedrooms   int    `json:"bedrooms" minimum:"1"`
	Bathrooms  int    `json:"bathrooms" minimum:"1"`
	Kitchen    int    `json:"kitchen" minimum:"1"`
	LivingRoom int    `json:"living_room" minimum:"1"`
	DiningRoom int    `json:"dining_room" minimum:"1"`
	Budget     string `json:"budget"`
	Style      string `json:"style"`
	ApplyVastu bool   `json:"apply_vastu" default:"true"`
}

// DesignRequest is validated once at ingress and treated as immutable; only a
// regenerate operation may replace its Requirements wholesale.
type DesignRequest struct {
	Location     Location     `json:"location"`
	Plot         Plot         `json:"plot"`
	Requirements Requirements `json:"requirements"`
}

type Geolocation struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
}

type WeatherSummary struct {
	AverageTempC float64 `json:"average_temp_c"`
	HumidityPct  float64 `json:"humidity_pct"`
}

type SolarProfile struct {
	PreferredExposure string  `json:"preferred_exposure"`
	AnnualSolarIndex  float64 `json:"annual_solar_index"`
}

type WindProfile struct {
	PrevailingDirection string  `json:"prevailing_direction"`
	AvgSpeedMps         float64 `json:"avg_speed_mps"`
}

// EnvironmentalProfile is derived once per pipeline run from a location. All
// fields except CollectedAt are a pure function of (lat, lon).
type EnvironmentalProfile struct {
	Geolocation Geolocation    `json:"geolocation"`
	ElevationM  float64        `json:"elevation_m"`
	Weather     WeatherSummary `json:"weather"`
	Solar       SolarProfile   `json:"solar"`
	Wind        WindProfile    `json:"wind"`
	RainfallMM  float64        `json:"rainfall_mm"`
	CollectedAt time.Time      `json:"collected_at" format:"date-time"`
}

// DesignDecision is one specialist's ranked contribution. Score is the
// weighted final score, rounded to two decimals.
type DesignDecision struct {
	Agent     string  `json:"agent"`
	Decision  string  `json:"decision"`
	Reasoning string  `json:"reasoning"`
	Score     float64 `json:"score"`
}

type ValidationReport struct {
	SunlightScore    float64  `json:"sunlight_score"`
	VentilationScore float64  `json:"ventilation_score"`
	StructuralScore  float64  `json:"structural_score"`
	EnergyEfficiency string   `json:"energy_efficiency" enum:"A,B"`
	Compliant        bool     `json:"compliant"`
	Issues           []string `json:"issues"`
}

// DesignResult is created exactly once when a job completes.
type DesignResult struct {
	DesignID        string            `json:"design_id" format:"uuid"`
	Files           map[string]string `json:"files"`
	Summary         map[string]any    `json:"summary"`
	DesignDecisions []DesignDecision  `json:"design_decisions"`
	Validation      ValidationReport  `json:"validation"`
}

// Job is the mutable root entity. Result is non-nil iff Status is completed;
// Error is non-empty iff Status is failed.
type Job struct {
	ID        string        `json:"job_id" format:"uuid"`
	Status    JobStatus     `json:"status" enum:"pending,running,completed,failed"`
	CreatedAt time.Time     `json:"created_at" format:"date-time"`
	UpdatedAt time.Time     `json:"updated_at" format:"date-time"`
	Request   DesignRequest `json:"request"`
	Result    *DesignResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}
