package server

import "planforge/internal/domain"

// Request payloads

type AnalyzePlotRequest struct {
	Body domain.DesignRequest
}

type RegenerateRequest struct {
	JobID string `path:"job_id"`
	Body  struct {
		Requirements domain.Requirements `json:"requirements"`
	}
}

type JobPath struct {
	JobID string `path:"job_id"`
}

type SunPathQuery struct {
	Lat float64 `query:"lat" required:"true" minimum:"-90" maximum:"90"`
	Lon float64 `query:"lon" required:"true" minimum:"-180" maximum:"180"`
}

type ReportQuery struct {
	JobID string `query:"job_id" required:"true"`
}

// Response payloads

type JobAccepted struct {
	JobID  string           `json:"job_id" format:"uuid"`
	Status domain.JobStatus `json:"status" enum:"pending,running,completed,failed"`
}

type JobStatusResponse struct {
	JobID  string           `json:"job_id" format:"uuid"`
	Status domain.JobStatus `json:"status" enum:"pending,running,completed,failed"`
	Error  string           `json:"error,omitempty"`
}

type SunPathResponse struct {
	Solar       domain.SolarProfile `json:"solar"`
	Geolocation domain.Geolocation  `json:"geolocation"`
}
