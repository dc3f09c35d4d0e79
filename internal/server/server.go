package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"planforge/internal/domain"
	"planforge/internal/engine"
	"planforge/internal/environment"
	"planforge/internal/logger"
	"planforge/internal/observability"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
	Logger   *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"job not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Planforge API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(requestIDMiddleware(log))
	router.Handle("/metrics", observability.Handler())

	hcfg := huma.DefaultConfig("Planforge API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerDesign(group, cfg.Engine)
	registerEnvironmental(group, cfg.Engine.Environment())
	registerValidation(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

// requestIDMiddleware tags each request with a correlation id and logs it.
func requestIDMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = uuid.New().String()
			}
			ctx := logger.WithRequestID(r.Context(), reqID)
			logger.FromContext(ctx, log).Debug("request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, engine.ErrNotReady):
		return newAPIError(http.StatusConflict, "not_ready", err.Error(), nil)
	case errors.Is(err, environment.ErrDerivation):
		return newAPIError(http.StatusServiceUnavailable, "environmental_unavailable", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "not_ready"
	case http.StatusServiceUnavailable:
		return "environmental_unavailable"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerDesign(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze-plot",
		Method:      http.MethodPost,
		Path:        "/design/analyze-plot",
		Summary:     "Submit a plot analysis job",
	}, func(ctx context.Context, input *AnalyzePlotRequest) (*struct {
		Body JobAccepted `json:"body"`
	}, error) {
		job, err := e.Submit(ctx, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobAccepted `json:"body"`
		}{Body: JobAccepted{JobID: job.ID, Status: job.Status}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "job-status",
		Method:      http.MethodGet,
		Path:        "/design/{job_id}/status",
		Summary:     "Job status",
	}, func(ctx context.Context, input *JobPath) (*struct {
		Body JobStatusResponse `json:"body"`
	}, error) {
		job, err := e.Status(input.JobID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobStatusResponse `json:"body"`
		}{Body: JobStatusResponse{JobID: job.ID, Status: job.Status, Error: job.Error}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "job-result",
		Method:      http.MethodGet,
		Path:        "/design/{job_id}/result",
		Summary:     "Job result",
	}, func(ctx context.Context, input *JobPath) (*struct {
		Body domain.DesignResult `json:"body"`
	}, error) {
		result, err := e.Result(input.JobID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DesignResult `json:"body"`
		}{Body: result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "regenerate",
		Method:      http.MethodPost,
		Path:        "/design/{job_id}/regenerate",
		Summary:     "Regenerate a job with new requirements",
	}, func(ctx context.Context, input *RegenerateRequest) (*struct {
		Body JobAccepted `json:"body"`
	}, error) {
		job, err := e.Regenerate(ctx, input.JobID, input.Body.Requirements)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobAccepted `json:"body"`
		}{Body: JobAccepted{JobID: job.ID, Status: job.Status}}, nil
	})
}

func registerEnvironmental(api huma.API, env environment.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "sun-path",
		Method:      http.MethodGet,
		Path:        "/environmental/sun-path",
		Summary:     "Ad-hoc environmental snapshot",
	}, func(ctx context.Context, input *SunPathQuery) (*struct {
		Body SunPathResponse `json:"body"`
	}, error) {
		profile, err := env.Profile(input.Lat, input.Lon)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SunPathResponse `json:"body"`
		}{Body: SunPathResponse{Solar: profile.Solar, Geolocation: profile.Geolocation}}, nil
	})
}

func registerValidation(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "validation-report",
		Method:      http.MethodGet,
		Path:        "/validation/report",
		Summary:     "Validation report for a completed job",
	}, func(ctx context.Context, input *ReportQuery) (*struct {
		Body domain.ValidationReport `json:"body"`
	}, error) {
		report, err := e.Report(input.JobID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ValidationReport `json:"body"`
		}{Body: report}, nil
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Planforge API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}
