package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports server liveness.",
		Tags:        []string{"System"},
	}, s.handleHealth)
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status string    `json:"status" doc:"Health status"`
	Time   time.Time `json:"time" doc:"Server time"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{Body: HealthResponse{
		Status: "ok",
		Time:   time.Now(),
	}}, nil
}
