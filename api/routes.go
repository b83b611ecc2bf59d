package api

import (
	"os"
	"strings"
)

func (s *Server) registerRoutes() {
	if s == nil || s.router == nil {
		return
	}

	api := s.router.Group("/api")
	if apiKey := strings.TrimSpace(os.Getenv("MODEL_BENCH_API_KEY")); apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	}

	api.GET("/health", s.handleHealth)
	api.GET("/models", s.handleListModels)
	api.GET("/benchmarks", s.handleListBenchmarks)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/leaderboard", s.handleGetLeaderboard)
}
