package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/stellarlinkco/model-bench/internal/store"
)

const maxListLimit = 100

type modelDTO struct {
	Codename    string `json:"codename"`
	DisplayName string `json:"displayname"`
	Backend     string `json:"backend"`
	Identifier  string `json:"identifier"`
	FilesizeMB  int64  `json:"filesize_mb"`
	License     string `json:"license_name"`
}

type benchmarkDTO struct {
	Codename        string `json:"codename"`
	DisplayName     string `json:"displayname"`
	Description     string `json:"description"`
	ScoreMultiplier int    `json:"score_multiplier"`
}

type runDTO struct {
	RunID     int64     `json:"run_id"`
	RunTS     time.Time `json:"run_ts"`
	Model     string    `json:"model"`
	Benchmark string    `json:"benchmark"`
	Score     int       `json:"score"`
}

type runDetailDTO struct {
	QuestionID string          `json:"question_id"`
	Score      int             `json:"score"`
	EvalMsec   int64           `json:"eval_msec"`
	Debug      json.RawMessage `json:"debug,omitempty"`
}

type leaderboardEntryDTO struct {
	Model string    `json:"model"`
	Score int       `json:"score"`
	RunID int64     `json:"run_id"`
	RunTS time.Time `json:"run_ts"`
}

func toRunDTO(r store.Run) runDTO {
	return runDTO{
		RunID:     r.RunID,
		RunTS:     r.RunTS,
		Model:     r.Model,
		Benchmark: r.Benchmark,
		Score:     r.Score,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListModels(c *gin.Context) {
	models, err := s.store.ListModels(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := lo.Map(models, func(m store.Model, _ int) modelDTO {
		return modelDTO{
			Codename:    m.Codename,
			DisplayName: m.DisplayName,
			Backend:     m.Backend,
			Identifier:  m.Identifier,
			FilesizeMB:  m.FilesizeMB,
			License:     m.License,
		}
	})
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListBenchmarks(c *gin.Context) {
	benchmarks, err := s.store.ListBenchmarks(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := lo.Map(benchmarks, func(b store.Benchmark, _ int) benchmarkDTO {
		return benchmarkDTO{
			Codename:        b.Codename,
			DisplayName:     b.DisplayName,
			Description:     b.Description,
			ScoreMultiplier: b.ScoreMultiplier,
		}
	})
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListRuns(c *gin.Context) {
	filter := store.RunFilter{
		Model:     strings.TrimSpace(c.Query("model")),
		Benchmark: strings.TrimSpace(c.Query("benchmark")),
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	filter.Limit = limit

	runs, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(runs, func(r store.Run, _ int) runDTO {
		return toRunDTO(r)
	}))
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, errors.New("invalid run id"))
		return
	}

	run, details, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, errors.New("run not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	detailDTOs := lo.Map(details, func(d store.RunDetail, _ int) runDetailDTO {
		out := runDetailDTO{
			QuestionID: d.QuestionID,
			Score:      d.Score,
			EvalMsec:   d.EvalMsec,
		}
		if json.Valid([]byte(d.DebugJSON)) {
			out.Debug = json.RawMessage(d.DebugJSON)
		}
		return out
	})

	c.JSON(http.StatusOK, gin.H{
		"run":     toRunDTO(*run),
		"details": detailDTOs,
	})
}

func (s *Server) handleGetLeaderboard(c *gin.Context) {
	benchmark := strings.TrimSpace(c.Query("benchmark"))
	if benchmark == "" {
		respondError(c, http.StatusBadRequest, errors.New("benchmark is required"))
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	entries, err := s.store.Leaderboard(c.Request.Context(), benchmark, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(entries, func(e store.LeaderboardEntry, _ int) leaderboardEntryDTO {
		return leaderboardEntryDTO{
			Model: e.Model,
			Score: e.Score,
			RunID: e.RunID,
			RunTS: e.RunTS,
		}
	}))
}

// parseLimit reads the limit query parameter, rejecting garbage and
// capping large values. A false return means a response was already
// written.
func parseLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respondError(c, http.StatusBadRequest, errors.New("invalid limit"))
		return 0, false
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, true
}
