package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/daybreak/internal/briefing"
	"github.com/agenthands/daybreak/internal/calendar"
	"github.com/agenthands/daybreak/internal/config"
	"github.com/agenthands/daybreak/internal/llm"
	"github.com/agenthands/daybreak/internal/sleep"
	"github.com/agenthands/daybreak/internal/store"
	"github.com/agenthands/daybreak/internal/tasks"
	"github.com/agenthands/daybreak/internal/weather"
)

type Server struct {
	orc             *briefing.Orchestrator
	store           *store.Store
	defaultLocation string
}

// New wires a server from already-built components.
func New(orc *briefing.Orchestrator, st *store.Store, defaultLocation string) *Server {
	return &Server{orc: orc, store: st, defaultLocation: defaultLocation}
}

// NewFromConfig builds the store, collaborators and orchestrator from
// configuration. The calendar collaborator is optional: when its credential
// files are missing the briefing simply reports no events.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	generator, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	var events briefing.EventSource
	events, err = calendar.NewClient(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, cfg.Calendar.CalendarID)
	if err != nil {
		log.Printf("calendar disabled: %v", err)
		events = unavailableEvents{}
	}

	orc := briefing.NewOrchestrator(
		st, st,
		weather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL),
		events,
		tasks.NewClient(cfg.Todoist.APIToken, cfg.Todoist.BaseURL, cfg.Todoist.Filter),
		generator,
	)

	return New(orc, st, cfg.Weather.DefaultLocation), nil
}

// unavailableEvents stands in when the calendar collaborator cannot be
// constructed; the orchestrator degrades it to an empty schedule.
type unavailableEvents struct{}

func (unavailableEvents) TodayEvents(ctx context.Context) ([]briefing.Event, error) {
	return nil, errors.New("calendar collaborator not configured")
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(requestID())

	r.GET("/health", s.Health)
	r.POST("/morning", s.Morning)
	r.GET("/sleep/records", s.SleepRecords)
	r.POST("/analyze/sleep", s.AnalyzeSleep)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type MorningRequest struct {
	SleepCSV string `json:"sleep_csv" binding:"required"`
	Location string `json:"location"`
}

func (s *Server) Morning(c *gin.Context) {
	var req MorningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	location := req.Location
	if location == "" {
		location = s.defaultLocation
	}

	result, err := s.orc.Morning(c.Request.Context(), req.SleepCSV, location)
	if err != nil {
		log.Printf("morning briefing failed: %v", err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) SleepRecords(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	records, err := s.store.RecentSleepRecords(days)
	if err != nil {
		log.Printf("listing sleep records failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sleep records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

type AnalyzeSleepRequest struct {
	CSVData string `json:"csv_data" binding:"required"`
}

// AnalyzeSleep runs the parser and aggregator without touching the cache or
// the sleep history.
func (s *Server) AnalyzeSleep(c *gin.Context) {
	var req AnalyzeSleepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	intervals, err := sleep.ParseCSV(req.CSVData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	analysis, err := sleep.Analyze(intervals)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// statusForError maps data errors to 400 and everything else (store,
// unexpected) to 500. Collaborator failures never reach here.
func statusForError(err error) int {
	var malformed *sleep.MalformedRecordError
	if errors.Is(err, sleep.ErrEmptyInput) || errors.Is(err, sleep.ErrNoData) || errors.As(err, &malformed) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
