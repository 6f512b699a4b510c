package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/stakahara/shisaku/internal/initiative"
	"github.com/stakahara/shisaku/internal/progress"
	"github.com/stakahara/shisaku/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	store   storage.Store
	manager *progress.Manager
	server  *http.Server
}

// NewServer creates a new API server. maxConcurrent bounds the number of
// requests handled at once.
func NewServer(store storage.Store, manager *progress.Manager, addr string, maxConcurrent int64) *Server {
	s := &Server{
		store:   store,
		manager: manager,
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// Initiative endpoints
	mux.HandleFunc("/v1/initiatives", s.handleInitiatives)
	mux.HandleFunc("/v1/initiatives/", s.handleInitiativeSubtree)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(limitMiddleware(mux, maxConcurrent)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady handles GET /readyz
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Ready:   false,
			Reasons: []string{fmt.Sprintf("store unreachable: %v", err)},
		})
		return
	}

	respondJSON(w, http.StatusOK, ReadyResponse{Ready: true})
}

// handleInitiatives handles GET and POST /v1/initiatives
func (s *Server) handleInitiatives(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listInitiatives(w, r)
	case http.MethodPost:
		s.createInitiative(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// listInitiatives handles GET /v1/initiatives
func (s *Server) listInitiatives(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	deleted := query.Get("deleted")

	filter := storage.InitiativeFilter{
		Domain:     query.Get("domain"),
		Department: query.Get("department"),
		Name:       query.Get("name"),
		Status:     query.Get("status"),
		Deleted:    deleted == "1" || deleted == "true",
	}

	records, err := s.store.ListInitiatives(filter)
	if err != nil {
		log.Printf("list initiatives: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch initiatives")
		return
	}

	if records == nil {
		records = []initiative.Initiative{}
	}
	respondJSON(w, http.StatusOK, records)
}

// createInitiative handles POST /v1/initiatives
func (s *Server) createInitiative(w http.ResponseWriter, r *http.Request) {
	var req InitiativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if strings.TrimSpace(req.MeasureName) == "" {
		respondError(w, http.StatusBadRequest, "measureName is required")
		return
	}

	created, err := s.store.CreateInitiative(initiative.Initiative{
		Domain:       req.Domain,
		MeasureName:  req.MeasureName,
		Detail:       req.Detail,
		Goal:         req.Goal,
		KPI:          req.KPI,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Department:   req.Department,
		ScheduleText: req.ScheduleText,
	})
	if err != nil {
		log.Printf("create initiative: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create initiative")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// handleInitiativeSubtree routes /v1/initiatives/{id} and
// /v1/initiatives/{id}/progress
func (s *Server) handleInitiativeSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/initiatives/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	switch {
	case len(parts) == 1:
		s.handleInitiativeByID(w, r, id)
	case len(parts) == 2 && parts[1] == "progress":
		s.handleProgress(w, r, id)
	default:
		respondError(w, http.StatusNotFound, "Not found")
	}
}

// handleInitiativeByID handles GET, PUT and DELETE /v1/initiatives/{id}
func (s *Server) handleInitiativeByID(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		rec, err := s.store.GetInitiative(id)
		if err != nil {
			log.Printf("get initiative %d: %v", id, err)
			respondError(w, http.StatusInternalServerError, "Failed to fetch initiative")
			return
		}
		if rec == nil {
			respondError(w, http.StatusNotFound, "Initiative not found")
			return
		}
		respondJSON(w, http.StatusOK, rec)

	case http.MethodPut:
		var req InitiativeUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}
		s.applyInitiativePatch(w, id, storage.InitiativePatch{
			Domain:       req.Domain,
			MeasureName:  req.MeasureName,
			IsActive:     req.IsActive,
			Detail:       req.Detail,
			Goal:         req.Goal,
			KPI:          req.KPI,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			Department:   req.Department,
			ScheduleText: req.ScheduleText,
		})

	case http.MethodDelete:
		// Soft delete only; the record stays recoverable
		inactive := false
		s.applyInitiativePatch(w, id, storage.InitiativePatch{IsActive: &inactive})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// applyInitiativePatch runs an initiative update and writes the outcome
func (s *Server) applyInitiativePatch(w http.ResponseWriter, id int64, patch storage.InitiativePatch) {
	rec, err := s.store.UpdateInitiative(id, patch)
	if err != nil {
		log.Printf("update initiative %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to update initiative")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "Initiative not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// handleProgress handles GET, POST and PUT /v1/initiatives/{id}/progress
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, initiativeID int64) {
	switch r.Method {
	case http.MethodGet:
		logs, err := s.manager.List(initiativeID)
		if err != nil {
			log.Printf("list progress for initiative %d: %v", initiativeID, err)
			respondError(w, http.StatusInternalServerError, "Failed to fetch progress logs")
			return
		}
		if logs == nil {
			logs = []initiative.ProgressLog{}
		}
		respondJSON(w, http.StatusOK, logs)

	case http.MethodPost:
		var input initiative.ProgressLogInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}

		form, ok := s.validateForm(w, input)
		if !ok {
			return
		}

		created, err := s.manager.Submit(initiativeID, form)
		if err == progress.ErrNotFound {
			respondError(w, http.StatusNotFound, "Initiative not found")
			return
		}
		if err != nil {
			log.Printf("submit progress for initiative %d: %v", initiativeID, err)
			respondError(w, http.StatusInternalServerError, "Failed to create progress log")
			return
		}
		respondJSON(w, http.StatusCreated, created)

	case http.MethodPut:
		var req ProgressUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}

		form, ok := s.validateForm(w, req.ProgressLogInput)
		if !ok {
			return
		}

		updated, err := s.manager.Correct(req.LogID, initiativeID, form)
		if err == progress.ErrNotFound {
			respondError(w, http.StatusNotFound, "Progress log not found")
			return
		}
		if err != nil {
			log.Printf("correct progress log %d: %v", req.LogID, err)
			respondError(w, http.StatusInternalServerError, "Failed to update progress log")
			return
		}
		respondJSON(w, http.StatusOK, updated)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// validateForm normalizes and validates a progress log payload. On violation
// it writes the full field-to-message map and reports false; the store is
// never touched for a rejected payload.
func (s *Server) validateForm(w http.ResponseWriter, input initiative.ProgressLogInput) (initiative.ProgressLogForm, bool) {
	form := initiative.NormalizeProgressLog(input)
	if errs := initiative.ValidateProgressLog(form); len(errs) > 0 {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: errs})
		return initiative.ProgressLogForm{}, false
	}
	return form, true
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// limitMiddleware bounds the number of concurrently handled requests with a
// weighted semaphore. Waiters are released when the client gives up.
func limitMiddleware(next http.Handler, max int64) http.Handler {
	sem := semaphore.NewWeighted(max)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := sem.Acquire(r.Context(), 1); err != nil {
			http.Error(w, "Server busy", http.StatusServiceUnavailable)
			return
		}
		defer sem.Release(1)
		next.ServeHTTP(w, r)
	})
}
