// Package httpapi exposes the scoring engine's caller-facing operations over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"salesquest/internal/engine"
	"salesquest/internal/model"
	"salesquest/internal/service"
)

// RegisterRoutes registers all scoring routes.
func RegisterRoutes(r chi.Router, activity *service.ActivityService, progress *service.ProgressService) {
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/streaks/{userID}", getStreakStatus(progress))
		r.Get("/rank/{userID}", getSeasonRank(progress))
		r.Get("/progress/{userID}", getProjectedProgress(progress))
		r.Post("/activity/{userID}", logDailyActivity(activity))
		r.Post("/sales/{userID}", logSale(activity))
	})
}

type activityRequest struct {
	ActivityType string `json:"activity_type"`
	CheerID      string `json:"cheer_id,omitempty"`
	GoalBonus    bool   `json:"goal_bonus,omitempty"`
}

type saleRequest struct {
	SaleID     string `json:"sale_id"`
	PolicyType string `json:"policy_type"`
	GoalBonus  bool   `json:"goal_bonus,omitempty"`
}

type pointsResponse struct {
	PointsAwarded int64 `json:"points_awarded"`
}

type streakResponse struct {
	FullStreak            int  `json:"full_streak"`
	ParticipationStreak   int  `json:"participation_streak"`
	HasFullToday          bool `json:"has_full_today"`
	HasParticipationToday bool `json:"has_participation_today"`
}

func getStreakStatus(svc *service.ProgressService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			http.Error(w, "user ID required", http.StatusBadRequest)
			return
		}

		status, err := svc.GetStreakStatus(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, streakResponse{
			FullStreak:            status.FullStreak,
			ParticipationStreak:   status.ParticipationStreak,
			HasFullToday:          status.HasFullToday,
			HasParticipationToday: status.HasParticipationToday,
		})
	}
}

func getSeasonRank(svc *service.ProgressService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			http.Error(w, "user ID required", http.StatusBadRequest)
			return
		}

		rank, err := svc.GetSeasonRank(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, rank)
	}
}

func getProjectedProgress(svc *service.ProgressService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		viewerID := r.URL.Query().Get("viewer")
		relationship := model.ViewerRelationship(r.URL.Query().Get("relationship"))
		if userID == "" || viewerID == "" {
			http.Error(w, "user ID and viewer required", http.StatusBadRequest)
			return
		}

		view, err := svc.GetProjectedProgress(r.Context(), userID, viewerID, relationship)
		if err != nil {
			if errors.Is(err, service.ErrInvalidRelationship) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, view)
	}
}

func logDailyActivity(svc *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			http.Error(w, "user ID required", http.StatusBadRequest)
			return
		}

		var req activityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		points, err := svc.LogDailyActivity(r.Context(), userID, req.ActivityType, service.ActivityContext{
			CheerID:   req.CheerID,
			GoalBonus: req.GoalBonus,
		})
		if err != nil {
			if isCallerError(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, pointsResponse{PointsAwarded: points})
	}
}

func logSale(svc *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			http.Error(w, "user ID required", http.StatusBadRequest)
			return
		}

		var req saleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		points, err := svc.LogSale(r.Context(), userID, req.SaleID, model.PolicyType(req.PolicyType), req.GoalBonus)
		if err != nil {
			if isCallerError(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, pointsResponse{PointsAwarded: points})
	}
}

// isCallerError reports whether the error is a request problem rather than a
// storage failure.
func isCallerError(err error) bool {
	return errors.Is(err, engine.ErrInvalidActivityType) ||
		errors.Is(err, engine.ErrInvalidPolicyType) ||
		errors.Is(err, service.ErrMissingCheerID) ||
		errors.Is(err, service.ErrMissingSaleID)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
