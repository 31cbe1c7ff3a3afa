package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ai_hoi/internal/core"
	"ai_hoi/internal/ingest"
	"ai_hoi/pkg"
	"ai_hoi/src/model"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 5

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, pkg.ErrorResponse{Error: msg})
}

func (s *Server) handleChat(c *gin.Context) {
	var req pkg.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		abortWithError(c, http.StatusBadRequest, core.ErrEmptyText.Error())
		return
	}

	history := make([]model.Turn, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, model.Turn{Role: m.Role, Content: m.Content})
	}

	out, err := s.deps.Chat.Chat(c.Request.Context(), core.ChatInput{
		Text:     req.Text,
		Location: req.Location,
		History:  history,
	})
	if err != nil {
		if errors.Is(err, core.ErrEmptyText) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("Chat failed")
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, pkg.ChatResponse{Message: out.Message})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req pkg.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	answer, err := s.deps.Chat.Ask(c.Request.Context(), core.AskInput{
		Question:  req.Question,
		Namespace: req.Namespace,
		K:         req.K,
	})
	switch {
	case errors.Is(err, core.ErrEmptyQuestion):
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error().Err(err).Msg("Ask failed")
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, pkg.ChatResponse{Message: answer})
}

func (s *Server) handleLocation(c *gin.Context) {
	var req pkg.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Lat == nil || req.Lon == nil {
		abortWithError(c, http.StatusBadRequest, "lat and lon are required")
		return
	}
	coords := model.Coordinates{Lat: *req.Lat, Lon: *req.Lon}
	if !coords.Valid() {
		abortWithError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	rev, err := s.deps.Geocoder.Reverse(c.Request.Context(), coords.Lat, coords.Lon)
	if err != nil {
		s.log.Warn().Err(err).Str("coordinates", coords.String()).Msg("Reverse geocoding failed")
		abortWithError(c, http.StatusBadGateway, "reverse geocoding failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, pkg.LocationResponse{
		DisplayName:    rev.DisplayName,
		AreaName:       rev.AreaName,
		AddressDetails: rev.AddressDetails,
	})
}

func (s *Server) handleSearchHistory(c *gin.Context) {
	query := c.Query("query")
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	result, err := s.deps.History.History(c.Request.Context(), query, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("History lookup failed")
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	entries := make([]pkg.HistoryEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, pkg.HistoryEntry{
			Summary:      e.Summary,
			Location:     e.Location,
			Timestamp:    e.Timestamp,
			MessageCount: e.MessageCount,
			UserPrompts:  e.UserPrompts,
		})
	}
	c.JSON(http.StatusOK, pkg.SearchHistoryResponse{
		Query:              query,
		Score:              result.Score,
		TotalConversations: result.TotalConversations,
		LatestSummary:      result.LatestSummary,
		LatestLocation:     result.LatestLocation,
		Results:            entries,
	})
}

func (s *Server) handleIngestRestaurants(c *gin.Context) {
	var req pkg.IngestRestaurantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	restaurants := ingest.ParseRestaurants(req.Content)
	if len(restaurants) == 0 {
		abortWithError(c, http.StatusBadRequest, "no restaurant sections found in content")
		return
	}
	namespace := req.Namespace
	if namespace == "" {
		namespace = s.namespace
	}

	report, err := s.deps.Ingester.Ingest(c.Request.Context(), namespace, ingest.RestaurantDocuments(restaurants, s.now()))
	if err != nil {
		s.log.Error().Err(err).Str("namespace", namespace).Msg("Restaurant ingestion failed")
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, pkg.IngestResponse{
		Ingested:  report.Upserted,
		Skipped:   report.Skipped,
		Namespace: namespace,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.HealthResponse{Status: "ok"})
}
