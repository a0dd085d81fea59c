package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"gasmeter-platform/internal/repository"
	"gasmeter-platform/internal/services"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

// ReadingHandler handles the dashboard API endpoints.
type ReadingHandler struct {
	readingService *services.ReadingService
	statsService   *services.StatisticsService
	reportService  *services.ReportService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewReadingHandler creates a new reading handler.
func NewReadingHandler(
	readingService *services.ReadingService,
	statsService *services.StatisticsService,
	reportService *services.ReportService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ReadingHandler {
	return &ReadingHandler{
		readingService: readingService,
		statsService:   statsService,
		reportService:  reportService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// GetReadings handles GET /api/readings
func (h *ReadingHandler) GetReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/readings").Observe(duration.Seconds())
	}()

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	filter := repository.ReadingFilter{
		Limit:  limit,
		Offset: offset,
	}

	if city := r.URL.Query().Get("city"); city != "" {
		filter.City = &city
	}

	if account := r.URL.Query().Get("account_number"); account != "" {
		filter.AccountNumber = &account
	}

	if meterID := r.URL.Query().Get("meter_id"); meterID != "" {
		filter.MeterID = &meterID
	}

	if startDateStr := r.URL.Query().Get("start_date"); startDateStr != "" {
		startDate, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &startDate
	}

	if endDateStr := r.URL.Query().Get("end_date"); endDateStr != "" {
		endDate, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &endDate
	}

	if season := r.URL.Query().Get("season"); season != "" {
		switch season {
		case "winter", "spring", "summer", "autumn":
			filter.Season = &season
		default:
			h.sendError(w, r, "invalid season, expected winter, spring, summer or autumn", http.StatusBadRequest)
			return
		}
	}

	if heatingStr := r.URL.Query().Get("heating_season"); heatingStr != "" {
		heating, err := strconv.ParseBool(heatingStr)
		if err != nil {
			h.sendError(w, r, "invalid heating_season, expected true or false", http.StatusBadRequest)
			return
		}
		filter.HeatingSeason = &heating
	}

	readings, total, err := h.readingService.GetReadings(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_READINGS_ERROR] Failed to get readings", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/readings")
		h.sendError(w, r, "failed to retrieve readings", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       readings,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/readings", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetConsumptionStats handles GET /api/readings/stats
func (h *ReadingHandler) GetConsumptionStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/readings/stats").Observe(duration.Seconds())
	}()

	filter := repository.StatsFilter{}

	if city := r.URL.Query().Get("city"); city != "" {
		filter.City = &city
	}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 1900 || year > 2100 {
			h.sendError(w, r, "invalid year, expected a four-digit year", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	stats, err := h.readingService.GetConsumptionStats(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATS_ERROR] Failed to get consumption stats", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/readings/stats")
		h.sendError(w, r, "failed to retrieve statistics", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/readings/stats", "GET", "200")
	h.sendJSON(w, stats, http.StatusOK)
}

// GetSubscriberFeatures handles GET /api/subscribers/features
func (h *ReadingHandler) GetSubscriberFeatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/subscribers/features").Observe(duration.Seconds())
	}()

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	filter := repository.FeatureFilter{
		Limit:  limit,
		Offset: offset,
	}

	if account := r.URL.Query().Get("account_number"); account != "" {
		filter.AccountNumber = &account
	}

	if category := r.URL.Query().Get("seasonality_category"); category != "" {
		switch category {
		case "high", "medium", "low":
			filter.SeasonalityCategory = &category
		default:
			h.sendError(w, r, "invalid seasonality_category, expected high, medium or low", http.StatusBadRequest)
			return
		}
	}

	features, total, err := h.statsService.GetSubscriberFeatures(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_FEATURES_ERROR] Failed to get subscriber features", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/subscribers/features")
		h.sendError(w, r, "failed to retrieve subscriber features", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       features,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/subscribers/features", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetConsumptionReport handles GET /api/reports/consumption
func (h *ReadingHandler) GetConsumptionReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/reports/consumption").Observe(duration.Seconds())
	}()

	var year *int
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 1900 || y > 2100 {
			h.sendError(w, r, "invalid year, expected a four-digit year", http.StatusBadRequest)
			return
		}
		year = &y
	}

	report, err := h.reportService.BuildConsumptionReport(ctx, year)
	if err != nil {
		h.logger.Error(ctx, "[API_REPORT_ERROR] Failed to build consumption report", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/reports/consumption")
		h.sendError(w, r, "failed to build report", http.StatusInternalServerError)
		return
	}

	fileName := "consumption_report.xlsx"
	if year != nil {
		fileName = fmt.Sprintf("consumption_report_%d.xlsx", *year)
	}

	h.metrics.RecordAPIRequest("/api/reports/consumption", "GET", "200")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	w.Write(report)
}

// HealthCheck handles GET /health
func (h *ReadingHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parsePagination extracts page/limit query parameters with defaults.
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	return page, limit
}

// sendJSON sends a JSON response.
func (h *ReadingHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response.
func (h *ReadingHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all dashboard API routes.
func (h *ReadingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/readings", h.GetReadings).Methods("GET")
	router.HandleFunc("/api/readings/stats", h.GetConsumptionStats).Methods("GET")
	router.HandleFunc("/api/subscribers/features", h.GetSubscriberFeatures).Methods("GET")
	router.HandleFunc("/api/reports/consumption", h.GetConsumptionReport).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
