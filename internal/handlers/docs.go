package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the gas meter
// platform API.
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Gas Meter Platform API",
			"description": "Gas-meter consumption data platform: normalized readings, aggregate statistics, subscriber features and report export",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Gas Meter Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/readings": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List meter readings",
					"description": "Retrieve normalized meter readings with filtering and pagination",
					"parameters": []map[string]interface{}{
						queryParam("city", "Filter by city or management label", "string"),
						queryParam("account_number", "Filter by subscriber account number", "string"),
						queryParam("meter_id", "Filter by meter identifier", "string"),
						queryParam("start_date", "Filter by start date (YYYY-MM-DD)", "string"),
						queryParam("end_date", "Filter by end date (YYYY-MM-DD)", "string"),
						queryParam("season", "Filter by season (winter, spring, summer, autumn)", "string"),
						queryParam("heating_season", "Filter by heating-season flag", "boolean"),
						queryParam("page", "Page number (default: 1)", "integer"),
						queryParam("limit", "Records per page (default: 100, max: 1000)", "integer"),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Paginated list of readings"},
						"400": map[string]interface{}{"description": "Invalid filter parameter"},
					},
				},
			},
			"/api/readings/stats": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Aggregate consumption statistics",
					"description": "Reading count, mean and total consumption, distinct subscriber and meter counts",
					"parameters": []map[string]interface{}{
						queryParam("city", "Restrict to one city", "string"),
						queryParam("year", "Restrict to one year", "integer"),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Aggregate statistics"},
						"400": map[string]interface{}{"description": "Invalid filter parameter"},
					},
				},
			},
			"/api/subscribers/features": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Per-subscriber consumption features",
					"description": "Pre-calculated per-account aggregates including seasonality ratio and category",
					"parameters": []map[string]interface{}{
						queryParam("account_number", "Filter by subscriber account number", "string"),
						queryParam("seasonality_category", "Filter by category (high, medium, low)", "string"),
						queryParam("page", "Page number (default: 1)", "integer"),
						queryParam("limit", "Records per page (default: 100, max: 1000)", "integer"),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Paginated list of subscriber features"},
						"400": map[string]interface{}{"description": "Invalid filter parameter"},
					},
				},
			},
			"/api/reports/consumption": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Download consumption report",
					"description": "XLSX workbook with an overall summary and a per-city breakdown",
					"parameters": []map[string]interface{}{
						queryParam("year", "Restrict the report to one year", "integer"),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "XLSX report attachment"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is healthy"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(spec)
}

func queryParam(name, description, typ string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      map[string]string{"type": typ},
	}
}
