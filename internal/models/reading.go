package models

import (
	"time"
)

// RawReading represents one row of a raw meter export before cleaning.
// The input files are header-less with a fixed six-column layout.
type RawReading struct {
	City          string
	AccountNumber string
	MeterID       string
	ReadingDate   string
	Consumption   string
	ReadingMethod string
}

// CleanReading represents a normalized meter reading with derived
// calendar features. Consumption is a pointer because a row may carry
// an unparseable value through the cleaning stage; such rows are
// dropped before database persistence.
type CleanReading struct {
	ID            int64     `json:"id" db:"id"`
	City          string    `json:"city" db:"city"`
	AccountNumber string    `json:"account_number" db:"account_number"`
	MeterID       string    `json:"meter_id" db:"meter_id"`
	ReadingDate   time.Time `json:"reading_date" db:"reading_date"`
	Consumption   *float64  `json:"consumption,omitempty" db:"consumption"`
	ReadingMethod string    `json:"reading_method" db:"reading_method"`
	Month         int       `json:"month" db:"month"`
	Year          int       `json:"year" db:"year"`
	Quarter       int       `json:"quarter" db:"quarter"`
	Season        string    `json:"season" db:"season"`
	HeatingSeason bool      `json:"heating_season" db:"heating_season"`
	SourceFile    string    `json:"source_file,omitempty" db:"source_file"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ConsumptionStats holds aggregate statistics over a set of readings.
type ConsumptionStats struct {
	ReadingCount        int      `json:"reading_count" db:"reading_count"`
	MeanConsumption     *float64 `json:"mean_consumption,omitempty" db:"mean_consumption"`
	TotalConsumption    *float64 `json:"total_consumption,omitempty" db:"total_consumption"`
	DistinctSubscribers int      `json:"distinct_subscribers" db:"distinct_subscribers"`
	DistinctMeters      int      `json:"distinct_meters" db:"distinct_meters"`
	DistinctCities      int      `json:"distinct_cities" db:"distinct_cities"`
}

// ReadingMethodCount holds the number of stored readings per reading
// method, part of the post-import summary.
type ReadingMethodCount struct {
	ReadingMethod string `json:"reading_method" db:"reading_method"`
	Count         int    `json:"count" db:"count"`
}

// SubscriberFeatures holds pre-calculated per-account consumption
// features used by the dashboard and downstream analysis.
type SubscriberFeatures struct {
	AccountNumber       string    `json:"account_number" db:"account_number"`
	MeanConsumption     *float64  `json:"mean_consumption,omitempty" db:"mean_consumption"`
	StdConsumption      *float64  `json:"std_consumption,omitempty" db:"std_consumption"`
	MinConsumption      *float64  `json:"min_consumption,omitempty" db:"min_consumption"`
	MaxConsumption      *float64  `json:"max_consumption,omitempty" db:"max_consumption"`
	RecordCount         int       `json:"record_count" db:"record_count"`
	ObservationDays     int       `json:"observation_days" db:"observation_days"`
	WinterMean          *float64  `json:"winter_mean,omitempty" db:"winter_mean"`
	SummerMean          *float64  `json:"summer_mean,omitempty" db:"summer_mean"`
	SeasonalityRatio    *float64  `json:"seasonality_ratio,omitempty" db:"seasonality_ratio"`
	SeasonalityCategory string    `json:"seasonality_category" db:"seasonality_category"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// CityAggregate holds per-city consumption aggregates for reporting.
type CityAggregate struct {
	City                string   `json:"city" db:"city"`
	ReadingCount        int      `json:"reading_count" db:"reading_count"`
	MeanConsumption     *float64 `json:"mean_consumption,omitempty" db:"mean_consumption"`
	TotalConsumption    *float64 `json:"total_consumption,omitempty" db:"total_consumption"`
	DistinctSubscribers int      `json:"distinct_subscribers" db:"distinct_subscribers"`
}
