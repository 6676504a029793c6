package summary

import (
	"time"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
)

// Record describes one completed export.
type Record struct {
	ID         string             `json:"id"`
	Request    gridmet.Request    `json:"request"`
	Descriptor gridmet.Descriptor `json:"descriptor"`
	Files      []string           `json:"files"`
	Sink       string             `json:"sink"`
	CreatedAt  time.Time          `json:"createdAt"` // always UTC
	Duration   time.Duration      `json:"durationNs"`
}

// Variable is the band the record was computed for.
func (r Record) Variable() string {
	return r.Descriptor.Band
}

// Preset is a named recurring aggregation.
type Preset string

const (
	// PresetMonthlyPrecip sums precipitation over the last complete month.
	PresetMonthlyPrecip Preset = "monthly_precip"
	// PresetAnnualPrecip sums precipitation over the twelve complete months
	// ending with the last complete month.
	PresetAnnualPrecip Preset = "annual_precip"
)
