package gridmet

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultRegion is the state boundary used when a request names none.
	DefaultRegion = "California"

	// ExportScale is the output pixel size in meters.
	ExportScale = 1000

	boundaryCollection = "TIGER/2018/States"
	boundaryProperty   = "NAME"
)

// Request describes one aggregation over a GRIDMET band.
type Request struct {
	Region     string `json:"region,omitempty"`
	Variable   string `json:"variable"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	Length     int    `json:"length"`
	Unit       string `json:"unit"`
	Statistic  string `json:"statistic"`
	OutputPath string `json:"outputPath,omitempty"`
}

// Region references a boundary feature resolved by the imagery platform.
type Region struct {
	Collection string `json:"collection"`
	Property   string `json:"property"`
	Name       string `json:"name"`
}

// ExportParams controls how the computed image is written out.
type ExportParams struct {
	Path        string  `json:"path"`
	FilePerBand bool    `json:"filePerBand"`
	Scale       float64 `json:"scale"`
	Clip        bool    `json:"clip"`
}

// Descriptor is a fully validated query ready for the imagery platform.
type Descriptor struct {
	Collection string       `json:"collection"`
	Band       string       `json:"band"`
	Window     Window       `json:"window"`
	Reducer    Reducer      `json:"reducer"`
	Region     Region       `json:"region"`
	Export     ExportParams `json:"export"`
}

// Build validates req and derives its query descriptor. Checks run in order
// and the first failure is returned as a *ValidationError.
func Build(req Request) (Descriptor, error) {
	if !IsVariable(req.Variable) {
		return Descriptor{}, &ValidationError{
			Kind:    KindUnsupportedVariable,
			Field:   "variable",
			Value:   req.Variable,
			Options: Variables(),
		}
	}
	if !IsTimeUnit(req.Unit) {
		return Descriptor{}, &ValidationError{
			Kind:    KindUnsupportedTimeUnit,
			Field:   "unit",
			Value:   req.Unit,
			Options: TimeUnits(),
		}
	}

	start, err := startDate(req.Year, req.Month, req.Day)
	if err != nil {
		return Descriptor{}, err
	}
	if !canAdvance(start, req.Length, TimeUnit(req.Unit)) {
		return Descriptor{}, &ValidationError{
			Kind:  KindInvalidWindowLength,
			Field: "length",
			Value: strconv.Itoa(req.Length),
		}
	}
	window := Window{Start: start, End: Advance(start, req.Length, TimeUnit(req.Unit))}

	reducer, ok := reducerFor(req.Statistic)
	if !ok {
		return Descriptor{}, &ValidationError{
			Kind:    KindUnsupportedStatistic,
			Field:   "statistic",
			Value:   req.Statistic,
			Options: Statistics(),
		}
	}

	region := req.Region
	if region == "" {
		region = DefaultRegion
	}
	path := req.OutputPath
	if path == "" {
		path = DefaultOutputPath(req, start)
	}

	return Descriptor{
		Collection: Collection,
		Band:       req.Variable,
		Window:     window,
		Reducer:    reducer,
		Region: Region{
			Collection: boundaryCollection,
			Property:   boundaryProperty,
			Name:       region,
		},
		Export: ExportParams{
			Path:        path,
			FilePerBand: true,
			Scale:       ExportScale,
			Clip:        true,
		},
	}, nil
}

// DefaultOutputPath names the export after its variable, statistic and window.
func DefaultOutputPath(req Request, start time.Time) string {
	name := fmt.Sprintf("%s_%s_%s_%d%s.tif", req.Variable, req.Statistic, start.Format("20060102"), req.Length, req.Unit)
	return filepath.Join("data", req.Variable, name)
}

func startDate(year, month, day int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, &ValidationError{
			Kind:  KindInvalidStartDate,
			Field: "start",
			Value: fmt.Sprintf("%04d-%02d-%02d", year, month, day),
		}
	}
	return t, nil
}
