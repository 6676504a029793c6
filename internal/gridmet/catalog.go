package gridmet

import "slices"

// Collection is the GRIDMET daily surface meteorology collection.
const Collection = "IDAHO_EPSCOR/GRIDMET"

// variables lists the GRIDMET bands accepted as aggregation targets.
var variables = []string{
	"pr", "rmax", "rmin", "sph", "srad", "th", "tmmn", "tmmx",
	"vs", "erc", "eto", "bi", "fm100", "fm1000", "etr", "vpd",
}

// TimeUnit is a calendar granularity used to size an aggregation window.
type TimeUnit string

const (
	UnitYear   TimeUnit = "year"
	UnitMonth  TimeUnit = "month"
	UnitWeek   TimeUnit = "week"
	UnitDay    TimeUnit = "day"
	UnitHour   TimeUnit = "hour"
	UnitMinute TimeUnit = "minute"
	UnitSecond TimeUnit = "second"
)

var timeUnits = []TimeUnit{UnitYear, UnitMonth, UnitWeek, UnitDay, UnitHour, UnitMinute, UnitSecond}

// Reducer is the server-side aggregation applied across the filtered collection.
type Reducer string

const (
	ReducerSum  Reducer = "sum"
	ReducerMean Reducer = "mean"
)

// Variables returns a copy of the variable catalog.
func Variables() []string {
	return slices.Clone(variables)
}

// TimeUnits returns the time-unit catalog as strings.
func TimeUnits() []string {
	out := make([]string, len(timeUnits))
	for i, u := range timeUnits {
		out[i] = string(u)
	}
	return out
}

// Statistics returns the supported summary statistics.
func Statistics() []string {
	return []string{string(ReducerMean), string(ReducerSum)}
}

// IsVariable reports whether v is a GRIDMET band in the catalog.
func IsVariable(v string) bool {
	return slices.Contains(variables, v)
}

// IsTimeUnit reports whether u is a supported calendar granularity.
func IsTimeUnit(u string) bool {
	return slices.Contains(timeUnits, TimeUnit(u))
}

func reducerFor(stat string) (Reducer, bool) {
	switch stat {
	case "sum":
		return ReducerSum, true
	case "mean":
		return ReducerMean, true
	default:
		return "", false
	}
}
