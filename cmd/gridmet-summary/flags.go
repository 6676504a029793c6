package main

import (
	"github.com/spf13/pflag"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
)

// parseRequestFlags reads an aggregation request from command-line flags.
func parseRequestFlags(name string, args []string) (gridmet.Request, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	var req gridmet.Request
	fs.StringVar(&req.Region, "region", gridmet.DefaultRegion, "state boundary to clip to")
	fs.StringVar(&req.Variable, "variable", "pr", "GRIDMET band")
	fs.IntVar(&req.Year, "year", 0, "start year")
	fs.IntVar(&req.Month, "month", 1, "start month (1-12)")
	fs.IntVar(&req.Day, "day", 1, "start day of month")
	fs.IntVar(&req.Length, "length", 1, "window length in units")
	fs.StringVar(&req.Unit, "unit", "month", "window unit: year, month, week, day, hour, minute or second")
	fs.StringVar(&req.Statistic, "stat", "mean", "summary statistic: mean or sum")
	fs.StringVarP(&req.OutputPath, "out", "o", "", "output GeoTIFF path")

	if err := fs.Parse(args); err != nil {
		return gridmet.Request{}, err
	}
	return req, nil
}
