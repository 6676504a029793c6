package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
	"github.com/i474232898/gridmet-summary/internal/store"
	"github.com/i474232898/gridmet-summary/internal/summary"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *summary.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/catalog", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"variables":  gridmet.Variables(),
			"timeUnits":  gridmet.TimeUnits(),
			"statistics": gridmet.Statistics(),
		})
	})

	v1.Post("/summaries/preview", func(c *fiber.Ctx) error {
		req, err := parseSummaryBody(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		d, err := service.Preview(req)
		if err != nil {
			return validationResponse(c, err)
		}
		return c.JSON(d)
	})

	v1.Post("/summaries", func(c *fiber.Ctx) error {
		req, err := parseSummaryBody(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := service.Run(c.UserContext(), req)
		if err != nil {
			var verr *gridmet.ValidationError
			if errors.As(err, &verr) {
				return validationResponse(c, err)
			}
			return fiber.NewError(fiber.StatusBadGateway, "export failed: "+err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	v1.Get("/summaries/latest", func(c *fiber.Ctx) error {
		variable := c.Query("variable")
		if variable == "" {
			return fiber.NewError(fiber.StatusBadRequest, "variable query parameter is required")
		}

		rec, err := service.Latest(variable)
		if err != nil {
			return lookupError(err, "no exports for requested variable")
		}
		return c.JSON(rec)
	})

	v1.Get("/summaries/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		recs, err := service.History(req.Variable, req.From, req.To)
		if err != nil {
			return lookupError(err, "no exports for requested range")
		}

		return c.JSON(fiber.Map{
			"variable": req.Variable,
			"from":     req.From,
			"to":       req.To,
			"records":  recs,
		})
	})

	v1.Get("/summaries/:id", func(c *fiber.Ctx) error {
		rec, err := service.Get(c.Params("id"))
		if err != nil {
			return lookupError(err, "export not found")
		}
		return c.JSON(rec)
	})
}

// RegisterMetrics exposes the gatherer's metrics at /metrics.
func RegisterMetrics(app *fiber.App, gatherer prometheus.Gatherer) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to read exports")
}

func validationResponse(c *fiber.Ctx, err error) error {
	var verr *gridmet.ValidationError
	if !errors.As(err, &verr) {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   true,
		"kind":    verr.Kind,
		"field":   verr.Field,
		"value":   verr.Value,
		"message": verr.Error(),
		"options": verr.Options,
	})
}

// summaryBody is the JSON payload for preview and export requests. Catalog
// membership is checked by the request builder so the response can list the
// valid options.
type summaryBody struct {
	Region     string `json:"region" validate:"omitempty,max=100"`
	Variable   string `json:"variable"`
	Year       int    `json:"year" validate:"required"`
	Month      int    `json:"month" validate:"required"`
	Day        int    `json:"day" validate:"required"`
	Length     int    `json:"length"`
	Unit       string `json:"unit"`
	Statistic  string `json:"statistic"`
	OutputPath string `json:"outputPath" validate:"omitempty,max=512"`
}

func parseSummaryBody(c *fiber.Ctx) (gridmet.Request, error) {
	var b summaryBody
	if err := c.BodyParser(&b); err != nil {
		return gridmet.Request{}, err
	}
	if err := validate.Struct(b); err != nil {
		return gridmet.Request{}, err
	}
	return gridmet.Request{
		Region:     b.Region,
		Variable:   b.Variable,
		Year:       b.Year,
		Month:      b.Month,
		Day:        b.Day,
		Length:     b.Length,
		Unit:       b.Unit,
		Statistic:  b.Statistic,
		OutputPath: b.OutputPath,
	}, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Variable string    `validate:"required"`
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Variable = c.Query("variable")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
