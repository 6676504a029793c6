package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
)

const (
	// DefaultBaseURL is the public Earth Engine REST endpoint.
	DefaultBaseURL = "https://earthengine.googleapis.com"

	// Scope is the OAuth scope required for Earth Engine computations.
	Scope = "https://www.googleapis.com/auth/earthengine"

	fileFormatPerBand = "ZIPPED_GEO_TIFF_PER_BAND"
)

// ErrSessionClosed is returned by calls made after Close.
var ErrSessionClosed = errors.New("earth engine session closed")

// Config holds the settings used to open a Session.
type Config struct {
	Project         string
	BaseURL         string
	CredentialsFile string
	Timeout         time.Duration
	Backoff         *BackoffConfig

	// HTTPClient replaces the OAuth client when set.
	HTTPClient *http.Client

	Logger        *zap.Logger
	OnStateChange func(name string, from, to gobreaker.State)
}

// Session is an authenticated handle to the Earth Engine API. Create one at
// startup, share it across requests, and Close it on shutdown.
type Session struct {
	project string
	baseURL string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
	closed  atomic.Bool
}

// NewSession authenticates against Earth Engine and returns a ready session.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Project == "" {
		return nil, errors.New("earth engine project is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		c, err := authenticatedClient(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		c.Timeout = cfg.Timeout
		client = c
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	backoff := DefaultBackoff
	if cfg.Backoff != nil {
		backoff = *cfg.Backoff
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          "earthengine",
		MaxRequests:   5,
		Interval:      1 * time.Minute,
		Timeout:       2 * time.Minute,
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  countsAsSuccess,
	})

	return &Session{
		project: cfg.Project,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		backoff: backoff,
		circuit: cb,
		logger:  logger,
	}, nil
}

func authenticatedClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	if credentialsFile == "" {
		return google.DefaultClient(ctx, Scope)
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, data, Scope)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}

// Project returns the cloud project the session bills against.
func (s *Session) Project() string {
	return s.project
}

// Close releases the session. Subsequent calls fail with ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.client.CloseIdleConnections()
	return nil
}

// Download computes the descriptor's image and returns it as a zip archive
// holding one GeoTIFF per band.
func (s *Session) Download(ctx context.Context, d gridmet.Descriptor) ([]byte, error) {
	name, err := s.CreateDownload(ctx, d)
	if err != nil {
		return nil, err
	}
	return s.GetPixels(ctx, name)
}

type thumbnailRequest struct {
	Expression Expression `json:"expression"`
	FileFormat string     `json:"fileFormat"`
	BandIDs    []string   `json:"bandIds"`
	Grid       pixelGrid  `json:"grid"`
}

type pixelGrid struct {
	AffineTransform affineTransform `json:"affineTransform"`
}

type affineTransform struct {
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
}

// CreateDownload registers the computation and returns the resource name
// from which pixels can be fetched.
func (s *Session) CreateDownload(ctx context.Context, d gridmet.Descriptor) (string, error) {
	if s.closed.Load() {
		return "", ErrSessionClosed
	}

	body, err := json.Marshal(thumbnailRequest{
		Expression: Encode(d),
		FileFormat: fileFormatPerBand,
		BandIDs:    []string{d.Band},
		Grid: pixelGrid{AffineTransform: affineTransform{
			ScaleX: d.Export.Scale,
			ScaleY: -d.Export.Scale,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/projects/%s/thumbnails", s.baseURL, s.project)
	resp, err := doRequestWithResilience(ctx, s.client, s.backoff, s.circuit, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("create download: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if payload.Name == "" {
		return "", errors.New("create download: response has no name")
	}

	s.logger.Debug("earth engine download created",
		zap.String("name", payload.Name),
		zap.String("band", d.Band),
		zap.Time("start", d.Window.Start),
		zap.Time("end", d.Window.End),
	)
	return payload.Name, nil
}

// GetPixels fetches the computed archive for a download name.
func (s *Session) GetPixels(ctx context.Context, name string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	u := fmt.Sprintf("%s/v1/%s:getPixels", s.baseURL, name)
	resp, err := doRequestWithResilience(ctx, s.client, s.backoff, s.circuit, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("get pixels: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	return data, nil
}
