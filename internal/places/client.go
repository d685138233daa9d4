// Package places looks restaurants up in an external places service and
// caches the results in Redis.
package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"circles/internal/cache"
	"circles/internal/models"
	"circles/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const (
	serviceName   = "places"
	defaultRadius = 10000
	// searchRating fills a missing rating on text search results.
	searchRating = 4.0
)

const detailFields = "place_id,name,formatted_address,formatted_phone_number,website,opening_hours," +
	"types,price_level,geometry,rating,editorial_summary"

// ErrNotConfigured means no API key was provided.
var ErrNotConfigured = errors.New("places api key not configured")

// Bias narrows a text search around a point.
type Bias struct {
	Lat    float64
	Lng    float64
	Radius int
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client queries the places text search and details endpoints.
type Client struct {
	cfg   Config
	http  *fiber.Client
	store *cache.Store
}

// NewClient returns a Client. store may be nil to disable caching.
func NewClient(cfg Config, store *cache.Store) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: &fiber.Client{}, store: store}
}

// Search runs a text search for restaurants matching query.
func (c *Client) Search(ctx context.Context, query string, bias *Bias) ([]Place, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query+" restaurant")
	params.Set("type", "restaurant")
	keyParts := []string{query}
	if bias != nil {
		radius := bias.Radius
		if radius <= 0 {
			radius = defaultRadius
		}
		loc := strconv.FormatFloat(bias.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(bias.Lng, 'f', 6, 64)
		params.Set("location", loc)
		params.Set("radius", strconv.Itoa(radius))
		keyParts = append(keyParts, loc, strconv.Itoa(radius))
	}

	var out []Place
	err := c.store.Aside(ctx, cache.PlacesSearchKey(keyParts...), &out, cache.PlacesSearchTTL, func() error {
		var resp searchResponse
		if err := c.get(ctx, "search", "/textsearch/json", params, &resp); err != nil {
			return err
		}
		switch resp.Status {
		case "OK":
		case "ZERO_RESULTS":
			out = []Place{}
			return nil
		default:
			return upstreamStatus("search", resp.Status, resp.ErrorMessage)
		}
		out = make([]Place, 0, len(resp.Results))
		for _, r := range resp.Results {
			out = append(out, r.toPlace(searchRating))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Details fetches one place. An unknown place id returns (nil, nil).
func (c *Client) Details(ctx context.Context, placeID string) (*Place, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)

	var place *Place
	err := c.store.Aside(ctx, cache.PlacesDetailsKey(placeID), &place, cache.PlacesDetailsTTL, func() error {
		var resp detailsResponse
		if err := c.get(ctx, "details", "/details/json", params, &resp); err != nil {
			return err
		}
		switch resp.Status {
		case "OK":
			p := resp.Result.toPlace(0)
			if p.PlaceID == "" {
				p.PlaceID = placeID
			}
			place = &p
			return nil
		case "NOT_FOUND", "ZERO_RESULTS", "INVALID_REQUEST":
			return errNoPlace
		default:
			return upstreamStatus("details", resp.Status, resp.ErrorMessage)
		}
	})
	if errors.Is(err, errNoPlace) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return place, nil
}

// errNoPlace keeps an unknown place id out of the cache.
var errNoPlace = errors.New("place not found")

func (c *Client) get(ctx context.Context, op, path string, params url.Values, dest any) error {
	ctx, span := observability.StartClientSpan(ctx, serviceName, op)
	defer span.End()

	if c.cfg.APIKey == "" {
		observability.PlacesRequests.WithLabelValues(op, "unconfigured").Inc()
		return models.NewUpstreamError(serviceName, ErrNotConfigured)
	}
	params.Set("key", c.cfg.APIKey)

	start := time.Now()
	code, _, errs := c.http.Get(c.cfg.BaseURL + path + "?" + params.Encode()).
		Timeout(c.cfg.Timeout).
		Struct(dest)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		observability.PlacesRequests.WithLabelValues(op, "error").Inc()
		observability.RecordErrorInContext(ctx, err)
		slog.WarnContext(ctx, "places request failed", slog.String("operation", op), slog.Any("error", err))
		return models.NewUpstreamError(serviceName, err)
	}
	if code != fiber.StatusOK {
		err := fmt.Errorf("unexpected status %d", code)
		observability.PlacesRequests.WithLabelValues(op, "error").Inc()
		observability.RecordErrorInContext(ctx, err)
		return models.NewUpstreamError(serviceName, err)
	}

	observability.PlacesRequests.WithLabelValues(op, "ok").Inc()
	slog.DebugContext(ctx, "places request",
		slog.String("operation", op),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func upstreamStatus(op, status, message string) error {
	observability.PlacesRequests.WithLabelValues(op, strings.ToLower(status)).Inc()
	if message != "" {
		return models.NewUpstreamError(serviceName, fmt.Errorf("status %s: %s", status, message))
	}
	return models.NewUpstreamError(serviceName, fmt.Errorf("status %s", status))
}
