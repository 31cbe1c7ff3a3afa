// Package location resolves place names to coordinates and back using Nominatim.
package location

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ai_hoi/src/logger"
	"ai_hoi/src/model"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Resolver is the geocoding capability used by the chat pipeline and /location
type Resolver interface {
	Resolve(ctx context.Context, text string) *model.Coordinates
	Reverse(ctx context.Context, lat, lon float64) (*model.ReverseGeocode, error)
}

var ErrNoAddress = errors.New("nominatim returned no address")

// StatusError is a non-200 reply from Nominatim
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nominatim returned status %d: %s", e.Code, e.Body)
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseReply struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// areaKeys is the order in which address components name the area
var areaKeys = []string{"suburb", "town", "city", "county", "state"}

type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	reverse   singleflight.Group
	log       zerolog.Logger
}

func NewNominatim(config model.GeoConfig) *Nominatim {
	limit := rate.Inf
	if config.RatePerSecond > 0 {
		limit = rate.Limit(config.RatePerSecond)
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		userAgent: config.UserAgent,
		client:    &http.Client{Timeout: config.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		log:       logger.With("location"),
	}
}

// Resolve geocodes free text. Nil means the place could not be resolved.
func (n *Nominatim) Resolve(ctx context.Context, text string) *model.Coordinates {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	var hits []searchHit
	if err := n.get(ctx, "/search", params, &hits); err != nil {
		n.log.Warn().Err(err).Str("query", text).Msg("Geocoding failed")
		return nil
	}
	if len(hits) == 0 {
		n.log.Info().Str("query", text).Msg("No geocoding results")
		return nil
	}

	lat, errLat := strconv.ParseFloat(hits[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(hits[0].Lon, 64)
	if errLat != nil || errLon != nil {
		n.log.Warn().Str("lat", hits[0].Lat).Str("lon", hits[0].Lon).Msg("Unparseable geocoding coordinates")
		return nil
	}
	coords := &model.Coordinates{Lat: lat, Lon: lon}
	if !coords.Valid() {
		return nil
	}
	n.log.Debug().Str("query", text).Stringer("coords", coords).Msg("Location resolved")
	return coords
}

// Reverse describes a coordinate. Concurrent lookups of the same point share one
// request, which outlives any single caller's cancellation but not the client timeout.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (*model.ReverseGeocode, error) {
	key := strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
	ch := n.reverse.DoChan(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if n.client.Timeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, n.client.Timeout)
			defer cancel()
		}
		return n.lookupReverse(shared, lat, lon)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		geo := *res.Val.(*model.ReverseGeocode)
		return &geo, nil
	}
}

func (n *Nominatim) lookupReverse(ctx context.Context, lat, lon float64) (*model.ReverseGeocode, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")

	var reply reverseReply
	if err := n.get(ctx, "/reverse", params, &reply); err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAddress, reply.Error)
	}

	address := reply.Address
	if address == nil {
		address = map[string]string{}
	}
	return &model.ReverseGeocode{
		DisplayName:    reply.DisplayName,
		AreaName:       AreaName(address, reply.DisplayName),
		AddressDetails: address,
	}, nil
}

// AreaName picks the most local named component, falling back to the display name
func AreaName(address map[string]string, displayName string) string {
	for _, key := range areaKeys {
		if v := strings.TrimSpace(address[key]); v != "" {
			return v
		}
	}
	return displayName
}

func (n *Nominatim) get(ctx context.Context, path string, params url.Values, dest any) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("nominatim rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read nominatim response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := sonic.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	return nil
}
