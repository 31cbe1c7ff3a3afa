// Package places searches nearby restaurants through the Foursquare Places API.
package places

import (
	"context"
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
)

const defaultKeyword = "restaurant"

// Client is the places capability used by the chat pipeline
type Client interface {
	Search(ctx context.Context, query Query) Result
}

type Query struct {
	Lat     float64
	Lon     float64
	Keyword string
	Radius  int
	Limit   int
}

// StatusError is a non-200 reply from Foursquare
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Foursquare API returned status %d. Response: %s", e.Code, e.Body)
}

type searchReply struct {
	Results []struct {
		Name     string `json:"name"`
		Distance *int   `json:"distance"`
		Location struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"location"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	} `json:"results"`
}

type Foursquare struct {
	baseURL    string
	apiKey     string
	apiVersion string
	radius     int
	limit      int
	client     *http.Client
	log        zerolog.Logger
}

func NewFoursquare(config model.PlacesConfig) *Foursquare {
	return &Foursquare{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		apiVersion: config.APIVersion,
		radius:     config.Radius,
		limit:      config.Limit,
		client:     &http.Client{Timeout: config.Timeout},
		log:        logger.With("places"),
	}
}

// Search never returns an error; failures are reported through Result.Status
func (f *Foursquare) Search(ctx context.Context, query Query) Result {
	if query.Keyword == "" {
		query.Keyword = defaultKeyword
	}
	if query.Radius <= 0 {
		query.Radius = f.radius
	}
	if query.Limit <= 0 {
		query.Limit = f.limit
	}

	venues, err := f.search(ctx, query)
	if err != nil {
		f.log.Warn().Err(err).Str("keyword", query.Keyword).Msg("Places search failed")
		return Result{Status: StatusFailed, Err: err}
	}
	if len(venues) == 0 {
		return Result{Status: StatusEmpty}
	}
	f.log.Debug().Int("venues", len(venues)).Str("keyword", query.Keyword).Msg("Places found")
	return Result{Status: StatusOK, Venues: venues}
}

func (f *Foursquare) search(ctx context.Context, query Query) ([]Venue, error) {
	params := url.Values{}
	params.Set("ll", model.Coordinates{Lat: query.Lat, Lon: query.Lon}.String())
	params.Set("query", query.Keyword)
	params.Set("radius", strconv.Itoa(query.Radius))
	params.Set("limit", strconv.Itoa(query.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/places/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Foursquare request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Places-Api-Version", f.apiVersion)
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Foursquare request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Foursquare response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var reply searchReply
	if err := sonic.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode Foursquare response: %w", err)
	}

	venues := make([]Venue, 0, len(reply.Results))
	for _, r := range reply.Results {
		v := Venue{
			Name:     r.Name,
			Address:  r.Location.FormattedAddress,
			Distance: r.Distance,
		}
		for _, c := range r.Categories {
			if c.Name != "" {
				v.Categories = append(v.Categories, c.Name)
			}
		}
		venues = append(venues, v)
	}
	return venues, nil
}
