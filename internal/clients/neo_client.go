package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"neowatch/internal/models"
)

const (
	DefaultNEOURL  = "https://api.nasa.gov/neo/rest/v1/feed"
	DemoAPIKey     = "DEMO_KEY"
	DefaultTimeout = 30 * time.Second
)

//go:generate mockgen -source=neo_client.go -destination=mocks/neo_client_mock.go -package=mocks

// NEOClient загружает одно окно фида NeoWs. Клиент не повторяет запросы
// и не хранит состояние между вызовами.
type NEOClient interface {
	FetchFeed(ctx context.Context, window models.DateWindow) (*models.Batch, error)
}

type neoClient struct {
	apiKey string
	neoURL string
	client *http.Client
}

type NEOConfig struct {
	APIKey  string
	NEOURL  string
	Timeout time.Duration
}

func NewNEOClient(config NEOConfig) NEOClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return NewNEOClientWithHTTP(config, &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:       10,
			IdleConnTimeout:    30 * time.Second,
			DisableCompression: false,
		},
	})
}

func NewNEOClientWithHTTP(config NEOConfig, httpClient *http.Client) NEOClient {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = DemoAPIKey
	}

	neoURL := config.NEOURL
	if neoURL == "" {
		neoURL = DefaultNEOURL
	}

	return &neoClient{
		apiKey: apiKey,
		neoURL: neoURL,
		client: httpClient,
	}
}

type neoFeedResponse struct {
	ElementCount     int                          `json:"element_count"`
	NearEarthObjects map[string][]json.RawMessage `json:"near_earth_objects"`
}

type neoRecord struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	NasaJPLURL         string   `json:"nasa_jpl_url"`
	AbsoluteMagnitudeH *float64 `json:"absolute_magnitude_h"`
	EstimatedDiameter  struct {
		Meters *struct {
			Min *float64 `json:"estimated_diameter_min"`
			Max *float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	IsPotentiallyHazardous bool          `json:"is_potentially_hazardous_asteroid"`
	IsSentryObject         bool          `json:"is_sentry_object"`
	CloseApproachData      []neoApproach `json:"close_approach_data"`
}

type neoApproach struct {
	CloseApproachDate      string `json:"close_approach_date"`
	EpochDateCloseApproach int64  `json:"epoch_date_close_approach"`
	RelativeVelocity       struct {
		KilometersPerHour string `json:"kilometers_per_hour"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
	OrbitingBody string `json:"orbiting_body"`
}

func (c *neoClient) FetchFeed(ctx context.Context, window models.DateWindow) (*models.Batch, error) {
	params := url.Values{}
	params.Add("start_date", models.FormatDate(window.Start))
	params.Add("end_date", models.FormatDate(window.End))
	params.Add("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.neoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Window: window, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", "NEO-Watch/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: transportKind(err), Window: window, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: FetchHTTPStatus, StatusCode: resp.StatusCode, Window: window}
	}

	var feed neoFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		kind := FetchMalformed
		// обрыв соединения во время чтения тела - это не битый JSON
		if isTimeout(err) {
			kind = FetchTimeout
		}
		return nil, &FetchError{Kind: kind, Window: window, Err: fmt.Errorf("decode JSON: %w", err)}
	}

	batch, err := buildBatch(window, feed)
	if err != nil {
		return nil, &FetchError{Kind: FetchMalformed, Window: window, Err: err}
	}

	return batch, nil
}

func buildBatch(window models.DateWindow, feed neoFeedResponse) (*models.Batch, error) {
	if feed.NearEarthObjects == nil {
		return nil, errors.New("missing near_earth_objects")
	}

	// порядок дат в JSON-объекте не гарантирован
	dates := make([]string, 0, len(feed.NearEarthObjects))
	for date := range feed.NearEarthObjects {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	batch := &models.Batch{Window: window}
	for _, date := range dates {
		for i, raw := range feed.NearEarthObjects[date] {
			item, err := buildItem(raw)
			if err != nil {
				return nil, fmt.Errorf("record %d for %s: %w", i, date, err)
			}
			batch.Items = append(batch.Items, item)
		}
	}

	return batch, nil
}

func buildItem(raw json.RawMessage) (models.BatchItem, error) {
	var rec neoRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.BatchItem{}, fmt.Errorf("decode record: %w", err)
	}
	if rec.ID == "" {
		return models.BatchItem{}, errors.New("record without id")
	}

	asteroid := models.Asteroid{
		ID:                     rec.ID,
		Name:                   rec.Name,
		NasaJPLURL:             rec.NasaJPLURL,
		AbsoluteMagnitudeH:     rec.AbsoluteMagnitudeH,
		IsPotentiallyHazardous: rec.IsPotentiallyHazardous,
		IsSentryObject:         rec.IsSentryObject,
		Raw:                    []byte(raw),
	}
	if m := rec.EstimatedDiameter.Meters; m != nil {
		asteroid.EstimatedDiameterMinM = m.Min
		asteroid.EstimatedDiameterMaxM = m.Max
	}

	item := models.BatchItem{Asteroid: asteroid}

	// Берём только первое сближение из ответа.
	if len(rec.CloseApproachData) > 0 {
		approach, err := buildApproach(rec.ID, rec.CloseApproachData[0])
		if err != nil {
			return models.BatchItem{}, fmt.Errorf("asteroid %s: %w", rec.ID, err)
		}
		item.Approach = approach
	}

	return item, nil
}

func buildApproach(asteroidID string, a neoApproach) (*models.CloseApproach, error) {
	if a.EpochDateCloseApproach == 0 {
		return nil, errors.New("close approach without epoch")
	}

	velocity, err := parseNumber(a.RelativeVelocity.KilometersPerHour)
	if err != nil {
		return nil, fmt.Errorf("relative_velocity.kilometers_per_hour: %w", err)
	}

	distance, err := parseNumber(a.MissDistance.Kilometers)
	if err != nil {
		return nil, fmt.Errorf("miss_distance.kilometers: %w", err)
	}

	return &models.CloseApproach{
		AsteroidID:             asteroidID,
		CloseApproachDate:      a.CloseApproachDate,
		EpochDateCloseApproach: a.EpochDateCloseApproach,
		RelativeVelocityKmh:    velocity,
		MissDistanceKm:         distance,
		OrbitingBody:           a.OrbitingBody,
	}, nil
}

// NeoWs отдаёт скорости и расстояния строками.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

func transportKind(err error) FetchErrorKind {
	if isTimeout(err) {
		return FetchTimeout
	}
	return FetchNetwork
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
