package ingest

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// OpenWeatherSource fetches current weather from OpenWeatherMap by
// coordinates, geocoding city names when a tracked city has none configured.
type OpenWeatherSource struct {
	name    string
	apiKey  string
	baseURL string
	http    *resilientClient
}

// NewOpenWeatherSource creates the source. googleAPIKey enables geocoding of
// cities configured without coordinates; without it such cities are skipped.
func NewOpenWeatherSource(client *http.Client, apiKey, googleAPIKey string) *OpenWeatherSource {
	if googleAPIKey != "" {
		geocoder.ApiKey = googleAPIKey
	}
	return &OpenWeatherSource{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		http:    newResilientClient(client, "openweather"),
	}
}

func (s *OpenWeatherSource) Name() string {
	return s.name
}

// FetchCities fetches one current-weather sample per city. A failing city is
// logged and skipped; partial batches are better than none.
func (s *OpenWeatherSource) FetchCities(ctx context.Context, cities []City) ([]airquality.WeatherSample, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	samples := make([]airquality.WeatherSample, 0, len(cities))
	for _, city := range cities {
		sample, err := s.fetchCity(ctx, city)
		if err != nil {
			log.Printf("ingest: weather fetch failed for %s: %v", city.Name, err)
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func (s *OpenWeatherSource) fetchCity(ctx context.Context, city City) (airquality.WeatherSample, error) {
	lat, lon := city.Lat, city.Lon
	if lat == 0 && lon == 0 {
		var err error
		lat, lon, err = resolveCoordinates(city.Name)
		if err != nil {
			return airquality.WeatherSample{}, err
		}
	}

	values := url.Values{}
	values.Set("appid", s.apiKey)
	values.Set("units", "metric")
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))

	var payload struct {
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Dt int64 `json:"dt"`
	}

	u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
	if err := s.http.getJSON(ctx, u, nil, &payload); err != nil {
		return airquality.WeatherSample{}, err
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	return airquality.WeatherSample{
		Timestamp:     ts,
		Lat:           lat,
		Lon:           lon,
		Temperature:   payload.Main.Temp,
		Humidity:      payload.Main.Humidity,
		WindSpeed:     payload.Wind.Speed,
		WindDirection: payload.Wind.Deg,
		Pressure:      payload.Main.Pressure,
	}, nil
}

// resolveCoordinates geocodes a city name. Requires geocoder.ApiKey to be
// set at construction time.
func resolveCoordinates(cityName string) (lat, lon float64, err error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: cityName})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s: %w", cityName, err)
	}
	return loc.Latitude, loc.Longitude, nil
}
