package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

const (
	SkipReasonMissingAQI       = "missing_aqi"
	SkipReasonInvalidAQI       = "invalid_aqi"
	SkipReasonMissingTimestamp = "missing_timestamp"
	SkipReasonInvalidTimestamp = "invalid_timestamp"
	SkipReasonValidationFailed = "validation_failed"
)

var (
	errAQIMissing = errors.New("aqi value is missing")
	errAQIInvalid = errors.New("aqi value is not an integer")
)

// stationFeed mirrors one station entry of an uploaded payload document.
// The AQI field stays raw because stations report it as a number, a numeric
// string, or the placeholder "-".
type stationFeed struct {
	Idx  int             `json:"idx"`
	AQI  json.RawMessage `json:"aqi"`
	Time struct {
		ISO string `json:"iso"`
	} `json:"time"`
	IAQI map[string]struct {
		V float64 `json:"v"`
	} `json:"iaqi"`
	City struct {
		Geo  []float64 `json:"geo"`
		Name string    `json:"name"`
	} `json:"city"`
	Meta struct {
		City      string `json:"city"`
		StationID int    `json:"station_id"`
		Timestamp string `json:"timestamp"`
	} `json:"meta"`
}

type ParseResult struct {
	Observations []*entities.Observation
	Skipped      int
	SkipReasons  map[string]int
}

type FeedParser struct {
	logger logger.Logger
}

func NewFeedParser() *FeedParser {
	return &FeedParser{
		logger: logger.New("info", "development").WithField("component", "feed_parser"),
	}
}

// Parse decodes a payload document, a JSON object mapping a city name to the
// list of station feeds collected for it, and converts every usable feed to
// an observation. Unusable feeds are counted per reason, never fatal.
func (p *FeedParser) Parse(payload []byte, objectKey string) (*ParseResult, error) {
	var doc map[string][]stationFeed
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse payload document %s: %w", objectKey, err)
	}

	result := &ParseResult{
		SkipReasons: make(map[string]int),
	}

	for city, stations := range doc {
		for _, station := range stations {
			obs, reason := p.convertToObservation(station)
			if obs == nil {
				p.logger.Warnf("Skipping station %d in %s: %s", station.Idx, city, reason)
				result.Skipped++
				result.SkipReasons[reason]++
				continue
			}

			if err := obs.Validate(); err != nil {
				p.logger.Warnf("Skipping station %d in %s: %v", station.Idx, city, err)
				result.Skipped++
				result.SkipReasons[SkipReasonValidationFailed]++
				continue
			}

			result.Observations = append(result.Observations, obs)
		}
	}

	return result, nil
}

func (p *FeedParser) convertToObservation(station stationFeed) (*entities.Observation, string) {
	aqi, err := parseAQI(station.AQI)
	if err != nil {
		if errors.Is(err, errAQIMissing) {
			return nil, SkipReasonMissingAQI
		}
		return nil, SkipReasonInvalidAQI
	}

	if station.Time.ISO == "" {
		return nil, SkipReasonMissingTimestamp
	}
	timestamp, err := time.Parse(time.RFC3339, station.Time.ISO)
	if err != nil {
		return nil, SkipReasonInvalidTimestamp
	}

	city := station.Meta.City
	if city == "" {
		city = "Unknown"
	}

	var latitude, longitude float64
	if len(station.City.Geo) >= 2 {
		latitude = station.City.Geo[0]
		longitude = station.City.Geo[1]
	}

	return &entities.Observation{
		StationID:   station.Idx,
		City:        city,
		Timestamp:   timestamp.UTC(),
		AQI:         aqi,
		PM25:        station.IAQI["pm25"].V,
		PM10:        station.IAQI["pm10"].V,
		Temperature: station.IAQI["t"].V,
		Humidity:    station.IAQI["h"].V,
		Latitude:    latitude,
		Longitude:   longitude,
	}, ""
}

// parseAQI accepts the two shapes stations actually produce: a JSON number,
// truncated to an integer, or a string holding an integer. The "-"
// placeholder and anything else is rejected.
func parseAQI(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errAQIMissing
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errAQIInvalid
		}
		value, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, errAQIInvalid
		}
		return value, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errAQIInvalid
	}
	return int(f), nil
}
