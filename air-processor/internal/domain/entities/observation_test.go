package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservation_Validate(t *testing.T) {
	now := time.Now()

	t.Run("valid observation", func(t *testing.T) {
		obs := &Observation{
			StationID:   5773,
			City:        "Bangkok",
			Timestamp:   now,
			AQI:         57,
			PM25:        57.0,
			PM10:        24.0,
			Temperature: 31.5,
			Humidity:    64.0,
			Latitude:    13.7563,
			Longitude:   100.5018,
		}

		err := obs.Validate()
		assert.NoError(t, err)
	})

	t.Run("invalid station ID", func(t *testing.T) {
		obs := &Observation{
			StationID: 0,
			City:      "Bangkok",
			Timestamp: now,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "station_id: must be a positive integer", err.Error())
	})

	t.Run("negative station ID", func(t *testing.T) {
		obs := &Observation{
			StationID: -10,
			City:      "Bangkok",
			Timestamp: now,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, ErrInvalidStationID, err)
	})

	t.Run("empty city", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "",
			Timestamp: now,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "city: must not be empty", err.Error())
	})

	t.Run("zero timestamp", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: time.Time{},
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "timestamp: must not be zero", err.Error())
	})

	t.Run("negative aqi", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			AQI:       -1,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "aqi: must not be negative", err.Error())
	})

	t.Run("negative pm25", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			PM25:      -0.5,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "pm25: must not be negative", err.Error())
	})

	t.Run("negative pm10", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			PM10:      -2.0,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "pm10: must not be negative", err.Error())
	})

	t.Run("humidity too high", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			Humidity:  100.5,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "humidity: must be between 0 and 100", err.Error())
	})

	t.Run("humidity too low", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			Humidity:  -1,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, ErrInvalidHumidity, err)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			Latitude:  91.0,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "latitude: must be between -90 and 90", err.Error())
	})

	t.Run("longitude out of range", func(t *testing.T) {
		obs := &Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			Longitude: -180.5,
		}

		err := obs.Validate()
		assert.Error(t, err)
		assert.Equal(t, "longitude: must be between -180 and 180", err.Error())
	})

	t.Run("negative temperature is valid", func(t *testing.T) {
		obs := &Observation{
			StationID:   5773,
			City:        "Chiang Mai",
			Timestamp:   now,
			Temperature: -5.0,
		}

		err := obs.Validate()
		assert.NoError(t, err)
	})
}

func TestObservation_Getters(t *testing.T) {
	now := time.Now()
	obs := &Observation{
		StationID:   5773,
		City:        "Bangkok",
		Timestamp:   now,
		AQI:         57,
		PM25:        57.0,
		PM10:        24.0,
		Temperature: 31.5,
		Humidity:    64.0,
		Latitude:    13.7563,
		Longitude:   100.5018,
	}

	assert.Equal(t, 5773, obs.GetStationID())
	assert.Equal(t, "Bangkok", obs.GetCity())
	assert.Equal(t, now, obs.GetTimestamp())
	assert.Equal(t, 57, obs.GetAQI())
	assert.Equal(t, 57.0, obs.GetPM25())
	assert.Equal(t, 24.0, obs.GetPM10())
	assert.Equal(t, 31.5, obs.GetTemperature())
	assert.Equal(t, 64.0, obs.GetHumidity())
	assert.Equal(t, 13.7563, obs.GetLatitude())
	assert.Equal(t, 100.5018, obs.GetLongitude())
}

func TestObservation_ToMap(t *testing.T) {
	now := time.Now()
	obs := &Observation{
		StationID:   5773,
		City:        "Bangkok",
		Timestamp:   now,
		AQI:         57,
		PM25:        57.0,
		PM10:        24.0,
		Temperature: 31.5,
		Humidity:    64.0,
		Latitude:    13.7563,
		Longitude:   100.5018,
	}

	result := obs.ToMap()

	assert.Equal(t, 5773, result["station_id"])
	assert.Equal(t, "Bangkok", result["city"])
	assert.Equal(t, now.Format(time.RFC3339), result["timestamp"])
	assert.Equal(t, 57, result["aqi"])
	assert.Equal(t, 57.0, result["pm25"])
	assert.Equal(t, 24.0, result["pm10"])
	assert.Equal(t, 31.5, result["temperature"])
	assert.Equal(t, 64.0, result["humidity"])
	assert.Equal(t, 13.7563, result["latitude"])
	assert.Equal(t, 100.5018, result["longitude"])
}

func TestObservation_Identity(t *testing.T) {
	ts := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	obs := &Observation{StationID: 5773, Timestamp: ts}

	identity := obs.Identity()

	assert.Equal(t, 5773, identity.StationID)
	assert.Equal(t, ts, identity.Timestamp)
}

func TestRawObservation_ToMap(t *testing.T) {
	now := time.Now()
	raw := &RawObservation{
		Observation: Observation{
			StationID: 5773,
			City:      "Bangkok",
			Timestamp: now,
			AQI:       57,
		},
		IngestSeq:    42,
		SourceObject: "thailand_air_quality_20250401_120000.json",
		IngestedAt:   now,
	}

	result := raw.ToMap()

	assert.Equal(t, 5773, result["station_id"])
	assert.Equal(t, int64(42), result["ingest_seq"])
	assert.Equal(t, "thailand_air_quality_20250401_120000.json", result["source_object"])
	assert.Equal(t, now.Format(time.RFC3339), result["ingested_at"])
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:  "station_id",
		Reason: "must be a positive integer",
	}

	assert.Equal(t, "station_id: must be a positive integer", err.Error())
}

func TestValidationErrors_Constants(t *testing.T) {
	assert.Equal(t, "station_id: must be a positive integer", ErrInvalidStationID.Error())
	assert.Equal(t, "city: must not be empty", ErrInvalidCity.Error())
	assert.Equal(t, "timestamp: must not be zero", ErrInvalidTimestamp.Error())
	assert.Equal(t, "aqi: must not be negative", ErrInvalidAQI.Error())
	assert.Equal(t, "pm25: must not be negative", ErrInvalidPM25.Error())
	assert.Equal(t, "pm10: must not be negative", ErrInvalidPM10.Error())
	assert.Equal(t, "humidity: must be between 0 and 100", ErrInvalidHumidity.Error())
	assert.Equal(t, "latitude: must be between -90 and 90", ErrInvalidLatitude.Error())
	assert.Equal(t, "longitude: must be between -180 and 180", ErrInvalidLongitude.Error())
}

func TestObservationEntity_Interface(t *testing.T) {
	var _ ObservationEntity = (*Observation)(nil)
	var _ ObservationEntity = (*RawObservation)(nil)
}
