package entities

import (
	"time"
)

type ObservationEntity interface {
	GetStationID() int
	GetCity() string
	GetTimestamp() time.Time
	GetAQI() int
	GetPM25() float64
	GetPM10() float64
	GetTemperature() float64
	GetHumidity() float64
	GetLatitude() float64
	GetLongitude() float64
	Validate() error
	ToMap() map[string]interface{}
}

// Observation is one air-quality reading from one station at one instant.
// (StationID, Timestamp) is the natural identity in the production store.
type Observation struct {
	StationID   int       `json:"station_id" db:"station_id"`
	City        string    `json:"city" db:"city"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	AQI         int       `json:"aqi" db:"aqi"`
	PM25        float64   `json:"pm25" db:"pm25"`
	PM10        float64   `json:"pm10" db:"pm10"`
	Temperature float64   `json:"temperature" db:"temperature"`
	Humidity    float64   `json:"humidity" db:"humidity"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
}

func (o *Observation) GetStationID() int       { return o.StationID }
func (o *Observation) GetCity() string         { return o.City }
func (o *Observation) GetTimestamp() time.Time { return o.Timestamp }
func (o *Observation) GetAQI() int             { return o.AQI }
func (o *Observation) GetPM25() float64        { return o.PM25 }
func (o *Observation) GetPM10() float64        { return o.PM10 }
func (o *Observation) GetTemperature() float64 { return o.Temperature }
func (o *Observation) GetHumidity() float64    { return o.Humidity }
func (o *Observation) GetLatitude() float64    { return o.Latitude }
func (o *Observation) GetLongitude() float64   { return o.Longitude }

func (o *Observation) Validate() error {
	if o.StationID <= 0 {
		return ErrInvalidStationID
	}
	if o.City == "" {
		return ErrInvalidCity
	}
	if o.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if o.AQI < 0 {
		return ErrInvalidAQI
	}
	if o.PM25 < 0 {
		return ErrInvalidPM25
	}
	if o.PM10 < 0 {
		return ErrInvalidPM10
	}
	if o.Humidity < 0 || o.Humidity > 100 {
		return ErrInvalidHumidity
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

func (o *Observation) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"station_id":  o.StationID,
		"city":        o.City,
		"timestamp":   o.Timestamp.Format(time.RFC3339),
		"aqi":         o.AQI,
		"pm25":        o.PM25,
		"pm10":        o.PM10,
		"temperature": o.Temperature,
		"humidity":    o.Humidity,
		"latitude":    o.Latitude,
		"longitude":   o.Longitude,
	}
}

// IdentityKey identifies the production row this observation maps to.
// The timestamp is normalized to UTC so two copies of the same instant
// compare equal as map keys regardless of how they were constructed.
type IdentityKey struct {
	StationID int
	Timestamp time.Time
}

func (o *Observation) Identity() IdentityKey {
	return IdentityKey{StationID: o.StationID, Timestamp: o.Timestamp.UTC()}
}

// RawObservation is an Observation as stored in the append-only raw table,
// with the ingestion bookkeeping the deduplication selector relies on.
// IngestSeq is assigned by the raw store and strictly increases with append
// order; it is never reused.
type RawObservation struct {
	Observation
	IngestSeq    int64     `json:"ingest_seq" db:"ingest_seq"`
	SourceObject string    `json:"source_object" db:"source_object"`
	IngestedAt   time.Time `json:"ingested_at" db:"ingested_at"`
}

func (r *RawObservation) ToMap() map[string]interface{} {
	m := r.Observation.ToMap()
	m["ingest_seq"] = r.IngestSeq
	m["source_object"] = r.SourceObject
	m["ingested_at"] = r.IngestedAt.Format(time.RFC3339)
	return m
}

var (
	ErrInvalidStationID = ValidationError{Field: "station_id", Reason: "must be a positive integer"}
	ErrInvalidCity      = ValidationError{Field: "city", Reason: "must not be empty"}
	ErrInvalidTimestamp = ValidationError{Field: "timestamp", Reason: "must not be zero"}
	ErrInvalidAQI       = ValidationError{Field: "aqi", Reason: "must not be negative"}
	ErrInvalidPM25      = ValidationError{Field: "pm25", Reason: "must not be negative"}
	ErrInvalidPM10      = ValidationError{Field: "pm10", Reason: "must not be negative"}
	ErrInvalidHumidity  = ValidationError{Field: "humidity", Reason: "must be between 0 and 100"}
	ErrInvalidLatitude  = ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	ErrInvalidLongitude = ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
