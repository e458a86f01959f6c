package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// TimestampLayout is the UTC millisecond layout every report timestamp is stamped with.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalid is wrapped by every validation failure of user input.
var ErrInvalid = errors.New("invalid input")

// ReportType is the kind of environmental observation.
type ReportType string

const (
	TreePlantation   ReportType = "TREE"
	PollutionHotspot ReportType = "POLLUTION"
)

func (t ReportType) Valid() bool {
	return t == TreePlantation || t == PollutionHotspot
}

// Report represents a single geotagged observation placed on the map.
type Report struct {
	ID           string     `json:"id"`
	Type         ReportType `json:"type"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	LocationName string     `json:"locationName"`
	Description  string     `json:"description"`
	ReportedBy   string     `json:"reportedBy"`
	Timestamp    string     `json:"timestamp"`
}

// ReportDraft holds the user supplied part of a report.
type ReportDraft struct {
	Type         ReportType `json:"type"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	LocationName string     `json:"locationName"`
	Description  string     `json:"description"`
}

// Time parses the report timestamp. Timestamps written by older clients may
// lack milliseconds, so any RFC 3339 form is accepted.
func (r Report) Time() (time.Time, error) {
	return ParseTimestamp(r.Timestamp)
}

func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatTimestamp renders t the way new reports are stamped.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Validate checks the fields a user is allowed to set.
func (d ReportDraft) Validate() error {
	return validateFields(d.Type, d.Latitude, d.Longitude)
}

// Validate checks a full record coming from an edit.
func (r Report) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	return validateFields(r.Type, r.Latitude, r.Longitude)
}

func validateFields(t ReportType, lat, lon float64) error {
	if !t.Valid() {
		return fmt.Errorf("%w: type must be %q or %q, got %q", ErrInvalid, TreePlantation, PollutionHotspot, t)
	}
	return ValidateCoordinates(lat, lon)
}

// ValidateCoordinates rejects positions off the globe, NaN and Inf included.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalid, lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalid, lon)
	}
	return nil
}
