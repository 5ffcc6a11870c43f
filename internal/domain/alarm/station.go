package alarm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoStation is returned when a serialized station does not resolve to a station.
var ErrNoStation = errors.New("no resolvable station")

// Station describes a radio station.
// Only Name is interpreted by the alarm engine; the rest travels as an opaque blob.
type Station struct {
	UUID     string `json:"stationuuid,omitempty"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Homepage string `json:"homepage,omitempty"`
	Favicon  string `json:"favicon,omitempty"`
	Country  string `json:"country,omitempty"`
	Tags     string `json:"tags,omitempty"`
	Bitrate  int    `json:"bitrate,omitempty"`
}

// Clone returns a copy of the station.
func (s *Station) Clone() *Station {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// Encode returns the stable serialized form of the station.
func (s *Station) Encode() (string, error) {
	if s == nil {
		return "", ErrNoStation
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode station: %w", err)
	}

	return string(data), nil
}

// DecodeStation parses a blob produced by Encode.
// Empty blobs, JSON null and stations with neither name nor URL are rejected.
func DecodeStation(blob string) (*Station, error) {
	data := bytes.TrimSpace([]byte(blob))
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrNoStation
	}

	var station Station
	if err := json.Unmarshal(data, &station); err != nil {
		return nil, fmt.Errorf("decode station: %w", err)
	}

	if station.Name == "" && station.URL == "" {
		return nil, ErrNoStation
	}

	return &station, nil
}
