package kundali

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

// BirthFormData is the payload submitted for chart generation. It is also the
// value a session retains for later analysis and chat requests.
type BirthFormData struct {
	Name string `json:"name"`
	DOB  string `json:"dob"`
	TOB  string `json:"tob"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
	TZ   string `json:"tz"`
}

// Validate rejects forms without coordinates.
func (b BirthFormData) Validate() error {
	if strings.TrimSpace(b.Lat) == "" || strings.TrimSpace(b.Lon) == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "Please select a valid place or enter coordinates manually.", nil)
	}
	return nil
}

// WithDefaultTimezone fills an empty tz with the supplied offset.
func (b BirthFormData) WithDefaultTimezone(tz string) BirthFormData {
	if strings.TrimSpace(b.TZ) == "" {
		b.TZ = tz
	}
	return b
}

// PlaceSuggestion is one autocomplete candidate.
type PlaceSuggestion struct {
	DisplayName string     `json:"display_name"`
	Lat         Coordinate `json:"lat"`
	Lon         Coordinate `json:"lon"`
}

// Coordinate keeps the textual form of a latitude or longitude. The backend
// sends numbers while the form submits strings, so both decode here.
type Coordinate string

// UnmarshalJSON accepts a JSON number or string.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*c = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = Coordinate(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("coordinate must be a number or string: %w", err)
	}
	*c = Coordinate(n.String())
	return nil
}

// String implements fmt.Stringer.
func (c Coordinate) String() string { return string(c) }

// ChartDetails is the summary block of a chart response.
type ChartDetails struct {
	Name      string `json:"Name"`
	Date      string `json:"Date"`
	Time      string `json:"Time"`
	Ascendant string `json:"Ascendant"`
	MoonSign  string `json:"Moon Sign"`
}

// ChartResponse is returned by the chart backend.
type ChartResponse struct {
	Details          ChartDetails  `json:"details"`
	D1               HouseMap      `json:"d1"`
	Moon             HouseMap      `json:"moon"`
	PlanetaryDetails []PlanetRow   `json:"planetary_details"`
	Vimshottari      []DashaPeriod `json:"vimshottari"`
	Error            string        `json:"error,omitempty"`
}

// HouseMap maps a house number (1-12) to the planet labels in that house.
type HouseMap map[int][]string

// UnmarshalJSON decodes the string-keyed wire form and rejects houses outside 1-12.
func (h *HouseMap) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(HouseMap, len(raw))
	for key, planets := range raw {
		house, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return fmt.Errorf("house key %q: %w", key, err)
		}
		if house < 1 || house > 12 {
			return fmt.Errorf("house %d out of range", house)
		}
		out[house] = planets
	}
	*h = out
	return nil
}

// MarshalJSON writes string keys, matching the backend format.
func (h HouseMap) MarshalJSON() ([]byte, error) {
	raw := make(map[string][]string, len(h))
	for house, planets := range h {
		if planets == nil {
			planets = []string{}
		}
		raw[strconv.Itoa(house)] = planets
	}
	return json.Marshal(raw)
}

// PlanetRow is a single row of the planetary position table.
type PlanetRow struct {
	Planet    string `json:"Planet"`
	Sign      string `json:"Sign"`
	Degree    string `json:"Degree"`
	Nakshatra string `json:"Nakshatra"`
}

// DashaPeriod is a Mahadasha with optional Antardashas.
type DashaPeriod struct {
	Lord        string       `json:"Lord"`
	Start       string       `json:"Start"`
	End         string       `json:"End"`
	Duration    string       `json:"Duration"`
	Antardashas []Antardasha `json:"Antardashas,omitempty"`
}

// Antardasha is a sub-period inside a Mahadasha.
type Antardasha struct {
	Lord  string `json:"Lord"`
	Start string `json:"Start"`
	End   string `json:"End"`
}

// ChatRequest is posted to the chat backend.
type ChatRequest struct {
	Question    string        `json:"question"`
	ChartParams BirthFormData `json:"chart_params"`
}

// ChatResponse is returned by the chat backend.
type ChatResponse struct {
	Answer string `json:"answer"`
	Topic  string `json:"topic,omitempty"`
	Error  string `json:"error,omitempty"`
}
