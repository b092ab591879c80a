package kundali

import (
	"bytes"
	"encoding/json"
)

// Section wraps an optional analysis section. Present is false when the
// backend omitted the key, sent null, or sent an empty object.
type Section[T any] struct {
	Present bool
	Value   T
}

// Some builds a present section.
func Some[T any](value T) Section[T] {
	return Section[T]{Present: true, Value: value}
}

// Get returns the value and whether it is present.
func (s Section[T]) Get() (T, bool) {
	return s.Value, s.Present
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Section[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || isEmptyObject(trimmed) {
		*s = Section[T]{}
		return nil
	}
	var value T
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return err
	}
	*s = Section[T]{Present: true, Value: value}
	return nil
}

// MarshalJSON writes null for absent sections.
func (s Section[T]) MarshalJSON() ([]byte, error) {
	if !s.Present {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func isEmptyObject(data []byte) bool {
	if len(data) < 2 || data[0] != '{' {
		return false
	}
	return len(bytes.TrimSpace(data[1:len(data)-1])) == 0
}

// AnalysisResponse aggregates the independent analysis sections.
type AnalysisResponse struct {
	Yogas             Section[[]Yoga]          `json:"yogas"`
	Manglik           Section[Manglik]         `json:"manglik"`
	KarmicAnalysis    Section[KarmicAnalysis]  `json:"karmic_analysis"`
	DashaPrediction   Section[DashaPrediction] `json:"dasha_prediction"`
	NakshatraAnalysis Section[NakshatraTraits] `json:"nakshatra_analysis"`
	HouseAnalysis     Section[[]HouseReading]  `json:"house_analysis"`
	Error             string                   `json:"error,omitempty"`
}

// Yoga is a named planetary combination.
type Yoga struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// Manglik reports the Mars dosha check.
type Manglik struct {
	Status bool   `json:"status"`
	Desc   string `json:"desc"`
}

// KarmicAnalysis holds the lunar node readings.
type KarmicAnalysis struct {
	Rahu NodeReading `json:"rahu"`
	Ketu NodeReading `json:"ketu"`
}

// NodeReading describes one lunar node. House is nil when the backend could
// not place the node.
type NodeReading struct {
	House         *int   `json:"house"`
	HouseText     string `json:"house_text"`
	Nakshatra     string `json:"nakshatra"`
	NakshatraText string `json:"nakshatra_text"`
}

// DashaPrediction describes the running Mahadasha.
type DashaPrediction struct {
	CurrentLord string `json:"current_lord"`
	Period      string `json:"period"`
	Prediction  string `json:"prediction"`
}

// UnmarshalJSON also accepts the fallback {current, text} shape.
func (d *DashaPrediction) UnmarshalJSON(data []byte) error {
	var raw struct {
		CurrentLord string `json:"current_lord"`
		Period      string `json:"period"`
		Prediction  string `json:"prediction"`
		Current     string `json:"current"`
		Text        string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.CurrentLord = firstNonEmpty(raw.CurrentLord, raw.Current)
	d.Period = raw.Period
	d.Prediction = firstNonEmpty(raw.Prediction, raw.Text)
	return nil
}

// NakshatraTraits describes the Moon nakshatra personality.
type NakshatraTraits struct {
	Nakshatra string `json:"nakshatra"`
	Traits    string `json:"traits"`
}

// HouseReading is one planet-in-house interpretation.
type HouseReading struct {
	Planet string `json:"planet"`
	House  int    `json:"house"`
	Sign   string `json:"sign"`
	Text   string `json:"text"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
