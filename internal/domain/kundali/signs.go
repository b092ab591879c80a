package kundali

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSign is returned under SignPolicyStrict for an unrecognised sign name.
var ErrUnknownSign = errors.New("unknown zodiac sign")

// SignPolicy decides what happens when the starting sign of a chart is not recognised.
type SignPolicy string

const (
	// SignPolicyDefault silently falls back to Aries (sign 1).
	SignPolicyDefault SignPolicy = "default"
	// SignPolicyStrict fails with ErrUnknownSign.
	SignPolicyStrict SignPolicy = "strict"
)

// ParseSignPolicy maps a config value to a policy; empty means default.
func ParseSignPolicy(value string) (SignPolicy, error) {
	switch SignPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", SignPolicyDefault:
		return SignPolicyDefault, nil
	case SignPolicyStrict:
		return SignPolicyStrict, nil
	default:
		return "", fmt.Errorf("unsupported sign policy %q", value)
	}
}

// Signs lists the zodiac in order; index i holds sign number i+1.
var Signs = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signNumbers = func() map[string]int {
	out := make(map[string]int, len(Signs))
	for i, name := range Signs {
		out[name] = i + 1
	}
	return out
}()

// SignNumber returns 1-12 for a sign name.
func SignNumber(name string) (int, bool) {
	n, ok := signNumbers[name]
	return n, ok
}

// SignForHouse returns the sign occupying house given the sign of house 1.
func SignForHouse(start, house int) int {
	return ((start+house-2)%12+12)%12 + 1
}

// HouseCell is one rendered house: its sign number and occupants.
type HouseCell struct {
	House   int      `json:"house"`
	Sign    int      `json:"sign"`
	Planets []string `json:"planets"`
}

// Layout places the signs and planets of a HouseMap into twelve cells.
func Layout(houses HouseMap, startSign string, policy SignPolicy) ([12]HouseCell, error) {
	var cells [12]HouseCell
	start, ok := SignNumber(startSign)
	if !ok {
		if policy == SignPolicyStrict {
			return cells, fmt.Errorf("%w: %q", ErrUnknownSign, startSign)
		}
		start = 1
	}
	for i := range cells {
		house := i + 1
		planets := houses[house]
		if planets == nil {
			planets = []string{}
		}
		cells[i] = HouseCell{
			House:   house,
			Sign:    SignForHouse(start, house),
			Planets: planets,
		}
	}
	return cells, nil
}
