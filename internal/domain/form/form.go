package form

import (
	"strings"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
)

// Mode is the active coordinate input mode.
type Mode string

const (
	// ModeLookup resolves coordinates from a place name.
	ModeLookup Mode = "lookup"
	// ModeManual takes latitude and longitude as typed.
	ModeManual Mode = "manual"
)

// Form mirrors the visible birth-details fields.
type Form struct {
	Name          string `json:"name" form:"name"`
	DOB           string `json:"dob" form:"dob"`
	TOB           string `json:"tob" form:"tob"`
	Place         string `json:"place" form:"place"`
	Lat           string `json:"lat" form:"lat"`
	Lon           string `json:"lon" form:"lon"`
	TZ            string `json:"tz" form:"tz"`
	Mode          Mode   `json:"mode" form:"mode"`
	PlaceDisabled bool   `json:"placeDisabled"`
}

// New returns an empty form in lookup mode.
func New(defaultTZ string) Form {
	return Form{TZ: defaultTZ, Mode: ModeLookup}
}

// SetManual switches input modes. Entering manual mode disables and clears
// the place field; leaving it re-enables the field without restoring the
// previous value.
func (f *Form) SetManual(manual bool) {
	if manual {
		f.Mode = ModeManual
		f.PlaceDisabled = true
		f.Place = ""
		return
	}
	f.Mode = ModeLookup
	f.PlaceDisabled = false
}

// Manual reports whether coordinates are entered by hand.
func (f Form) Manual() bool {
	return f.Mode == ModeManual
}

// ApplySuggestion fills the place and coordinates from a selected suggestion.
func (f *Form) ApplySuggestion(s kundali.PlaceSuggestion) {
	f.Place = s.DisplayName
	f.Lat = s.Lat.String()
	f.Lon = s.Lon.String()
}

// BirthData builds the submission payload from the visible fields.
func (f Form) BirthData() kundali.BirthFormData {
	return kundali.BirthFormData{
		Name: strings.TrimSpace(f.Name),
		DOB:  strings.TrimSpace(f.DOB),
		TOB:  strings.TrimSpace(f.TOB),
		Lat:  strings.TrimSpace(f.Lat),
		Lon:  strings.TrimSpace(f.Lon),
		TZ:   strings.TrimSpace(f.TZ),
	}
}
