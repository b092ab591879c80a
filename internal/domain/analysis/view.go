package analysis

import (
	"strconv"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
)

// NoYogasMessage is shown when no yoga was detected.
const NoYogasMessage = "No major yogas detected."

// Severity is the visual treatment of the manglik panel.
type Severity struct {
	Color      string `json:"color"`
	Border     string `json:"border"`
	Background string `json:"background"`
}

var (
	severityAlert = Severity{Color: "#d32f2f", Border: "4px solid #d32f2f", Background: "#ffebee"}
	severityClear = Severity{Color: "#388e3c", Border: "4px solid #388e3c", Background: "#e8f5e9"}
)

// View is the analysis render tree. A nil panel means its section was absent
// and the panel is left untouched.
type View struct {
	Yogas     *YogaPanel      `json:"yogas,omitempty"`
	Manglik   *ManglikPanel   `json:"manglik,omitempty"`
	Karmic    *KarmicPanel    `json:"karmic,omitempty"`
	Dasha     *DashaPanel     `json:"dasha,omitempty"`
	Nakshatra *NakshatraPanel `json:"nakshatra,omitempty"`
	Houses    *HousePanel     `json:"houses,omitempty"`
}

// YogaPanel lists yogas or the empty placeholder.
type YogaPanel struct {
	Items       []kundali.Yoga `json:"items"`
	Placeholder string         `json:"placeholder,omitempty"`
}

// ManglikPanel renders the binary dosha status.
type ManglikPanel struct {
	Detected bool     `json:"detected"`
	Headline string   `json:"headline"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity"`
}

// KarmicPanel holds the Rahu and Ketu sub-panels.
type KarmicPanel struct {
	Rahu NodePanel `json:"rahu"`
	Ketu NodePanel `json:"ketu"`
}

// NodePanel is one lunar node.
type NodePanel struct {
	House         string `json:"house"`
	HouseText     string `json:"houseText"`
	Nakshatra     string `json:"nakshatra"`
	NakshatraText string `json:"nakshatraText"`
}

// DashaPanel is the running Mahadasha prediction.
type DashaPanel struct {
	Lord       string `json:"lord"`
	Period     string `json:"period"`
	Prediction string `json:"prediction"`
}

// NakshatraPanel is the Moon nakshatra personality.
type NakshatraPanel struct {
	Name   string `json:"name"`
	Traits string `json:"traits"`
}

// HousePanel lists the planet-in-house readings.
type HousePanel struct {
	Items []HouseItem `json:"items"`
}

// HouseItem is one reading.
type HouseItem struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// Render maps an analysis response to its view, one section at a time.
func Render(resp kundali.AnalysisResponse) View {
	var view View

	// Yogas are the one panel that renders even when absent.
	yogas, _ := resp.Yogas.Get()
	view.Yogas = &YogaPanel{Items: append([]kundali.Yoga{}, yogas...)}
	if len(yogas) == 0 {
		view.Yogas.Placeholder = NoYogasMessage
	}

	if m, ok := resp.Manglik.Get(); ok {
		view.Manglik = manglikPanel(m)
	}
	if k, ok := resp.KarmicAnalysis.Get(); ok {
		view.Karmic = &KarmicPanel{Rahu: nodePanel(k.Rahu), Ketu: nodePanel(k.Ketu)}
	}
	if d, ok := resp.DashaPrediction.Get(); ok {
		view.Dasha = &DashaPanel{Lord: d.CurrentLord, Period: d.Period, Prediction: d.Prediction}
	}
	if n, ok := resp.NakshatraAnalysis.Get(); ok {
		view.Nakshatra = &NakshatraPanel{Name: n.Nakshatra, Traits: n.Traits}
	}
	if readings, ok := resp.HouseAnalysis.Get(); ok {
		items := make([]HouseItem, 0, len(readings))
		for _, r := range readings {
			items = append(items, HouseItem{
				Heading: r.Planet + " in House " + strconv.Itoa(r.House) + " (" + r.Sign + ")",
				Text:    r.Text,
			})
		}
		view.Houses = &HousePanel{Items: items}
	}
	return view
}

func manglikPanel(m kundali.Manglik) *ManglikPanel {
	if m.Status {
		return &ManglikPanel{Detected: true, Headline: "MANGLIK DETECTED", Detail: m.Desc, Severity: severityAlert}
	}
	return &ManglikPanel{Detected: false, Headline: "NO MANGLIK DOSHA", Detail: m.Desc, Severity: severityClear}
}

func nodePanel(n kundali.NodeReading) NodePanel {
	house := "?"
	if n.House != nil {
		house = strconv.Itoa(*n.House)
	}
	return NodePanel{
		House:         house,
		HouseText:     n.HouseText,
		Nakshatra:     n.Nakshatra,
		NakshatraText: n.NakshatraText,
	}
}
