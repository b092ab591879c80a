package chart

import (
	"fmt"
	"time"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	"github.com/yanqian/kundali-web/pkg/util"
)

const (
	// GlyphCollapsed marks an expandable dasha row whose sub-periods are hidden.
	GlyphCollapsed = "▶"
	// GlyphExpanded marks an expandable dasha row whose sub-periods are shown.
	GlyphExpanded = "▼"
	// NoDashaMessage fills the placeholder row when no periods were supplied.
	NoDashaMessage = "No Dasha data available"
	// DashaColumns is the width of the dasha table.
	DashaColumns = 4
)

// Options tune rendering. Now marks the running period; zero disables it.
type Options struct {
	SignPolicy kundali.SignPolicy
	Now        time.Time
}

// View is the render tree for one chart response.
type View struct {
	Details Details     `json:"details"`
	Natal   HouseChart  `json:"natal"`
	Moon    HouseChart  `json:"moon"`
	Planets []PlanetRow `json:"planets"`
	Dasha   DashaTable  `json:"dasha"`
}

// Details is the summary block.
type Details struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Ascendant string `json:"ascendant"`
	MoonSign  string `json:"moonSign"`
}

// HouseChart is a twelve-house layout.
type HouseChart struct {
	Title     string                `json:"title"`
	StartSign string                `json:"startSign"`
	Houses    [12]kundali.HouseCell `json:"houses"`
}

// PlanetRow is one row of the planetary table.
type PlanetRow struct {
	Planet    string `json:"planet"`
	Sign      string `json:"sign"`
	Degree    string `json:"degree"`
	Nakshatra string `json:"nakshatra"`
}

// DashaTable is the collapsible Mahadasha table.
type DashaTable struct {
	Rows        []DashaRow `json:"rows"`
	Placeholder string     `json:"placeholder,omitempty"`
	Colspan     int        `json:"colspan,omitempty"`
}

// DashaRow is one Mahadasha and its optional detail row.
type DashaRow struct {
	Lord       string      `json:"lord"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
	Duration   string      `json:"duration"`
	Expandable bool        `json:"expandable"`
	Expanded   bool        `json:"expanded"`
	Glyph      string      `json:"glyph"`
	Current    bool        `json:"current,omitempty"`
	SubTitle   string      `json:"subTitle,omitempty"`
	Sub        []SubPeriod `json:"sub,omitempty"`
}

// SubPeriod is one Antardasha row of the nested table.
type SubPeriod struct {
	Lord    string `json:"lord"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Current bool   `json:"current,omitempty"`
}

// Render maps a chart response to its view. It fails only when the sign
// policy is strict and a chart's starting sign is unknown.
func Render(resp kundali.ChartResponse, opts Options) (View, error) {
	natal, err := kundali.Layout(resp.D1, resp.Details.Ascendant, opts.SignPolicy)
	if err != nil {
		return View{}, fmt.Errorf("natal chart: %w", err)
	}
	moon, err := kundali.Layout(resp.Moon, resp.Details.MoonSign, opts.SignPolicy)
	if err != nil {
		return View{}, fmt.Errorf("moon chart: %w", err)
	}

	return View{
		Details: Details{
			Name:      resp.Details.Name,
			Date:      resp.Details.Date,
			Time:      resp.Details.Time,
			Ascendant: resp.Details.Ascendant,
			MoonSign:  resp.Details.MoonSign,
		},
		Natal:   HouseChart{Title: "D1", StartSign: resp.Details.Ascendant, Houses: natal},
		Moon:    HouseChart{Title: "Moon Chart", StartSign: resp.Details.MoonSign, Houses: moon},
		Planets: planetRows(resp.PlanetaryDetails),
		Dasha:   NewDashaTable(resp.Vimshottari, opts.Now),
	}, nil
}

func planetRows(details []kundali.PlanetRow) []PlanetRow {
	rows := make([]PlanetRow, 0, len(details))
	for _, p := range details {
		rows = append(rows, PlanetRow{
			Planet:    p.Planet,
			Sign:      p.Sign,
			Degree:    p.Degree,
			Nakshatra: p.Nakshatra,
		})
	}
	return rows
}

// NewDashaTable builds the table with every row collapsed.
func NewDashaTable(periods []kundali.DashaPeriod, now time.Time) DashaTable {
	if len(periods) == 0 {
		return DashaTable{Rows: []DashaRow{}, Placeholder: NoDashaMessage, Colspan: DashaColumns}
	}
	rows := make([]DashaRow, 0, len(periods))
	for _, p := range periods {
		row := DashaRow{
			Lord:       p.Lord,
			Start:      p.Start,
			End:        p.End,
			Duration:   p.Duration,
			Expandable: len(p.Antardashas) > 0,
			Current:    within(now, p.Start, p.End),
		}
		if row.Expandable {
			row.Glyph = GlyphCollapsed
			row.SubTitle = p.Lord + " Antardashas"
			row.Sub = make([]SubPeriod, 0, len(p.Antardashas))
			for _, ad := range p.Antardashas {
				row.Sub = append(row.Sub, SubPeriod{
					Lord:    ad.Lord,
					Start:   ad.Start,
					End:     ad.End,
					Current: within(now, ad.Start, ad.End),
				})
			}
		}
		rows = append(rows, row)
	}
	return DashaTable{Rows: rows}
}

// Toggle flips the detail row of period i and returns its new visibility.
// Rows without sub-periods and out-of-range indexes are left alone.
func (t *DashaTable) Toggle(i int) bool {
	if i < 0 || i >= len(t.Rows) {
		return false
	}
	row := &t.Rows[i]
	if !row.Expandable {
		return false
	}
	row.Expanded = !row.Expanded
	if row.Expanded {
		row.Glyph = GlyphExpanded
	} else {
		row.Glyph = GlyphCollapsed
	}
	return row.Expanded
}

// IsPlaceholder reports whether the table renders only the empty-state row.
func (t DashaTable) IsPlaceholder() bool {
	return t.Placeholder != ""
}

func within(now time.Time, start, end string) bool {
	if now.IsZero() {
		return false
	}
	from, ok := util.ParseDate(start)
	if !ok {
		return false
	}
	to, ok := util.ParseDate(end)
	if !ok {
		return false
	}
	// Adjacent periods share the boundary day; it belongs to the later one.
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(from) && day.Before(to)
}
