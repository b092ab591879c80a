package chart

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
)

func sampleChart() kundali.ChartResponse {
	return kundali.ChartResponse{
		Details: kundali.ChartDetails{Name: "Asha", Date: "1990-01-01", Time: "10:30", Ascendant: "Leo", MoonSign: "Aries"},
		D1:      kundali.HouseMap{1: {"Sun", "Mercury"}, 7: {"Saturn"}},
		Moon:    kundali.HouseMap{5: {"Lagna"}},
		PlanetaryDetails: []kundali.PlanetRow{
			{Planet: "Ascendant", Sign: "Leo", Degree: "12°3'4\"", Nakshatra: "Magha (4)"},
			{Planet: "Sun", Sign: "Leo", Degree: "1°0'0\"", Nakshatra: "Magha (1)"},
		},
		Vimshottari: []kundali.DashaPeriod{
			{Lord: "Ketu", Start: "1990-01-01", End: "1994-06-01", Duration: "4.4y (Bal)"},
			{
				Lord: "Venus", Start: "1994-06-01", End: "2014-06-01", Duration: "20y",
				Antardashas: []kundali.Antardasha{
					{Lord: "Venus", Start: "1994-06-01", End: "1997-10-01"},
					{Lord: "Sun", Start: "1997-10-01", End: "1998-10-01"},
				},
			},
		},
	}
}

func TestRenderDetailsAndCharts(t *testing.T) {
	view, err := Render(sampleChart(), Options{SignPolicy: kundali.SignPolicyDefault})
	require.NoError(t, err)

	want := Details{Name: "Asha", Date: "1990-01-01", Time: "10:30", Ascendant: "Leo", MoonSign: "Aries"}
	if diff := cmp.Diff(want, view.Details); diff != "" {
		t.Fatalf("details mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 5, view.Natal.Houses[0].Sign)
	require.Equal(t, []string{"Sun", "Mercury"}, view.Natal.Houses[0].Planets)
	require.Equal(t, 4, view.Natal.Houses[11].Sign)
	require.Equal(t, 1, view.Moon.Houses[0].Sign)
	require.Equal(t, []string{"Lagna"}, view.Moon.Houses[4].Planets)
	require.Len(t, view.Planets, 2)
	require.Equal(t, "Magha (1)", view.Planets[1].Nakshatra)
}

func TestRenderStrictPolicyRejectsUnknownMoonSign(t *testing.T) {
	resp := sampleChart()
	resp.Details.MoonSign = "Unknown"

	_, err := Render(resp, Options{SignPolicy: kundali.SignPolicyStrict})
	require.ErrorIs(t, err, kundali.ErrUnknownSign)

	view, err := Render(resp, Options{SignPolicy: kundali.SignPolicyDefault})
	require.NoError(t, err)
	require.Equal(t, 1, view.Moon.Houses[0].Sign)
}

func TestDashaTableEmptyRendersPlaceholder(t *testing.T) {
	table := NewDashaTable(nil, time.Time{})
	require.True(t, table.IsPlaceholder())
	require.Equal(t, NoDashaMessage, table.Placeholder)
	require.Equal(t, 4, table.Colspan)
	require.Empty(t, table.Rows)
}

func TestDashaTableToggle(t *testing.T) {
	table := NewDashaTable(sampleChart().Vimshottari, time.Time{})
	require.False(t, table.IsPlaceholder())

	plain := table.Rows[0]
	require.False(t, plain.Expandable)
	require.Empty(t, plain.Glyph)
	require.False(t, table.Toggle(0))
	require.False(t, table.Rows[0].Expanded)

	row := table.Rows[1]
	require.True(t, row.Expandable)
	require.False(t, row.Expanded)
	require.Equal(t, GlyphCollapsed, row.Glyph)
	require.Equal(t, "Venus Antardashas", row.SubTitle)

	require.True(t, table.Toggle(1))
	require.True(t, table.Rows[1].Expanded)
	require.Equal(t, GlyphExpanded, table.Rows[1].Glyph)

	require.False(t, table.Toggle(1))
	require.False(t, table.Rows[1].Expanded)
	require.Equal(t, GlyphCollapsed, table.Rows[1].Glyph)

	require.False(t, table.Toggle(9))
}

func TestDashaTableMarksCurrentPeriod(t *testing.T) {
	now := time.Date(1997, 12, 25, 15, 0, 0, 0, time.UTC)
	table := NewDashaTable(sampleChart().Vimshottari, now)

	require.False(t, table.Rows[0].Current)
	require.True(t, table.Rows[1].Current)
	require.False(t, table.Rows[1].Sub[0].Current)
	require.True(t, table.Rows[1].Sub[1].Current)
}

func TestDashaTableBoundaryDayBelongsToLaterPeriod(t *testing.T) {
	periods := []kundali.DashaPeriod{
		{
			Lord: "Saturn", Start: "2010-01-01", End: "2029-01-01", Duration: "19y",
			Antardashas: []kundali.Antardasha{
				{Lord: "Saturn", Start: "2010-01-01", End: "2013-01-04"},
				{Lord: "Mercury", Start: "2013-01-04", End: "2029-01-01"},
			},
		},
		{Lord: "Mercury", Start: "2029-01-01", End: "2046-01-01", Duration: "17y"},
	}

	table := NewDashaTable(periods, time.Date(2029, 1, 1, 9, 0, 0, 0, time.UTC))
	require.False(t, table.Rows[0].Current)
	require.True(t, table.Rows[1].Current)

	table = NewDashaTable(periods, time.Date(2013, 1, 4, 0, 0, 0, 0, time.UTC))
	require.True(t, table.Rows[0].Current)
	require.False(t, table.Rows[0].Sub[0].Current)
	require.True(t, table.Rows[0].Sub[1].Current)
}
