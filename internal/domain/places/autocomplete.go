package places

import "github.com/yanqian/kundali-web/internal/domain/kundali"

// Autocomplete is the suggestion list under the place input.
type Autocomplete struct {
	Query   string                    `json:"query"`
	Items   []kundali.PlaceSuggestion `json:"items"`
	Visible bool                      `json:"visible"`
}

// Show replaces the list. An empty result hides it.
func (a *Autocomplete) Show(items []kundali.PlaceSuggestion) {
	a.Items = append([]kundali.PlaceSuggestion(nil), items...)
	a.Visible = len(a.Items) > 0
}

// Select returns item i and hides the list.
func (a *Autocomplete) Select(i int) (kundali.PlaceSuggestion, bool) {
	if i < 0 || i >= len(a.Items) {
		return kundali.PlaceSuggestion{}, false
	}
	item := a.Items[i]
	a.Dismiss()
	return item, true
}

// Dismiss hides the list and drops its items.
func (a *Autocomplete) Dismiss() {
	a.Items = nil
	a.Visible = false
}
