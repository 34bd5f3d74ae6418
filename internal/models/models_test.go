package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strptr(s string) *string   { return &s }
func f64ptr(f float64) *float64 { return &f }

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"plain", "12/6/2025", time.Date(2025, time.June, 12, 0, 0, 0, 0, time.Local), true},
		{"padded", " 1/1/2020 ", time.Date(2020, time.January, 1, 0, 0, 0, 0, time.Local), true},
		{"blank", "", time.Time{}, false},
		{"whitespace only", "   ", time.Time{}, false},
		{"two parts", "12/2025", time.Time{}, false},
		{"not numeric", "twelve/6/2025", time.Time{}, false},
		{"day out of range", "32/1/2020", time.Time{}, false},
		{"month out of range", "12/13/2020", time.Time{}, false},
		{"impossible february day", "30/2/2021", time.Time{}, false},
		{"leap day", "29/2/2024", time.Date(2024, time.February, 29, 0, 0, 0, 0, time.Local), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEventDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSortEventsByDate(t *testing.T) {
	events := []Event{
		{Name: "middle", Date: "1/7/2023"},
		{Name: "broken", Date: "not-a-date"},
		{Name: "newest", Date: "12/6/2025"},
		{Name: "oldest", Date: "1/1/2020"},
	}

	newest := SortEvents(events, SortNewest)
	require.Equal(t, []string{"newest", "middle", "oldest", "broken"}, names(newest))

	oldest := SortEvents(events, SortOldest)
	require.Equal(t, []string{"broken", "oldest", "middle", "newest"}, names(oldest))

	// Input order untouched
	require.Equal(t, "middle", events[0].Name)
}

func TestSortEventsByTitle(t *testing.T) {
	events := []Event{
		{Name: "banana"},
		{Name: "Apple"},
		{Name: "cherry"},
	}

	az := SortEvents(events, SortTitleAZ)
	require.Equal(t, []string{"Apple", "banana", "cherry"}, names(az))

	za := SortEvents(events, SortTitleZA)
	require.Equal(t, []string{"cherry", "banana", "Apple"}, names(za))
}

func TestSortEventsIsStableForEqualKeys(t *testing.T) {
	events := []Event{
		{ID: 1, Name: "a", Date: "bad"},
		{ID: 2, Name: "b", Date: "bad"},
		{ID: 3, Name: "c", Date: "bad"},
	}

	sorted := SortEvents(events, SortNewest)
	require.Equal(t, []string{"a", "b", "c"}, names(sorted))
}

func TestEventFormValidate(t *testing.T) {
	valid := EventForm{
		Name:      "Dentist",
		Date:      "12/6/2025",
		Category:  strptr("Health"),
		Latitude:  f64ptr(52.2297),
		Longitude: f64ptr(21.0122),
	}
	require.NoError(t, valid.Validate())

	missingName := EventForm{Date: "12/6/2025"}
	require.Error(t, missingName.Validate())

	badCategory := EventForm{Name: "Dentist", Category: strptr("Cooking")}
	require.Error(t, badCategory.Validate())

	halfCoordinate := EventForm{Name: "Dentist", Latitude: f64ptr(52.2297)}
	require.Error(t, halfCoordinate.Validate())

	badLatitude := EventForm{Name: "Dentist", Latitude: f64ptr(120), Longitude: f64ptr(0)}
	require.Error(t, badLatitude.Validate())
}

func TestEventFormToEvent(t *testing.T) {
	form := EventForm{
		Name:         "Dentist",
		Date:         "12/6/2025",
		Description:  "Routine checkup",
		Category:     strptr("Health"),
		Latitude:     f64ptr(52.2297),
		Longitude:    f64ptr(21.0122),
		LocationName: strptr("Warsaw, Poland"),
	}

	event := form.ToEvent()
	require.Zero(t, event.ID)
	require.Equal(t, form.Name, event.Name)
	require.Equal(t, form.Date, event.Date)
	require.Equal(t, form.Category, event.Category)
	require.Equal(t, form.LocationName, event.LocationName)
	require.True(t, event.HasLocation())
}

func TestCategoryColor(t *testing.T) {
	require.Equal(t, "#F85346", CategoryColor(strptr("Health")))
	require.Equal(t, DefaultCategoryColor, CategoryColor(nil))
	require.Equal(t, DefaultCategoryColor, CategoryColor(strptr("Cooking")))
}

func TestParseMapTheme(t *testing.T) {
	require.Equal(t, ThemeCartoDark, ParseMapTheme("carto-dark"))
	require.Equal(t, ThemeOSM, ParseMapTheme("osm"))
	require.Equal(t, DefaultMapTheme, ParseMapTheme(""))
	require.Equal(t, DefaultMapTheme, ParseMapTheme("neon"))
}

func TestMapThemeTileURLs(t *testing.T) {
	for _, theme := range MapThemes() {
		require.NotEmpty(t, theme.TileURL())
		require.NotEmpty(t, theme.DisplayName())
	}
	// Unknown themes render with the light tiles
	require.Equal(t, ThemePositron.TileURL(), MapTheme("neon").TileURL())
}

func names(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Name
	}
	return out
}
