package models

// MapTheme selects the tile source for the map surface
type MapTheme string

// Available map themes
const (
	ThemePositron  MapTheme = "positron"
	ThemeCartoDark MapTheme = "carto-dark"
	ThemeOSM       MapTheme = "osm"
)

// DefaultMapTheme is used when no preference is stored or the stored
// value is unknown.
const DefaultMapTheme = ThemePositron

// DisplayName returns the human-readable theme name.
func (t MapTheme) DisplayName() string {
	switch t {
	case ThemePositron:
		return "Light"
	case ThemeCartoDark:
		return "Black"
	case ThemeOSM:
		return "Standard"
	}
	return "Light"
}

// TileURL returns the tile URL template for the theme.
func (t MapTheme) TileURL() string {
	switch t {
	case ThemePositron:
		return "https://a.basemaps.cartocdn.com/light_all/"
	case ThemeCartoDark:
		return "https://a.basemaps.cartocdn.com/dark_all/"
	case ThemeOSM:
		return "https://tile.openstreetmap.org/"
	}
	return "https://a.basemaps.cartocdn.com/light_all/"
}

// ParseMapTheme maps a stored preference value back to a theme; unknown
// values fall back to the default.
func ParseMapTheme(value string) MapTheme {
	switch MapTheme(value) {
	case ThemePositron, ThemeCartoDark, ThemeOSM:
		return MapTheme(value)
	}
	return DefaultMapTheme
}

// MapThemes lists all selectable themes.
func MapThemes() []MapTheme {
	return []MapTheme{ThemePositron, ThemeCartoDark, ThemeOSM}
}
