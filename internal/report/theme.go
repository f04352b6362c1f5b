package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color
type Color struct {
	R, G, B int
}

// Hex parses "#rrggbb". Malformed input yields black.
func Hex(s string) Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}
	}
	return Color{R: hexByte(s[0:2]), G: hexByte(s[2:4]), B: hexByte(s[4:6])}
}

// CSS renders the color as "#rrggbb"
func (c Color) CSS() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func hexByte(s string) int {
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return int(n)
}

// Theme is the palette of one rendering. Themes are values; the accessors
// return copies so a theme shared between requests cannot be altered.
type Theme struct {
	Name        string
	Background  Color
	Text        Color
	Muted       Color
	Accent      Color
	Border      Color
	TableHeader Color
	TableRow    Color
	TableAltRow Color
	palette     []Color
}

// Palette returns the chart series colors
func (t Theme) Palette() []Color {
	return append([]Color(nil), t.palette...)
}

// SeriesColor returns the color of the i-th series, cycling the palette
func (t Theme) SeriesColor(i int) Color {
	if len(t.palette) == 0 {
		return t.Accent
	}
	return t.palette[i%len(t.palette)]
}

// IsDark reports whether the theme has a dark background
func (t Theme) IsDark() bool {
	return t.Background.R+t.Background.G+t.Background.B < 3*128
}

// series colors shared by both themes
var basePalette = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

func palette() []Color {
	out := make([]Color, len(basePalette))
	for i, h := range basePalette {
		out[i] = Hex(h)
	}
	return out
}

// Light is the default print theme
func Light() Theme {
	return Theme{
		Name:        "claro",
		Background:  Hex("#ffffff"),
		Text:        Hex("#0a0a0a"),
		Muted:       Hex("#4b5563"),
		Accent:      Hex("#0b4dd8"),
		Border:      Hex("#d1d5db"),
		TableHeader: Hex("#e5e7eb"),
		TableRow:    Hex("#f9fafb"),
		TableAltRow: Hex("#ffffff"),
		palette:     palette(),
	}
}

// Dark mirrors the dashboard dark mode
func Dark() Theme {
	return Theme{
		Name:        "escuro",
		Background:  Hex("#0d1117"),
		Text:        Hex("#f0f0f0"),
		Muted:       Hex("#8b949e"),
		Accent:      Hex("#58a6ff"),
		Border:      Hex("#30363d"),
		TableHeader: Hex("#0d1117"),
		TableRow:    Hex("#161b22"),
		TableAltRow: Hex("#1c2128"),
		palette:     palette(),
	}
}

// ThemeByName resolves "claro"/"light" and "escuro"/"dark"
func ThemeByName(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "claro", "light":
		return Light(), true
	case "escuro", "dark":
		return Dark(), true
	default:
		return Light(), false
	}
}
