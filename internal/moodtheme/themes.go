package moodtheme

import "fmt"

// HSL is a color in the space-separated form used by CSS custom properties.
type HSL struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

func (c HSL) String() string { return fmt.Sprintf("%d %d%% %d%%", c.H, c.S, c.L) }

type Colors struct {
	Primary    HSL `json:"primary"`
	Secondary  HSL `json:"secondary"`
	Accent     HSL `json:"accent"`
	Background HSL `json:"background"`
	Foreground HSL `json:"foreground"`
	Muted      HSL `json:"muted"`
	Card       HSL `json:"card"`
	Border     HSL `json:"border"`
}

type namedColor struct {
	name  string
	color HSL
}

func (c Colors) named() []namedColor {
	return []namedColor{
		{"primary", c.Primary},
		{"secondary", c.Secondary},
		{"accent", c.Accent},
		{"background", c.Background},
		{"foreground", c.Foreground},
		{"muted", c.Muted},
		{"card", c.Card},
		{"border", c.Border},
	}
}

type Theme struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Mood     int    `json:"mood"`
	Colors   Colors `json:"colors"`
	Gradient string `json:"gradient"`
}

const (
	MinLevel = 1
	MaxLevel = 5

	NeutralMood = 3
)

// catalog is ordered by mood and spans MinLevel..MaxLevel contiguously.
var catalog = []Theme{
	{
		ID: "stormy", Name: "Stormy", Mood: 1,
		Colors: Colors{
			Primary: HSL{230, 35, 45}, Secondary: HSL{225, 25, 30}, Accent: HSL{260, 30, 55},
			Background: HSL{228, 30, 12}, Foreground: HSL{220, 20, 88}, Muted: HSL{225, 15, 35},
			Card: HSL{228, 28, 16}, Border: HSL{226, 20, 24},
		},
		Gradient: "linear-gradient(135deg, hsl(230 35% 20%), hsl(260 30% 30%))",
	},
	{
		ID: "calm-blue", Name: "Calm Blue", Mood: 2,
		Colors: Colors{
			Primary: HSL{205, 65, 48}, Secondary: HSL{195, 40, 70}, Accent: HSL{180, 45, 45},
			Background: HSL{205, 40, 97}, Foreground: HSL{210, 30, 18}, Muted: HSL{205, 20, 88},
			Card: HSL{0, 0, 100}, Border: HSL{205, 25, 85},
		},
		Gradient: "linear-gradient(135deg, hsl(205 65% 60%), hsl(180 45% 55%))",
	},
	{
		ID: "neutral", Name: "Neutral", Mood: NeutralMood,
		Colors: Colors{
			Primary: HSL{222, 47, 31}, Secondary: HSL{210, 40, 96}, Accent: HSL{210, 40, 90},
			Background: HSL{0, 0, 100}, Foreground: HSL{222, 47, 11}, Muted: HSL{210, 40, 96},
			Card: HSL{0, 0, 100}, Border: HSL{214, 32, 91},
		},
		Gradient: "linear-gradient(135deg, hsl(222 47% 31%), hsl(214 32% 60%))",
	},
	{
		ID: "bright", Name: "Bright", Mood: 4,
		Colors: Colors{
			Primary: HSL{145, 60, 40}, Secondary: HSL{90, 55, 85}, Accent: HSL{48, 95, 55},
			Background: HSL{80, 40, 98}, Foreground: HSL{150, 30, 15}, Muted: HSL{100, 25, 90},
			Card: HSL{0, 0, 100}, Border: HSL{110, 25, 85},
		},
		Gradient: "linear-gradient(135deg, hsl(145 60% 45%), hsl(48 95% 60%))",
	},
	{
		ID: "radiant", Name: "Radiant", Mood: 5,
		Colors: Colors{
			Primary: HSL{28, 95, 52}, Secondary: HSL{45, 100, 88}, Accent: HSL{340, 85, 60},
			Background: HSL{40, 100, 98}, Foreground: HSL{20, 40, 15}, Muted: HSL{35, 60, 92},
			Card: HSL{0, 0, 100}, Border: HSL{35, 60, 85},
		},
		Gradient: "linear-gradient(135deg, hsl(28 95% 55%), hsl(340 85% 62%))",
	},
}

// Themes returns a copy of the catalog ordered by mood.
func Themes() []Theme {
	out := make([]Theme, len(catalog))
	copy(out, catalog)
	return out
}

func ByID(id string) (Theme, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// ByMood returns the theme for mood, or the neutral theme when none matches.
func ByMood(mood int) Theme {
	for _, t := range catalog {
		if t.Mood == mood {
			return t
		}
	}
	return catalog[NeutralMood-1]
}
