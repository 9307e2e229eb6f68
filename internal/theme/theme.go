// Package theme defines the dashboard color palettes and the stylesheet
// built from them.
package theme

import (
	"fmt"
	"strings"
)

// Theme is one color palette.
type Theme struct {
	Name             string
	Bg               string
	Text             string
	NavBg            string
	SelectBg         string
	SidebarBg        string
	SidebarText      string
	SidebarHoverBg   string
	SidebarHoverText string
	Accent           string
	AccentHover      string
}

// Default is the theme used when none is chosen.
const Default = "dark"

var themes = []Theme{
	{
		Name:             "dark",
		Bg:               "#1A1A1A",
		Text:             "#FFFFFF",
		NavBg:            "#222222",
		SelectBg:         "#2A2A2A",
		SidebarBg:        "#1E1E1E",
		SidebarText:      "#CCCCCC",
		SidebarHoverBg:   "#2F2F2F",
		SidebarHoverText: "#FFC300",
		Accent:           "#003465",
		AccentHover:      "#00408F",
	},
	{
		Name:             "light",
		Bg:               "#FFFDF7",
		Text:             "#4A4A4A",
		NavBg:            "#FFF3CD",
		SelectBg:         "#FFE699",
		SidebarBg:        "#FFF9E6",
		SidebarText:      "#6C5B3E",
		SidebarHoverBg:   "#FFE699",
		SidebarHoverText: "#000",
		Accent:           "#FFC300",
		AccentHover:      "#E0A800",
	},
	{
		Name:             "futuristic",
		Bg:               "#F0F6FC",
		Text:             "#1A1A1A",
		NavBg:            "#DCEEFF",
		SelectBg:         "#C5E1FF",
		SidebarBg:        "#E6F0FA",
		SidebarText:      "#003F7F",
		SidebarHoverBg:   "#B3D4FF",
		SidebarHoverText: "#000",
		Accent:           "#003465",
		AccentHover:      "#00408F",
	},
	{
		Name:             "neon",
		Bg:               "#FFFFFF",
		Text:             "#1F1F1F",
		NavBg:            "#FAFAFA",
		SelectBg:         "#EDEDED",
		SidebarBg:        "#F9F9F9",
		SidebarText:      "#555555",
		SidebarHoverBg:   "#E6E6E6",
		SidebarHoverText: "#003465",
		Accent:           "#FFC300",
		AccentHover:      "#E0A800",
	},
}

// All returns every theme in display order.
func All() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// Names returns the theme names in display order.
func Names() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// Get returns the theme called name.
func Get(name string) (Theme, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Lookup returns the theme called name, or the default theme.
func Lookup(name string) Theme {
	if t, ok := Get(name); ok {
		return t
	}
	t, _ := Get(Default)
	return t
}

// Validate reports an unknown theme name.
func Validate(name string) error {
	if _, ok := Get(name); !ok {
		return fmt.Errorf("unknown theme %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return nil
}

// Swatch is the color shown for the theme in the theme picker.
func (t Theme) Swatch() string {
	switch t.Name {
	case "dark", "light":
		return t.NavBg
	default:
		return t.Accent
	}
}

// Class is the CSS class scoping the theme's variables.
func (t Theme) Class() string {
	return "theme-" + t.Name
}

// Label is the display name.
func (t Theme) Label() string {
	return strings.ToUpper(t.Name[:1]) + t.Name[1:]
}
