package settings

import "fmt"

// Palette holds the resolved colors for each transcript speaker.
type Palette struct {
	User       Color
	Apprentice Color
	Tool       Color
}

// DefaultPalette is used for any color the settings leave unset.
func DefaultPalette() Palette {
	return Palette{
		User:       Color{FG: &RGB{128, 64, 64}, BG: &RGB{128, 0, 0}},
		Apprentice: Color{FG: &RGB{64, 128, 64}, BG: &RGB{0, 128, 0}},
		Tool:       Color{FG: &RGB{128, 128, 0}, BG: &RGB{64, 64, 0}},
	}
}

// Palette parses the color specs, filling gaps from DefaultPalette.
func (a Appearance) Palette() (Palette, error) {
	p := DefaultPalette()
	for _, f := range []struct {
		name string
		spec string
		dst  *Color
	}{
		{"user_color", a.UserColor, &p.User},
		{"apprentice_color", a.ApprenticeColor, &p.Apprentice},
		{"tool_color", a.ToolColor, &p.Tool},
	} {
		if f.spec == "" {
			continue
		}
		c, err := ParseColors(f.spec)
		if err != nil {
			return Palette{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = c.Or(*f.dst)
	}
	return p, nil
}
