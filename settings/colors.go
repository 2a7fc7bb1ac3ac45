package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a 24-bit color.
type RGB [3]uint8

func (c RGB) String() string { return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2]) }

// Hex renders c as "#rrggbb".
func (c RGB) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]) }

// Color is an optional foreground/background pair.
type Color struct {
	FG *RGB
	BG *RGB
}

func (c Color) String() string {
	var parts []string
	if c.FG != nil {
		parts = append(parts, "fg"+c.FG.String())
	}
	if c.BG != nil {
		parts = append(parts, "bg"+c.BG.String())
	}
	return strings.Join(parts, ";")
}

// Or fills unset channels of c from def.
func (c Color) Or(def Color) Color {
	if c.FG == nil {
		c.FG = def.FG
	}
	if c.BG == nil {
		c.BG = def.BG
	}
	return c
}

const colorFormat = "want e.g. 'fg(255,0,123);bg(0,123,255)'"

// ParseColors parses "fg(r,g,b);bg(r,g,b)". Either part may be omitted;
// a repeated part wins over the earlier one.
func ParseColors(s string) (Color, error) {
	var c Color
	s = strings.Trim(strings.TrimSpace(s), `'"`)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		var dst **RGB
		switch {
		case strings.HasPrefix(part, "fg"):
			dst = &c.FG
		case strings.HasPrefix(part, "bg"):
			dst = &c.BG
		default:
			return Color{}, fmt.Errorf("invalid color %q: %s", s, colorFormat)
		}
		rgb, err := parseRGB(strings.TrimSpace(part[2:]))
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		*dst = &rgb
	}
	return c, nil
}

func parseRGB(s string) (RGB, error) {
	var c RGB
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return c, fmt.Errorf("%q is not parenthesized, %s", s, colorFormat)
	}
	fields := strings.Split(s[1:len(s)-1], ",")
	if len(fields) != 3 {
		return c, fmt.Errorf("%q needs 3 components, %s", s, colorFormat)
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return c, fmt.Errorf("component %q is not in 0..255", strings.TrimSpace(f))
		}
		c[i] = uint8(v)
	}
	return c, nil
}
