// Package theme holds the color palettes used by the terminal output.
package theme

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the built-in theme used when no override is provided.
const DefaultName = "ledger"

// Token represents a semantic color slot.
type Token string

const (
	ColorTextPrimary   Token = "text.primary"
	ColorTextSecondary Token = "text.secondary"
	ColorTextMuted     Token = "text.muted"
	ColorBorder        Token = "border"
	ColorPrimary       Token = "primary"
	ColorPrimaryText   Token = "primary.text"
	ColorAccent        Token = "accent"
	ColorSuccess       Token = "success"
	ColorWarning       Token = "warning"
	ColorDanger        Token = "danger"
	ColorDangerText    Token = "danger.text"
	ColorHighlight     Token = "highlight"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

// Adaptive converts the color into a lipgloss adaptive color.
func (c Color) Adaptive() lipgloss.AdaptiveColor {
	light, dark := strings.TrimSpace(c.Light), strings.TrimSpace(c.Dark)
	switch {
	case light == "":
		light = dark
	case dark == "":
		dark = light
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette is a named set of token colors.
type Palette struct {
	Name   string
	Colors map[Token]Color
}

// Color returns the color for token, falling back to the default palette.
func (p Palette) Color(token Token) Color {
	if c, ok := p.Colors[token]; ok && (c.Light != "" || c.Dark != "") {
		return c
	}
	if p.Name != DefaultName {
		if def, ok := Get(DefaultName); ok {
			return def.Color(token)
		}
	}
	return Color{Light: "#000000", Dark: "#FFFFFF"}
}

func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

func (p Palette) BackgroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Background(p.Adaptive(token))
}

type contextKey struct{}

var (
	registryOnce sync.Once
	registryMu   sync.RWMutex
	palettes     map[string]Palette
	current      Palette
	themeKey     contextKey
)

// ContextWithPalette stores the palette on the context.
func ContextWithPalette(ctx context.Context, p Palette) context.Context {
	return context.WithValue(ctx, themeKey, p)
}

// FromContext returns the palette stored on the context or the current palette.
func FromContext(ctx context.Context) Palette {
	if ctx != nil {
		if p, ok := ctx.Value(themeKey).(Palette); ok {
			return p
		}
	}
	return Current()
}

// Available returns the registered theme names, sorted.
func Available() []string {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func Get(name string) (Palette, bool) {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := palettes[sanitizeName(name)]
	return p, ok
}

// SetCurrent sets the active palette. An empty name selects the default.
func SetCurrent(name string) error {
	ensureRegistry()

	name = sanitizeName(name)
	if name == "" {
		name = DefaultName
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown color theme %q (available: %s)", name, strings.Join(sortedKeys(), ", "))
	}
	current = p
	return nil
}

// Current returns the active palette.
func Current() Palette {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	return current
}

// seed is the minimal description of a palette; the remaining tokens are
// derived from it.
type seed struct {
	name    string
	text    Color
	accent  Color
	success Color
	warning Color
	danger  Color
}

func ensureRegistry() {
	registryOnce.Do(func() {
		registryMu.Lock()
		defer registryMu.Unlock()

		palettes = make(map[string]Palette)
		for _, s := range []seed{
			{
				name:    DefaultName,
				text:    Color{Light: "#1F2933", Dark: "#E4E7EB"},
				accent:  Color{Light: "#2563EB", Dark: "#60A5FA"},
				success: Color{Light: "#15803D", Dark: "#4ADE80"},
				warning: Color{Light: "#B45309", Dark: "#FBBF24"},
				danger:  Color{Light: "#B91C1C", Dark: "#F87171"},
			},
			{
				name:    "mono",
				text:    Color{Light: "#000000", Dark: "#FFFFFF"},
				accent:  Color{Light: "#3A3A3A", Dark: "#D0D0D0"},
				success: Color{Light: "#000000", Dark: "#FFFFFF"},
				warning: Color{Light: "#3A3A3A", Dark: "#D0D0D0"},
				danger:  Color{Light: "#000000", Dark: "#FFFFFF"},
			},
		} {
			p := fromSeed(s)
			palettes[p.Name] = p
		}
		current = palettes[DefaultName]
	})
}

func fromSeed(s seed) Palette {
	return Palette{
		Name: sanitizeName(s.name),
		Colors: map[Token]Color{
			ColorTextPrimary:   s.text,
			ColorTextSecondary: towardsBackground(s.text, 0.25),
			ColorTextMuted:     towardsBackground(s.text, 0.5),
			ColorBorder:        towardsBackground(s.text, 0.7),
			ColorPrimary:       s.accent,
			ColorPrimaryText:   contrastFor(s.accent),
			ColorAccent:        towardsBackground(s.accent, 0.2),
			ColorSuccess:       s.success,
			ColorWarning:       s.warning,
			ColorDanger:        s.danger,
			ColorDangerText:    contrastFor(s.danger),
			ColorHighlight:     towardsBackground(s.accent, 0.85),
		},
	}
}

// towardsBackground blends the light variant towards white and the dark
// variant towards black.
func towardsBackground(c Color, amount float64) Color {
	return Color{
		Light: blendHex(c.Light, colorful.Color{R: 1, G: 1, B: 1}, amount),
		Dark:  blendHex(c.Dark, colorful.Color{R: 0, G: 0, B: 0}, amount),
	}
}

func contrastFor(c Color) Color {
	return Color{Light: contrastColor(c.Light), Dark: contrastColor(c.Dark)}
}

func blendHex(hex string, target colorful.Color, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return c.BlendLab(target, clampFloat(amount, 0, 1)).Clamped().Hex()
}

func contrastColor(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil || relativeLuminance(c) > 0.55 {
		return "#121418"
	}
	return "#F8F8F8"
}

func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func clampFloat(val, minVal, maxVal float64) float64 {
	return max(minVal, min(val, maxVal))
}

func sanitizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// sortedKeys expects registryMu to be held.
func sortedKeys() []string {
	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
