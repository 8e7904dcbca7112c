package html

import (
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeName names the built-in manifest.
const DefaultThemeName = "surveysync"

// ThemeSelector resolves a theme selection by name and variant.
type ThemeSelector interface {
	Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error)
}

// WithThemeSelector resolves the theme through selector when the container
// is built. Resolution errors fail New.
func WithThemeSelector(selector ThemeSelector, name, variant string) Option {
	return func(c *Container) {
		if selector == nil {
			return
		}
		selection, err := selector.Select(name, variant)
		if err != nil {
			c.themeErr = fmt.Errorf("html: select theme %q: %w", name, err)
			return
		}
		c.selection = selection
	}
}

// DefaultManifest returns the built-in theme with a "dark" variant.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"surface":      "#ffffff",
			"text":         "#1f2933",
			"accent":       "#2563eb",
			"border":       "#d0d7de",
			"radius":       "6px",
			"font-family":  "system-ui, sans-serif",
			"question-gap": "1.25rem",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"surface": "#111827",
					"text":    "#f3f4f6",
					"border":  "#374151",
				},
			},
		},
	}
}

// manifestSelector selects among a fixed set of manifests.
type manifestSelector struct {
	manifests map[string]*theme.Manifest
}

// NewManifestSelector returns a ThemeSelector over manifests. An empty name
// selects DefaultThemeName.
func NewManifestSelector(manifests ...*theme.Manifest) ThemeSelector {
	s := manifestSelector{manifests: make(map[string]*theme.Manifest)}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			continue
		}
		s.manifests[manifest.Name] = manifest
	}
	return s
}

func (s manifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultThemeName
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("theme %q not registered", name)
	}
	variant = strings.TrimSpace(variant)
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}
