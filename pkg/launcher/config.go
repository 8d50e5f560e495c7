package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ConfigNames are the optional override files looked up next to the launcher, in order.
var ConfigNames = []string{"launcher.yaml", "launcher.yml"}

// LoadLayout returns the layout for dir: the defaults for goos, with any
// field set in an override file taking precedence.
// A missing override file is not an error.
func LoadLayout(dir, goos string) (Layout, error) {
	def := DefaultLayoutFor(goos)

	for _, name := range ConfigNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Layout{}, fmt.Errorf("failed to read launcher config: %w", err)
		}

		l, err := decodeLayout(data)
		if err != nil {
			return Layout{}, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if err := validateLayout(l); err != nil {
			return Layout{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		return l.merge(def), nil
	}

	return def, nil
}

// decodeLayout reads YAML into a map and decodes it weakly, so a single
// bootstrap name is accepted where a list is expected.
func decodeLayout(data []byte) (Layout, error) {
	var (
		raw map[string]any
		l   Layout
	)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return l, err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &l,
	})
	if err != nil {
		return l, err
	}
	return l, dec.Decode(raw)
}

func validateLayout(l Layout) error {
	fields := []struct{ name, value string }{
		{"env_dir", l.EnvDir},
		{"manifest", l.Manifest},
		{"entry", l.Entry},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if filepath.IsAbs(f.value) {
			return fmt.Errorf("%s must be relative to the launcher directory", f.name)
		}
		clean := filepath.Clean(f.value)
		if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%s must stay inside the launcher directory", f.name)
		}
	}
	return nil
}
