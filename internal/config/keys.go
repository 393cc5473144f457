package config

import (
	"fmt"
	"strconv"
	"strings"

	"nathanbeddoewebdev/vssplot/internal/domain"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "databroker-address").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config, or
	// "" when unset.
	Get func(cfg *Config) string

	// Set validates and applies a value for this key to the given Config
	// (in memory only; the caller is responsible for calling Save).
	Set func(cfg *Config, value string) error
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "databroker-address",
		Description: "Databroker host:port used when --databroker-address is not specified",
		Get:         func(cfg *Config) string { return cfg.DatabrokerAddress },
		Set: func(cfg *Config, v string) error {
			if _, err := domain.ParseEndpoint(v); err != nil {
				return err
			}
			cfg.DatabrokerAddress = strings.TrimSpace(v)
			return nil
		},
	},
	{
		Name:        "plot-update-ms",
		Description: "Plot update interval in milliseconds",
		Get:         func(cfg *Config) string { return intString(cfg.PlotUpdateMS) },
		Set: func(cfg *Config, v string) error {
			n, err := positiveInt("plot-update-ms", v)
			if err != nil {
				return err
			}
			cfg.PlotUpdateMS = n
			return nil
		},
	},
	{
		Name:        "plot-queue-length",
		Description: "Number of points plotted at a time (history length)",
		Get:         func(cfg *Config) string { return intString(cfg.PlotQueueLength) },
		Set: func(cfg *Config, v string) error {
			n, err := positiveInt("plot-queue-length", v)
			if err != nil {
				return err
			}
			cfg.PlotQueueLength = n
			return nil
		},
	},
}

func intString(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func positiveInt(key, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q: %w", key, v, ErrInvalidSetting)
	}
	return n, nil
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
