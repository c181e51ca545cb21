// Package lang holds the user-facing reply strings: compiled-in
// defaults, optionally overlaid by a YAML catalog so operators can
// reword replies without rebuilding.
package lang

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	mu sync.RWMutex

	// messages starts as the compiled-in defaults; Load swaps in the
	// merged catalog.
	messages = defaults
)

// Load overlays the defaults with entries from a YAML file of the form
// `key: text`. A missing file is not an error; the defaults apply.
func Load(path string, log *zap.Logger) {
	merged := make(map[string]string, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var overlay map[string]string
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			log.Warn("message catalog parse failed, using defaults", zap.Error(err), zap.String("path", path))
			break
		}
		for k, v := range overlay {
			merged[k] = v
		}
		log.Info("message catalog loaded", zap.String("path", path), zap.Int("overrides", len(overlay)))
	case os.IsNotExist(err):
		log.Info("no message catalog, using defaults", zap.String("path", path))
	default:
		log.Warn("message catalog read failed, using defaults", zap.Error(err), zap.String("path", path))
	}

	mu.Lock()
	messages = merged
	mu.Unlock()
}

// T resolves key, substituting {name} placeholders from pairs
// (name, value, name, value, ...).
func T(key string, pairs ...string) string {
	mu.RLock()
	s, ok := messages[key]
	mu.RUnlock()

	if !ok {
		return "{" + key + "}"
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[i]+"}", pairs[i+1])
	}
	return s
}
