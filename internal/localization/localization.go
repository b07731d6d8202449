// Package localization loads the bot's message catalogs and looks up
// strings by language code.
package localization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultLanguage is used when a key is missing from the requested catalog.
const DefaultLanguage = "en"

// Localizer holds one catalog per language, keyed by message id.
type Localizer struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string
}

// NewLocalizer reads every <lang>.json file in dir.
func NewLocalizer(dir string) (*Localizer, error) {
	l := &Localizer{catalogs: make(map[string]map[string]string)}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read localization dir: %w", err)
	}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file.Name(), err)
		}
		var catalog map[string]string
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file.Name(), err)
		}
		l.catalogs[strings.TrimSuffix(file.Name(), ".json")] = catalog
	}
	if _, ok := l.catalogs[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("localization dir %s has no %s.json", dir, DefaultLanguage)
	}
	return l, nil
}

// GetString returns the message for key in lang. Region suffixes such as
// "uk-UA" are ignored. Missing keys fall back to English, then to the key.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if catalog, ok := l.catalogs[baseLanguage(lang)]; ok {
		if value, ok := catalog[key]; ok {
			return value
		}
	}
	if value, ok := l.catalogs[DefaultLanguage][key]; ok {
		return value
	}
	return key
}

// Format looks up key and applies fmt.Sprintf with args.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// Languages lists the loaded language codes in sorted order.
func (l *Localizer) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	langs := make([]string, 0, len(l.catalogs))
	for lang := range l.catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func baseLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
