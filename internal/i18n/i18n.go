// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
	matcher      language.Matcher
	tags         []language.Tag
}

var instance *I18n
var once sync.Once

func Initialize(defaultLang string) error {
	var err error
	once.Do(func() {
		if defaultLang == "" {
			defaultLang = "en"
		}
		instance = &I18n{
			translations: make(map[string]map[string]string),
			defaultLang:  defaultLang,
		}
		err = instance.LoadTranslations()
	})
	return err
}

// LoadTranslations reads every embedded locale catalog. The default language
// is registered first so the matcher falls back to it.
func (i *I18n) LoadTranslations() error {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("failed to list locales: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	langs := []string{i.defaultLang}
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".json")
		data, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", entry.Name(), err)
		}
		i.translations[lang] = translations
		if lang != i.defaultLang {
			langs = append(langs, lang)
		}
	}

	i.tags = make([]language.Tag, 0, len(langs))
	for _, lang := range langs {
		i.tags = append(i.tags, language.Make(lang))
	}
	i.matcher = language.NewMatcher(i.tags)
	return nil
}

// Match resolves an Accept-Language header to a supported catalog name.
func (i *I18n) Match(acceptLanguage string) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if acceptLanguage == "" || i.matcher == nil {
		return i.defaultLang
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return i.defaultLang
	}
	_, idx, confidence := i.matcher.Match(prefs...)
	if confidence == language.No {
		return i.defaultLang
	}
	base, _ := i.tags[idx].Base()
	return base.String()
}

func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if text, ok := i.lookup(lang, key); ok {
		return format(text, args)
	}
	if lang != i.defaultLang {
		if text, ok := i.lookup(i.defaultLang, key); ok {
			return format(text, args)
		}
	}

	// Return key if no translation found
	return key
}

func (i *I18n) lookup(lang, key string) (string, bool) {
	translations, ok := i.translations[lang]
	if !ok {
		return "", false
	}
	text, ok := translations[key]
	return text, ok
}

func format(text string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Global functions
func T(lang, key string, args ...interface{}) string {
	if instance != nil {
		return instance.T(lang, key, args...)
	}
	return key
}

func Match(acceptLanguage string) string {
	if instance != nil {
		return instance.Match(acceptLanguage)
	}
	return "en"
}
