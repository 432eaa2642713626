// Package i18n maps UI string keys to display strings for the
// request's resolved locale. Bundles are compiled into the binary.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chantierflow/chantierflow/internal/config"
	"go.uber.org/fx"
)

//go:embed locales/*.json
var localeFS embed.FS

// Languages the product ships today: French, Moroccan Arabic script,
// Darija in Latin script, English, Spanish.
var SupportedLanguages = []string{"fr", "ar", "dr", "en", "es"}

var Module = fx.Module("i18n",
	fx.Provide(New),
)

type Translator struct {
	defaultLanguage string
	bundles         map[string]map[string]string
}

func New(cfg config.Config) (*Translator, error) {
	tr := &Translator{
		defaultLanguage: cfg.DefaultLanguage,
		bundles:         map[string]map[string]string{},
	}
	for _, lang := range SupportedLanguages {
		raw, err := localeFS.ReadFile(fmt.Sprintf("locales/%s.json", lang))
		if err != nil {
			return nil, fmt.Errorf("load locale %s: %w", lang, err)
		}
		bundle := map[string]string{}
		if err := json.Unmarshal(raw, &bundle); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", lang, err)
		}
		tr.bundles[lang] = bundle
	}
	if _, ok := tr.bundles[tr.defaultLanguage]; !ok {
		tr.defaultLanguage = "fr"
	}
	return tr, nil
}

// Translate resolves key in the requested locale, falling back to the
// default language and finally to the key itself.
func (t *Translator) Translate(locale, key string) string {
	if bundle, ok := t.bundles[locale]; ok {
		if value, ok := bundle[key]; ok {
			return value
		}
	}
	if bundle, ok := t.bundles[t.defaultLanguage]; ok {
		if value, ok := bundle[key]; ok {
			return value
		}
	}
	return key
}

func (t *Translator) Supported(locale string) bool {
	_, ok := t.bundles[locale]
	return ok
}

func (t *Translator) DefaultLanguage() string {
	return t.defaultLanguage
}

// ResolveLocale picks the display language: explicit query parameter,
// then the user's stored preference, then Accept-Language, then the
// default.
func (t *Translator) ResolveLocale(queryParam, userPreference, acceptLanguage string) string {
	if locale := strings.ToLower(strings.TrimSpace(queryParam)); t.Supported(locale) {
		return locale
	}
	if locale := strings.ToLower(strings.TrimSpace(userPreference)); t.Supported(locale) {
		return locale
	}
	for _, part := range strings.Split(acceptLanguage, ",") {
		lang := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if idx := strings.Index(lang, "-"); idx > 0 {
			lang = lang[:idx]
		}
		if t.Supported(lang) {
			return lang
		}
	}
	return t.defaultLanguage
}
