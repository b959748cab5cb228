// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	// catalogs holds the registered catalogs by locale.
	catalogs = map[string]*Catalog{
		BaseLocale: enUSCatalog,
	}
)

// GetCatalog returns the best catalog for a locale or Accept-Language value.
// Falls back to en-US when nothing registered matches.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	tags, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(tags) == 0 {
		return baseCatalog()
	}

	catalogsMu.RLock()
	supported := make([]language.Tag, 0, len(catalogs))
	keys := make([]string, 0, len(catalogs))
	// The base locale goes first so the matcher uses it as the default.
	supported = append(supported, language.MustParse(BaseLocale))
	keys = append(keys, BaseLocale)
	for key := range catalogs {
		if key == BaseLocale {
			continue
		}
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		supported = append(supported, tag)
		keys = append(keys, key)
	}
	catalogsMu.RUnlock()

	_, index, confidence := language.NewMatcher(supported).Match(tags...)
	if confidence == language.No {
		return baseCatalog()
	}
	if c, ok := lookupCatalog(keys[index]); ok {
		return c
	}
	return baseCatalog()
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the base catalog and then to the error code itself if no
// template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok && c != enUSCatalog {
		tmpl, ok = enUSCatalog.messages[code]
	}
	if !ok {
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a new catalog for the given locale.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}

func baseCatalog() *Catalog {
	c, _ := lookupCatalog(BaseLocale)
	if c == nil {
		return enUSCatalog
	}
	return c
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}
