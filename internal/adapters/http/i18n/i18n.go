// Package i18n resolves the request language and translates dashboard copy.
// English text is the message key; other locales are loaded from embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "mentorship_lang"
)

// Supported lists the languages the dashboard ships, source locale first.
var Supported = []language.Tag{language.AmericanEnglish, language.BrazilianPortuguese}

var matcher = language.NewMatcher(Supported)

//go:embed locales/*.yaml
var localesFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds every translated message.
type Bundle struct {
	builder  *catalog.Builder
	messages map[language.Tag]map[string]string
}

// Load parses every locales/*.yaml file in fsys.
// PRE: each file names a supported locale that matches its filename
// POST: Returns a bundle whose printers fall back to the English key
func Load(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	b := &Bundle{
		builder:  catalog.NewBuilder(catalog.Fallback(language.AmericanEnglish)),
		messages: map[language.Tag]map[string]string{},
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if want := strings.TrimSuffix(path.Base(p), ".yaml"); f.Locale != want {
			return nil, fmt.Errorf("catalog %s: locale %q must match filename", p, f.Locale)
		}
		tag, err := language.Parse(f.Locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
		msgs := make(map[string]string, len(f.Messages))
		for key, value := range f.Messages {
			if strings.TrimSpace(value) == "" {
				return nil, fmt.Errorf("catalog %s: empty translation for %q", p, key)
			}
			if err := b.builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("catalog %s: %w", p, err)
			}
			msgs[key] = value
		}
		b.messages[tag] = msgs
	}
	return b, nil
}

// MustLoadEmbedded loads the catalogs compiled into the binary.
func MustLoadEmbedded() *Bundle {
	b, err := Load(localesFS)
	if err != nil {
		panic(err)
	}
	return b
}

// Translator renders messages for one language.
type Translator struct {
	Tag      language.Tag
	printer  *message.Printer
	messages map[string]string
}

// Translator returns the translator for tag.
func (b *Bundle) Translator(tag language.Tag) Translator {
	return Translator{
		Tag:      tag,
		printer:  message.NewPrinter(tag, message.Catalog(b.builder)),
		messages: b.messages[tag],
	}
}

// T returns the translation of key, or key itself when none exists.
// Keys are never treated as format strings.
func (t Translator) T(key string) string {
	if v, ok := t.messages[key]; ok {
		return v
	}
	return key
}

// Tf formats a translated format string.
func (t Translator) Tf(format string, args ...any) string {
	if t.printer == nil {
		return fmt.Sprintf(format, args...)
	}
	return t.printer.Sprintf(format, args...)
}

// Number formats n with the locale's digit grouping.
func (t Translator) Number(n int) string {
	if t.printer == nil {
		return fmt.Sprint(n)
	}
	return t.printer.Sprint(n)
}

// Match returns the supported language closest to the given preferences.
func Match(tags ...language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx]
}

// ParseTag parses value and maps it onto a supported language.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return Supported[idx], true
}

// ResolveTag determines the best language for the request: the lang query
// parameter, then the cookie, then Accept-Language, then fallback.
// The bool indicates whether the lang query param should be persisted as a cookie.
func ResolveTag(r *http.Request, fallback language.Tag) (language.Tag, bool) {
	if v := r.URL.Query().Get(LangParam); v != "" {
		if tag, ok := ParseTag(v); ok {
			return tag, true
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := ParseTag(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return Match(tags...), false
		}
	}
	return fallback, false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
