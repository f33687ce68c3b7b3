// Package i18n localizes the labels served with the birthday roster and the calendar feed.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-compass/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator wraps the message bundle and the language negotiation.
type Translator struct {
	bundle      *goi18n.Bundle
	matcher     language.Matcher
	languages   []string
	defaultLang string
}

// New loads every embedded locale. defaultLang is used when negotiation finds nothing better.
func New(defaultLang string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc(config.LocaleFormat, json.Unmarshal)

	entries, err := localeFS.ReadDir(config.LocalesDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	var langs []string
	var tags []language.Tag

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, config.LocalePrefix) || !strings.HasSuffix(name, config.LocaleSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, config.LocalePrefix), config.LocaleSuffix)
		tag, err := language.Parse(langCode)
		if langCode == "" || err != nil {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, config.LocalesDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
		langs = append(langs, langCode)
		tags = append(tags, tag)
	}

	if len(langs) == 0 {
		return nil, errors.New(config.ErrNoLocales)
	}

	t := &Translator{
		bundle:    bundle,
		matcher:   language.NewMatcher(tags),
		languages: langs,
	}
	t.defaultLang = t.Match(defaultLang)
	return t, nil
}

// Languages returns the codes of the loaded locales.
func (t *Translator) Languages() []string {
	return append([]string(nil), t.languages...)
}

// Match picks the best loaded locale for an explicit code or an Accept-Language header value.
func (t *Translator) Match(preferred ...string) string {
	var wanted []language.Tag
	for _, p := range preferred {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		wanted = append(wanted, tags...)
	}
	if len(wanted) == 0 {
		if t.defaultLang != "" {
			return t.defaultLang
		}
		return t.languages[0]
	}

	_, idx, confidence := t.matcher.Match(wanted...)
	if confidence == language.No && t.defaultLang != "" {
		return t.defaultLang
	}
	return t.languages[idx]
}

// Msg translates key. A missing key returns the key itself.
func (t *Translator) Msg(lang, key string, data map[string]any) string {
	return t.localize(lang, &goi18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// Plural translates a plural message; Count is added to data.
func (t *Translator) Plural(lang, key string, count int) string {
	return t.localize(lang, &goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: map[string]any{"Count": count},
		PluralCount:  count,
	})
}

func (t *Translator) localize(lang string, cfg *goi18n.LocalizeConfig) string {
	if t == nil || t.bundle == nil {
		return cfg.MessageID
	}
	msg, err := goi18n.NewLocalizer(t.bundle, lang, t.defaultLang).Localize(cfg)
	if err != nil || msg == "" {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, cfg.MessageID,
			config.LogKeyError, err,
		)
		return cfg.MessageID
	}
	return msg
}

// SummaryFormatter returns the calendar event title builder for lang.
func (t *Translator) SummaryFormatter(lang string) func(name string, age int) string {
	return func(name string, age int) string {
		var msg string
		if age == 0 {
			msg = t.Msg(lang, config.TKeyEvtSummaryBirth, map[string]any{"Name": name})
			if msg == config.TKeyEvtSummaryBirth {
				return fmt.Sprintf(config.FallbackSummaryBirth, name)
			}
			return msg
		}
		msg = t.Msg(lang, config.TKeyEvtSummaryAge, map[string]any{"Name": name, "Age": age})
		if msg == config.TKeyEvtSummaryAge {
			return fmt.Sprintf(config.FallbackSummaryAge, name, age)
		}
		return msg
	}
}

// Badge returns the label shown next to a student with an upcoming birthday.
func (t *Translator) Badge(lang string, today, soon bool) string {
	switch {
	case today:
		return t.Msg(lang, config.TKeyBadgeToday, nil)
	case soon:
		return t.Msg(lang, config.TKeyBadgeSoon, nil)
	default:
		return t.Msg(lang, config.TKeyBadgeUpcoming, nil)
	}
}
