// Package locale translates user-facing strings with go-i18n.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Localizer resolves translation keys for one language.
// A nil *Localizer is usable and returns the English fallbacks.
type Localizer struct {
	lang      string
	languages []string
	localizer *i18n.Localizer
}

// New loads the embedded locales and selects lang.
// Unknown languages fall back to English.
func New(lang string) *Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return &Localizer{lang: config.DefaultLanguage}
	}

	var detected []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		detected = append(detected, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	return &Localizer{
		lang:      lang,
		languages: detected,
		localizer: i18n.NewLocalizer(bundle, lang),
	}
}

// Language returns the requested language code.
func (l *Localizer) Language() string {
	if l == nil {
		return config.DefaultLanguage
	}
	return l.lang
}

// Languages lists the locales found in the embedded files.
func (l *Localizer) Languages() []string {
	if l == nil {
		return nil
	}
	return l.languages
}

// Msg translates key, returning the key itself when it is missing.
func (l *Localizer) Msg(key string) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: key}, key)
}

// MsgWith translates key with template data.
func (l *Localizer) MsgWith(key string, data map[string]any) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data}, key)
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig, fallback string) string {
	if l == nil || l.localizer == nil {
		return fallback
	}
	msg, err := l.localizer.Localize(cfg)
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, cfg.MessageID,
			config.LogKeyError, err,
		)
		return fallback
	}
	return msg
}

// DaysLabel renders a days-until value: "Today", "Tomorrow" or "In N days".
func (l *Localizer) DaysLabel(days int) string {
	switch days {
	case 0:
		return l.localize(&i18n.LocalizeConfig{MessageID: config.TKeyToday}, config.FallbackToday)
	case 1:
		return l.localize(&i18n.LocalizeConfig{MessageID: config.TKeyTomorrow}, config.FallbackTomorrow)
	default:
		return l.localize(&i18n.LocalizeConfig{
			MessageID:    config.TKeyInDays,
			PluralCount:  days,
			TemplateData: map[string]any{"Count": days},
		}, fmt.Sprintf(config.FallbackInDays, days))
	}
}

// NoUpcoming is the placeholder shown for an empty list.
func (l *Localizer) NoUpcoming() string {
	return l.localize(&i18n.LocalizeConfig{MessageID: config.TKeyNoUpcoming}, config.FallbackNoUpcoming)
}

// CategoryLabel returns the display name of c.
func (l *Localizer) CategoryLabel(c engine.Category) string {
	if c == engine.Anniversary {
		return l.localize(&i18n.LocalizeConfig{MessageID: config.TKeyAnniversary}, config.FallbackAnniversary)
	}
	return l.localize(&i18n.LocalizeConfig{MessageID: config.TKeyBirthday}, config.FallbackBirthday)
}

// ExportResult renders the outcome of an export.
func (l *Localizer) ExportResult(path string, err error) string {
	if err != nil {
		return l.localize(&i18n.LocalizeConfig{
			MessageID:    config.TKeyExportFailed,
			TemplateData: map[string]any{"Error": err.Error()},
		}, fmt.Sprintf(config.FallbackExportFailed, err))
	}
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    config.TKeyExportOK,
		TemplateData: map[string]any{"Path": path},
	}, fmt.Sprintf(config.FallbackExportOK, path))
}

// ImportResult renders the outcome of an import; count is the number of new events.
func (l *Localizer) ImportResult(count int, err error) string {
	if err != nil {
		return l.localize(&i18n.LocalizeConfig{
			MessageID:    config.TKeyImportFailed,
			TemplateData: map[string]any{"Error": err.Error()},
		}, fmt.Sprintf(config.FallbackImportFailed, err))
	}
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    config.TKeyImportOK,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	}, fmt.Sprintf(config.FallbackImportOK, count))
}

// Summary formats a calendar entry title. It matches engine.Generator.FormatSummary.
func (l *Localizer) Summary(ev engine.Event, age int, ageKnown bool) string {
	data := map[string]any{"Name": ev.Name, "Age": age}
	label := l.CategoryLabel(ev.Category)

	key := config.TKeyEvtSummary
	fallback := fmt.Sprintf(config.FallbackSummary, label, ev.Name)
	if ev.Category == engine.Anniversary {
		key = config.TKeyAnnSummary
	}

	switch {
	case ageKnown && age > 0:
		key = config.TKeyEvtSummaryAge
		if ev.Category == engine.Anniversary {
			key = config.TKeyAnnSummaryAge
		}
		fallback = fmt.Sprintf(config.FallbackSummaryAge, label, ev.Name, age)
	case ageKnown && ev.Category == engine.Birthday:
		key = config.TKeyEvtSummaryZero
	}

	return l.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data}, fallback)
}
