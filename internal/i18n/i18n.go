// Package i18n provides localized labels for anniversary types. The label
// set is small and ships embedded; unknown languages fall back to English.
package i18n

import (
	"embed"
	"encoding/json"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	appLog "upnext/internal/log"
	"upnext/internal/model"
)

//go:embed locales/*.json
var localeFS embed.FS

// Labels resolves anniversary type names for one configured language.
type Labels struct {
	localizer *goi18n.Localizer
}

// New builds a label resolver for the given language code ("en", "de", ...).
func New(lang string) *Labels {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		appLog.Error("locale dir unreadable", err)
		return &Labels{localizer: goi18n.NewLocalizer(bundle, "en")}
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			appLog.Error("locale load failed", err, "file", name)
		}
	}

	return &Labels{localizer: goi18n.NewLocalizer(bundle, lang, "en")}
}

// AnniversaryType returns the localized name for a contact-event type.
func (l *Labels) AnniversaryType(t model.AnniversaryType) string {
	id := "type_other"
	switch t {
	case model.TypeCustom:
		id = "type_custom"
	case model.TypeAnniversary:
		id = "type_anniversary"
	case model.TypeBirthday:
		id = "type_birthday"
	}

	msg, err := l.localizer.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil {
		appLog.Warn("missing label translation", "id", id)
		return id
	}
	return msg
}
