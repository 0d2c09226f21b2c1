package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/gin-gonic/gin"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

var supported = []language.Tag{language.Spanish, language.English}

// I18n manages internationalization and translations
type I18n struct {
	bundle      *goi18n.Bundle
	matcher     language.Matcher
	defaultLang language.Tag
}

// New creates a translator with the embedded message files loaded
func New(defaultLang string) (*I18n, error) {
	def, err := language.Parse(defaultLang)
	if err != nil {
		def = language.Spanish
	}

	bundle := goi18n.NewBundle(def)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := translationFS.ReadDir("translations")
	if err != nil {
		return nil, fmt.Errorf("failed to read translations: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(translationFS, path.Join("translations", e.Name())); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", e.Name(), err)
		}
	}

	return &I18n{
		bundle:      bundle,
		matcher:     language.NewMatcher(supported),
		defaultLang: def,
	}, nil
}

// Translate returns a localized string for the given message ID and language.
// The message ID is returned unchanged when no translation exists.
func (i *I18n) Translate(msgID string, lang string, data map[string]any) string {
	if lang == "" {
		lang = i.defaultLang.String()
	}
	localizer := goi18n.NewLocalizer(i.bundle, lang, i.defaultLang.String())

	lc := &goi18n.LocalizeConfig{MessageID: msgID}
	if len(data) > 0 {
		lc.TemplateData = data
	}

	msg, err := localizer.Localize(lc)
	if err != nil || msg == "" {
		return msgID
	}
	return msg
}

// Detect picks the response language from X-Lang, then Accept-Language
func (i *I18n) Detect(xLang, acceptLanguage string) string {
	candidates := make([]language.Tag, 0, 4)
	if xLang != "" {
		if t, err := language.Parse(xLang); err == nil {
			candidates = append(candidates, t)
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			candidates = append(candidates, tags...)
		}
	}
	if len(candidates) == 0 {
		return i.base(i.defaultLang)
	}

	_, idx, conf := i.matcher.Match(candidates...)
	if conf == language.No {
		return i.base(i.defaultLang)
	}
	return i.base(supported[idx])
}

func (i *I18n) base(t language.Tag) string {
	b, _ := t.Base()
	return b.String()
}

// Middleware stores the detected language on the gin context
func (i *I18n) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cnst.XLang, i.Detect(c.GetHeader(cnst.XLang), c.GetHeader("Accept-Language")))
		c.Next()
	}
}
