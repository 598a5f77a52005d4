package web

import (
	"context"
	"net/http"
	"os"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

const translationDomain = "default"

// supportedLocales is ordered, the first one is the fallback.
var supportedLocales = []language.Tag{ // nolint:gochecknoglobals
	language.English,
	language.French,
}

func loadLocales(dir string) (map[string]*gotext.Locale, language.Matcher, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, err
	}

	ret := make(map[string]*gotext.Locale, len(supportedLocales))
	for _, tag := range supportedLocales {
		base, _ := tag.Base()
		locale := gotext.NewLocale(dir, base.String())
		locale.AddDomain(translationDomain)
		ret[base.String()] = locale
	}

	return ret, language.NewMatcher(supportedLocales), nil
}

// localize picks the locale from the "lang" query parameter or the
// Accept-Language header.
func (s *Server) localize(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		if lang := r.URL.Query().Get("lang"); lang != "" {
			if tag, err := language.Parse(lang); err == nil {
				tags = append([]language.Tag{tag}, tags...)
			}
		}

		_, index, _ := s.matcher.Match(tags...)
		base, _ := supportedLocales[index].Base()

		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyLocale, base.String())))
	})
}

func localeFromRequest(r *http.Request) string {
	if locale, ok := r.Context().Value(ctxKeyLocale).(string); ok {
		return locale
	}

	return "en"
}

func (s *Server) translate(locale, str string) string {
	l, ok := s.locales[locale]
	if !ok {
		return str
	}

	return l.Get(str)
}
