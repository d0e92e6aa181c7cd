// Package share builds the text and platform links used to share an analysis.
package share

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
)

type Platform string

const (
	PlatformFacebook Platform = "facebook"
	PlatformWhatsApp Platform = "whatsapp"
	PlatformX        Platform = "x"
)

var Platforms = []Platform{PlatformFacebook, PlatformWhatsApp, PlatformX}

type Share struct {
	Title string              `json:"title"`
	Text  string              `json:"text"`
	URL   string              `json:"url"`
	Links map[Platform]string `json:"links"`
}

type labels struct {
	program, temperature, spin, detergent, fabric, advice string
}

var localLabels = map[model.Locale]labels{
	model.LocaleFR: {"Programme", "Température", "Essorage", "Détergent", "Type de tissu", "Conseils d'entretien"},
	model.LocaleEN: {"Program", "Temperature", "Spin", "Detergent", "Fabric type", "Care advice"},
}

// Build returns the share payload of item. The item URL is baseURL joined
// with the item ID; an empty baseURL leaves it out.
func Build(item *model.HistoryItem, baseURL string, locale model.Locale) (*Share, error) {
	if item == nil || item.AnalysisResult == nil {
		return nil, goerr.New("history item has no analysis")
	}

	s := &Share{
		Title: item.AnalysisResult.Title,
		Text:  Text(item.AnalysisResult, locale),
	}
	if baseURL != "" {
		u, err := url.JoinPath(baseURL, "history", string(item.ID))
		if err != nil {
			return nil, goerr.Wrap(err, "invalid share base url", goerr.V("base_url", baseURL))
		}
		s.URL = u
	}

	s.Links = map[Platform]string{
		PlatformFacebook: "https://www.facebook.com/sharer/sharer.php?" + url.Values{"u": {s.URL}, "quote": {s.Text}}.Encode(),
		PlatformWhatsApp: "https://wa.me/?" + url.Values{"text": {joinNonEmpty("\n\n", s.Text, s.URL)}}.Encode(),
		PlatformX:        "https://twitter.com/intent/tweet?" + url.Values{"text": {s.Title}, "url": {s.URL}}.Encode(),
	}
	return s, nil
}

// Text renders the care summary of result as plain text
func Text(result *model.AnalysisResult, locale model.Locale) string {
	l, ok := localLabels[locale]
	if !ok {
		l = localLabels[model.DefaultLocale]
	}
	sep := " : "
	if locale == model.LocaleEN {
		sep = ": "
	}

	var b strings.Builder
	b.WriteString(result.Title + "\n\n")
	b.WriteString(l.program + sep + result.Summary.Program + "\n")
	b.WriteString(l.temperature + sep + result.Summary.Temperature + "\n")
	b.WriteString(l.spin + sep + result.Summary.Spin + "\n")
	b.WriteString(l.detergent + sep + result.Summary.Detergent + "\n\n")
	b.WriteString(l.fabric + sep + result.FabricType + "\n\n")
	b.WriteString(l.advice + sep + "\n")
	for _, steps := range [][]string{result.PreWash, result.DuringWash, result.PostWash} {
		for _, step := range steps {
			b.WriteString(step + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
