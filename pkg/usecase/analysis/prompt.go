package analysis

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
)

//go:embed prompt/system.md
var systemPrompt string

//go:embed prompt/analyze.md
var analyzePromptRaw string

var analyzePromptTmpl = template.Must(template.New("analyze").Parse(analyzePromptRaw))

type analyzePromptInput struct {
	Multiple bool
	French   bool
}

func buildPrompt(images int, locale model.Locale) (string, error) {
	var buf strings.Builder
	input := analyzePromptInput{
		Multiple: images > 1,
		French:   locale == model.LocaleFR,
	}
	if err := analyzePromptTmpl.Execute(&buf, input); err != nil {
		return "", goerr.Wrap(err, "failed to render analyze prompt")
	}
	return buf.String(), nil
}
