package render

import (
	"io"

	"github.com/spigell/skillmatch/internal/ai"
)

// Analysis writes an LLM analysis. Structured formats carry the raw text.
func Analysis(w io.Writer, format Format, analysis *ai.Analysis) error {
	if format != FormatTable {
		return encode(w, format, struct {
			Type  ai.AnalysisType `json:"type" yaml:"type"`
			Title string          `json:"title" yaml:"title"`
			Model string          `json:"model,omitempty" yaml:"model,omitempty"`
			Text  string          `json:"text" yaml:"text"`
		}{analysis.Type, analysis.Type.Title(), analysis.Model, analysis.Text})
	}

	heading.Fprintf(w, "%s Results\n\n", analysis.Type.Title())
	_, err := io.WriteString(w, analysis.Text+"\n")
	return err
}
