// Package synth assembles the final response envelope returned to callers:
// the model text plus routing metadata, citations, a short summary, and the
// degradation flag for requests that fell back to plain chat.
package synth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/victoruno/victoruno/internal/capability"
)

// fallbackMessage replaces an empty model completion. Callers always get
// renderable text.
const fallbackMessage = "I wasn't able to produce a response for that. Could you rephrase or try again?"

// summaryMaxLen bounds the extracted summary.
const summaryMaxLen = 160

// Citation points at a source that contributed context to the response.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Response is the synthesized result of one handled request.
type Response struct {
	Text           string     `json:"text"`
	Intent         string     `json:"intent"`
	Degraded       bool       `json:"degraded"`
	DegradedReason string     `json:"degraded_reason,omitempty"`
	Citations      []Citation `json:"citations,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	Model          string     `json:"model,omitempty"`
}

// Builder accumulates the pieces of a response as the request moves through
// the capability and backend phases. Zero value is usable.
type Builder struct {
	intent         string
	degraded       bool
	degradedReason string
	citations      []Citation
	model          string
}

// NewBuilder starts a response for the resolved intent.
func NewBuilder(intent string) *Builder {
	return &Builder{intent: intent}
}

// Degrade marks the response degraded. The first reason wins; later calls
// only keep the degraded flag set.
func (b *Builder) Degrade(reason string) *Builder {
	b.degraded = true
	if b.degradedReason == "" {
		b.degradedReason = reason
	}
	return b
}

// Degraded reports whether the response has been marked degraded.
func (b *Builder) Degraded() bool { return b.degraded }

// CiteSearchResults records web search hits as citations, in result order.
func (b *Builder) CiteSearchResults(results []capability.Result) *Builder {
	for _, r := range results {
		b.citations = append(b.citations, Citation{Title: r.Title, URL: r.URL})
	}
	return b
}

// CiteDocument records an extracted document as a citation.
func (b *Builder) CiteDocument(name string, doc *capability.Document) *Builder {
	if name == "" {
		name = "attached document"
	}
	b.citations = append(b.citations, Citation{
		Title: fmt.Sprintf("%s (%s, %d words)", name, doc.Format, doc.WordCount),
	})
	return b
}

// CiteWeather records the weather data source as a citation.
func (b *Builder) CiteWeather(report *capability.Report) *Builder {
	b.citations = append(b.citations, Citation{
		Title: fmt.Sprintf("%s via %s", report.Location, report.Source),
	})
	return b
}

// Model records which model produced the completion.
func (b *Builder) Model(model string) *Builder {
	b.model = model
	return b
}

// Build finalizes the response around the completion text.
func (b *Builder) Build(text string) *Response {
	text = strings.TrimSpace(text)
	if text == "" {
		text = fallbackMessage
	}
	return &Response{
		Text:           text,
		Intent:         b.intent,
		Degraded:       b.degraded,
		DegradedReason: b.degradedReason,
		Citations:      b.citations,
		Summary:        Summarize(text),
		Model:          b.model,
	}
}

// Summarize extracts the first sentence of text, bounded to summaryMaxLen
// runes. Sentence boundaries are terminal punctuation followed by a space.
func Summarize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	runes := []rune(text)
	for i, r := range runes {
		if i > 0 && (r == '.' || r == '!' || r == '?') {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				runes = runes[:i+1]
				break
			}
		}
	}

	if len(runes) > summaryMaxLen {
		runes = runes[:summaryMaxLen-1]
		return strings.TrimRight(string(runes), " ") + "…"
	}
	return string(runes)
}
