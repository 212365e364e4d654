package router

import (
	"fmt"
	"strings"

	"github.com/victoruno/victoruno/internal/capability"
)

// documentContextLimit bounds how much extracted document text is injected
// into the system prompt.
const documentContextLimit = 8000

// articleContextLimit bounds how much scraped article text is injected into
// the system prompt.
const articleContextLimit = 4000

// basePrompt is the assistant identity shared by every handler.
func basePrompt(agentName string) string {
	return fmt.Sprintf(`You are %s, a personal AI assistant designed to help with research, development, and optimization tasks.

Your capabilities include:
- Answering questions and providing explanations
- Analyzing documents and extracting insights
- Conducting web research
- Helping with code and development tasks
- Optimizing workflows and processes

Be helpful, accurate, and concise in your responses.`, agentName)
}

// intentPrompt returns the handler-specific system prompt.
func intentPrompt(intent Intent, agentName string) string {
	base := basePrompt(agentName)
	switch intent {
	case IntentResearch:
		return base + `

TASK:
You are answering a research question. Produce a clear, factual, and self-contained description. Always answer directly and in complete sentences.

STYLE:
- Do not include disclaimers or state limitations.
- Keep the description concise (2-4 sentences) unless the question demands more.
- Use neutral, professional language.
- When web research context is provided below, ground your answer in it.`
	case IntentDevelop:
		return base + `

TASK:
You are helping with a development task. Propose a concrete approach or implementation. Prefer working code over prose when code is asked for.`
	case IntentOptimize:
		return base + `

TASK:
You are helping optimize a system or process. Identify the bottleneck first, then suggest specific, measurable improvements.`
	case IntentWeather:
		return base + `

TASK:
Answer the weather question using the current conditions provided below. Report the temperature and conditions plainly.`
	case IntentDocument:
		return base + `

TASK:
Answer the question using the attached document content provided below. Quote or reference the document where it supports your answer.`
	default:
		return base
	}
}

// degradationNote tells the model a tool was unavailable so the answer
// acknowledges the gap instead of fabricating tool output.
func degradationNote(toolName, reason string) string {
	return fmt.Sprintf(`

NOTE: The %s tool was unavailable for this request (%s). Answer from your own knowledge, and state clearly that live data could not be retrieved.`, toolName, reason)
}

// weatherContext formats a weather report for prompt injection.
func weatherContext(r *capability.Report) string {
	return fmt.Sprintf(`

Current conditions for %s (source: %s):
- Temperature: %.1f°C
- Conditions: %s`, r.Location, r.Source, r.TempC, r.Conditions)
}

// searchContext formats web search hits as a numbered context block.
func searchContext(results []capability.Result) string {
	var sb strings.Builder
	sb.WriteString("\n\nWeb research context:\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Snippet)
	}
	return sb.String()
}

// articleContext formats scraped article text from the top search result,
// truncated to articleContextLimit runes.
func articleContext(pageURL, text string) string {
	truncated := false
	if runes := []rune(text); len(runes) > articleContextLimit {
		text = string(runes[:articleContextLimit])
		truncated = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n\nTop result article (%s):\n", pageURL)
	sb.WriteString(text)
	if truncated {
		sb.WriteString("\n[article truncated]")
	}
	return sb.String()
}

// documentContext formats extracted document text for prompt injection,
// truncated to documentContextLimit runes.
func documentContext(name string, doc *capability.Document) string {
	text := doc.Text
	truncated := false
	if runes := []rune(text); len(runes) > documentContextLimit {
		text = string(runes[:documentContextLimit])
		truncated = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n\nAttached document %q (%s, %d words", name, doc.Format, doc.WordCount)
	if doc.PageCount > 0 {
		fmt.Fprintf(&sb, ", %d pages", doc.PageCount)
	}
	sb.WriteString("):\n")
	sb.WriteString(text)
	if truncated {
		sb.WriteString("\n[document truncated]")
	}
	return sb.String()
}
