// Package router is the assistant's dispatch core. It resolves each incoming
// utterance to an intent, binds the matching capability, invokes the model
// backend over the session's context window, and records the exchange in
// conversation memory.
//
// Failure policy: capability failures degrade the request to a chat-style
// answer with an explicit note; backend failures abort the request and leave
// memory untouched.
package router

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/victoruno/victoruno/internal/backend"
	"github.com/victoruno/victoruno/internal/capability"
	"github.com/victoruno/victoruno/internal/log"
	"github.com/victoruno/victoruno/internal/session"
	"github.com/victoruno/victoruno/internal/synth"
)

// Sentinel errors for request validation. Reported to the caller before any
// session state is touched.
var (
	// ErrEmptyUtterance indicates a request with no message text.
	ErrEmptyUtterance = errors.New("empty utterance")

	// ErrUnsupportedAttachment indicates an attachment of a type the document
	// extractor cannot handle. Not retried and never degraded.
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
)

// Request is one routed utterance.
type Request struct {
	SessionID      uuid.UUID
	Utterance      string
	AttachmentPath string
}

// Config holds router construction parameters.
type Config struct {
	AgentName      string
	MaxWindowTurns int
	Keywords       Keywords
}

// Router dispatches requests to intent handlers. Safe for concurrent use;
// requests against the same session are serialized, requests against
// different sessions proceed in parallel.
type Router struct {
	sessions       *session.Store
	selector       *backend.Selector
	caps           *capability.Registry
	agentName      string
	maxWindowTurns int
	keywords       Keywords
	logger         log.Logger
}

// New creates the router.
func New(cfg Config, sessions *session.Store, selector *backend.Selector,
	caps *capability.Registry, logger log.Logger) *Router {

	agentName := cfg.AgentName
	if agentName == "" {
		agentName = "VictorUno"
	}
	maxTurns := cfg.MaxWindowTurns
	if maxTurns <= 0 {
		maxTurns = 20
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Router{
		sessions:       sessions,
		selector:       selector,
		caps:           caps,
		agentName:      agentName,
		maxWindowTurns: maxTurns,
		keywords:       cfg.Keywords,
		logger:         logger,
	}
}

// Sessions exposes the session store for the transport shims.
func (r *Router) Sessions() *session.Store { return r.sessions }

// Handle processes one request end to end: intent resolution, capability
// phase, backend completion, memory append. The session's exclusion scope is
// held for the full duration and released on every exit path.
func (r *Router) Handle(ctx context.Context, req Request) (*synth.Response, error) {
	utterance := strings.TrimSpace(req.Utterance)
	if utterance == "" && req.AttachmentPath == "" {
		return nil, ErrEmptyUtterance
	}

	if req.AttachmentPath != "" {
		ext := filepath.Ext(req.AttachmentPath)
		if !capability.SupportedFormat(ext) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedAttachment, ext)
		}
	}

	intent := resolveIntent(utterance, req.AttachmentPath, r.keywords)
	r.logger.Debug("request routed",
		"session_id", req.SessionID, "intent", string(intent))

	sess := r.sessions.GetOrCreate(req.SessionID)
	sess.Lock()
	defer sess.Unlock()
	defer sess.Touch()

	builder := synth.NewBuilder(string(intent))
	var toolTurns []session.Turn
	var phaseContext string

	// Capability phase. Any failure here degrades the request to the chat
	// fallback instead of aborting it.
	switch intent {
	case IntentWeather:
		phaseContext = r.weatherPhase(ctx, utterance, builder, &toolTurns)
	case IntentResearch:
		phaseContext = r.researchPhase(ctx, utterance, builder, &toolTurns)
	case IntentDocument:
		phaseContext = r.documentPhase(ctx, req.AttachmentPath, builder, &toolTurns)
	}

	// A degraded phase gets the base prompt: the intent-specific task
	// sections instruct the model to use context that was never injected.
	system := intentPrompt(intent, r.agentName)
	if builder.Degraded() {
		system = basePrompt(r.agentName)
	}
	system += phaseContext

	if utterance == "" {
		// Attachment-only request.
		utterance = "Summarize the attached document."
	}

	// Backend phase. The window excludes the current utterance, which is
	// appended to memory only after the backend call succeeds.
	window := sess.History().Window(r.maxWindowTurns)
	messages := make([]backend.Message, 0, len(window)+1)
	for _, t := range window {
		messages = append(messages, backend.Message{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, backend.Message{Role: string(session.RoleUser), Content: utterance})

	completion, err := r.selector.Complete(ctx, backend.Request{System: system, Messages: messages})
	if err != nil {
		r.logger.Warn("backend failed, request aborted",
			"session_id", req.SessionID, "intent", string(intent), "error", err)
		return nil, err
	}

	// Memory phase: one user turn, any intermediate tool turns, one
	// assistant turn, in that order.
	history := sess.History()
	history.Append(session.Turn{Role: session.RoleUser, Content: utterance})
	for _, t := range toolTurns {
		history.Append(t)
	}
	history.Append(session.Turn{Role: session.RoleAssistant, Content: completion.Text})

	return builder.Model(completion.Model).Build(completion.Text), nil
}

// weatherPhase runs the weather lookup. Returns prompt context to append.
func (r *Router) weatherPhase(ctx context.Context, utterance string,
	builder *synth.Builder, toolTurns *[]session.Turn) string {

	location := extractLocation(utterance)
	w := r.caps.Weather()
	if w == nil || !w.Available() {
		builder.Degrade("weather capability unavailable")
		return degradationNote(capability.WeatherName, "not configured")
	}

	report, err := w.Current(ctx, location)
	if err != nil {
		r.logger.Warn("weather lookup degraded", "location", location, "error", err)
		builder.Degrade("weather lookup failed")
		return degradationNote(capability.WeatherName, degradeReason(err))
	}

	builder.CiteWeather(report)
	*toolTurns = append(*toolTurns, session.Turn{
		Role: session.RoleTool,
		Content: fmt.Sprintf("weather lookup for %s: %.1f°C, %s",
			report.Location, report.TempC, report.Conditions),
		Payload: map[string]any{
			"location":   report.Location,
			"temp_c":     report.TempC,
			"conditions": report.Conditions,
			"source":     report.Source,
		},
	})
	return weatherContext(report)
}

// researchPhase runs the web search. Returns prompt context to append.
func (r *Router) researchPhase(ctx context.Context, utterance string,
	builder *synth.Builder, toolTurns *[]session.Turn) string {

	s := r.caps.Search()
	if s == nil || !s.Available() {
		builder.Degrade("web search capability unavailable")
		return degradationNote(capability.SearchName, "not configured")
	}

	results, err := s.Search(ctx, utterance)
	if err != nil {
		r.logger.Warn("web search degraded", "error", err)
		builder.Degrade("web search failed")
		return degradationNote(capability.SearchName, degradeReason(err))
	}

	builder.CiteSearchResults(results)
	titles := make([]string, 0, len(results))
	for _, res := range results {
		titles = append(titles, res.Title)
	}
	payload := map[string]any{"results": results}

	// Best-effort scrape of the top result. A failed fetch means missing
	// context, not a degraded request: the snippets still stand on their own.
	article, fetchErr := s.Fetch(ctx, results[0].URL)
	if fetchErr != nil {
		r.logger.Debug("top result fetch skipped",
			"url", results[0].URL, "error", fetchErr)
	} else {
		payload["fetched_url"] = results[0].URL
	}

	*toolTurns = append(*toolTurns, session.Turn{
		Role:    session.RoleTool,
		Content: fmt.Sprintf("web search returned %d results: %s", len(results), strings.Join(titles, "; ")),
		Payload: payload,
	})

	prompt := searchContext(results)
	if fetchErr == nil {
		prompt += articleContext(results[0].URL, article)
	}
	return prompt
}

// documentPhase extracts the attachment. Returns prompt context to append.
func (r *Router) documentPhase(ctx context.Context, path string,
	builder *synth.Builder, toolTurns *[]session.Turn) string {

	e := r.caps.Extractor()
	if e == nil {
		builder.Degrade("document extraction unavailable")
		return degradationNote(capability.ExtractorName, "not configured")
	}

	doc, err := e.Extract(ctx, capability.Input{Path: path})
	if err != nil {
		r.logger.Warn("document extraction degraded", "path", path, "error", err)
		builder.Degrade("document extraction failed")
		return degradationNote(capability.ExtractorName, degradeReason(err))
	}

	name := filepath.Base(path)
	builder.CiteDocument(name, doc)
	*toolTurns = append(*toolTurns, session.Turn{
		Role: session.RoleTool,
		Content: fmt.Sprintf("extracted %s: %d words, format %s",
			name, doc.WordCount, doc.Format),
		Payload: map[string]any{
			"format":     doc.Format,
			"word_count": doc.WordCount,
			"char_count": doc.CharCount,
			"page_count": doc.PageCount,
			"warnings":   doc.Warnings,
		},
	})
	return documentContext(name, doc)
}

// degradeReason condenses a capability error into a short prompt-safe phrase.
func degradeReason(err error) string {
	var ce *capability.Error
	if errors.As(err, &ce) {
		return string(ce.Kind) + " failure"
	}
	return "failure"
}
