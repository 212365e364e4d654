// Package capability provides the uniform interface over the assistant's
// optional external services: weather lookup, web search/scrape, and
// document text extraction.
//
// Capabilities form a closed set registered at startup and dispatched by
// name through the Registry. Every adapter reports availability cheaply
// (configuration presence only, never a network call) and normalizes its
// failures into *capability.Error. A capability that reports unavailable is
// never invoked; adapters double-check and fail with Kind unavailable.
package capability

import (
	"errors"
	"fmt"
	"sort"
)

// Kind classifies a capability failure.
type Kind string

// Capability failure kinds.
const (
	KindNetwork     Kind = "network"
	KindTimeout     Kind = "timeout"
	KindUnsupported Kind = "unsupported"
	KindCorrupt     Kind = "corrupt"
	KindEmpty       Kind = "empty"
	KindUnavailable Kind = "unavailable"
)

// Error is a normalized capability failure. The router treats every
// capability Error as recoverable: it degrades the request to the chat
// fallback instead of aborting.
type Error struct {
	Capability string
	Kind       Kind
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capability %s (%s): %v", e.Capability, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a capability Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// Capability is the common surface of every adapter. Invocation contracts
// are typed per adapter (Weather.Current, Search.Search, Extractor.Extract);
// this interface covers what the router needs before deciding to invoke.
type Capability interface {
	// Name is the stable identifier used in the registry lookup table.
	Name() string

	// Available reports whether the capability can be invoked. Derived from
	// configuration presence only; must be cheap and must not touch the
	// network.
	Available() bool
}

// Capability names in the registry.
const (
	WeatherName   = "weather"
	SearchName    = "web_search"
	ExtractorName = "document_extraction"
)

// Registry is the closed lookup table of capabilities, built once at
// startup. The set is fixed: weather, web search, document extraction.
type Registry struct {
	weather   *Weather
	search    *Search
	extractor *Extractor
	byName    map[string]Capability
}

// NewRegistry builds the registry. Nil adapters are allowed and simply
// absent from the table (the corresponding intents degrade to chat).
func NewRegistry(w *Weather, s *Search, e *Extractor) *Registry {
	r := &Registry{
		weather:   w,
		search:    s,
		extractor: e,
		byName:    make(map[string]Capability, 3),
	}
	if w != nil {
		r.byName[w.Name()] = w
	}
	if s != nil {
		r.byName[s.Name()] = s
	}
	if e != nil {
		r.byName[e.Name()] = e
	}
	return r
}

// Weather returns the weather adapter, or nil if not registered.
func (r *Registry) Weather() *Weather { return r.weather }

// Search returns the web search adapter, or nil if not registered.
func (r *Registry) Search() *Search { return r.search }

// Extractor returns the document extraction adapter, or nil if not registered.
func (r *Registry) Extractor() *Extractor { return r.extractor }

// Lookup resolves a capability by name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Available returns the names of capabilities currently reporting available.
func (r *Registry) Available() []string {
	var out []string
	for _, n := range r.Names() {
		if r.byName[n].Available() {
			out = append(out, n)
		}
	}
	return out
}
