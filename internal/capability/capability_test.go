package capability

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/victoruno/victoruno/internal/log"
)

func TestRegistryLookup(t *testing.T) {
	weather := NewWeather(WeatherConfig{APIKey: "key"}, log.NewNop())
	search := NewSearch(SearchConfig{BaseURL: "http://localhost:8888"}, log.NewNop())
	extractor := NewExtractor(ExtractorConfig{}, log.NewNop())

	r := NewRegistry(weather, search, extractor)

	for _, name := range []string{WeatherName, SearchName, ExtractorName} {
		c, ok := r.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}
		if c.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, c.Name())
		}
	}

	if _, ok := r.Lookup("calendar"); ok {
		t.Error("Lookup(calendar) found, want closed set")
	}

	want := []string{ExtractorName, SearchName, WeatherName}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistryNilAdapters(t *testing.T) {
	r := NewRegistry(nil, nil, NewExtractor(ExtractorConfig{}, log.NewNop()))

	if r.Weather() != nil {
		t.Error("Weather() != nil for unregistered adapter")
	}
	if r.Search() != nil {
		t.Error("Search() != nil for unregistered adapter")
	}
	if r.Extractor() == nil {
		t.Error("Extractor() = nil for registered adapter")
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{ExtractorName}) {
		t.Errorf("Names() = %v, want [%s]", got, ExtractorName)
	}
}

func TestRegistryAvailable(t *testing.T) {
	// Weather without an API key is registered but unavailable.
	weather := NewWeather(WeatherConfig{}, log.NewNop())
	search := NewSearch(SearchConfig{BaseURL: "http://localhost:8888"}, log.NewNop())
	extractor := NewExtractor(ExtractorConfig{}, log.NewNop())

	r := NewRegistry(weather, search, extractor)

	want := []string{ExtractorName, SearchName}
	if got := r.Available(); !reflect.DeepEqual(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestErrorKinds(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("during search: %w",
		&Error{Capability: SearchName, Kind: KindNetwork, Err: inner})

	if !IsKind(err, KindNetwork) {
		t.Error("IsKind() = false for wrapped capability error")
	}
	if IsKind(err, KindTimeout) {
		t.Error("IsKind() matched the wrong kind")
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is() lost the inner cause")
	}
	if IsKind(errors.New("plain"), KindNetwork) {
		t.Error("IsKind() matched a non-capability error")
	}
}
