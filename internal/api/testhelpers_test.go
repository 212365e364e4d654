package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/victoruno/victoruno/internal/backend"
	"github.com/victoruno/victoruno/internal/capability"
	"github.com/victoruno/victoruno/internal/log"
	"github.com/victoruno/victoruno/internal/router"
	"github.com/victoruno/victoruno/internal/session"
	"github.com/victoruno/victoruno/internal/testutil"
)

// newTestServer builds a server over a mock backend with no external
// capabilities configured.
func newTestServer(t *testing.T, mock *testutil.MockCompleter) *httptest.Server {
	t.Helper()

	selector := backend.NewWithCompleter(mock, "mock/test-model", time.Second, log.NewNop())
	caps := capability.NewRegistry(nil, nil,
		capability.NewExtractor(capability.ExtractorConfig{}, log.NewNop()))
	rt := router.New(router.Config{
		AgentName:      "VictorUno",
		MaxWindowTurns: 20,
		Keywords: router.Keywords{
			Research: []string{"research", "search"},
			Develop:  []string{"implement", "build"},
			Optimize: []string{"optimize", "refactor"},
		},
	}, session.NewStore(), selector, caps, log.NewNop())

	srv, err := NewServer(ServerConfig{Router: rt, RateBurst: 1000})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}
