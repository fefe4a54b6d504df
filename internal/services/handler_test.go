package services

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handoff/internal/flags"
	"handoff/internal/registry"
	"handoff/pkg/testutil"
)

type stubTrigger struct {
	err  error
	seen []string
}

func (s *stubTrigger) Trigger(_ context.Context, sub flags.Subsystem, name, location string) (Cue, error) {
	s.seen = append(s.seen, string(sub)+"/"+name+"@"+location)
	if s.err != nil {
		return Cue{}, s.err
	}
	return Cue{Subsystem: sub, Name: name, Implementation: ImplementationRegistry, Location: location}, nil
}

func newRouter(t *testing.T, host Trigger) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(host, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleCue(t *testing.T) {
	testutil.Given(t, "a valid cue request", func(t *testing.T) {
		stub := &stubTrigger{}
		router := newRouter(t, stub)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/cues", CueRequest{
			Subsystem: "Spatial-Audio",
			Name:      " whisper ",
		})

		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "the cue is fired with a normalized subsystem and default location", func(t *testing.T) {
			testutil.AssertStatusOK(t, rr)
			cue := testutil.UnmarshalResponse[Cue](t, rr)
			assert.Equal(t, flags.SubsystemSpatialAudio, cue.Subsystem)
			assert.Equal(t, "whisper", cue.Name)
			assert.Equal(t, []string{"spatial-audio/whisper@http"}, stub.seen)
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	})

	testutil.Given(t, "an unknown subsystem", func(t *testing.T) {
		stub := &stubTrigger{}
		rr := testutil.DoRequest(newRouter(t, stub), testutil.NewJSONRequest(t, http.MethodPost, "/v1/cues", CueRequest{
			Subsystem: "music",
			Name:      "theme",
		}))

		testutil.Then(t, "the request is rejected before reaching the host", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_argument")
			assert.Empty(t, stub.seen)
		})
	})

	testutil.When(t, "the name is missing", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(t, &stubTrigger{}),
			testutil.NewRequestWithBody(t, http.MethodPost, "/v1/cues", `{"subsystem":"audio"}`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	testutil.When(t, "the body has unknown fields", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(t, &stubTrigger{}),
			testutil.NewRequestWithBody(t, http.MethodPost, "/v1/cues", `{"subsystem":"audio","name":"x","volume":3}`))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestHandleCueServiceNotRegistered(t *testing.T) {
	state := flags.New()
	state.SetRegistryEnabled(true)
	state.SetUseRegistry(flags.SubsystemAudio, true)
	state.SetLegacyAccessDisabled(true)
	host, err := NewHost(state, registry.New(), WithClock(func() time.Time { return time.Unix(0, 0) }))
	require.NoError(t, err)

	rr := testutil.DoRequest(newRouter(t, host),
		testutil.NewJSONRequest(t, http.MethodPost, "/v1/cues", CueRequest{Subsystem: "audio", Name: "alarm"}))

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "service_not_registered")
}
