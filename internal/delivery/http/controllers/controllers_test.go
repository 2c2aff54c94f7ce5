package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var (
	plainUser   = domain.Principal{ID: "user-1", Role: domain.RoleUser, Active: true}
	sponsorUser = domain.Principal{ID: "sponsor-1", Role: domain.RoleSponsor, Active: true}
	superAdmin  = domain.Principal{ID: "super-1", Role: domain.RoleOrganizerAdmin, AdminLevel: domain.AdminLevelSuper, Active: true}
)

type recordingDenials struct {
	required []string
}

func (d *recordingDenials) IncAuthzDenial(required string) { d.required = append(d.required, required) }

// newRequest builds a request with an optional JSON body, path values and principal.
func newRequest(method, target string, body any, p *domain.Principal, pathValues map[string]string) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "http://test"+target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	req.RemoteAddr = "203.0.113.5:4000"
	if p != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), *p, "sess-1"))
	}
	return req
}

// decodeEnvelope decodes the response envelope and, when dest is non-nil, its data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if dest != nil {
		require.Nil(t, envelope.Error)
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, dest))
	}
	return envelope
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	require.Equal(t, wantStatus, rr.Code)
	envelope := decodeEnvelope(t, rr, nil)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, wantCode, envelope.Error.Code)
}
