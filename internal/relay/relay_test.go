package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clientctl/clientctl/internal/log"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type upstreamCall struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   string
}

type fakeUpstream struct {
	mu     sync.Mutex
	calls  []upstreamCall
	status int
	body   string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, upstreamCall{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(raw),
	})
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeUpstream) Calls() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.calls...)
}

func newRelay(t *testing.T, upstream *fakeUpstream, mutate func(*Settings)) (http.Handler, *bytes.Buffer) {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	settings := Settings{
		APIKey:          "pat-secret",
		BaseID:          "appXYZ",
		TableName:       "Clientes",
		UpstreamBaseURL: up.URL + "/v0",
	}
	if mutate != nil {
		mutate(&settings)
	}

	var logs bytes.Buffer
	logger := slog.New(log.NewDualHandler(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}), nil))
	srv, err := New(settings, up.Client(), logger)
	require.NoError(t, err)
	return srv.Handler(), &logs
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListForwardsFormulaAndCursor(t *testing.T) {
	upstream := &fakeUpstream{body: `{"records":[{"id":"rec1","fields":{"nome":"Ana","email":"ana@x.io","telefone":"1"}}],"offset":"cur456"}`}
	h, _ := newRelay(t, upstream, nil)

	rec := do(t, h, http.MethodGet, "/api/clients?search=ana&pageSize=5&offset=cur123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t,
		`{"records":[{"id":"rec1","fields":{"nome":"Ana","email":"ana@x.io","telefone":"1"}}],"offset":"cur456"}`,
		rec.Body.String())

	calls := upstream.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "/v0/appXYZ/Clientes", calls[0].Path)
	require.Equal(t, "Bearer pat-secret", calls[0].Auth)
	require.Equal(t, []string{"5"}, calls[0].Query["pageSize"])
	require.Equal(t, []string{"cur123"}, calls[0].Query["offset"])
	require.Contains(t, calls[0].Query["filterByFormula"][0], `FIND(LOWER("ana"), LOWER({email}))>0`)
	require.NotContains(t, calls[0].Query, "search")
}

func TestCreateRequiresNameAndEmail(t *testing.T) {
	upstream := &fakeUpstream{}
	h, _ := newRelay(t, upstream, nil)

	rec := do(t, h, http.MethodPost, "/api/clients", `{"nome":"","email":"ana@x.io"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"message":"Missing required fields: nome and email."}`, rec.Body.String())
	require.Empty(t, upstream.Calls())
}

func TestCreateReturnsCreated(t *testing.T) {
	upstream := &fakeUpstream{body: `{"records":[{"id":"recNew","fields":{"nome":"Ana","email":"ana@x.io","telefone":""}}]}`}
	h, _ := newRelay(t, upstream, nil)

	rec := do(t, h, http.MethodPost, "/api/clients", `{"nome":"Ana","email":"ana@x.io"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"records":[{"id":"recNew","fields":{"nome":"Ana","email":"ana@x.io","telefone":""}}]}`, rec.Body.String())

	calls := upstream.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodPost, calls[0].Method)
	require.JSONEq(t, `{"records":[{"fields":{"nome":"Ana","email":"ana@x.io","telefone":""}}]}`, calls[0].Body)
}

func TestUpdateForwardsPartialFields(t *testing.T) {
	upstream := &fakeUpstream{body: `{"records":[{"id":"rec1","fields":{"nome":"Ana","email":"new@x.io"}}]}`}
	h, _ := newRelay(t, upstream, nil)

	rec := do(t, h, http.MethodPatch, "/api/clients/rec1", `{"email":"new@x.io"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	calls := upstream.Calls()
	require.Equal(t, http.MethodPatch, calls[0].Method)
	require.Equal(t, "/v0/appXYZ/Clientes", calls[0].Path)
	require.JSONEq(t, `{"records":[{"id":"rec1","fields":{"email":"new@x.io"}}]}`, calls[0].Body)
}

func TestDeleteForwardsID(t *testing.T) {
	upstream := &fakeUpstream{body: `{"id":"rec1","deleted":true}`}
	h, _ := newRelay(t, upstream, nil)

	rec := do(t, h, http.MethodDelete, "/api/clients/rec1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"rec1","deleted":true}`, rec.Body.String())
	require.Equal(t, "/v0/appXYZ/Clientes/rec1", upstream.Calls()[0].Path)
}

func TestUpstreamStatusIsPassedThrough(t *testing.T) {
	upstream := &fakeUpstream{status: http.StatusNotFound, body: `{"error":"NOT_FOUND"}`}
	h, logs := newRelay(t, upstream, nil)

	rec := do(t, h, http.MethodDelete, "/api/clients/recGone", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body failure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Failed to delete client", body.Message)
	require.Equal(t, "table service error 404: NOT_FOUND", body.Details)
	require.Contains(t, logs.String(), `"operation":"delete"`)
}

func TestNetworkFailureIs500(t *testing.T) {
	h, _ := newRelay(t, &fakeUpstream{}, func(s *Settings) {
		s.UpstreamBaseURL = "http://127.0.0.1:1/v0"
	})

	rec := do(t, h, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Failed to list clients")
}

func TestInvalidJSONIs400(t *testing.T) {
	upstream := &fakeUpstream{}
	h, _ := newRelay(t, upstream, nil)

	rec := do(t, h, http.MethodPost, "/api/clients", `{"nome":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid JSON body")
	require.Empty(t, upstream.Calls())
}

func TestUnsupportedMethod(t *testing.T) {
	h, _ := newRelay(t, &fakeUpstream{}, nil)

	rec := do(t, h, http.MethodPut, "/api/clients", `{}`)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSAndRequestID(t *testing.T) {
	h, logs := newRelay(t, &fakeUpstream{body: `{"records":[]}`}, nil)

	preflight := do(t, h, http.MethodOptions, "/api/clients", "")
	require.Equal(t, http.StatusNoContent, preflight.Code)
	require.Equal(t, "*", preflight.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, preflight.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	rec := do(t, h, http.MethodGet, "/api/clients", "")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	id := rec.Header().Get(requestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Contains(t, logs.String(), `"request_id":"`+id+`"`)

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set(requestIDHeader, supplied)
	echoed := httptest.NewRecorder()
	h.ServeHTTP(echoed, req)
	require.Equal(t, supplied, echoed.Header().Get(requestIDHeader))
}

func TestConfigDocument(t *testing.T) {
	h, _ := newRelay(t, &fakeUpstream{}, func(s *Settings) {
		s.PublicBaseURL = "https://relay.example.com/api/"
	})

	rec := do(t, h, http.MethodGet, "/config.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"API_BASE_URL":"https://relay.example.com/api"}`, rec.Body.String())

	h, _ = newRelay(t, &fakeUpstream{}, nil)
	rec = do(t, h, http.MethodGet, "/config.json", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmbeddedIndexAndFallback(t *testing.T) {
	h, _ := newRelay(t, &fakeUpstream{}, nil)

	for _, target := range []string{"/", "/clients/rec1"} {
		rec := do(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Contains(t, rec.Body.String(), "<title>Clients</title>", target)
	}

	rec := do(t, h, http.MethodGet, "/missing.js", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmbeddedIndexManagesClients(t *testing.T) {
	h, _ := newRelay(t, &fakeUpstream{}, nil)

	body := do(t, h, http.MethodGet, "/", "").Body.String()
	require.Contains(t, body, `<form id="create">`)
	require.Contains(t, body, "send('POST', '', fields)")
	require.Contains(t, body, "send('PATCH', `/${encodeURIComponent(rec.id)}`, fields)")
	require.Contains(t, body, "confirm('Delete this client?')")
	require.Contains(t, body, "send('DELETE', `/${encodeURIComponent(rec.id)}`)")
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>custom</p>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"API_BASE_URL":"/api"}`), 0o600))

	h, _ := newRelay(t, &fakeUpstream{}, func(s *Settings) { s.StaticDir = dir })

	rec := do(t, h, http.MethodGet, "/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "console.log(1)", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/config.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"API_BASE_URL":"/api"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/some/route", "")
	require.Equal(t, "<p>custom</p>", rec.Body.String())
}

func TestNewRejectsMissingStaticDir(t *testing.T) {
	_, err := New(Settings{StaticDir: filepath.Join(t.TempDir(), "nope")}, nil, nil)
	require.Error(t, err)
}

func TestMissingEnvironmentIsLoggedNotFatal(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	srv, err := New(Settings{APIKey: "k"}, nil, logger)
	require.NoError(t, err)
	require.NotNil(t, srv)
	require.Contains(t, logs.String(), `"level":"ERROR"`)
	require.Contains(t, logs.String(), "AIRTABLE_BASE_ID, AIRTABLE_TABLE_NAME")
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, " pat1 ")
	t.Setenv(EnvBaseID, "app1")
	t.Setenv(EnvTableName, "Clientes")
	t.Setenv(EnvPort, "8080")

	s := SettingsFromEnv(viper.New())
	require.Equal(t, "pat1", s.APIKey)
	require.Equal(t, "app1", s.BaseID)
	require.Equal(t, "Clientes", s.TableName)
	require.Empty(t, s.Missing())
	require.Equal(t, ":8080", s.Addr())

	s.ListenAddress = "127.0.0.1:9000"
	require.Equal(t, "127.0.0.1:9000", s.Addr())
}

func TestSettingsDefaultTableName(t *testing.T) {
	t.Setenv(EnvAPIKey, "pat1")
	t.Setenv(EnvBaseID, "app1")
	t.Setenv(EnvTableName, "")

	s := SettingsFromEnv(viper.New())
	require.Equal(t, DefaultTableName, s.TableName)
	require.Empty(t, s.Missing())
}

func TestSettingsDefaultPort(t *testing.T) {
	require.Equal(t, ":3000", Settings{}.Addr())
	require.Equal(t, []string{EnvAPIKey, EnvBaseID, EnvTableName}, Settings{}.Missing())
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, err := New(Settings{APIKey: "k", BaseID: "b", TableName: "t"}, nil, nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = client.Get("http://" + ln.Addr().String() + "/")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not shut down")
	}
}
