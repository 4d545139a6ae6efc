package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/listsync/internal/bus"
	"github.com/roach88/listsync/internal/live"
	"github.com/roach88/listsync/internal/model"
	"github.com/roach88/listsync/internal/service"
	"github.com/roach88/listsync/internal/store"
	"github.com/roach88/listsync/internal/wsconn"
)

type testEnv struct {
	srv     *httptest.Server
	bus     *bus.Bus[model.Event]
	manager *live.Manager
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	b := bus.New[model.Event](bus.DefaultCapacity)
	m := live.NewManager(b, live.WithSessionTimeouts(time.Second, time.Minute))
	svc := service.New(st, b)

	opts = append([]Option{WithPinger(st)}, opts...)
	srv := httptest.NewServer(NewServer(svc, m, opts...).Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, bus: b, manager: m}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestLists_CRUD(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/lists", `{"name":"groceries"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	l := decode[model.List](t, body)
	assert.Equal(t, "groceries", l.Name)

	status, body = env.do(t, http.MethodGet, "/lists", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []model.List{l}, decode[[]model.List](t, body))

	status, body = env.do(t, http.MethodPatch, "/lists/1", `{"name":"shopping"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, model.List{ID: l.ID, Name: "shopping"}, decode[model.List](t, body))

	status, body = env.do(t, http.MethodGet, "/lists/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "shopping", decode[model.List](t, body).Name)

	status, _ = env.do(t, http.MethodDelete, "/lists/1", "")
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/lists", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestItems_CRUD(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/lists", `{"name":"groceries"}`)

	status, body := env.do(t, http.MethodPost, "/items", `{"list_id":1,"content":"milk"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, model.Item{ID: 1, ListID: 1, Content: "milk"}, decode[model.Item](t, body))

	status, body = env.do(t, http.MethodPatch, "/items/1", `{"content":"oat milk"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "oat milk", decode[model.Item](t, body).Content)

	status, body = env.do(t, http.MethodGet, "/lists/1/items", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Item](t, body), 1)

	status, body = env.do(t, http.MethodGet, "/items/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "oat milk", decode[model.Item](t, body).Content)

	status, _ = env.do(t, http.MethodDelete, "/items/1", "")
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/items", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestErrors_StatusAndKind(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/lists", `{"name":"groceries"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		kind   string
	}{
		{"duplicate list", http.MethodPost, "/lists", `{"name":"groceries"}`, "duplicate_name"},
		{"missing list", http.MethodGet, "/lists/42", "", "no_such_list"},
		{"rename missing list", http.MethodPatch, "/lists/42", `{"name":"x"}`, "no_such_list"},
		{"remove missing list", http.MethodDelete, "/lists/42", "", "no_such_list"},
		{"items of missing list", http.MethodGet, "/lists/42/items", "", "no_such_list"},
		{"item in missing list", http.MethodPost, "/items", `{"list_id":42,"content":"x"}`, "no_such_list"},
		{"missing item", http.MethodGet, "/items/42", "", "no_such_item"},
		{"edit missing item", http.MethodPatch, "/items/42", `{"content":"x"}`, "no_such_item"},
		{"remove missing item", http.MethodDelete, "/items/42", "", "no_such_item"},
		{"bad id", http.MethodGet, "/lists/abc", "", kindBadRequest},
		{"malformed body", http.MethodPost, "/lists", `{"name":`, kindBadRequest},
		{"unknown field", http.MethodPost, "/lists", `{"title":"x"}`, kindBadRequest},
		{"blank name", http.MethodPost, "/lists", `{"name":"  "}`, kindBadRequest},
		{"missing list_id", http.MethodPost, "/items", `{"content":"x"}`, kindBadRequest},
		{"missing content", http.MethodPatch, "/items/1", `{}`, kindBadRequest},
		{"trailing data", http.MethodPost, "/lists", `{"name":"a"}{"name":"b"}`, kindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status, string(body))
			resp := decode[errorResponse](t, body)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(&store.Error{Kind: store.KindDuplicateName}))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&store.Error{Kind: store.KindNoSuchItem}))
	assert.Equal(t, http.StatusBadRequest, StatusFor(errBadRequest))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(&store.Error{Kind: store.KindInfrastructure}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}

type failingLists struct{ Lists }

func (failingLists) ListAll(context.Context) ([]model.List, error) {
	return nil, &store.Error{Kind: store.KindInfrastructure, Op: store.OpListAll, Err: assert.AnError}
}

func TestInfrastructureError_HidesDetails(t *testing.T) {
	b := bus.New[model.Event](4)
	srv := httptest.NewServer(NewServer(failingLists{}, live.NewManager(b)).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/lists")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Error)
	assert.Equal(t, "infrastructure", body.Kind)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, string(body))
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, http.MethodPut, "/lists", `{"name":"x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestBasicAuth(t *testing.T) {
	hash, err := HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	auth, err := NewBasicAuth("admin", hash)
	require.NoError(t, err)
	env := newTestEnv(t, WithBasicAuth(auth))

	status, _ := env.do(t, http.MethodGet, "/lists", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/lists", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")

	req, _ = http.NewRequest(http.MethodGet, env.srv.URL+"/lists", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// health and live routes stay open
	status, _ = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestNewBasicAuth_Invalid(t *testing.T) {
	_, err := NewBasicAuth("", "$2a$10$abc")
	assert.Error(t, err)

	_, err = NewBasicAuth("admin", "not-a-hash")
	assert.Error(t, err)
}

func TestCORS_Preflight(t *testing.T) {
	hash, err := HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	auth, err := NewBasicAuth("admin", hash)
	require.NoError(t, err)
	env := newTestEnv(t, WithBasicAuth(auth))

	req, _ := http.NewRequest(http.MethodOptions, env.srv.URL+"/lists", nil)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://example.test", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "PATCH", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "authorization, content-type", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestLive_ReceivesMutations(t *testing.T) {
	env := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	c, err := wsconn.Dial(context.Background(), url, nil)
	require.NoError(t, err)
	defer c.Close()

	events := make(chan model.Event, 8)
	go func() {
		for {
			ev, err := c.Next()
			if err != nil {
				return
			}
			events <- ev
		}
	}()

	require.Eventually(t, func() bool {
		for _, info := range env.manager.Snapshot() {
			if info.State == live.StateForwarding {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	status, _ := env.do(t, http.MethodPost, "/lists", `{"name":"groceries"}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPost, "/lists", `{"name":"groceries"}`)
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, http.MethodPost, "/items", `{"list_id":1,"content":"milk"}`)
	require.Equal(t, http.StatusOK, status)

	want := []model.Event{
		model.ListEvent(model.TagListCreated, model.List{ID: 1, Name: "groceries"}),
		model.ItemEvent(model.TagItemCreated, model.Item{ID: 1, ListID: 1, Content: "milk"}),
	}
	for _, ev := range want {
		select {
		case got := <-events:
			assert.Equal(t, ev, got)
		case <-time.After(2 * time.Second):
			t.Fatal("event not received")
		}
	}

	status, body := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","sessions":1}`, string(body))
}

func TestServe_ShutdownClosesSessions(t *testing.T) {
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	defer st.Close()

	b := bus.New[model.Event](4)
	m := live.NewManager(b, live.WithSessionTimeouts(time.Second, time.Minute))
	srv := NewServer(service.New(st, b), m)

	ctx, cancel := context.WithCancel(context.Background())
	ln, err := newLocalListener()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	c, err := wsconn.Dial(context.Background(), "ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer c.Close()
	go func() {
		for {
			if _, err := c.Next(); err != nil {
				return
			}
		}
	}()
	require.Eventually(t, func() bool { return m.Active() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.Eventually(t, func() bool { return m.Active() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func newLocalListener() (net.Listener, error) {
	return net.Listen("tcp", "127.0.0.1:0")
}
