package registration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/httpclient"
	"github.com/nmos-go/node/internal/model"
)

// requestRecord is one request the fake registry saw.
type requestRecord struct {
	Method string
	Path   string
	Type   string
}

// fakeRegistry is an httptest-backed registration API with configurable
// response behavior.
type fakeRegistry struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	requests []requestRecord
	posts    int
	beats    int

	// postStatus decides the status of the nth resource POST (1-based).
	postStatus func(n int) int

	// heartbeatStatus decides the status of the nth heartbeat (1-based).
	heartbeatStatus func(n int) int
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()

	f := &fakeRegistry{
		t:               t,
		postStatus:      func(int) int { return http.StatusCreated },
		heartbeatStatus: func(int) int { return http.StatusOK },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/x-nmos/registration/", f.handle)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRegistry) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := requestRecord{Method: r.Method, Path: r.URL.Path}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/x-nmos/registration/v1.3/resource":
		var env struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.Type = env.Type
		f.posts++
		f.requests = append(f.requests, rec)
		w.WriteHeader(f.postStatus(f.posts))

	case r.Method == http.MethodPost:
		// Heartbeat.
		f.beats++
		f.requests = append(f.requests, rec)
		w.WriteHeader(f.heartbeatStatus(f.beats))

	case r.Method == http.MethodDelete:
		f.requests = append(f.requests, rec)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeRegistry) recorded() []requestRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]requestRecord(nil), f.requests...)
}

func (f *fakeRegistry) postedTypes() []string {
	var types []string
	for _, rec := range f.recorded() {
		if rec.Type != "" {
			types = append(types, rec.Type)
		}
	}
	return types
}

func (f *fakeRegistry) baseURL(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse(f.srv.URL + "/x-nmos/registration/")
	require.NoError(t, err)
	return base
}

func newTestClient(t *testing.T, f *fakeRegistry) *Client {
	t.Helper()
	return NewClient(httpclient.NewDefaultClient(2*time.Second), f.baseURL(t), apiver.V1_3)
}

func buildTestNode(t *testing.T) *model.Node {
	t.Helper()
	node, err := model.NewNodeBuilder("test-node", "http://node.local/").Build()
	require.NoError(t, err)
	return node
}

func TestClient_Register(t *testing.T) {
	t.Parallel()

	t.Run("registers a new resource with one POST", func(t *testing.T) {
		t.Parallel()

		registry := newFakeRegistry(t)
		client := newTestClient(t, registry)
		node := buildTestNode(t)

		require.NoError(t, client.Register(context.Background(), node))

		recorded := registry.recorded()
		require.Len(t, recorded, 1)
		assert.Equal(t, http.MethodPost, recorded[0].Method)
		assert.Equal(t, "/x-nmos/registration/v1.3/resource", recorded[0].Path)
		assert.Equal(t, "node", recorded[0].Type)
	})

	t.Run("deletes and re-posts when the registry reports already registered", func(t *testing.T) {
		t.Parallel()

		registry := newFakeRegistry(t)
		registry.postStatus = func(n int) int {
			if n == 1 {
				return http.StatusOK
			}
			return http.StatusCreated
		}
		client := newTestClient(t, registry)
		node := buildTestNode(t)

		require.NoError(t, client.Register(context.Background(), node))

		recorded := registry.recorded()
		require.Len(t, recorded, 3)
		assert.Equal(t, http.MethodPost, recorded[0].Method)
		assert.Equal(t, http.MethodDelete, recorded[1].Method)
		assert.Equal(t, "/x-nmos/registration/v1.3/resource/nodes/"+node.ResourceID().String(), recorded[1].Path)
		assert.Equal(t, http.MethodPost, recorded[2].Method)
	})

	t.Run("second already-registered response is terminal", func(t *testing.T) {
		t.Parallel()

		registry := newFakeRegistry(t)
		registry.postStatus = func(int) int { return http.StatusOK }
		client := newTestClient(t, registry)
		node := buildTestNode(t)

		err := client.Register(context.Background(), node)
		require.ErrorIs(t, err, ErrAlreadyRegistered)

		// One POST, one DELETE, one re-POST; no further retries.
		require.Len(t, registry.recorded(), 3)
	})

	t.Run("error statuses abort the registration", func(t *testing.T) {
		t.Parallel()

		registry := newFakeRegistry(t)
		registry.postStatus = func(int) int { return http.StatusInternalServerError }
		client := newTestClient(t, registry)

		err := client.Register(context.Background(), buildTestNode(t))
		require.Error(t, err)

		var httpErr *httpclient.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	})
}

func TestClient_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes at the resource registry path", func(t *testing.T) {
		t.Parallel()

		registry := newFakeRegistry(t)
		client := newTestClient(t, registry)
		node := buildTestNode(t)

		require.NoError(t, client.Delete(context.Background(), node))

		recorded := registry.recorded()
		require.Len(t, recorded, 1)
		assert.Equal(t, http.MethodDelete, recorded[0].Method)
		assert.Equal(t, "/x-nmos/registration/v1.3/resource/nodes/"+node.ResourceID().String(), recorded[0].Path)
	})

	t.Run("tolerates a missing resource", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		base, err := url.Parse(srv.URL + "/x-nmos/registration/")
		require.NoError(t, err)
		client := NewClient(httpclient.NewDefaultClient(2*time.Second), base, apiver.V1_3)

		require.NoError(t, client.Delete(context.Background(), buildTestNode(t)))
	})
}

func TestClient_Heartbeat(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry(t)
	client := newTestClient(t, registry)
	nodeID := uuid.New()

	status, err := client.Heartbeat(context.Background(), nodeID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	recorded := registry.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, "/x-nmos/registration/v1.3/health/nodes/"+nodeID.String(), recorded[0].Path)
}
