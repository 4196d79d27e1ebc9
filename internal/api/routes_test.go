package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/model"
	"github.com/nmos-go/node/internal/registration"
)

// stubDriver serves a fixed status.
type stubDriver struct {
	status registration.Status
}

func (*stubDriver) Run(context.Context) error { return nil }

func (d *stubDriver) Status() registration.Status { return d.status }

func newTestGraph(t *testing.T) (*model.Graph, *model.Node, *model.Device) {
	t.Helper()

	node, err := model.NewNodeBuilder("api-node", "http://node.local/").Build()
	require.NoError(t, err)
	device := model.NewDeviceBuilder("cam", node, model.DeviceGeneric).Build()

	graph := model.NewGraph()
	require.NoError(t, graph.InsertNode(node))
	require.NoError(t, graph.InsertDevice(device))
	return graph, node, device
}

func newTestServer(t *testing.T) (*httptest.Server, *model.Node, *model.Device) {
	t.Helper()

	graph, node, device := newTestGraph(t)
	driver := &stubDriver{status: registration.Status{Phase: registration.PhaseHeartbeating, RegistryURL: "http://registry.local/x-nmos/registration/"}}

	router := NewServer(graph, node.ResourceID(), apiver.V1_3, driver)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, node, device
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec // test URL
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestNodeAPI_Self(t *testing.T) {
	t.Parallel()

	srv, node, _ := newTestServer(t)

	var self map[string]any
	status := getJSON(t, srv.URL+"/x-nmos/node/v1.3/self", &self)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, node.ResourceID().String(), self["id"])
	assert.Equal(t, "api-node", self["label"])
	assert.Equal(t, "http://node.local/", self["href"])
}

func TestNodeAPI_Index(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	var index []string
	status := getJSON(t, srv.URL+"/x-nmos/node/v1.3/", &index)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, index, "self/")
	assert.Contains(t, index, "receivers/")
}

func TestNodeAPI_Devices(t *testing.T) {
	t.Parallel()

	srv, _, device := newTestServer(t)

	t.Run("lists devices", func(t *testing.T) {
		t.Parallel()

		var devices []map[string]any
		status := getJSON(t, srv.URL+"/x-nmos/node/v1.3/devices", &devices)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, devices, 1)
		assert.Equal(t, device.ResourceID().String(), devices[0]["id"])
	})

	t.Run("gets a device by id", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		status := getJSON(t, srv.URL+"/x-nmos/node/v1.3/devices/"+device.ResourceID().String(), &got)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "cam", got["label"])
	})

	t.Run("404 for an unknown device", func(t *testing.T) {
		t.Parallel()

		status := getJSON(t, srv.URL+"/x-nmos/node/v1.3/devices/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("400 for a malformed id", func(t *testing.T) {
		t.Parallel()

		status := getJSON(t, srv.URL+"/x-nmos/node/v1.3/devices/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestNodeAPI_EmptyCollections(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	for _, collection := range []string{"sources", "flows", "senders", "receivers"} {
		var items []any
		status := getJSON(t, srv.URL+"/x-nmos/node/v1.3/"+collection, &items)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, items, collection)
	}
}

func TestSystemEndpoints(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		t.Parallel()

		var body map[string]string
		status := getJSON(t, srv.URL+"/health", &body)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("readiness with node present", func(t *testing.T) {
		t.Parallel()

		status := getJSON(t, srv.URL+"/readiness", nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("version", func(t *testing.T) {
		t.Parallel()

		var body map[string]string
		status := getJSON(t, srv.URL+"/version", &body)
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["version"])
		assert.NotEmpty(t, body["go_version"])
	})

	t.Run("driver status", func(t *testing.T) {
		t.Parallel()

		var body map[string]any
		status := getJSON(t, srv.URL+"/status", &body)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, string(registration.PhaseHeartbeating), body["phase"])
		assert.Equal(t, "http://registry.local/x-nmos/registration/", body["registryUrl"])
	})

	t.Run("metrics endpoint responds", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(srv.URL + "/metrics") //nolint:gosec // test URL
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestReadiness_NotReadyWithoutNode(t *testing.T) {
	t.Parallel()

	graph := model.NewGraph()
	driver := &stubDriver{}
	router := NewServer(graph, uuid.New(), apiver.V1_3, driver, WithMiddlewares(LoggingMiddleware))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	status := getJSON(t, srv.URL+"/readiness", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
