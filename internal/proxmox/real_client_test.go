package proxmox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves a minimal slice of the cluster API: the login
// endpoint plus whatever extra handlers the test registers.
func newTestServer(t *testing.T, logins *atomic.Int32, extra map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api2/json/access/ticket", func(w http.ResponseWriter, r *http.Request) {
		if logins != nil {
			logins.Add(1)
		}
		writeData(w, map[string]string{
			"ticket":              "PVE:ticket",
			"CSRFPreventionToken": "csrf-token",
		})
	})
	for path, handler := range extra {
		mux.HandleFunc(path, handler)
	}
	return httptest.NewServer(mux)
}

func writeData(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestRealClient_LazyLogin(t *testing.T) {
	t.Parallel()
	var logins atomic.Int32
	srv := newTestServer(t, &logins, map[string]http.HandlerFunc{
		"/api2/json/nodes": func(w http.ResponseWriter, r *http.Request) {
			writeData(w, []Node{{Name: "px1"}, {Name: "px2"}})
		},
	})
	defer srv.Close()

	c := NewRealClient(srv.URL, "root@pam", "secret", true)
	assert.Equal(t, int32(0), logins.Load(), "no login before first use")

	nodes, err := c.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "px1", nodes[0].Name)
	assert.Equal(t, int32(1), logins.Load())

	// Second call reuses the session.
	_, err = c.ListNodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load())
}

func TestRealClient_ReauthAfterRejectedSession(t *testing.T) {
	t.Parallel()
	var logins atomic.Int32
	var calls atomic.Int32
	srv := newTestServer(t, &logins, map[string]http.HandlerFunc{
		"/api2/json/nodes": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeData(w, []Node{{Name: "px1"}})
		},
	})
	defer srv.Close()

	c := NewRealClient(srv.URL, "root@pam", "secret", true)

	_, err := c.ListNodes(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))

	// The rejected session was dropped, so the next call logs in again.
	nodes, err := c.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, int32(2), logins.Load())
}

func TestRealClient_NextID(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, map[string]http.HandlerFunc{
		"/api2/json/cluster/nextid": func(w http.ResponseWriter, r *http.Request) {
			// The API reports the id as a JSON string.
			writeData(w, "142")
		},
	})
	defer srv.Close()

	c := NewRealClient(srv.URL, "root@pam", "secret", true)
	id, err := c.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 142, id)
}

func TestRealClient_CloneContainerSendsFullClone(t *testing.T) {
	t.Parallel()
	var gotForm map[string]string
	srv := newTestServer(t, nil, map[string]http.HandlerFunc{
		"/api2/json/nodes/px1/lxc/3335/clone": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = map[string]string{
				"newid":    r.PostForm.Get("newid"),
				"hostname": r.PostForm.Get("hostname"),
				"full":     r.PostForm.Get("full"),
			}
			assert.Equal(t, "csrf-token", r.Header.Get("CSRFPreventionToken"))
			writeData(w, "UPID:px1:task")
		},
	})
	defer srv.Close()

	c := NewRealClient(srv.URL, "root@pam", "secret", true)
	err := c.CloneContainer(context.Background(), "px1", 3335, 142, "my-box")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"newid":    "142",
		"hostname": "my-box",
		"full":     "1",
	}, gotForm)
}

func TestRealClient_TransportErrorOnServerFailure(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, map[string]http.HandlerFunc{
		"/api2/json/nodes": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal error", http.StatusInternalServerError)
		},
	})
	defer srv.Close()

	c := NewRealClient(srv.URL, "root@pam", "secret", true)
	_, err := c.ListNodes(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "500")
}

func TestRealClient_UnreachableCluster(t *testing.T) {
	t.Parallel()
	c := NewRealClient("http://127.0.0.1:1", "root@pam", "secret", true)
	_, err := c.ListNodes(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}
