package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// session holds the authentication material of one login against the
// cluster API.
type session struct {
	Ticket    string `json:"ticket"`
	CSRFToken string `json:"CSRFPreventionToken"`
}

// RealClient implements API against the Proxmox VE HTTP API (/api2/json).
//
// The session is established lazily: the first call after construction,
// or after a failed login, attempts a fresh login before issuing the
// request. The client performs no caching and no retries.
type RealClient struct {
	baseURL  string
	user     string
	password string

	httpClient *http.Client

	mu   sync.Mutex
	sess *session
}

// NewRealClient creates a client for the cluster API at host, e.g.
// "192.168.56.15". The standard API port and path are appended unless
// host is already a full URL.
func NewRealClient(host, user, password string, verifyTLS bool) *RealClient {
	transport := &http.Transport{}
	if !verifyTLS {
		// Proxmox ships a self-signed certificate by default.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	}
	base := host
	if !strings.Contains(base, "://") {
		base = fmt.Sprintf("https://%s:8006", base)
	}
	return &RealClient{
		baseURL:  base + "/api2/json",
		user:     user,
		password: password,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

// login obtains a fresh ticket and CSRF token.
func (c *RealClient) login(ctx context.Context) (*session, error) {
	form := url.Values{}
	form.Set("username", c.user)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/access/ticket", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login returned %s", resp.Status)
	}

	var body struct {
		Data session `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if body.Data.Ticket == "" {
		return nil, fmt.Errorf("login response carried no ticket")
	}
	return &body.Data, nil
}

// ensureSession returns a live session, logging in if none exists.
func (c *RealClient) ensureSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return c.sess, nil
	}
	sess, err := c.login(ctx)
	if err != nil {
		return nil, err
	}
	c.sess = sess
	return sess, nil
}

// dropSession discards the cached session so the next call logs in again.
func (c *RealClient) dropSession() {
	c.mu.Lock()
	c.sess = nil
	c.mu.Unlock()
}

// do issues an authenticated request and decodes the "data" envelope
// into out (which may be nil for calls whose result is discarded).
func (c *RealClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	sess, err := c.ensureSession(ctx)
	if err != nil {
		return transportErr(op, fmt.Errorf("failed to establish session: %w", err))
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return transportErr(op, err)
	}
	req.AddCookie(&http.Cookie{Name: "PVEAuthCookie", Value: sess.Ticket})
	if method != http.MethodGet {
		req.Header.Set("CSRFPreventionToken", sess.CSRFToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Ticket expired; next call re-authenticates.
		c.dropSession()
		return transportErr(op, fmt.Errorf("session rejected: %s", resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return transportErr(op, fmt.Errorf("api returned %s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return transportErr(op, fmt.Errorf("failed to decode response: %w", err))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return transportErr(op, fmt.Errorf("failed to decode data payload: %w", err))
	}
	return nil
}

// --- NodeLister ---

// ListNodes returns the cluster nodes in report order.
func (c *RealClient) ListNodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.do(ctx, http.MethodGet, "/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// --- ContainerManager ---

// ListContainers returns the LXC containers on the node.
func (c *RealClient) ListContainers(ctx context.Context, node string) ([]Container, error) {
	var containers []Container
	path := fmt.Sprintf("/nodes/%s/lxc", url.PathEscape(node))
	if err := c.do(ctx, http.MethodGet, path, nil, &containers); err != nil {
		return nil, err
	}
	return containers, nil
}

// CloneContainer issues a full clone of templateID as newID.
func (c *RealClient) CloneContainer(ctx context.Context, node string, templateID, newID int, hostname string) error {
	form := url.Values{}
	form.Set("newid", strconv.Itoa(newID))
	form.Set("hostname", hostname)
	form.Set("full", "1")
	path := fmt.Sprintf("/nodes/%s/lxc/%d/clone", url.PathEscape(node), templateID)
	return c.do(ctx, http.MethodPost, path, form, nil)
}

// CreateContainer creates a container from scratch.
func (c *RealClient) CreateContainer(ctx context.Context, node string, opts CreateOptions) error {
	form := url.Values{}
	form.Set("vmid", strconv.Itoa(opts.VMID))
	form.Set("ostemplate", opts.OSTemplate)
	form.Set("hostname", opts.Hostname)
	form.Set("cores", strconv.Itoa(opts.Cores))
	form.Set("memory", strconv.Itoa(opts.MemoryMB))
	form.Set("swap", strconv.Itoa(opts.SwapMB))
	form.Set("rootfs", opts.RootFS)
	form.Set("net0", opts.Net0)
	form.Set("password", opts.Password)
	if opts.Unprivileged {
		form.Set("unprivileged", "1")
	}
	path := fmt.Sprintf("/nodes/%s/lxc", url.PathEscape(node))
	return c.do(ctx, http.MethodPost, path, form, nil)
}

// StartContainer starts the container.
func (c *RealClient) StartContainer(ctx context.Context, node string, vmid int) error {
	path := fmt.Sprintf("/nodes/%s/lxc/%d/status/start", url.PathEscape(node), vmid)
	return c.do(ctx, http.MethodPost, path, url.Values{}, nil)
}

// ContainerStatus returns the current status of the container.
func (c *RealClient) ContainerStatus(ctx context.Context, node string, vmid int) (ContainerStatus, error) {
	var status ContainerStatus
	path := fmt.Sprintf("/nodes/%s/lxc/%d/status/current", url.PathEscape(node), vmid)
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return ContainerStatus{}, err
	}
	return status, nil
}

// ContainerInterfaces returns the interfaces the hypervisor reports for
// the container.
func (c *RealClient) ContainerInterfaces(ctx context.Context, node string, vmid int) ([]NetworkInterface, error) {
	var ifaces []NetworkInterface
	path := fmt.Sprintf("/nodes/%s/lxc/%d/interfaces", url.PathEscape(node), vmid)
	if err := c.do(ctx, http.MethodGet, path, nil, &ifaces); err != nil {
		return nil, err
	}
	return ifaces, nil
}

// --- StorageLister ---

// ListStorage returns the storage pools available on the node.
func (c *RealClient) ListStorage(ctx context.Context, node string) ([]StoragePool, error) {
	var pools []StoragePool
	path := fmt.Sprintf("/nodes/%s/storage", url.PathEscape(node))
	if err := c.do(ctx, http.MethodGet, path, nil, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

// ListStorageContent returns the volumes stored on a pool.
func (c *RealClient) ListStorageContent(ctx context.Context, node, storage string) ([]Volume, error) {
	var volumes []Volume
	path := fmt.Sprintf("/nodes/%s/storage/%s/content", url.PathEscape(node), url.PathEscape(storage))
	if err := c.do(ctx, http.MethodGet, path, nil, &volumes); err != nil {
		return nil, err
	}
	return volumes, nil
}

// --- IDAllocator ---

// NextID returns the next free container identifier. The API reports it
// as a JSON string.
func (c *RealClient) NextID(ctx context.Context) (int, error) {
	var raw string
	if err := c.do(ctx, http.MethodGet, "/cluster/nextid", nil, &raw); err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, transportErr("GET /cluster/nextid", fmt.Errorf("unexpected id %q: %w", raw, err))
	}
	return id, nil
}
