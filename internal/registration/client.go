package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/httpclient"
	"github.com/nmos-go/node/internal/model"
)

// ErrAlreadyRegistered means the registry kept reporting a resource as
// already registered even after it was deleted and re-posted. The
// registration pass cannot make progress past it.
var ErrAlreadyRegistered = errors.New("registry still reports resource as registered after delete")

// Client talks to one registration API at a fixed base URL and API version.
type Client struct {
	http    httpclient.Client
	base    *url.URL
	version apiver.Version
}

// NewClient creates a client for the registration API rooted at base,
// speaking the given API version. base is the discovery-derived URL ending
// in /x-nmos/registration/.
func NewClient(httpClient httpclient.Client, base *url.URL, version apiver.Version) *Client {
	return &Client{
		http:    httpClient,
		base:    base,
		version: version,
	}
}

// BaseURL returns the registration API base URL this client targets.
func (c *Client) BaseURL() *url.URL {
	return c.base
}

// Version returns the API version this client speaks.
func (c *Client) Version() apiver.Version {
	return c.version
}

func (c *Client) resourceURL() string {
	return c.base.JoinPath(c.version.String(), "resource").String()
}

func (c *Client) resourcePathURL(r model.Registerable) string {
	return c.base.JoinPath(c.version.String(), "resource", r.RegistryPath()).String()
}

func (c *Client) healthURL(nodeID uuid.UUID) string {
	return c.base.JoinPath(c.version.String(), "health", "nodes", nodeID.String()).String()
}

// Register posts one resource to the registry. A 200 response means the
// registry believes the resource is already registered; the stale entry is
// deleted and the resource posted once more. A second 200 is terminal.
func (c *Client) Register(ctx context.Context, r model.Registerable) error {
	req := model.RegistrationRequest(r, c.version)

	status, err := c.http.PostJSON(ctx, c.resourceURL(), req)
	if err != nil {
		return fmt.Errorf("failed to register %s %s: %w", r.Kind(), r.ResourceID(), err)
	}

	switch {
	case status == http.StatusOK:
		// Stale registry entry; clear it and post again.
	case status >= 200 && status < 300:
		return nil
	default:
		return httpclient.NewHTTPError(status, c.resourceURL(), fmt.Sprintf("registering %s %s", r.Kind(), r.ResourceID()))
	}

	slog.Info("Registry already holds resource, replacing",
		"kind", r.Kind(),
		"id", r.ResourceID())

	if err := c.Delete(ctx, r); err != nil {
		return fmt.Errorf("failed to delete stale %s %s: %w", r.Kind(), r.ResourceID(), err)
	}

	status, err = c.http.PostJSON(ctx, c.resourceURL(), req)
	if err != nil {
		return fmt.Errorf("failed to re-register %s %s: %w", r.Kind(), r.ResourceID(), err)
	}

	switch {
	case status == http.StatusOK:
		return fmt.Errorf("%s %s: %w", r.Kind(), r.ResourceID(), ErrAlreadyRegistered)
	case status >= 200 && status < 300:
		return nil
	default:
		return httpclient.NewHTTPError(status, c.resourceURL(), fmt.Sprintf("re-registering %s %s", r.Kind(), r.ResourceID()))
	}
}

// Update posts one resource without the already-exists handling. A 200
// response here just means the registry replaced its copy.
func (c *Client) Update(ctx context.Context, r model.Registerable) error {
	req := model.RegistrationRequest(r, c.version)

	status, err := c.http.PostJSON(ctx, c.resourceURL(), req)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", r.Kind(), r.ResourceID(), err)
	}
	if status < 200 || status >= 300 {
		return httpclient.NewHTTPError(status, c.resourceURL(), fmt.Sprintf("updating %s %s", r.Kind(), r.ResourceID()))
	}
	return nil
}

// Delete removes one resource from the registry. A 404 is treated as
// success, the resource is gone either way.
func (c *Client) Delete(ctx context.Context, r model.Registerable) error {
	deleteURL := c.resourcePathURL(r)

	status, err := c.http.Delete(ctx, deleteURL)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.Kind(), r.ResourceID(), err)
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return httpclient.NewHTTPError(status, deleteURL, fmt.Sprintf("deleting %s %s", r.Kind(), r.ResourceID()))
	}
	return nil
}

// Heartbeat posts one node health heartbeat and returns the response
// status. The caller interprets the status; only transport failures are
// errors.
func (c *Client) Heartbeat(ctx context.Context, nodeID uuid.UUID) (int, error) {
	status, err := c.http.Post(ctx, c.healthURL(nodeID))
	if err != nil {
		return 0, fmt.Errorf("heartbeat failed: %w", err)
	}
	return status, nil
}
