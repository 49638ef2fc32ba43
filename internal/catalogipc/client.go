package catalogipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// SystemSocketPath and SessionSocketPath are the two well-known Unix
// domain socket locations the client tries in order (discovery:
// "the client library tries the system channel first and falls back to
// a session channel").
const (
	SystemSocketPath     = "/var/run/mlsvc/catalog.sock"
	SessionSocketPathEnv = "MLSVC_CATALOG_SESSION_SOCKET"
)

// Client is a thin pass-through to the catalog IPC daemon.
type Client struct {
	http       *http.Client
	socketPath string
}

// Dial discovers a reachable catalog daemon: it probes SystemSocketPath
// first, then the path named by MLSVC_CATALOG_SESSION_SOCKET.
func Dial(ctx context.Context) (*Client, error) {
	candidates := []string{SystemSocketPath}
	if p := os.Getenv(SessionSocketPathEnv); p != "" {
		candidates = append(candidates, p)
	}

	var lastErr error
	for _, path := range candidates {
		c := newClientAt(path)
		if err := c.ping(ctx); err != nil {
			lastErr = err
			continue
		}
		return c, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no catalog socket candidates configured")
	}
	return nil, fmt.Errorf("catalogipc: no reachable catalog daemon: %w", lastErr)
}

// NewClient builds a Client bound to an explicit socket path, bypassing
// discovery. Useful for tests and for daemons that know their peer.
func NewClient(socketPath string) *Client {
	return newClientAt(socketPath)
}

func newClientAt(path string) *Client {
	return &Client{
		socketPath: path,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) ping(ctx context.Context) error {
	_, err := c.call(ctx, MethodGetPipeline, map[string]string{"Name": ""})
	// A reachable daemon answers with an application-level status even
	// for a bogus lookup; only a transport-level failure (socket not
	// present, connection refused) means there is no daemon here.
	if _, ok := err.(*mlerrors.Error); ok {
		return nil
	}
	return err
}

func (c *Client) call(ctx context.Context, method string, args interface{}) ([]byte, error) {
	argBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("catalogipc: marshal args for %s: %w", method, err)
	}

	envBytes, err := json.Marshal(Envelope{Method: method, Args: argBytes})
	if err != nil {
		return nil, fmt.Errorf("catalogipc: marshal envelope for %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://unix/call", bytes.NewReader(envBytes))
	if err != nil {
		return nil, fmt.Errorf("catalogipc: build request for %s: %w", method, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalogipc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("catalogipc: decode reply for %s: %w", method, err)
	}
	if reply.Status != 0 {
		return nil, errnoToError(method, reply.Status)
	}
	return reply.Payload, nil
}

// errnoToError maps a negated POSIX status back to an *mlerrors.Error
// so callers on the client side see the same taxonomy as in-process
// catalog callers.
func errnoToError(op string, status int) error {
	for _, code := range []mlerrors.Code{
		mlerrors.InvalidParameter, mlerrors.OutOfMemory, mlerrors.NotSupported,
		mlerrors.PermissionDenied, mlerrors.IoError, mlerrors.StreamsPipe,
		mlerrors.TryAgain, mlerrors.TimedOut,
	} {
		if code.Errno() == status {
			return mlerrors.New(code, op, fmt.Sprintf("catalog daemon returned status %d", status))
		}
	}
	return mlerrors.New(mlerrors.IoError, op, fmt.Sprintf("catalog daemon returned unknown status %d", status))
}

func (c *Client) SetPipeline(ctx context.Context, name, description string) error {
	_, err := c.call(ctx, MethodSetPipeline, map[string]string{"Name": name, "Description": description})
	return err
}

func (c *Client) GetPipeline(ctx context.Context, name string) (string, error) {
	payload, err := c.call(ctx, MethodGetPipeline, map[string]string{"Name": name})
	if err != nil {
		return "", err
	}
	var desc string
	if err := json.Unmarshal(payload, &desc); err != nil {
		return "", fmt.Errorf("catalogipc: decode get_pipeline payload: %w", err)
	}
	return desc, nil
}

func (c *Client) DeletePipeline(ctx context.Context, name string) error {
	_, err := c.call(ctx, MethodDeletePipeline, map[string]string{"Name": name})
	return err
}

func (c *Client) RegisterModel(ctx context.Context, name, path string, activate bool, description, appInfo string) (uint32, error) {
	payload, err := c.call(ctx, MethodRegisterModel, map[string]interface{}{
		"Name": name, "Path": path, "Activate": activate, "Description": description, "AppInfo": appInfo,
	})
	if err != nil {
		return 0, err
	}
	var version uint32
	if err := json.Unmarshal(payload, &version); err != nil {
		return 0, fmt.Errorf("catalogipc: decode register_model payload: %w", err)
	}
	return version, nil
}

func (c *Client) UpdateModelDescription(ctx context.Context, name string, version uint32, description string) error {
	_, err := c.call(ctx, MethodUpdateModelDescription, map[string]interface{}{
		"Name": name, "Version": version, "Description": description,
	})
	return err
}

func (c *Client) ActivateModel(ctx context.Context, name string, version uint32) error {
	_, err := c.call(ctx, MethodActivateModel, map[string]interface{}{"Name": name, "Version": version})
	return err
}

func (c *Client) DeleteModel(ctx context.Context, name string, version uint32) error {
	_, err := c.call(ctx, MethodDeleteModel, map[string]interface{}{"Name": name, "Version": version})
	return err
}

// GetModel, GetModelActivated and GetModelAll return the raw JSON
// payload the daemon produced; callers that need typed rows can
// unmarshal into catalog.ModelRow (or a []catalog.ModelRow for _all)
// themselves, keeping this client free of a pkg/catalog import.
func (c *Client) GetModel(ctx context.Context, name string, version uint32) ([]byte, error) {
	return c.call(ctx, MethodGetModel, map[string]interface{}{"Name": name, "Version": version})
}

func (c *Client) GetModelActivated(ctx context.Context, name string) ([]byte, error) {
	return c.call(ctx, MethodGetModelActivated, map[string]string{"Name": name})
}

func (c *Client) GetModelAll(ctx context.Context, name string) ([]byte, error) {
	return c.call(ctx, MethodGetModelAll, map[string]string{"Name": name})
}

func (c *Client) AddResource(ctx context.Context, name, path, description, appInfo string) error {
	_, err := c.call(ctx, MethodAddResource, map[string]string{
		"Name": name, "Path": path, "Description": description, "AppInfo": appInfo,
	})
	return err
}

func (c *Client) GetResource(ctx context.Context, name string) ([]byte, error) {
	return c.call(ctx, MethodGetResource, map[string]string{"Name": name})
}

func (c *Client) DeleteResource(ctx context.Context, name string) error {
	_, err := c.call(ctx, MethodDeleteResource, map[string]string{"Name": name})
	return err
}
