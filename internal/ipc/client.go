package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"coffer/internal/faults"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
	token  string
}

// Dial connects to the IPC server at the given socket path. The token comes
// from the daemon handle and authenticates every call.
func Dial(path, token string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient, token: token}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Run dispatches one command and waits up to timeout for the response
// envelope. Exceeding the deadline is the Timeout fault, not a generic
// transport error.
func (c *Client) Run(req RunRequest, timeout time.Duration) (*RunResponse, error) {
	req.Token = c.token
	var resp RunResponse
	call := c.client.Go("Coffer.Run", req, &resp, nil)

	if timeout <= 0 {
		done := <-call.Done
		if done.Error != nil {
			return nil, done.Error
		}
		return &resp, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case done := <-call.Done:
		if done.Error != nil {
			return nil, done.Error
		}
		return &resp, nil
	case <-timer.C:
		return nil, faults.Timeout(timeout)
	}
}

// Status retrieves daemon runtime information.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Coffer.Status", StatusRequest{Token: c.token}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
