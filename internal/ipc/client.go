package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
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

func call[Req any, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start requests the daemon to start the bridge.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartRequest, StartResponse](c, "Start", StartRequest{})
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopRequest, StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// Players lists registered players with their current projections.
func (c *Client) Players() (*PlayersResponse, error) {
	return call[PlayersRequest, PlayersResponse](c, "Players", PlayersRequest{})
}

// Discovered lists unregistered players seen in sessions.
func (c *Client) Discovered() (*DiscoveredResponse, error) {
	return call[DiscoveredRequest, DiscoveredResponse](c, "Discovered", DiscoveredRequest{})
}

// RegisterPlayer registers a player by machine identifier.
func (c *Client) RegisterPlayer(id, label string) (*RegisterPlayerResponse, error) {
	return call[RegisterPlayerRequest, RegisterPlayerResponse](c, "RegisterPlayer", RegisterPlayerRequest{ID: id, Label: label})
}

// DeregisterPlayer removes a registered player.
func (c *Client) DeregisterPlayer(id string) (*DeregisterPlayerResponse, error) {
	return call[DeregisterPlayerRequest, DeregisterPlayerResponse](c, "DeregisterPlayer", DeregisterPlayerRequest{ID: id})
}

// History returns recorded transitions.
func (c *Client) History(req HistoryRequest) (*HistoryResponse, error) {
	return call[HistoryRequest, HistoryResponse](c, "History", req)
}

// Refresh asks for an immediate poll.
func (c *Client) Refresh() (*RefreshResponse, error) {
	return call[RefreshRequest, RefreshResponse](c, "Refresh", RefreshRequest{})
}

// LogTail returns buffered log events from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailRequest, LogTailResponse](c, "LogTail", req)
}

// TestNotification sends a test notification via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationRequest, TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}
