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

// TrackCreate lists a new track.
func (c *Client) TrackCreate(req TrackCreateRequest) (*TrackCreateResponse, error) {
	var resp TrackCreateResponse
	if err := c.client.Call("Resonate.TrackCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrackList returns tracks optionally filtered by state.
func (c *Client) TrackList(states []string) (*TrackListResponse, error) {
	var resp TrackListResponse
	if err := c.client.Call("Resonate.TrackList", TrackListRequest{States: states}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrackDescribe returns a track with its claims and sale history.
func (c *Client) TrackDescribe(trackID string) (*TrackDescribeResponse, error) {
	var resp TrackDescribeResponse
	if err := c.client.Call("Resonate.TrackDescribe", TrackDescribeRequest{TrackID: trackID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrackUpdate mutates track metadata.
func (c *Client) TrackUpdate(req TrackUpdateRequest) (*TrackUpdateResponse, error) {
	var resp TrackUpdateResponse
	if err := c.client.Call("Resonate.TrackUpdate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Transfer re-homes a track to a new owner.
func (c *Client) Transfer(req TransferRequest) (*TransferResponse, error) {
	var resp TransferResponse
	if err := c.client.Call("Resonate.Transfer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Bid files a claim against a track.
func (c *Client) Bid(req BidRequest) (*BidResponse, error) {
	var resp BidResponse
	if err := c.client.Call("Resonate.Bid", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Accept confirms a sale from the seller side.
func (c *Client) Accept(req ConfirmRequest) (*ConfirmResponse, error) {
	var resp ConfirmResponse
	if err := c.client.Call("Resonate.Accept", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkSold confirms a sale from the buyer side.
func (c *Client) MarkSold(req ConfirmRequest) (*ConfirmResponse, error) {
	var resp ConfirmResponse
	if err := c.client.Call("Resonate.MarkSold", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dispute raises a dispute on a track.
func (c *Client) Dispute(req DisputeRequest) (*DisputeResponse, error) {
	var resp DisputeResponse
	if err := c.client.Call("Resonate.Dispute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve settles an open dispute all-or-nothing.
func (c *Client) Resolve(req ResolveRequest) (*SettlementResponse, error) {
	var resp SettlementResponse
	if err := c.client.Call("Resonate.Resolve", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refund settles an open dispute with an exact split.
func (c *Client) Refund(req RefundRequest) (*SettlementResponse, error) {
	var resp SettlementResponse
	if err := c.client.Call("Resonate.Refund", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Release drains the escrow to the owner and mints a sale record.
func (c *Client) Release(req ReleaseRequest) (*SettlementResponse, error) {
	var resp SettlementResponse
	if err := c.client.Call("Resonate.Release", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deposit adds funds to a track's escrow.
func (c *Client) Deposit(req DepositRequest) (*DepositResponse, error) {
	var resp DepositResponse
	if err := c.client.Call("Resonate.Deposit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Withdraw pulls uncommitted escrow back to the owner.
func (c *Client) Withdraw(req WithdrawRequest) (*SettlementResponse, error) {
	var resp SettlementResponse
	if err := c.client.Call("Resonate.Withdraw", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rate sets the buyer-of-record's one-time rating.
func (c *Client) Rate(req RateRequest) (*RateResponse, error) {
	var resp RateResponse
	if err := c.client.Call("Resonate.Rate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Account fetches the accumulated balance for an identity.
func (c *Client) Account(identity string) (*AccountResponse, error) {
	var resp AccountResponse
	if err := c.client.Call("Resonate.Account", AccountRequest{Identity: identity}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves daemon runtime information.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Resonate.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health runs the ledger health and conservation audit.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.client.Call("Resonate.Health", HealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop.
func (c *Client) Stop(auth Auth) (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Resonate.Stop", StopRequest{Auth: auth}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
