package ipc

import "resonate/internal/api"

// Auth carries the caller identity and API token on every request that
// mutates ledger state.
type Auth struct {
	Actor string `json:"actor"`
	Token string `json:"token,omitempty"`
}

// TrackCreateRequest lists a new track.
type TrackCreateRequest struct {
	Auth
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Genre       string `json:"genre,omitempty"`
	StatusNote  string `json:"statusNote,omitempty"`
	Price       uint64 `json:"price"`
}

// TrackCreateResponse returns the new track with its capability.
type TrackCreateResponse struct {
	Listing api.ListingView `json:"listing"`
}

// TrackListRequest filters the listing by state names.
type TrackListRequest struct {
	States []string `json:"states,omitempty"`
}

// TrackListResponse contains the matching tracks.
type TrackListResponse struct {
	Tracks []api.TrackView `json:"tracks"`
}

// TrackDescribeRequest fetches a single track with claims and sales.
type TrackDescribeRequest struct {
	TrackID string `json:"trackId"`
}

// TrackDescribeResponse contains the track detail.
type TrackDescribeResponse struct {
	Detail api.TrackDetail `json:"detail"`
}

// TrackUpdateRequest mutates track metadata. Only set fields are applied;
// every update requires presenting the track's capability.
type TrackUpdateRequest struct {
	Auth
	TrackID      string  `json:"trackId"`
	CapabilityID string  `json:"capabilityId"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Genre        *string `json:"genre,omitempty"`
	StatusNote   *string `json:"statusNote,omitempty"`
	Price        *uint64 `json:"price,omitempty"`
}

// TrackUpdateResponse returns the updated track.
type TrackUpdateResponse struct {
	Track api.TrackView `json:"track"`
}

// TransferRequest re-homes a track to a new owner.
type TransferRequest struct {
	Auth
	TrackID      string `json:"trackId"`
	CapabilityID string `json:"capabilityId"`
	NewOwner     string `json:"newOwner"`
}

// TransferResponse returns the re-homed track.
type TransferResponse struct {
	Track api.TrackView `json:"track"`
}

// BidRequest files a claim against a track.
type BidRequest struct {
	Auth
	TrackID string `json:"trackId"`
}

// BidResponse returns the filed claim.
type BidResponse struct {
	Claim api.ClaimView `json:"claim"`
}

// ConfirmRequest confirms a sale from either side of the trade.
type ConfirmRequest struct {
	Auth
	TrackID string `json:"trackId"`
	ClaimID string `json:"claimId"`
}

// ConfirmResponse returns the track after confirmation.
type ConfirmResponse struct {
	Track api.TrackView `json:"track"`
}

// DisputeRequest raises a dispute on a track.
type DisputeRequest struct {
	Auth
	TrackID string `json:"trackId"`
}

// DisputeResponse returns the disputed track.
type DisputeResponse struct {
	Track api.TrackView `json:"track"`
}

// ResolveRequest settles an open dispute all-or-nothing.
type ResolveRequest struct {
	Auth
	TrackID         string `json:"trackId"`
	ClaimID         string `json:"claimId"`
	InFavorOfClient bool   `json:"inFavorOfClient"`
}

// RefundRequest settles an open dispute with an exact split.
type RefundRequest struct {
	Auth
	TrackID string `json:"trackId"`
	ClaimID string `json:"claimId"`
	Refund  uint64 `json:"refund"`
}

// ReleaseRequest drains the escrow to the owner and mints a sale record.
type ReleaseRequest struct {
	Auth
	TrackID string `json:"trackId"`
	ClaimID string `json:"claimId"`
}

// SettlementResponse reports the outcome of an escrow-moving operation.
type SettlementResponse struct {
	Settlement api.SettlementView `json:"settlement"`
}

// DepositRequest adds funds to a track's escrow.
type DepositRequest struct {
	Auth
	TrackID string `json:"trackId"`
	Amount  uint64 `json:"amount"`
}

// DepositResponse returns the funded track.
type DepositResponse struct {
	Track api.TrackView `json:"track"`
}

// WithdrawRequest pulls uncommitted escrow back to the owner.
type WithdrawRequest struct {
	Auth
	TrackID      string `json:"trackId"`
	CapabilityID string `json:"capabilityId"`
	Amount       uint64 `json:"amount"`
}

// RateRequest sets the buyer-of-record's one-time rating.
type RateRequest struct {
	Auth
	TrackID string `json:"trackId"`
	ClaimID string `json:"claimId"`
	Rating  uint8  `json:"rating"`
}

// RateResponse returns the rated track.
type RateResponse struct {
	Track api.TrackView `json:"track"`
}

// AccountRequest fetches the accumulated balance for an identity.
type AccountRequest struct {
	Identity string `json:"identity"`
}

// AccountResponse reports the balance.
type AccountResponse struct {
	Identity string `json:"identity"`
	Balance  uint64 `json:"balance"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DatabasePath string `json:"databasePath"`
	LockPath     string `json:"lockPath"`
	SocketPath   string `json:"socketPath"`
	Total        int    `json:"total"`
	Open         int    `json:"open"`
	Sold         int    `json:"sold"`
	Disputed     int    `json:"disputed"`
	Balanced     bool   `json:"balanced"`
}

// HealthRequest runs the ledger health and conservation audit.
type HealthRequest struct{}

// HealthResponse contains the audit result.
type HealthResponse struct {
	Health api.HealthView `json:"health"`
}

// StopRequest stops the daemon.
type StopRequest struct {
	Auth
}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
