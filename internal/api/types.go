package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TrackView describes a track listing in a transport-friendly format.
type TrackView struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StatusNote  string `json:"statusNote,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Price       uint64 `json:"price"`
	Escrow      uint64 `json:"escrow"`
	State       string `json:"state"`
	Rating      *uint8 `json:"rating,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// CapabilityView describes the credential minted for a track.
type CapabilityView struct {
	ID      string `json:"id"`
	TrackID string `json:"trackId"`
	Holder  string `json:"holder"`
}

// ClaimView describes a buyer's claim against a track.
type ClaimView struct {
	ID        string `json:"id"`
	TrackID   string `json:"trackId"`
	Claimant  string `json:"claimant"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// SaleView describes an immutable sale record.
type SaleView struct {
	ID        string `json:"id"`
	TrackID   string `json:"trackId"`
	Owner     string `json:"owner"`
	Amount    uint64 `json:"amount"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// TransferView describes value credited to an account by a settlement.
type TransferView struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ListingView pairs a freshly created track with its capability.
type ListingView struct {
	Track      TrackView      `json:"track"`
	Capability CapabilityView `json:"capability"`
}

// SettlementView reports the outcome of an escrow-moving operation.
type SettlementView struct {
	Track     TrackView      `json:"track"`
	Sale      *SaleView      `json:"sale,omitempty"`
	Transfers []TransferView `json:"transfers,omitempty"`
}

// HealthView aggregates ledger state for diagnostic output.
type HealthView struct {
	Total    int  `json:"total"`
	Open     int  `json:"open"`
	Sold     int  `json:"sold"`
	Disputed int  `json:"disputed"`
	Balanced bool `json:"balanced"`
}
