package model

// RoleKind names one of the four custody roles.
type RoleKind string

const (
	RoleFarmer      RoleKind = "farmer"
	RoleDistributor RoleKind = "distributor"
	RoleRetailer    RoleKind = "retailer"
	RoleConsumer    RoleKind = "consumer"
)

// RoleKinds lists every role kind in custody-chain order.
var RoleKinds = []RoleKind{RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer}

// Title returns the capitalised kind, used in event names ("FarmerAdded").
func (k RoleKind) Title() string {
	switch k {
	case RoleFarmer:
		return "Farmer"
	case RoleDistributor:
		return "Distributor"
	case RoleRetailer:
		return "Retailer"
	case RoleConsumer:
		return "Consumer"
	}
	return string(k)
}

// Valid reports whether k is one of the four known kinds.
func (k RoleKind) Valid() bool {
	for _, known := range RoleKinds {
		if k == known {
			return true
		}
	}
	return false
}

// RoleMembership records that an account belongs to a role registry.
type RoleMembership struct {
	ObjectType string   `json:"objectType"` // "RoleMember"
	Kind       RoleKind `json:"kind"`
	Account    string   `json:"account"`
	AddedBy    string   `json:"addedBy"`
	AddedAt    string   `json:"addedAt"`
}

// ContractState holds the process-wide singletons: owner, circuit breaker
// and the SKU counter.
type ContractState struct {
	ObjectType  string `json:"objectType"` // "ContractState"
	Initialized bool   `json:"initialized"`
	Owner       string `json:"owner"` // Empty after renunciation
	Stopped     bool   `json:"stopped"`
	SKUCount    uint64 `json:"skuCount"` // Last SKU handed out
	UpdatedAt   string `json:"updatedAt"`
}

// AccountBalance is the spendable value held by an account.
type AccountBalance struct {
	ObjectType string `json:"objectType"` // "Balance"
	Account    string `json:"account"`
	Amount     uint64 `json:"amount"`
}
