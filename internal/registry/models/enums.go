package models

// Status is the lifecycle status of a project.
type Status string

const (
	StatusProduction  Status = "production"
	StatusTestnet     Status = "testnet"
	StatusDevelopment Status = "development"
	StatusInactive    Status = "inactive"
	StatusUnknown     Status = "unknown"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusProduction, StatusTestnet, StatusDevelopment, StatusInactive, StatusUnknown:
		return true
	}
	return false
}

// Network identifies a deployment network.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
)

func (n Network) IsValid() bool {
	return n == NetworkMainnet || n == NetworkTestnet || n == NetworkDevnet
}

// ValidatorStatus records whether a project operates a network validator.
type ValidatorStatus string

const (
	ValidatorSuper ValidatorStatus = "super_validator"
	ValidatorNode  ValidatorStatus = "validator"
	ValidatorNone  ValidatorStatus = "none"
)

func (v ValidatorStatus) IsValid() bool {
	switch v {
	case ValidatorSuper, ValidatorNode, ValidatorNone:
		return true
	}
	return false
}

// CIStatus summarizes the most recent CI outcome.
type CIStatus string

const (
	CIPassing CIStatus = "passing"
	CIFailing CIStatus = "failing"
	CIStale   CIStatus = "stale"
	CIUnknown CIStatus = "unknown"
)

func (c CIStatus) IsValid() bool {
	switch c {
	case CIPassing, CIFailing, CIStale, CIUnknown:
		return true
	}
	return false
}

// Category is a closed set of project classification tags.
type Category string

const (
	CategoryDeFi           Category = "defi"
	CategoryInfrastructure Category = "infrastructure"
	CategoryWallet         Category = "wallet"
	CategoryExchange       Category = "exchange"
	CategoryTokenization   Category = "tokenization"
	CategoryPayments       Category = "payments"
	CategoryIdentity       Category = "identity"
	CategoryData           Category = "data"
	CategoryDeveloperTools Category = "developer-tools"
	CategoryAnalytics      Category = "analytics"
	CategoryCompliance     Category = "compliance"
	CategoryCustody        Category = "custody"
	CategoryGaming         Category = "gaming"
	CategoryOther          Category = "other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryDeFi,
	CategoryInfrastructure,
	CategoryWallet,
	CategoryExchange,
	CategoryTokenization,
	CategoryPayments,
	CategoryIdentity,
	CategoryData,
	CategoryDeveloperTools,
	CategoryAnalytics,
	CategoryCompliance,
	CategoryCustody,
	CategoryGaming,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Tier is the provenance classification of a field value.
type Tier string

const (
	TierVerified     Tier = "verified"
	TierSelfReported Tier = "self_reported"
	TierAutoDetected Tier = "auto_detected"
)

func (t Tier) IsValid() bool {
	switch t {
	case TierVerified, TierSelfReported, TierAutoDetected:
		return true
	}
	return false
}

// TierPtr returns a pointer to t, for building confidence maps.
func TierPtr(t Tier) *Tier {
	return &t
}
