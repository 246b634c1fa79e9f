package models

// Record is one entry in the registry, keyed by ProjectID.
//
// Nullable attributes are pointers or nil slices; a nil value serializes as JSON
// null. The confidence map mirrors value nullness for every field that is not
// registry-managed (see Fields).
//
// Invariants:
//   - ProjectID is a lowercase hyphenated slug, unique within a dataset
//   - Category is non-empty and drawn from Categories
//   - Partnerships resolve to other records in the same dataset
//   - Description is at most MaxDescriptionLength characters
//   - A tracked field is non-null iff its confidence entry is non-null
type Record struct {
	// Identity & governance
	ProjectID        string           `json:"project_id"`
	Name             string           `json:"name"`
	EntityName       *string          `json:"entity_name"`
	Jurisdiction     *string          `json:"jurisdiction"`
	FoundationMember bool             `json:"foundation_member"`
	ValidatorStatus  *ValidatorStatus `json:"validator_status"`
	WebsiteURL       *string          `json:"website_url"`
	ContactURL       *string          `json:"contact_url"`
	Description      *string          `json:"description"`
	Category         []Category       `json:"category"`
	Partnerships     []string         `json:"partnerships"`

	// Operational status
	Status               Status    `json:"status"`
	Network              []Network `json:"network"`
	SDKVersion           *string   `json:"sdk_version"`
	LastVerifiedActivity *string   `json:"last_verified_activity"`
	LaunchDate           *string   `json:"launch_date"`
	Featured             bool      `json:"featured"`

	// Technical posture
	OpenSource       *bool          `json:"open_source"`
	RepositoryURL    *string        `json:"repository_url"`
	LicenseType      *string        `json:"license_type"`
	SecurityAudit    *SecurityAudit `json:"security_audit"`
	HasTests         *bool          `json:"has_tests"`
	TestCount        *int           `json:"test_count"`
	HasCI            *bool          `json:"has_ci"`
	CIStatus         *CIStatus      `json:"ci_status"`
	HasDocumentation *bool          `json:"has_documentation"`
	DocumentationURL *string        `json:"documentation_url"`
	TechStack        []string       `json:"tech_stack"`

	// On-chain footprint, null until an on-chain integration exists.
	DailyTransactions    *int64   `json:"daily_transactions"`
	ActiveParties        *int64   `json:"active_parties"`
	ContractCount        *int64   `json:"contract_count"`
	TotalValueLocked     *float64 `json:"total_value_locked"`
	FirstOnchainActivity *string  `json:"first_onchain_activity"`
	LastOnchainActivity  *string  `json:"last_onchain_activity"`

	// Metadata
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	Claimed         bool             `json:"claimed"`
	ClaimedBy       *string          `json:"claimed_by"`
	ClaimedAt       *string          `json:"claimed_at"`
	Confidence      map[string]*Tier `json:"confidence"`
	LastAutoRefresh *string          `json:"last_auto_refresh"`
	Notes           *string          `json:"notes"`
}

// SecurityAudit is present only as a whole: auditor, date and scope are
// required, the report URL may be null.
type SecurityAudit struct {
	Auditor   string  `json:"auditor"`
	Date      string  `json:"date"`
	ReportURL *string `json:"report_url"`
	Scope     string  `json:"scope"`
}

// MaxDescriptionLength bounds the free-text description.
const MaxDescriptionLength = 280

// Clone returns a deep copy so callers can mutate a record without touching
// the dataset it came from.
func (r Record) Clone() Record {
	out := r
	out.EntityName = cloneString(r.EntityName)
	out.Jurisdiction = cloneString(r.Jurisdiction)
	if r.ValidatorStatus != nil {
		v := *r.ValidatorStatus
		out.ValidatorStatus = &v
	}
	out.WebsiteURL = cloneString(r.WebsiteURL)
	out.ContactURL = cloneString(r.ContactURL)
	out.Description = cloneString(r.Description)
	out.Category = cloneSlice(r.Category)
	out.Partnerships = cloneSlice(r.Partnerships)
	out.Network = cloneSlice(r.Network)
	out.SDKVersion = cloneString(r.SDKVersion)
	out.LastVerifiedActivity = cloneString(r.LastVerifiedActivity)
	out.LaunchDate = cloneString(r.LaunchDate)
	out.OpenSource = clonePtr(r.OpenSource)
	out.RepositoryURL = cloneString(r.RepositoryURL)
	out.LicenseType = cloneString(r.LicenseType)
	if r.SecurityAudit != nil {
		audit := *r.SecurityAudit
		audit.ReportURL = cloneString(r.SecurityAudit.ReportURL)
		out.SecurityAudit = &audit
	}
	out.HasTests = clonePtr(r.HasTests)
	out.TestCount = clonePtr(r.TestCount)
	out.HasCI = clonePtr(r.HasCI)
	out.CIStatus = clonePtr(r.CIStatus)
	out.HasDocumentation = clonePtr(r.HasDocumentation)
	out.DocumentationURL = cloneString(r.DocumentationURL)
	out.TechStack = cloneSlice(r.TechStack)
	out.DailyTransactions = clonePtr(r.DailyTransactions)
	out.ActiveParties = clonePtr(r.ActiveParties)
	out.ContractCount = clonePtr(r.ContractCount)
	out.TotalValueLocked = clonePtr(r.TotalValueLocked)
	out.FirstOnchainActivity = cloneString(r.FirstOnchainActivity)
	out.LastOnchainActivity = cloneString(r.LastOnchainActivity)
	out.ClaimedBy = cloneString(r.ClaimedBy)
	out.ClaimedAt = cloneString(r.ClaimedAt)
	out.LastAutoRefresh = cloneString(r.LastAutoRefresh)
	out.Notes = cloneString(r.Notes)
	if r.Confidence != nil {
		out.Confidence = make(map[string]*Tier, len(r.Confidence))
		for k, v := range r.Confidence {
			out.Confidence[k] = clonePtr(v)
		}
	}
	return out
}

func cloneString(s *string) *string {
	return clonePtr(s)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// String returns a pointer to s. Used when building records in code.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n.
func Int(n int) *int { return &n }
