package models

import (
	"fmt"
	"slices"
)

// Field names as they appear in JSON and in confidence maps.
const (
	FieldProjectID            = "project_id"
	FieldName                 = "name"
	FieldEntityName           = "entity_name"
	FieldJurisdiction         = "jurisdiction"
	FieldFoundationMember     = "foundation_member"
	FieldValidatorStatus      = "validator_status"
	FieldWebsiteURL           = "website_url"
	FieldContactURL           = "contact_url"
	FieldDescription          = "description"
	FieldCategory             = "category"
	FieldPartnerships         = "partnerships"
	FieldStatus               = "status"
	FieldNetwork              = "network"
	FieldSDKVersion           = "sdk_version"
	FieldLastVerifiedActivity = "last_verified_activity"
	FieldLaunchDate           = "launch_date"
	FieldFeatured             = "featured"
	FieldOpenSource           = "open_source"
	FieldRepositoryURL        = "repository_url"
	FieldLicenseType          = "license_type"
	FieldSecurityAudit        = "security_audit"
	FieldHasTests             = "has_tests"
	FieldTestCount            = "test_count"
	FieldHasCI                = "has_ci"
	FieldCIStatus             = "ci_status"
	FieldHasDocumentation     = "has_documentation"
	FieldDocumentationURL     = "documentation_url"
	FieldTechStack            = "tech_stack"
	FieldDailyTransactions    = "daily_transactions"
	FieldActiveParties        = "active_parties"
	FieldContractCount        = "contract_count"
	FieldTotalValueLocked     = "total_value_locked"
	FieldFirstOnchainActivity = "first_onchain_activity"
	FieldLastOnchainActivity  = "last_onchain_activity"
	FieldCreatedAt            = "created_at"
	FieldUpdatedAt            = "updated_at"
	FieldClaimed              = "claimed"
	FieldClaimedBy            = "claimed_by"
	FieldClaimedAt            = "claimed_at"
	FieldConfidence           = "confidence"
	FieldLastAutoRefresh      = "last_auto_refresh"
	FieldNotes                = "notes"
)

// Kind tells the validator which format rule applies to a string field.
type Kind int

const (
	KindOther Kind = iota
	KindDate
	KindTimestamp
)

// Field describes one attribute of Record. The registry below is the single
// source of truth for field names, nullability and whether the registry itself
// manages the field (managed fields never carry a confidence tier).
type Field struct {
	Name     string
	Managed  bool
	Nullable bool
	Kind     Kind
	value    func(*Record) any
}

// Value returns the field's normalized value, or nil when the field is null.
// Pointers are dereferenced; enum slices are returned as []string.
func (f Field) Value(r *Record) any {
	return f.value(r)
}

// IsNull reports whether the field is null on r.
func (f Field) IsNull(r *Record) bool {
	return f.value(r) == nil
}

var fields = []Field{
	{Name: FieldProjectID, Managed: true, value: func(r *Record) any { return r.ProjectID }},
	{Name: FieldName, value: func(r *Record) any { return r.Name }},
	{Name: FieldEntityName, Nullable: true, value: func(r *Record) any { return deref(r.EntityName) }},
	{Name: FieldJurisdiction, Nullable: true, value: func(r *Record) any { return deref(r.Jurisdiction) }},
	{Name: FieldFoundationMember, value: func(r *Record) any { return r.FoundationMember }},
	{Name: FieldValidatorStatus, Nullable: true, value: func(r *Record) any { return deref(r.ValidatorStatus) }},
	{Name: FieldWebsiteURL, Nullable: true, value: func(r *Record) any { return deref(r.WebsiteURL) }},
	{Name: FieldContactURL, Nullable: true, value: func(r *Record) any { return deref(r.ContactURL) }},
	{Name: FieldDescription, Nullable: true, value: func(r *Record) any { return deref(r.Description) }},
	{Name: FieldCategory, Managed: true, value: func(r *Record) any { return stringSlice(r.Category) }},
	{Name: FieldPartnerships, Managed: true, value: func(r *Record) any { return stringSlice(r.Partnerships) }},
	{Name: FieldStatus, value: func(r *Record) any { return r.Status }},
	{Name: FieldNetwork, Nullable: true, value: func(r *Record) any { return stringSlice(r.Network) }},
	{Name: FieldSDKVersion, Nullable: true, value: func(r *Record) any { return deref(r.SDKVersion) }},
	{Name: FieldLastVerifiedActivity, Nullable: true, Kind: KindDate, value: func(r *Record) any { return deref(r.LastVerifiedActivity) }},
	{Name: FieldLaunchDate, Nullable: true, Kind: KindDate, value: func(r *Record) any { return deref(r.LaunchDate) }},
	{Name: FieldFeatured, value: func(r *Record) any { return r.Featured }},
	{Name: FieldOpenSource, Nullable: true, value: func(r *Record) any { return deref(r.OpenSource) }},
	{Name: FieldRepositoryURL, Nullable: true, value: func(r *Record) any { return deref(r.RepositoryURL) }},
	{Name: FieldLicenseType, Nullable: true, value: func(r *Record) any { return deref(r.LicenseType) }},
	{Name: FieldSecurityAudit, Nullable: true, value: func(r *Record) any { return deref(r.SecurityAudit) }},
	{Name: FieldHasTests, Nullable: true, value: func(r *Record) any { return deref(r.HasTests) }},
	{Name: FieldTestCount, Nullable: true, value: func(r *Record) any { return deref(r.TestCount) }},
	{Name: FieldHasCI, Nullable: true, value: func(r *Record) any { return deref(r.HasCI) }},
	{Name: FieldCIStatus, Nullable: true, value: func(r *Record) any { return deref(r.CIStatus) }},
	{Name: FieldHasDocumentation, Nullable: true, value: func(r *Record) any { return deref(r.HasDocumentation) }},
	{Name: FieldDocumentationURL, Nullable: true, value: func(r *Record) any { return deref(r.DocumentationURL) }},
	{Name: FieldTechStack, Nullable: true, value: func(r *Record) any { return stringSlice(r.TechStack) }},
	{Name: FieldDailyTransactions, Nullable: true, value: func(r *Record) any { return deref(r.DailyTransactions) }},
	{Name: FieldActiveParties, Nullable: true, value: func(r *Record) any { return deref(r.ActiveParties) }},
	{Name: FieldContractCount, Nullable: true, value: func(r *Record) any { return deref(r.ContractCount) }},
	{Name: FieldTotalValueLocked, Nullable: true, value: func(r *Record) any { return deref(r.TotalValueLocked) }},
	{Name: FieldFirstOnchainActivity, Nullable: true, Kind: KindDate, value: func(r *Record) any { return deref(r.FirstOnchainActivity) }},
	{Name: FieldLastOnchainActivity, Nullable: true, Kind: KindDate, value: func(r *Record) any { return deref(r.LastOnchainActivity) }},
	{Name: FieldCreatedAt, Managed: true, Kind: KindTimestamp, value: func(r *Record) any { return r.CreatedAt }},
	{Name: FieldUpdatedAt, Managed: true, Kind: KindTimestamp, value: func(r *Record) any { return r.UpdatedAt }},
	{Name: FieldClaimed, Managed: true, value: func(r *Record) any { return r.Claimed }},
	{Name: FieldClaimedBy, Managed: true, Nullable: true, value: func(r *Record) any { return deref(r.ClaimedBy) }},
	{Name: FieldClaimedAt, Managed: true, Nullable: true, Kind: KindTimestamp, value: func(r *Record) any { return deref(r.ClaimedAt) }},
	{Name: FieldConfidence, Managed: true, value: func(r *Record) any { return r.Confidence }},
	{Name: FieldLastAutoRefresh, Managed: true, Nullable: true, Kind: KindTimestamp, value: func(r *Record) any { return deref(r.LastAutoRefresh) }},
	{Name: FieldNotes, Managed: true, Nullable: true, value: func(r *Record) any { return deref(r.Notes) }},
}

var fieldIndex = func() map[string]Field {
	idx := make(map[string]Field, len(fields))
	for _, f := range fields {
		idx[f.Name] = f
	}
	return idx
}()

// Fields returns every field descriptor in declaration order.
func Fields() []Field {
	return slices.Clone(fields)
}

// TrackedFields returns the fields that carry a confidence tier.
func TrackedFields() []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if !f.Managed {
			out = append(out, f)
		}
	}
	return out
}

// LookupField finds a descriptor by JSON name.
func LookupField(name string) (Field, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// IsManaged reports whether name is a registry-managed field.
func IsManaged(name string) bool {
	f, ok := fieldIndex[name]
	return ok && f.Managed
}

// SetField assigns a collected value to one of the fields that collectors may
// write. A nil value clears the field. Values use the same normalized kinds
// that Field.Value returns.
func (r *Record) SetField(name string, value any) error {
	switch name {
	case FieldSDKVersion:
		return setString(&r.SDKVersion, name, value)
	case FieldLastVerifiedActivity:
		return setString(&r.LastVerifiedActivity, name, value)
	case FieldLicenseType:
		return setString(&r.LicenseType, name, value)
	case FieldDocumentationURL:
		return setString(&r.DocumentationURL, name, value)
	case FieldFirstOnchainActivity:
		return setString(&r.FirstOnchainActivity, name, value)
	case FieldLastOnchainActivity:
		return setString(&r.LastOnchainActivity, name, value)
	case FieldHasTests:
		return setValue(&r.HasTests, name, value)
	case FieldHasCI:
		return setValue(&r.HasCI, name, value)
	case FieldHasDocumentation:
		return setValue(&r.HasDocumentation, name, value)
	case FieldTestCount:
		return setValue(&r.TestCount, name, value)
	case FieldDailyTransactions:
		return setValue(&r.DailyTransactions, name, value)
	case FieldActiveParties:
		return setValue(&r.ActiveParties, name, value)
	case FieldContractCount:
		return setValue(&r.ContractCount, name, value)
	case FieldTotalValueLocked:
		return setValue(&r.TotalValueLocked, name, value)
	case FieldCIStatus:
		switch v := value.(type) {
		case nil:
			r.CIStatus = nil
		case CIStatus:
			r.CIStatus = &v
		case string:
			s := CIStatus(v)
			r.CIStatus = &s
		default:
			return fmt.Errorf("field %s: unexpected value type %T", name, value)
		}
		return nil
	case FieldTechStack:
		switch v := value.(type) {
		case nil:
			r.TechStack = nil
		case []string:
			r.TechStack = slices.Clone(v)
		default:
			return fmt.Errorf("field %s: unexpected value type %T", name, value)
		}
		return nil
	}
	return fmt.Errorf("field %s cannot be set by collection", name)
}

// ValuesEqual compares two normalized field values.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		return ok && slices.Equal(av, bv)
	case SecurityAudit:
		bv, ok := b.(SecurityAudit)
		if !ok {
			return false
		}
		return av.Auditor == bv.Auditor && av.Date == bv.Date && av.Scope == bv.Scope &&
			ValuesEqual(deref(av.ReportURL), deref(bv.ReportURL))
	case CIStatus:
		switch bv := b.(type) {
		case CIStatus:
			return av == bv
		case string:
			return string(av) == bv
		}
		return false
	case map[string]*Tier:
		return false
	}
	return a == b
}

func setString(dst **string, name string, value any) error {
	switch v := value.(type) {
	case nil:
		*dst = nil
	case string:
		*dst = &v
	default:
		return fmt.Errorf("field %s: unexpected value type %T", name, value)
	}
	return nil
}

func setValue[T any](dst **T, name string, value any) error {
	if value == nil {
		*dst = nil
		return nil
	}
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("field %s: unexpected value type %T", name, value)
	}
	*dst = &v
	return nil
}

// deref returns *p as any, or an untyped nil so that callers can compare the
// result against nil.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringSlice[T ~string](s []T) any {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}
