package validator

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"ecoregistry/internal/registry/models"
)

// rule checks one constraint of the record schema against a decoded record.
type rule func(r *models.Record) []string

var rules = []rule{
	requireName,
	checkDescription,
	checkCategory,
	checkPartnershipEntries,
	checkEnums,
	checkMinimums,
	checkURLs,
	checkSecurityAudit,
	checkTechStack,
	checkTierValues,
}

func checkRules(r *models.Record) []string {
	var errs []string
	for _, check := range rules {
		errs = append(errs, check(r)...)
	}
	return errs
}

func requireName(r *models.Record) []string {
	if strings.TrimSpace(r.Name) == "" {
		return []string{`field "name" must not be empty`}
	}
	return nil
}

func checkDescription(r *models.Record) []string {
	if r.Description == nil {
		return nil
	}
	if n := utf8.RuneCountInString(*r.Description); n > models.MaxDescriptionLength {
		return []string{fmt.Sprintf(`field "description" is %d characters, maximum is %d`, n, models.MaxDescriptionLength)}
	}
	return nil
}

func checkCategory(r *models.Record) []string {
	if len(r.Category) == 0 {
		return []string{`field "category" must contain at least one category`}
	}
	var errs []string
	seen := make(map[models.Category]bool, len(r.Category))
	for _, c := range r.Category {
		if !c.IsValid() {
			errs = append(errs, fmt.Sprintf(`field "category" has unknown category %q`, c))
		}
		if seen[c] {
			errs = append(errs, fmt.Sprintf(`field "category" lists %q more than once`, c))
		}
		seen[c] = true
	}
	return errs
}

func checkPartnershipEntries(r *models.Record) []string {
	var errs []string
	for i, p := range r.Partnerships {
		if p == "" {
			errs = append(errs, fmt.Sprintf(`field "partnerships[%d]" must not be empty`, i))
		}
	}
	return errs
}

func checkEnums(r *models.Record) []string {
	var errs []string
	if !r.Status.IsValid() {
		errs = append(errs, fmt.Sprintf(`field "status" has invalid value %q`, r.Status))
	}
	for _, n := range r.Network {
		if !n.IsValid() {
			errs = append(errs, fmt.Sprintf(`field "network" has invalid value %q`, n))
		}
	}
	if r.ValidatorStatus != nil && !r.ValidatorStatus.IsValid() {
		errs = append(errs, fmt.Sprintf(`field "validator_status" has invalid value %q`, *r.ValidatorStatus))
	}
	if r.CIStatus != nil && !r.CIStatus.IsValid() {
		errs = append(errs, fmt.Sprintf(`field "ci_status" has invalid value %q`, *r.CIStatus))
	}
	return errs
}

func checkMinimums(r *models.Record) []string {
	var errs []string
	if r.TestCount != nil && *r.TestCount < 0 {
		errs = append(errs, fmt.Sprintf(`field "test_count" must be >= 0, got %d`, *r.TestCount))
	}
	counters := []struct {
		name  string
		value *int64
	}{
		{models.FieldDailyTransactions, r.DailyTransactions},
		{models.FieldActiveParties, r.ActiveParties},
		{models.FieldContractCount, r.ContractCount},
	}
	for _, c := range counters {
		if c.value != nil && *c.value < 0 {
			errs = append(errs, fmt.Sprintf("field %q must be >= 0, got %d", c.name, *c.value))
		}
	}
	if r.TotalValueLocked != nil && *r.TotalValueLocked < 0 {
		errs = append(errs, fmt.Sprintf(`field "total_value_locked" must be >= 0, got %g`, *r.TotalValueLocked))
	}
	return errs
}

func checkURLs(r *models.Record) []string {
	urls := []struct {
		name  string
		value *string
	}{
		{models.FieldWebsiteURL, r.WebsiteURL},
		{models.FieldContactURL, r.ContactURL},
		{models.FieldRepositoryURL, r.RepositoryURL},
		{models.FieldDocumentationURL, r.DocumentationURL},
	}
	if r.SecurityAudit != nil {
		urls = append(urls, struct {
			name  string
			value *string
		}{"security_audit.report_url", r.SecurityAudit.ReportURL})
	}
	var errs []string
	for _, u := range urls {
		if u.value != nil && !isHTTPURL(*u.value) {
			errs = append(errs, fmt.Sprintf("field %q is not an absolute http(s) URL: %q", u.name, *u.value))
		}
	}
	return errs
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func checkSecurityAudit(r *models.Record) []string {
	a := r.SecurityAudit
	if a == nil {
		return nil
	}
	var errs []string
	if strings.TrimSpace(a.Auditor) == "" {
		errs = append(errs, `field "security_audit.auditor" must not be empty`)
	}
	if strings.TrimSpace(a.Scope) == "" {
		errs = append(errs, `field "security_audit.scope" must not be empty`)
	}
	return errs
}

func checkTechStack(r *models.Record) []string {
	var errs []string
	for i, tag := range r.TechStack {
		if strings.TrimSpace(tag) == "" {
			errs = append(errs, fmt.Sprintf(`field "tech_stack[%d]" must not be empty`, i))
		}
	}
	return errs
}

func checkTierValues(r *models.Record) []string {
	var errs []string
	for _, k := range sortedTierKeys(r.Confidence) {
		if t := r.Confidence[k]; t != nil && !t.IsValid() {
			errs = append(errs, fmt.Sprintf("confidence[%q] has invalid tier %q", k, *t))
		}
	}
	return errs
}
