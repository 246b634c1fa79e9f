// Package modelstest provides record fixtures shared by registry tests.
package modelstest

import (
	"ecoregistry/internal/registry/models"
)

// Record returns a minimal valid record: every tracked field that has a value
// carries a tier, every null field carries a null tier.
func Record(projectID string) models.Record {
	tier := models.TierPtr
	return models.Record{
		ProjectID:        projectID,
		Name:             "Project " + projectID,
		Category:         []models.Category{models.CategoryInfrastructure},
		Partnerships:     []string{},
		Status:           models.StatusDevelopment,
		FoundationMember: false,
		Featured:         false,
		OpenSource:       models.Bool(true),
		RepositoryURL:    models.String("https://github.com/example/" + projectID),
		CreatedAt:        "2024-01-15T09:00:00Z",
		UpdatedAt:        "2024-02-01T12:30:00Z",
		Confidence: map[string]*models.Tier{
			models.FieldName:             tier(models.TierSelfReported),
			models.FieldFoundationMember: tier(models.TierVerified),
			models.FieldStatus:           tier(models.TierVerified),
			models.FieldFeatured:         tier(models.TierVerified),
			models.FieldOpenSource:       tier(models.TierSelfReported),
			models.FieldRepositoryURL:    tier(models.TierSelfReported),
			models.FieldSDKVersion:       nil,
		},
	}
}

// Dataset returns valid records for each id.
func Dataset(ids ...string) []models.Record {
	out := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, Record(id))
	}
	return out
}
