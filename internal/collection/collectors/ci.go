package collectors

import (
	"context"
	"path"
	"strings"
	"time"

	"ecoregistry/internal/collection/github"
	"ecoregistry/internal/registry/models"
)

// StaleAfter is the age beyond which the latest CI run is reported stale
// regardless of its outcome.
const StaleAfter = 90 * 24 * time.Hour

const primaryCIProvider = "GitHub Actions"

// ciConfigs maps exact config paths to the provider they belong to.
var ciConfigs = map[string]string{
	".circleci/config.yml":    "CircleCI",
	".travis.yml":             "Travis CI",
	".gitlab-ci.yml":          "GitLab CI",
	"azure-pipelines.yml":     "Azure Pipelines",
	"Jenkinsfile":             "Jenkins",
	"bitbucket-pipelines.yml": "Bitbucket Pipelines",
	".buildkite/pipeline.yml": "Buildkite",
}

// CI detects CI configuration in the tree and, for GitHub Actions, reports
// the outcome of the latest completed run.
func CI() Collector {
	return Collector{
		Name:    "ci",
		Fields:  []string{models.FieldHasCI, models.FieldCIStatus},
		Collect: collectCI,
	}
}

func collectCI(ctx context.Context, api API, in Input) (Result, error) {
	res := newResult()

	provider := detectCIProvider(in.Tree)
	if provider == "" {
		res.set(models.FieldHasCI, false)
		res.set(models.FieldCIStatus, nil)
		return res, nil
	}
	res.set(models.FieldHasCI, true)

	if provider != primaryCIProvider {
		res.set(models.FieldCIStatus, models.CIUnknown)
		res.note("CI configured with %s; run status is only read for %s", provider, primaryCIProvider)
		return res, nil
	}

	var runs github.WorkflowRuns
	_, err := api.Get(ctx, in.Repo.Path("actions/runs?status=completed&per_page=1"), &runs)
	if err != nil {
		res.set(models.FieldCIStatus, models.CIUnknown)
		res.note("Could not fetch workflow runs: %v", err)
		return res, nil
	}
	if len(runs.WorkflowRuns) == 0 {
		res.set(models.FieldCIStatus, models.CIUnknown)
		res.note("No completed workflow runs found")
		return res, nil
	}

	res.set(models.FieldCIStatus, runStatus(runs.WorkflowRuns[0], in.Now))
	return res, nil
}

// runStatus maps a completed run to a CI status. Age is checked first.
func runStatus(run github.WorkflowRun, now time.Time) models.CIStatus {
	if now.Sub(run.UpdatedAt) > StaleAfter {
		return models.CIStale
	}
	switch run.Conclusion {
	case "success":
		return models.CIPassing
	case "failure":
		return models.CIFailing
	default:
		return models.CIUnknown
	}
}

// detectCIProvider returns the provider of the first CI config found, with
// GitHub Actions taking precedence over any other provider.
func detectCIProvider(tree github.Tree) string {
	other := ""
	for _, entry := range tree.Blobs() {
		if isWorkflowFile(entry.Path) {
			return primaryCIProvider
		}
		if name, ok := ciConfigs[entry.Path]; ok && other == "" {
			other = name
		}
	}
	return other
}

func isWorkflowFile(p string) bool {
	if path.Dir(p) != ".github/workflows" {
		return false
	}
	return strings.HasSuffix(p, ".yml") || strings.HasSuffix(p, ".yaml")
}
