package collectors

import (
	"context"

	"ecoregistry/internal/collection/github"
	"ecoregistry/internal/registry/models"
)

// noAssertion is the SPDX placeholder GitHub reports for licenses it cannot
// classify.
const noAssertion = "NOASSERTION"

// License reports the SPDX identifier detected by GitHub.
func License() Collector {
	return Collector{
		Name:    "license",
		Fields:  []string{models.FieldLicenseType},
		Collect: collectLicense,
	}
}

func collectLicense(ctx context.Context, api API, in Input) (Result, error) {
	res := newResult()

	var info github.LicenseInfo
	_, err := api.Get(ctx, in.Repo.Path("license"), &info)
	if github.IsNotFound(err) {
		res.set(models.FieldLicenseType, nil)
		res.note("No license file detected")
		return res, nil
	}
	if err != nil {
		return res, err
	}

	id := info.License.SPDXID
	switch id {
	case "":
		res.set(models.FieldLicenseType, nil)
		res.note("License file present but not identified")
	case noAssertion:
		res.set(models.FieldLicenseType, "Custom")
		res.note("License not recognized as a standard SPDX license; recorded as Custom")
	default:
		res.set(models.FieldLicenseType, id)
	}
	return res, nil
}
