package collectors

import (
	"context"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"ecoregistry/internal/registry/models"
	strutil "ecoregistry/pkg/platform/strings"
)

const projectConfigFile = "daml.yaml"

// projectConfig is the part of a daml.yaml project file we read.
type projectConfig struct {
	SDKVersion string `yaml:"sdk-version"`
}

// SDKVersion reports the SDK version declared by the project configuration.
// The root file wins; otherwise every nested config file is read and the
// highest version is reported.
func SDKVersion() Collector {
	return Collector{
		Name:    "sdk_version",
		Fields:  []string{models.FieldSDKVersion},
		Collect: collectSDKVersion,
	}
}

func collectSDKVersion(ctx context.Context, api API, in Input) (Result, error) {
	res := newResult()

	body, found, err := api.GetFileContent(ctx, in.Repo, projectConfigFile)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", projectConfigFile, err)
	}
	if found {
		version, perr := parseSDKVersion(body)
		if perr == nil && version != "" {
			res.set(models.FieldSDKVersion, version)
			return res, nil
		}
		if perr != nil {
			res.note("Root %s could not be parsed: %v", projectConfigFile, perr)
		} else {
			res.note("Root %s declares no sdk-version", projectConfigFile)
		}
	}

	var versions []string
	for _, entry := range in.Tree.Blobs() {
		if !strings.HasSuffix(entry.Path, "/"+projectConfigFile) {
			continue
		}
		body, found, err := api.GetFileContent(ctx, in.Repo, entry.Path)
		if err != nil {
			res.note("Could not read %s: %v", entry.Path, err)
			continue
		}
		if !found {
			continue
		}
		version, err := parseSDKVersion(body)
		if err != nil {
			res.note("Could not parse %s: %v", entry.Path, err)
			continue
		}
		if version != "" {
			versions = append(versions, version)
		}
	}

	if len(versions) == 0 {
		res.set(models.FieldSDKVersion, nil)
		res.note("No %s with an sdk-version found", projectConfigFile)
		return res, nil
	}

	distinct := strutil.SortedUniqueFunc(versions, compareVersions)
	if len(distinct) > 1 {
		res.note("Multiple SDK versions found in subprojects: %s", strings.Join(distinct, ", "))
	}
	res.set(models.FieldSDKVersion, maxVersion(versions))
	return res, nil
}

func parseSDKVersion(body []byte) (string, error) {
	var cfg projectConfig
	if err := yaml.Unmarshal(body, &cfg); err != nil {
		return "", err
	}
	return strings.TrimSpace(cfg.SDKVersion), nil
}

// maxVersion returns the highest version by numeric triple comparison.
func maxVersion(versions []string) string {
	best := versions[0]
	for _, v := range versions[1:] {
		if compareVersions(v, best) > 0 {
			best = v
		}
	}
	return best
}

// compareVersions compares the first three dot-separated numeric components.
// Missing components and non-numeric suffixes count as zero, so "2.9" equals
// "2.9.0" and "2.9.0-rc1".
func compareVersions(a, b string) int {
	ap := versionParts(a)
	bp := versionParts(b)
	for i := 0; i < 3; i++ {
		if ap[i] > bp[i] {
			return 1
		}
		if ap[i] < bp[i] {
			return -1
		}
	}
	return 0
}

func versionParts(v string) [3]int {
	var out [3]int
	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		out[i] = parseIntSafe(parts[i])
	}
	return out
}

// parseIntSafe reads the leading digits of s.
func parseIntSafe(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			break
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

// isRootFile reports whether p is a file at the repository root.
func isRootFile(p string) bool {
	return path.Dir(p) == "."
}
