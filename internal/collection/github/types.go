package github

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RepoRef addresses one repository.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// MarshalText renders the reference as owner/repo, or empty when unset.
func (r RepoRef) MarshalText() ([]byte, error) {
	if r.Owner == "" && r.Name == "" {
		return []byte{}, nil
	}
	return []byte(r.String()), nil
}

// Path builds an API path below /repos/{owner}/{repo}.
func (r RepoRef) Path(suffix string) string {
	p := "/repos/" + url.PathEscape(r.Owner) + "/" + url.PathEscape(r.Name)
	if suffix == "" {
		return p
	}
	return p + "/" + strings.TrimPrefix(suffix, "/")
}

// ParseRepoURL extracts owner and repository from a GitHub URL. It accepts
// https URLs (with or without .git and trailing path segments), scp-style
// git@github.com:owner/repo.git and bare owner/repo.
func ParseRepoURL(raw string) (RepoRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RepoRef{}, fmt.Errorf("empty repository reference")
	}

	var path string
	switch {
	case strings.HasPrefix(s, "git@github.com:"):
		path = strings.TrimPrefix(s, "git@github.com:")
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil {
			return RepoRef{}, fmt.Errorf("parse repository URL: %w", err)
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if host != "github.com" {
			return RepoRef{}, fmt.Errorf("unsupported repository host %q", u.Host)
		}
		path = u.Path
	default:
		path = s
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("repository reference %q has no owner/name", raw)
	}
	name := strings.TrimSuffix(parts[1], ".git")
	if name == "" {
		return RepoRef{}, fmt.Errorf("repository reference %q has no owner/name", raw)
	}
	return RepoRef{Owner: parts[0], Name: name}, nil
}

// Repository is the subset of repository metadata the collectors use.
type Repository struct {
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
	HasPages      bool   `json:"has_pages"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
	Name string `json:"name"`
}

// Tree is a recursive file listing.
type Tree struct {
	SHA       string      `json:"sha"`
	Entries   []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// TreeEntry is one file or directory in a Tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	Size int64  `json:"size"`
}

// IsFile reports whether the entry is a file.
func (e TreeEntry) IsFile() bool {
	return e.Type == "blob"
}

// Blobs returns the file entries of the tree.
func (t Tree) Blobs() []TreeEntry {
	out := make([]TreeEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.IsFile() {
			out = append(out, e)
		}
	}
	return out
}

// Commit is one element of the commit listing.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author    CommitSignature `json:"author"`
		Committer CommitSignature `json:"committer"`
	} `json:"commit"`
}

// CommitSignature carries the date of a commit.
type CommitSignature struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// LicenseInfo is the repository license detection payload.
type LicenseInfo struct {
	License struct {
		Key    string `json:"key"`
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// Content is a single file returned by the contents endpoint.
type Content struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
}

// WorkflowRuns is the CI run listing.
type WorkflowRuns struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// WorkflowRun is one CI run.
type WorkflowRun struct {
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Languages maps a language name to its byte count.
type Languages map[string]int64
