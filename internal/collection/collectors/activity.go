package collectors

import (
	"context"

	"ecoregistry/internal/collection/github"
	"ecoregistry/internal/registry/models"
)

// Activity reports the date of the most recent commit on the default branch.
func Activity() Collector {
	return Collector{
		Name:    "activity",
		Fields:  []string{models.FieldLastVerifiedActivity},
		Collect: collectActivity,
	}
}

func collectActivity(ctx context.Context, api API, in Input) (Result, error) {
	res := newResult()

	var commits []github.Commit
	_, err := api.Get(ctx, in.Repo.Path("commits?per_page=1"), &commits)
	switch {
	case github.IsConflict(err):
		res.set(models.FieldLastVerifiedActivity, nil)
		res.note("Empty repository: no commits to date last activity")
		return res, nil
	case err != nil:
		res.set(models.FieldLastVerifiedActivity, nil)
		res.note("Could not fetch commit history: %v", err)
		return res, nil
	case len(commits) == 0:
		res.set(models.FieldLastVerifiedActivity, nil)
		res.note("Repository has no commits")
		return res, nil
	}

	date := commits[0].Commit.Committer.Date
	if date.IsZero() {
		date = commits[0].Commit.Author.Date
	}
	if date.IsZero() {
		res.set(models.FieldLastVerifiedActivity, nil)
		res.note("Latest commit %s carries no date", commits[0].SHA)
		return res, nil
	}
	res.set(models.FieldLastVerifiedActivity, models.FormatDate(date))
	return res, nil
}
