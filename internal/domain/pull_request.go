package domain

// Repository identifies a repository on the hosting platform.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// PullRequest is the PR context a run reports against.
type PullRequest struct {
	Repo    Repository `json:"repo"`
	Number  int        `json:"number"`
	URL     string     `json:"url"`
	HeadSHA string     `json:"headSha"`
}
