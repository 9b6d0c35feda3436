package types

// RepositoryRef identifies a GitHub repository. It is derived once from a
// URL and does not change for the duration of a scan.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// FullName returns "owner/repo".
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

// String implements Stringer.
func (r RepositoryRef) String() string {
	return r.FullName()
}

// Tree entry types as reported by the Git trees API.
const (
	EntryBlob   = "blob"
	EntryTree   = "tree"
	EntryCommit = "commit" // submodule
)

// TreeEntry is one node of a repository's recursive file tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size,omitempty"`
}

// IsBlob reports whether the entry is a file.
func (e TreeEntry) IsBlob() bool {
	return e.Type == EntryBlob
}

// Tree is the recursive listing of one branch.
type Tree struct {
	Branch    string
	SHA       string
	Entries   []TreeEntry
	Truncated bool // the API stopped listing (>100K entries or >7MB)
}

// RepositoryInfo is the repository metadata shown next to scan results.
type RepositoryInfo struct {
	FullName      string `json:"fullName"`
	Description   string `json:"description,omitempty"`
	Visibility    string `json:"visibility,omitempty"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	DefaultBranch string `json:"defaultBranch"`
}
