package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID          int64  `json:"id"`
	Title       string `json:"titulo"`
	Snippet     string `json:"trecho"`
	ProjectName string `json:"projeto_nome"`
	SectorCode  string `json:"setor_sigla"`
	StatusID    int    `json:"status_id"`
}

// Query describes a search request over activities.
type Query struct {
	Text       string
	SectorCode string
	Limit      int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// ActivityRecord is the data we index for an activity.
type ActivityRecord struct {
	ID          int64  `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descricao"`
	ProjectName string `json:"projeto_nome"`
	SectorCode  string `json:"setor_sigla"`
	StatusID    int    `json:"status_id"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}
