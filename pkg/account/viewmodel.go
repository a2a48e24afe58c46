package account

// AccountView is the external representation of an account, decoupled from
// the store-native user record.
type AccountView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// Password is write-only input; read paths never populate it. Blank on
	// update means "no password change".
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles"`
}

// SearchDescriptor carries filtering and sorting criteria for account
// searches.
type SearchDescriptor struct {
	Search    string `json:"search,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// QueryResult is the outcome of a search.
type QueryResult struct {
	TotalCount    int64         `json:"total_count"`
	FilteredCount int64         `json:"filtered_count"`
	Results       []AccountView `json:"results"`
}
