package models

// QueryResult is a single ranked hit. Record is shared with the index it came from.
type QueryResult struct {
	Record  *DocumentRecord `json:"-"`
	Score   int             `json:"score"`
	Snippet string          `json:"snippet,omitempty"`
}

// SearchResponse is the response for a search request.
// When IsLoading is true the index is not ready yet, Results is empty and the caller should retry.
type SearchResponse struct {
	Results   []QueryResult `json:"-"`
	IsLoading bool          `json:"isLoading"`
	Query     string        `json:"query"`
	QueryTime int64         `json:"queryTimeMs"`
	// DidYouMean is a corrected query offered when nothing matched.
	DidYouMean string `json:"didYouMean,omitempty"`
	// AutoFuzzy marks a response produced by retrying with fuzzy matching after an empty exact search.
	AutoFuzzy bool `json:"autoFuzzy,omitempty"`
}

// ResultView is the wire form of a QueryResult, flattening the fields a front-end renders.
type ResultView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	URL      string   `json:"url"`
	Keywords []string `json:"keywords,omitempty"`
	Score    int      `json:"score"`
	Snippet  string   `json:"snippet,omitempty"`
	Rank     int      `json:"rank"`
}

// SearchResponseView is the wire form of a SearchResponse.
type SearchResponseView struct {
	Results    []ResultView `json:"results"`
	Total      int          `json:"total"`
	IsLoading  bool         `json:"isLoading"`
	Query      string       `json:"query"`
	QueryTime  int64        `json:"queryTimeMs"`
	DidYouMean string       `json:"didYouMean,omitempty"`
	AutoFuzzy  bool         `json:"autoFuzzy,omitempty"`
}

// View converts the response to its wire form. Ranks are 1-based.
func (r *SearchResponse) View() *SearchResponseView {
	v := &SearchResponseView{
		Results:    make([]ResultView, 0, len(r.Results)),
		Total:      len(r.Results),
		IsLoading:  r.IsLoading,
		Query:      r.Query,
		QueryTime:  r.QueryTime,
		DidYouMean: r.DidYouMean,
		AutoFuzzy:  r.AutoFuzzy,
	}
	for i, res := range r.Results {
		if res.Record == nil {
			continue
		}
		v.Results = append(v.Results, ResultView{
			ID:       res.Record.ID,
			Title:    res.Record.Title,
			Category: res.Record.Category,
			URL:      res.Record.URL,
			Keywords: res.Record.Keywords,
			Score:    res.Score,
			Snippet:  res.Snippet,
			Rank:     i + 1,
		})
	}
	return v
}
