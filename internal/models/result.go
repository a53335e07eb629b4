package models

// SearchResult is a single ranked time window returned for a query.
// Score is the cosine similarity of the segment's embedding to the query
// embedding for the semantic path, or the bleve score for the keyword path.
type SearchResult struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// SearchResponse is the response for a search request against one video.
type SearchResponse struct {
	VideoID   string          `json:"video_id"`
	Query     string          `json:"query"`
	Results   []*SearchResult `json:"results"`
	QueryTime int64           `json:"query_time_ms"`
}
