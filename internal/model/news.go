package model

// NewsItem is one search result used as review context.
type NewsItem struct {
	Title   string
	Snippet string
	Link    string
	Date    string
}
