package recorder

// ReviewRecord holds one generated daily review.
type ReviewRecord struct {
	Date          string
	Mode          string // "llm" or "template"
	Report        string
	IndexCount    int
	NewsCount     int
	LeverageRatio float64
}

// SourceGap records a pipeline section that came back empty for a run.
type SourceGap struct {
	Date    string
	Section string // "indices", "breadth", "sectors", "leverage", "news"
}

// Recorder archives generated reviews and data gaps for later inspection.
// Snapshots themselves are not persisted.
type Recorder interface {
	RecordReview(rec *ReviewRecord) error
	RecordSourceGap(gap *SourceGap) error
	Close() error
}
