package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordReview(_ *ReviewRecord) error  { return nil }
func (n *NoopRecorder) RecordSourceGap(_ *SourceGap) error  { return nil }
func (n *NoopRecorder) Close() error                        { return nil }
