package provenance

// Config toggles which provenance features are active. The zero value
// disables provenance entirely (Enabled=false), matching "provenance
// failures never abort the underlying arithmetic... degrade to absent
// provenance unless FailOnError is set".
type Config struct {
	Enabled             bool
	TrackLiterals       bool
	TrackOperations     bool
	TrackCalculations   bool
	TrackSpans          bool
	MaxHistoryDepth     int // 0 = unlimited
	GraphSizeLimit      int // 0 = unlimited, enforced at export time
	InternIDs           bool
	FailOnError         bool
}

// DefaultConfig enables every tracking toggle with no depth/size limits
// (InternIDs and FailOnError stay off), matching the
// behaviour implied by the worked examples in the design (every operation
// and literal produces a node).
var DefaultConfig = Config{
	Enabled:           true,
	TrackLiterals:     true,
	TrackOperations:   true,
	TrackCalculations: true,
	TrackSpans:        true,
}

// Disabled turns provenance off entirely; useful for hot paths that do not
// need lineage.
var Disabled = Config{}
