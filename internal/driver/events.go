package driver

// Status describes where one file is in the analysis pipeline.
type Status uint8

const (
	StatusQueued Status = iota
	StatusAnalyzing
	StatusCached
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusAnalyzing:
		return "analyzing"
	case StatusCached:
		return "cached"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	}
	return ""
}

// Event is one progress notification. Events for different files may arrive
// interleaved; consumers key on File.
type Event struct {
	File     string
	Status   Status
	Findings int
}
