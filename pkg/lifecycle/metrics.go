package lifecycle

// Load outcomes reported to a Recorder.
const (
	LoadRebuilt   LoadResult = "rebuilt"
	LoadUnchanged LoadResult = "unchanged"
	LoadInvalid   LoadResult = "invalid"
	LoadFailed    LoadResult = "failed"
)

// Mutation outcomes reported to a Recorder.
const (
	MutationApplied = "applied"
	MutationSkipped = "skipped"
)

// Mutation kinds.
const (
	MutationChoices = "choices"
	MutationText    = "text"
)

// LoadResult classifies one Load call.
type LoadResult string

// Recorder observes controller activity.
type Recorder interface {
	ObserveLoad(result string)
	ObserveMutation(kind, result string)
	ObserveEmit(name string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveLoad(string)             {}
func (noopRecorder) ObserveMutation(string, string) {}
func (noopRecorder) ObserveEmit(string)             {}
