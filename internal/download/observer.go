package download

import "github.com/handiism/modfetch/internal/model"

// Observer receives batch events.
//
// All methods are called from a single goroutine owned by the Manager, in
// the order events were produced, so implementations need no locking of
// their own. OnItemBytes events may be dropped while the observer is busy;
// every other event is always delivered.
type Observer interface {
	// OnOutcome is called once per package, in completion order.
	OnOutcome(outcome model.Outcome)

	// OnProgress is called after every OnOutcome with the number of
	// packages finished so far.
	OnProgress(completed, total int)

	// OnItemBytes reports streaming progress of one package's file.
	// total is 0 when the size is unknown.
	OnItemBytes(name string, downloaded, total int64)

	// OnBatchComplete is called once after the last outcome with the names
	// of the packages that did not succeed, in modlist order.
	OnBatchComplete(failed []string)
}

// NopObserver ignores every event. Embed it to implement only some methods.
type NopObserver struct{}

func (NopObserver) OnOutcome(model.Outcome) {}
func (NopObserver) OnProgress(int, int) {}
func (NopObserver) OnItemBytes(string, int64, int64) {}
func (NopObserver) OnBatchComplete([]string) {}

type eventKind int

const (
	eventOutcome eventKind = iota
	eventBytes
)

// event is what workers hand to the consumer goroutine.
type event struct {
	kind eventKind

	// eventOutcome
	index   int
	outcome model.Outcome

	// eventBytes
	name       string
	downloaded int64
	total      int64
}
