package enrichment

import (
	"time"

	"github.com/phrazzld/memo-tagger/internal/domain"
)

// Outcome is the terminal result of enriching a single memo.
type Outcome int

const (
	// OutcomeTagged means at least one real tag was committed.
	OutcomeTagged Outcome = iota
	// OutcomeUnclassified means the classifier returned no usable label and
	// the unclassified marker was committed.
	OutcomeUnclassified
	// OutcomeQuarantined means classification or commit failed and the
	// classification-error marker was committed.
	OutcomeQuarantined
	// OutcomeFailed means classification or commit failed and the memo
	// could not be marked either.
	OutcomeFailed
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeTagged:
		return "tagged"
	case OutcomeUnclassified:
		return "unclassified"
	case OutcomeQuarantined:
		return "quarantined"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer receives pipeline events. Implementations must be safe for
// concurrent use; ItemFinished is called from several goroutines at once.
type Observer interface {
	ItemFinished(outcome Outcome, elapsed time.Duration)
	BatchFinished(result domain.BatchResult, elapsed time.Duration)
	RunFinished(summary RunSummary)
}

// NopObserver discards every event.
type NopObserver struct{}

// ItemFinished implements Observer.
func (NopObserver) ItemFinished(Outcome, time.Duration) {}

// BatchFinished implements Observer.
func (NopObserver) BatchFinished(domain.BatchResult, time.Duration) {}

// RunFinished implements Observer.
func (NopObserver) RunFinished(RunSummary) {}
