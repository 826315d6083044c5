package metrics

import "testing"

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if Handler() == nil {
		t.Fatal("expected a metrics handler")
	}

	// Observers must not panic once initialized.
	ObservePage(200)
	ObserveFetchError()
	ObservePersistError()
	ObserveClaim()
	ObserveClaimError()
	ObserveLinksEnqueued(3)
	IncBusyWorkers()
	DecBusyWorkers()
}
