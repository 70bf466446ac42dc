package bronze

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/gameday"
)

// FetchError aggregates the per-game failures of one date.
type FetchError struct {
	Date          gameday.Date
	FailedGameIDs []string
	Errs          []error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("bronze %s: %d game(s) failed: %s", e.Date, len(e.FailedGameIDs), strings.Join(e.FailedGameIDs, ", "))
}

func (e *FetchError) Unwrap() []error { return e.Errs }

// Class lets the date be retried as a whole; artifacts already stored are skipped next time.
// A throttled cause marks the whole date as throttled.
func (e *FetchError) Class() etlerr.Class {
	class := etlerr.Transient
	for _, err := range e.Errs {
		if etlerr.IsCancellation(err) {
			return etlerr.Fatal
		}
		if causeClass(err) == etlerr.Throttled {
			class = etlerr.Throttled
		}
	}
	return class
}

// causeClass classifies one game failure. Once the client gives up, the last
// upstream error sits beside ErrExhaustedRetries inside a Fatal wrapper.
func causeClass(err error) etlerr.Class {
	var classified *etlerr.Error
	if errors.Is(err, etlerr.ErrExhaustedRetries) && errors.As(err, &classified) {
		if multi, ok := classified.Err.(interface{ Unwrap() []error }); ok {
			for _, inner := range multi.Unwrap() {
				if !errors.Is(inner, etlerr.ErrExhaustedRetries) {
					return etlerr.Classify(inner)
				}
			}
		}
	}
	return etlerr.Classify(err)
}
