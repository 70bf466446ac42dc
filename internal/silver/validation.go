package silver

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fortuna/courtlake/internal/logger"
)

// Result collects the issues found in one converted artifact. Issues never block a write.
type Result struct {
	Source string   `json:"source"`
	Issues []string `json:"issues,omitempty"`
}

func (r *Result) Passed() bool { return len(r.Issues) == 0 }

func (r *Result) addf(format string, args ...interface{}) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

// MissingColumn records a required column absent from the payload.
func (r *Result) MissingColumn(name string) {
	r.addf("MISSING COLUMN: %s", name)
}

// Field names a nullable column of T.
type Field[T any] struct {
	Name   string
	IsNull func(T) bool
}

// Range bounds a numeric column of T. Nil bounds are open; null values are ignored.
type Range[T any] struct {
	Name  string
	Value func(T) *float64
	Min   *float64
	Max   *float64
}

// Contract declares the checks for one dataset.
type Contract[T any] struct {
	Dataset    string
	PrimaryKey []string
	Key        func(T) string
	Required   []Field[T]
	Ranges     []Range[T]
	MinRows    int
}

// Validate runs every check and returns the result for source.
func (c Contract[T]) Validate(source string, rows []T) *Result {
	res := &Result{Source: source}
	c.checkPKUnique(res, rows)
	c.checkNotNull(res, rows)
	c.checkMinRows(res, rows)
	for _, rg := range c.Ranges {
		checkRange(res, rows, rg)
	}
	return res
}

func (c Contract[T]) checkPKUnique(res *Result, rows []T) {
	if c.Key == nil {
		return
	}
	seen := make(map[string]struct{}, len(rows))
	dupes := 0
	for _, row := range rows {
		k := c.Key(row)
		if _, ok := seen[k]; ok {
			dupes++
			continue
		}
		seen[k] = struct{}{}
	}
	if dupes > 0 {
		res.addf("DUPLICATE PK: %d rows on [%s]", dupes, strings.Join(c.PrimaryKey, ", "))
	}
}

func (c Contract[T]) checkNotNull(res *Result, rows []T) {
	for _, f := range c.Required {
		nulls := 0
		for _, row := range rows {
			if f.IsNull(row) {
				nulls++
			}
		}
		if nulls > 0 {
			res.addf("NULL: %s has %d/%d nulls", f.Name, nulls, len(rows))
		}
	}
}

func (c Contract[T]) checkMinRows(res *Result, rows []T) {
	if len(rows) < c.MinRows {
		res.addf("ROW COUNT: %d rows (expected >=%d)", len(rows), c.MinRows)
	}
}

func checkRange[T any](res *Result, rows []T, rg Range[T]) {
	below, above := 0, 0
	for _, row := range rows {
		v := rg.Value(row)
		if v == nil {
			continue
		}
		if rg.Min != nil && *v < *rg.Min {
			below++
		}
		if rg.Max != nil && *v > *rg.Max {
			above++
		}
	}
	if below > 0 {
		res.addf("RANGE: %s has %d values below %g", rg.Name, below, *rg.Min)
	}
	if above > 0 {
		res.addf("RANGE: %s has %d values above %g", rg.Name, above, *rg.Max)
	}
}

// Between builds an inclusive range check.
func Between[T any](name string, value func(T) *float64, lo, hi float64) Range[T] {
	return Range[T]{Name: name, Value: value, Min: &lo, Max: &hi}
}

// AtLeast builds a range check with only a lower bound.
func AtLeast[T any](name string, value func(T) *float64, lo float64) Range[T] {
	return Range[T]{Name: name, Value: value, Min: &lo}
}

// Summary counts checked artifacts.
type Summary struct {
	Checked int `json:"checked"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
}

// Report accumulates validation results for one run. It is safe for concurrent use and
// is passed explicitly to whoever converts data; the orchestrator resets it between runs.
type Report struct {
	mu      sync.Mutex
	results []*Result
}

func NewReport() *Report {
	return &Report{}
}

// Add appends res. A nil report discards it.
func (r *Report) Add(res *Result) {
	if r == nil || res == nil {
		return
	}
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

func (r *Report) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{Checked: len(r.results)}
	for _, res := range r.results {
		if res.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// Failures returns the results with at least one issue, in insertion order.
func (r *Report) Failures() []*Result {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Result
	for _, res := range r.results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

// Reset drops every accumulated result.
func (r *Report) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.results = nil
	r.mu.Unlock()
}

// Log writes the pass/fail counts and every issue.
func (r *Report) Log(log *logger.Logger) {
	s := r.Summary()
	if s.Checked == 0 {
		return
	}
	log = logger.OrNop(log)
	if s.Failed == 0 {
		log.Info("data validation report", "checked", s.Checked, "passed", s.Passed, "failed", 0)
		return
	}
	log.Warn("data validation report", "checked", s.Checked, "passed", s.Passed, "failed", s.Failed)
	for _, res := range r.Failures() {
		for _, issue := range res.Issues {
			log.Warn("validation issue", "source", res.Source, "issue", issue)
		}
	}
}
