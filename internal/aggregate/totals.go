package aggregate

import "github.com/vburojevic/pgpeaks/internal/domain"

// Totals counts admitted records per severity
type Totals struct {
	tracked severitySet
	counts  [domain.NumSeverities]uint64
}

// NewTotals creates an empty Totals. With no severities, all are tracked.
func NewTotals(severities ...domain.Severity) *Totals {
	return &Totals{tracked: newSeveritySet(severities, domain.AllSeverities()...)}
}

func (t *Totals) sealed() {}

// Kind implements Aggregator
func (t *Totals) Kind() Kind { return KindTotals }

// Update implements Aggregator
func (t *Totals) Update(rec *domain.LogRecord) error {
	if rec == nil || !t.tracked.has(rec.Severity) {
		return nil
	}
	t.counts[rec.Severity] = addTotal(t.counts[rec.Severity], 1)
	return nil
}

// Merge implements Aggregator
func (t *Totals) Merge(other Aggregator) {
	o, ok := other.(*Totals)
	if !ok || o == nil {
		panic(mismatch(t, other))
	}
	t.MergeFrom(o)
}

// MergeFrom adds o's counts into t
func (t *Totals) MergeFrom(o *Totals) {
	if o.tracked != t.tracked {
		err := mismatch(t, o)
		err.Reason = "tracked severities differ"
		panic(err)
	}
	for i, n := range o.counts {
		t.counts[i] = addTotal(t.counts[i], n)
	}
}

// Clone implements Aggregator. The state is a value array, so a shallow copy
// is independent.
func (t *Totals) Clone() Aggregator {
	c := *t
	return &c
}

// Count returns the total for sev
func (t *Totals) Count(sev domain.Severity) uint64 {
	if !sev.Valid() {
		return 0
	}
	return t.counts[sev]
}

// Render implements Aggregator
func (t *Totals) Render() *domain.Report {
	r := domain.NewReport(string(KindTotals))
	for i, n := range t.counts {
		if n == 0 {
			continue
		}
		r.Totals = append(r.Totals, domain.SeverityCount{Severity: domain.Severity(i), Count: n})
	}
	return r
}
