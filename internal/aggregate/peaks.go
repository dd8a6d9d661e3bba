package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// PeaksOptions tunes a Peaks aggregator
type PeaksOptions struct {
	// Severities to track. Empty means ERROR only.
	Severities []domain.Severity
	// Location for rendered bucket starts. Bucketing itself is absolute.
	Location *time.Location
}

// Peaks counts events per severity per fixed-width time bucket
type Peaks struct {
	interval Interval
	tracked  severitySet
	loc      *time.Location

	buckets map[domain.Severity]map[Bucket]Count
	untimed uint64
}

// NewPeaks creates an empty Peaks aggregator with the given bucket width
func NewPeaks(width time.Duration, opts PeaksOptions) (*Peaks, error) {
	iv, err := NewInterval(width)
	if err != nil {
		return nil, err
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Peaks{
		interval: iv,
		tracked:  newSeveritySet(opts.Severities, domain.SeverityError),
		loc:      loc,
		buckets:  make(map[domain.Severity]map[Bucket]Count),
	}, nil
}

func (p *Peaks) sealed() {}

// Kind implements Aggregator
func (p *Peaks) Kind() Kind { return KindPeaks }

// Interval returns the bucket width
func (p *Peaks) Interval() time.Duration { return p.interval.Width() }

// Tracked returns the tracked severities in rank order
func (p *Peaks) Tracked() []domain.Severity { return p.tracked.list() }

// Update counts rec in its bucket if its severity is tracked
func (p *Peaks) Update(rec *domain.LogRecord) error {
	if rec == nil || !p.tracked.has(rec.Severity) {
		return nil
	}
	ts, ok := rec.Time()
	if !ok {
		p.untimed = addTotal(p.untimed, 1)
		return nil
	}
	b, err := p.interval.Bucket(ts)
	if err != nil {
		return fmt.Errorf("%s:%d: %w", rec.Source, rec.Line, err)
	}
	p.add(rec.Severity, b, 1)
	return nil
}

func (p *Peaks) add(sev domain.Severity, b Bucket, n Count) {
	m, ok := p.buckets[sev]
	if !ok {
		m = make(map[Bucket]Count)
		p.buckets[sev] = m
	}
	m[b] = m[b].Add(n)
}

// Merge implements Aggregator
func (p *Peaks) Merge(other Aggregator) {
	o, ok := other.(*Peaks)
	if !ok || o == nil {
		panic(mismatch(p, other))
	}
	p.MergeFrom(o)
}

// MergeFrom adds o's counts into p. Both must share width and tracked set.
func (p *Peaks) MergeFrom(o *Peaks) {
	if o.interval != p.interval {
		err := mismatch(p, o)
		err.Reason = "bucket width " + o.interval.Width().String() + " != " + p.interval.Width().String()
		panic(err)
	}
	if o.tracked != p.tracked {
		err := mismatch(p, o)
		err.Reason = "tracked severities differ"
		panic(err)
	}
	for sev, src := range o.buckets {
		for b, n := range src {
			p.add(sev, b, n)
		}
	}
	p.untimed = addTotal(p.untimed, o.untimed)
}

// Clone implements Aggregator
func (p *Peaks) Clone() Aggregator {
	c := &Peaks{
		interval: p.interval,
		tracked:  p.tracked,
		loc:      p.loc,
		buckets:  make(map[domain.Severity]map[Bucket]Count, len(p.buckets)),
		untimed:  p.untimed,
	}
	for sev, src := range p.buckets {
		dst := make(map[Bucket]Count, len(src))
		for b, n := range src {
			dst[b] = n
		}
		c.buckets[sev] = dst
	}
	return c
}

// Count returns the count for one severity and bucket
func (p *Peaks) Count(sev domain.Severity, b Bucket) Count {
	return p.buckets[sev][b]
}

// Buckets returns the bucket keys of sev in ascending order
func (p *Peaks) Buckets(sev domain.Severity) []Bucket {
	keys := make([]Bucket, 0, len(p.buckets[sev]))
	for b := range p.buckets[sev] {
		keys = append(keys, b)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Untimed returns the number of tracked records without a timestamp
func (p *Peaks) Untimed() uint64 { return p.untimed }

// Equal compares state key by key, ignoring empty inner maps
func (p *Peaks) Equal(o *Peaks) bool {
	if p.interval != o.interval || p.tracked != o.tracked || p.untimed != o.untimed {
		return false
	}
	return sameCounts(p.buckets, o.buckets) && sameCounts(o.buckets, p.buckets)
}

func sameCounts(a, b map[domain.Severity]map[Bucket]Count) bool {
	for sev, m := range a {
		for k, n := range m {
			if b[sev][k] != n {
				return false
			}
		}
	}
	return true
}

// Render lists buckets by severity rank then start time, the per-severity
// totals, and the largest bucket of each severity (earliest on ties).
func (p *Peaks) Render() *domain.Report {
	r := domain.NewReport(string(KindPeaks))
	r.Interval = p.interval.Width().String()
	r.Untimed = p.untimed

	for _, sev := range domain.AllSeverities() {
		keys := p.Buckets(sev)
		if len(keys) == 0 {
			continue
		}
		var total uint64
		peak := domain.BucketCount{Severity: sev}
		for _, b := range keys {
			n := p.buckets[sev][b]
			row := domain.BucketCount{Severity: sev, Start: b.Time(p.loc), Count: uint32(n)}
			r.Buckets = append(r.Buckets, row)
			total = addTotal(total, uint64(n))
			if row.Count > peak.Count {
				peak = row
			}
		}
		r.Totals = append(r.Totals, domain.SeverityCount{Severity: sev, Count: total})
		r.Peaks = append(r.Peaks, peak)
	}
	return r
}
