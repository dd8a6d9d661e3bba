package aggregate

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// Precompiled regexes for message normalization
var (
	uuidRegex    = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	hexAddrRegex = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	numberRegex  = regexp.MustCompile(`\d+`)
	quotedRegex  = regexp.MustCompile(`"[^"]*"`)
)

const (
	maxPatternLen   = 100
	defaultTopLimit = 10
)

// normalizeMessage removes variable parts to group similar messages
func normalizeMessage(msg string) string {
	msg = uuidRegex.ReplaceAllString(msg, "<uuid>")
	msg = hexAddrRegex.ReplaceAllString(msg, "<addr>")
	msg = quotedRegex.ReplaceAllString(msg, `"<s>"`)
	msg = numberRegex.ReplaceAllString(msg, "<n>")
	msg = strings.TrimSpace(msg)

	if len(msg) > maxPatternLen {
		cut := maxPatternLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}

type patternState struct {
	count  Count
	sample string
}

// Patterns counts recurring normalized messages
type Patterns struct {
	tracked severitySet
	top     int
	seen    map[string]patternState
}

// NewPatterns creates an empty Patterns aggregator rendering at most top
// patterns. With no severities, ERROR and above are tracked.
func NewPatterns(top int, severities ...domain.Severity) *Patterns {
	if top <= 0 {
		top = defaultTopLimit
	}
	return &Patterns{
		tracked: newSeveritySet(severities, domain.SeverityError, domain.SeverityFatal, domain.SeverityPanic),
		top:     top,
		seen:    make(map[string]patternState),
	}
}

func (p *Patterns) sealed() {}

// Kind implements Aggregator
func (p *Patterns) Kind() Kind { return KindPatterns }

// Update implements Aggregator
func (p *Patterns) Update(rec *domain.LogRecord) error {
	if rec == nil || !p.tracked.has(rec.Severity) {
		return nil
	}
	p.add(normalizeMessage(rec.Message), patternState{count: 1, sample: rec.Message})
	return nil
}

// add keeps the smallest sample so the result does not depend on merge order
func (p *Patterns) add(pattern string, st patternState) {
	cur, ok := p.seen[pattern]
	if !ok {
		p.seen[pattern] = st
		return
	}
	cur.count = cur.count.Add(st.count)
	if st.sample < cur.sample {
		cur.sample = st.sample
	}
	p.seen[pattern] = cur
}

// Merge implements Aggregator
func (p *Patterns) Merge(other Aggregator) {
	o, ok := other.(*Patterns)
	if !ok || o == nil {
		panic(mismatch(p, other))
	}
	p.MergeFrom(o)
}

// MergeFrom adds o's patterns into p
func (p *Patterns) MergeFrom(o *Patterns) {
	if o.tracked != p.tracked {
		err := mismatch(p, o)
		err.Reason = "tracked severities differ"
		panic(err)
	}
	for pattern, st := range o.seen {
		p.add(pattern, st)
	}
}

// Clone implements Aggregator
func (p *Patterns) Clone() Aggregator {
	c := &Patterns{tracked: p.tracked, top: p.top, seen: make(map[string]patternState, len(p.seen))}
	for k, v := range p.seen {
		c.seen[k] = v
	}
	return c
}

// Count returns the count for a normalized pattern
func (p *Patterns) Count(pattern string) Count {
	return p.seen[pattern].count
}

// Len returns the number of distinct patterns
func (p *Patterns) Len() int { return len(p.seen) }

// Render returns the top patterns by count, ties broken by pattern text
func (p *Patterns) Render() *domain.Report {
	r := domain.NewReport(string(KindPatterns))

	rows := make([]domain.PatternCount, 0, len(p.seen))
	for pattern, st := range p.seen {
		rows = append(rows, domain.PatternCount{Pattern: pattern, Count: uint32(st.count), Sample: st.sample})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Pattern < rows[j].Pattern
	})
	if len(rows) > p.top {
		rows = rows[:p.top]
	}
	r.Patterns = rows
	return r
}
