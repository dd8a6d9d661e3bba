package parser

import (
	"errors"
	"io"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/source"
)

// stderrPrefix matches the default log_line_prefix '%m [%p] ' followed by
// the "SEVERITY:  text" body.
var stderrPrefix = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?(?: ?[A-Za-z]+| ?[+-]\d{2}(?::?\d{2})?)?) \[(\d+)(?:-\d+)?\]\s+([A-Z][A-Z0-9]*):\s*(.*)$`,
)

// Secondary lines that belong to the preceding event
const (
	sectionDetail    = "DETAIL"
	sectionHint      = "HINT"
	sectionContext   = "CONTEXT"
	sectionStatement = "STATEMENT"
	sectionQuery     = "QUERY"
	sectionLocation  = "LOCATION"
)

func isSection(token string) bool {
	switch token {
	case sectionDetail, sectionHint, sectionContext, sectionStatement, sectionQuery, sectionLocation:
		return true
	}
	return false
}

// StderrParser reads the plain-text stderr log format. An event spans its
// header line, any secondary DETAIL/HINT/... lines and tab-indented
// continuation lines.
type StderrParser struct {
	base
}

// NewStderrParser wraps src
func NewStderrParser(src source.FileWithPath, cfg Config) *StderrParser {
	return &StderrParser{base: newBase(src, cfg)}
}

type stderrEvent struct {
	line     int
	rawTime  string
	pid      string
	token    string
	sections map[string]*strings.Builder
	last     *strings.Builder
}

func newStderrEvent(line int, m []string) *stderrEvent {
	ev := &stderrEvent{
		line:     line,
		rawTime:  m[1],
		pid:      m[2],
		token:    m[3],
		sections: make(map[string]*strings.Builder),
	}
	ev.section("", m[4])
	return ev
}

// section appends text to the named section; "" is the primary message
func (ev *stderrEvent) section(name, text string) {
	b, ok := ev.sections[name]
	if !ok {
		b = &strings.Builder{}
		ev.sections[name] = b
	} else {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	ev.last = b
}

func (ev *stderrEvent) continuation(text string) {
	ev.last.WriteByte('\n')
	ev.last.WriteString(text)
}

func (ev *stderrEvent) get(name string) string {
	if b, ok := ev.sections[name]; ok {
		return b.String()
	}
	return ""
}

// Parse implements Parser
func (p *StderrParser) Parse(opts filter.Options) iter.Seq2[*domain.LogRecord, error] {
	return func(yield func(*domain.LogRecord, error) bool) {
		if !p.start() {
			yield(nil, ErrAlreadyConsumed)
			return
		}
		defer p.close()

		pl := filter.NewPipeline(opts)
		lines := newLineReader(p.src.File, maxLineBytes)

		var pending *stderrEvent
		flush := func() bool {
			if pending == nil {
				return true
			}
			ev := pending
			pending = nil
			rec, err := p.step(pl, p.raw(ev))
			if rec == nil && err == nil {
				return true
			}
			return yield(rec, err)
		}

		line := 0
		for {
			b, tooLong, err := lines.next()
			if err == io.EOF {
				break
			}
			if err != nil {
				if flush() {
					yield(nil, p.readError(line+1, err, true))
				}
				return
			}
			line++
			if tooLong {
				p.stats.Read++
				p.malformed(line, errLineTooLong)
				continue
			}
			text := string(b)
			if strings.TrimSpace(text) == "" {
				continue
			}

			if m := stderrPrefix.FindStringSubmatch(text); m != nil {
				if pending != nil && isSection(m[3]) && m[2] == pending.pid {
					pending.section(m[3], m[4])
					continue
				}
				if !flush() {
					return
				}
				p.stats.Read++
				pending = newStderrEvent(line, m)
				continue
			}

			if pending != nil && (text[0] == '\t' || text[0] == ' ') {
				pending.continuation(strings.TrimLeft(text, " \t"))
				continue
			}

			p.stats.Read++
			p.malformed(line, errors.New("line does not match the log line prefix"))
		}
		flush()
	}
}

func (p *StderrParser) raw(ev *stderrEvent) rawRecord {
	return rawRecord{
		line:    ev.line,
		token:   ev.token,
		message: ev.get(""),
		rawTime: ev.rawTime,
		decode: func(rec *domain.LogRecord) error {
			ts, err := parseTimestamp(ev.rawTime, p.loc)
			if err != nil {
				return err
			}
			pid, err := strconv.Atoi(ev.pid)
			if err != nil {
				return err
			}
			rec.Timestamp = &ts
			rec.Fields = &domain.PostgresLog{
				LogTime:       &ts,
				ProcessID:     pid,
				ErrorSeverity: ev.token,
				Message:       ev.get(""),
				Detail:        ev.get(sectionDetail),
				Hint:          ev.get(sectionHint),
				InternalQuery: ev.get(sectionQuery),
				Context:       ev.get(sectionContext),
				Query:         ev.get(sectionStatement),
				Location:      ev.get(sectionLocation),
			}
			return nil
		},
	}
}
