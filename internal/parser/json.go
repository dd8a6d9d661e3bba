package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/source"
)

// JSONParser reads jsonlog files: one JSON object per line
type JSONParser struct {
	base
}

// NewJSONParser wraps src
func NewJSONParser(src source.FileWithPath, cfg Config) *JSONParser {
	return &JSONParser{base: newBase(src, cfg)}
}

// Parse implements Parser
func (p *JSONParser) Parse(opts filter.Options) iter.Seq2[*domain.LogRecord, error] {
	return func(yield func(*domain.LogRecord, error) bool) {
		if !p.start() {
			yield(nil, ErrAlreadyConsumed)
			return
		}
		defer p.close()

		pl := filter.NewPipeline(opts)
		lines := newLineReader(p.src.File, maxLineBytes)

		line := 0
		for {
			text, tooLong, err := lines.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, p.readError(line+1, err, true))
				return
			}
			line++
			if tooLong {
				p.stats.Read++
				p.malformed(line, errLineTooLong)
				continue
			}
			data := bytes.TrimSpace(text)
			if len(data) == 0 {
				continue
			}
			p.stats.Read++

			if !gjson.ValidBytes(data) {
				p.malformed(line, errors.New("invalid JSON"))
				continue
			}
			doc := gjson.ParseBytes(data)
			if !doc.IsObject() {
				p.malformed(line, errors.New("expected a JSON object"))
				continue
			}
			sev := doc.Get("error_severity")
			if !sev.Exists() {
				p.malformed(line, errors.New("missing error_severity"))
				continue
			}

			raw := rawRecord{
				line:    line,
				token:   sev.String(),
				message: doc.Get("message").String(),
				rawTime: doc.Get("timestamp").String(),
				decode: func(rec *domain.LogRecord) error {
					fields, err := p.decode(doc)
					if err != nil {
						return err
					}
					rec.Fields = fields
					rec.Timestamp = fields.LogTime
					return nil
				},
			}

			rec, err := p.step(pl, raw)
			if rec == nil && err == nil {
				continue
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

func (p *JSONParser) decode(doc gjson.Result) (*domain.PostgresLog, error) {
	logTime, err := optionalTime(doc.Get("timestamp").String(), p.loc)
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	sessionStart, err := optionalTime(doc.Get("session_start").String(), p.loc)
	if err != nil {
		return nil, fmt.Errorf("session_start: %w", err)
	}

	str := func(key string) string { return doc.Get(key).String() }

	connFrom := str("remote_host")
	if port := str("remote_port"); port != "" && connFrom != "" {
		connFrom += ":" + port
	}

	var location string
	if fn := str("func_name"); fn != "" {
		location = fn
		if file := str("file_name"); file != "" {
			location = fmt.Sprintf("%s, %s:%d", fn, file, doc.Get("file_line_num").Int())
		}
	}

	return &domain.PostgresLog{
		LogTime:              logTime,
		UserName:             str("user"),
		DatabaseName:         str("dbname"),
		ProcessID:            int(doc.Get("pid").Int()),
		ConnectionFrom:       connFrom,
		SessionID:            str("session_id"),
		SessionLineNum:       doc.Get("line_num").Int(),
		CommandTag:           str("ps"),
		SessionStartTime:     sessionStart,
		VirtualTransactionID: str("vxid"),
		TransactionID:        doc.Get("txid").Int(),
		ErrorSeverity:        strings.TrimSpace(str("error_severity")),
		SQLStateCode:         str("state_code"),
		Message:              str("message"),
		Detail:               str("detail"),
		Hint:                 str("hint"),
		InternalQuery:        str("internal_query"),
		InternalQueryPos:     int(doc.Get("internal_position").Int()),
		Context:              str("context"),
		Query:                str("statement"),
		QueryPos:             int(doc.Get("cursor_position").Int()),
		Location:             location,
		ApplicationName:      str("application_name"),
		BackendType:          str("backend_type"),
		LeaderPID:            int(doc.Get("leader_pid").Int()),
		QueryID:              doc.Get("query_id").Int(),
	}, nil
}
