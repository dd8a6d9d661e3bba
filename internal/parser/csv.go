package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/source"
)

// csvlog column positions
const (
	colLogTime = iota
	colUserName
	colDatabaseName
	colProcessID
	colConnectionFrom
	colSessionID
	colSessionLineNum
	colCommandTag
	colSessionStartTime
	colVirtualTransactionID
	colTransactionID
	colErrorSeverity
	colSQLStateCode
	colMessage
	colDetail
	colHint
	colInternalQuery
	colInternalQueryPos
	colContext
	colQuery
	colQueryPos
	colLocation
	colApplicationName
	colBackendType // 13+
	colLeaderPID   // 14+
	colQueryID     // 14+
)

// minCSVColumns is the column count of the oldest supported csvlog layout
const minCSVColumns = colApplicationName + 1

// CSVParser reads csvlog files: no header, one quoted record per event,
// column count varying with the server version.
type CSVParser struct {
	base
}

// NewCSVParser wraps src
func NewCSVParser(src source.FileWithPath, cfg Config) *CSVParser {
	return &CSVParser{base: newBase(src, cfg)}
}

// Parse implements Parser
func (p *CSVParser) Parse(opts filter.Options) iter.Seq2[*domain.LogRecord, error] {
	return func(yield func(*domain.LogRecord, error) bool) {
		if !p.start() {
			yield(nil, ErrAlreadyConsumed)
			return
		}
		defer p.close()

		pl := filter.NewPipeline(opts)
		r := csv.NewReader(bufio.NewReader(p.src.File))
		r.FieldsPerRecord = -1

		lastLine := 0
		for {
			row, err := r.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if errors.As(err, &pe) {
					p.stats.Read++
					if !yield(nil, p.readError(pe.StartLine, pe, false)) {
						return
					}
					continue
				}
				yield(nil, p.readError(lastLine, err, true))
				return
			}

			p.stats.Read++
			line, _ := r.FieldPos(0)
			lastLine = line
			if len(row) <= colErrorSeverity {
				p.malformed(line, fmt.Errorf("expected at least %d columns, got %d", minCSVColumns, len(row)))
				continue
			}

			raw := rawRecord{
				line:    line,
				token:   row[colErrorSeverity],
				rawTime: row[colLogTime],
				decode: func(rec *domain.LogRecord) error {
					fields, err := decodeCSVRow(row, p.loc)
					if err != nil {
						return err
					}
					rec.Fields = fields
					rec.Timestamp = fields.LogTime
					return nil
				},
			}
			if len(row) > colMessage {
				raw.message = row[colMessage]
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

func decodeCSVRow(row []string, loc *time.Location) (*domain.PostgresLog, error) {
	if len(row) < minCSVColumns {
		return nil, fmt.Errorf("expected at least %d columns, got %d", minCSVColumns, len(row))
	}
	col := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	logTime, err := optionalTime(row[colLogTime], loc)
	if err != nil {
		return nil, fmt.Errorf("log_time: %w", err)
	}
	sessionStart, err := optionalTime(row[colSessionStartTime], loc)
	if err != nil {
		return nil, fmt.Errorf("session_start_time: %w", err)
	}

	ints := map[string]int64{}
	for name, i := range map[string]int{
		"process_id":         colProcessID,
		"session_line_num":   colSessionLineNum,
		"transaction_id":     colTransactionID,
		"internal_query_pos": colInternalQueryPos,
		"query_pos":          colQueryPos,
		"leader_pid":         colLeaderPID,
		"query_id":           colQueryID,
	} {
		n, err := optionalInt(name, col(i))
		if err != nil {
			return nil, err
		}
		ints[name] = n
	}

	return &domain.PostgresLog{
		LogTime:              logTime,
		UserName:             row[colUserName],
		DatabaseName:         row[colDatabaseName],
		ProcessID:            int(ints["process_id"]),
		ConnectionFrom:       row[colConnectionFrom],
		SessionID:            row[colSessionID],
		SessionLineNum:       ints["session_line_num"],
		CommandTag:           row[colCommandTag],
		SessionStartTime:     sessionStart,
		VirtualTransactionID: row[colVirtualTransactionID],
		TransactionID:        ints["transaction_id"],
		ErrorSeverity:        row[colErrorSeverity],
		SQLStateCode:         row[colSQLStateCode],
		Message:              row[colMessage],
		Detail:               row[colDetail],
		Hint:                 row[colHint],
		InternalQuery:        row[colInternalQuery],
		InternalQueryPos:     int(ints["internal_query_pos"]),
		Context:              row[colContext],
		Query:                row[colQuery],
		QueryPos:             int(ints["query_pos"]),
		Location:             row[colLocation],
		ApplicationName:      row[colApplicationName],
		BackendType:          col(colBackendType),
		LeaderPID:            int(ints["leader_pid"]),
		QueryID:              ints["query_id"],
	}, nil
}
