package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// maxLineBytes bounds one jsonlog or stderr line
const maxLineBytes = 1024 * 1024

// errLineTooLong is reported for a line over the limit. The rest of the line
// is discarded and reading resumes at the next one.
var errLineTooLong = fmt.Errorf("line longer than %d bytes", maxLineBytes)

// lineReader frames newline-terminated lines with a length limit
type lineReader struct {
	r   *bufio.Reader
	buf []byte
	max int
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), max: max}
}

// next returns the next line without its terminator. The slice is valid
// until the following call. tooLong reports a line whose content was
// dropped. err is io.EOF once the input is exhausted.
func (lr *lineReader) next() (line []byte, tooLong bool, err error) {
	lr.buf = lr.buf[:0]
	seen := 0
	for {
		chunk, rerr := lr.r.ReadSlice('\n')
		seen += len(chunk)
		n := len(chunk)
		if rerr == nil {
			n--
		}
		if !tooLong {
			if len(lr.buf)+n > lr.max {
				tooLong = true
				lr.buf = lr.buf[:0]
			} else {
				lr.buf = append(lr.buf, chunk[:n]...)
			}
		}

		switch {
		case rerr == bufio.ErrBufferFull:
			continue
		case rerr == io.EOF:
			if seen == 0 {
				return nil, false, io.EOF
			}
		case rerr != nil:
			return nil, false, rerr
		}
		if tooLong {
			return nil, true, nil
		}
		return bytes.TrimSuffix(lr.buf, []byte("\r")), false, nil
	}
}
