package envelope

import (
	"bufio"
	"io"
	"strconv"

	"github.com/goccy/go-json"
)

// CSVHeader is the export header line, byte-for-byte as the reporting export tool writes it.
const CSVHeader = "timestamp,timestampType,partition,offset,key,value,headers,exceededFields"

// CSVRow renders the envelope as one export line (without trailing newline).
//
// key and value are JSON documents wrapped in double quotes with no inner escaping, the same
// as the platform's own export. headers is the literal token [] and exceededFields is empty.
func (e Envelope) CSVRow() (string, error) {
	key, err := json.Marshal(e.Key)
	if err != nil {
		return "", err
	}
	value, err := json.Marshal(e.Value)
	if err != nil {
		return "", err
	}

	b := make([]byte, 0, len(key)+len(value)+64)
	b = strconv.AppendInt(b, e.Timestamp, 10)
	b = append(b, ',')
	b = append(b, e.TimestampType...)
	b = append(b, ',')
	b = strconv.AppendInt(b, int64(e.Partition), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, e.Offset, 10)
	b = append(b, ',', '"')
	b = append(b, key...)
	b = append(b, '"', ',', '"')
	b = append(b, value...)
	b = append(b, '"', ',', '[', ']', ',')
	return string(b), nil
}

// CSVWriter streams an export document. The header is written once, before the first row
// (or on Flush when there are no rows).
type CSVWriter struct {
	w           *bufio.Writer
	wroteHeader bool
	rows        int
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

func (c *CSVWriter) writeHeader() error {
	if c.wroteHeader {
		return nil
	}
	c.wroteHeader = true
	_, err := c.w.WriteString(CSVHeader)
	return err
}

// Write appends one row. Rows are newline-separated; the document has no trailing newline.
func (c *CSVWriter) Write(e Envelope) error {
	row, err := e.CSVRow()
	if err != nil {
		return err
	}
	if err := c.writeHeader(); err != nil {
		return err
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := c.w.WriteString(row); err != nil {
		return err
	}
	c.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (c *CSVWriter) Rows() int { return c.rows }

func (c *CSVWriter) Flush() error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	return c.w.Flush()
}
