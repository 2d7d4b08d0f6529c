package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// fieldCount is the number of |-delimited fields in a sales-event line:
// timestamp|eventId|productName|price.
const fieldCount = 4

// Record is one parsed sales event. Timestamp and EventID are kept as
// raw strings; the aggregation only ever needs ProductName and Price.
type Record struct {
	Timestamp   string
	EventID     string
	ProductName string
	Price       float64
}

// ParseError describes a single malformed line. It is always recovered
// by the caller: the line is counted and skipped, never fatal.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse line %q: %s", e.Line, e.Reason)
}

// ParseLine parses one raw log line. Stateless, safe for concurrent use.
// Lines with the wrong field count or a price that is not a finite
// number come back as *ParseError.
func ParseLine(line string) (Record, error) {
	fields := strings.Split(line, "|")
	if len(fields) != fieldCount {
		return Record{}, &ParseError{
			Line:   line,
			Reason: fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)),
		}
	}

	price, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Record{}, &ParseError{Line: line, Reason: "price is not a number"}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Record{}, &ParseError{Line: line, Reason: "price is not finite"}
	}

	return Record{
		Timestamp:   fields[0],
		EventID:     fields[1],
		ProductName: fields[2],
		Price:       price,
	}, nil
}
