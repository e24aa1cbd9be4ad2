package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
)

// QuoteMode selects how double quotes in the affiliatee chains file are treated.
type QuoteMode string

const (
	// QuoteRFC4180 honours quoting: a quoted field may contain commas and
	// escaped quotes.
	QuoteRFC4180 QuoteMode = "rfc4180"
	// QuoteStrip removes every double quote before splitting on commas and
	// newlines. A quoted field containing a comma is split in two.
	QuoteStrip QuoteMode = "strip"
)

// MalformedRowError reports a row that cannot be turned into an AffiliateRecord.
type MalformedRowError struct {
	Line   int
	Fields int
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d (%d fields): %s", e.Line, e.Fields, e.Reason)
}

func (e *MalformedRowError) Is(target error) bool {
	return target == model.ErrMalformedRow
}

type LoadOptions struct {
	QuoteMode       QuoteMode
	DuplicatePolicy model.DuplicatePolicy
}

// LoadAffiliates reads the affiliatee chains file at path.
func LoadAffiliates(path string, opts LoadOptions) (*model.AffiliateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrIO, path, err)
	}
	return ParseAffiliates(string(raw), opts)
}

// ParseAffiliates parses the affiliatee chains content. Each row is
// affiliate,chain...,trailing; the trailing field is dropped.
func ParseAffiliates(content string, opts LoadOptions) (*model.AffiliateTable, error) {
	if opts.DuplicatePolicy == "" {
		opts.DuplicatePolicy = model.DuplicateLastWriteWins
	}

	rows, err := splitRows(strings.TrimSpace(content), opts.QuoteMode)
	if err != nil {
		return nil, err
	}

	table := model.NewAffiliateTable()
	firstSeen := make(map[string]int, len(rows))
	for _, row := range rows {
		line, fields := row.line, row.fields
		record, err := recordFromFields(line, fields)
		if err != nil {
			return nil, err
		}
		if prev, dup := firstSeen[record.Account]; dup && opts.DuplicatePolicy == model.DuplicateReject {
			return nil, &MalformedRowError{
				Line:   line,
				Fields: len(fields),
				Reason: fmt.Sprintf("duplicate affiliate %q (first seen on line %d)", record.Account, prev),
			}
		}
		if _, dup := firstSeen[record.Account]; !dup {
			firstSeen[record.Account] = line
		}
		table.Put(record.Account, record.Chain)
	}
	return table, nil
}

type row struct {
	line   int
	fields []string
}

func splitRows(content string, mode QuoteMode) ([]row, error) {
	if content == "" {
		return nil, nil
	}

	switch mode {
	case QuoteStrip:
		content = strings.ReplaceAll(content, `"`, "")
		lines := strings.Split(content, "\n")
		rows := make([]row, 0, len(lines))
		for i, line := range lines {
			rows = append(rows, row{line: i + 1, fields: strings.Split(line, ",")})
		}
		return rows, nil

	case QuoteRFC4180, "":
		r := csv.NewReader(strings.NewReader(content))
		r.FieldsPerRecord = -1
		rows := make([]row, 0)
		for {
			fields, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					return nil, &MalformedRowError{Line: parseErr.StartLine, Reason: parseErr.Err.Error()}
				}
				return nil, fmt.Errorf("%w: parse csv: %w", model.ErrIO, err)
			}
			line, _ := r.FieldPos(0)
			rows = append(rows, row{line: line, fields: fields})
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("unsupported quote mode %q", mode)
	}
}

func recordFromFields(line int, fields []string) (model.AffiliateRecord, error) {
	if len(fields) < 2 {
		return model.AffiliateRecord{}, &MalformedRowError{
			Line:   line,
			Fields: len(fields),
			Reason: "need an affiliate id and a trailing field",
		}
	}
	account := strings.TrimSpace(fields[0])
	if account == "" {
		return model.AffiliateRecord{}, &MalformedRowError{
			Line:   line,
			Fields: len(fields),
			Reason: "empty affiliate id",
		}
	}

	chain := make([]string, 0, len(fields)-2)
	for _, f := range fields[1 : len(fields)-1] {
		chain = append(chain, strings.TrimSpace(f))
	}
	return model.AffiliateRecord{Account: account, Chain: chain}, nil
}
