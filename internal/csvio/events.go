package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
)

// Rows in the event ids and affiliatee chains files end with ",\n", which
// leaves an empty trailing field on every row. Fields are always quoted.
const rowTerminator = ",\n"

var eventAccountsHeader = []string{"affiliator", "affiliatee"}

// WriteEventIDs writes one event index per row.
func WriteEventIDs(path string, ids []string) error {
	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{id}
	}
	return writeFileAtomic(path, encodeRows(rows, rowTerminator))
}

// ReadEventIDs returns the first field of every non-empty row.
func ReadEventIDs(path string) ([]string, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, fields := range rows {
		if id := strings.TrimSpace(fields[0]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// WriteEventAccounts writes a header row followed by one affiliator,affiliatee
// row per event.
func WriteEventAccounts(path string, events []model.EventAccount) error {
	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, eventAccountsHeader)
	for _, ev := range events {
		rows = append(rows, []string{ev.Affiliator, ev.Affiliatee})
	}
	return writeFileAtomic(path, encodeRows(rows, "\n"))
}

// ReadEventAccounts reads a file written by WriteEventAccounts. Columns are
// located by header name.
func ReadEventAccounts(path string) ([]model.EventAccount, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	affiliatorCol, ok1 := col["affiliator"]
	affiliateeCol, ok2 := col["affiliatee"]
	if !ok1 || !ok2 {
		return nil, &MalformedRowError{Line: 1, Fields: len(rows[0]), Reason: "header must name affiliator and affiliatee"}
	}

	events := make([]model.EventAccount, 0, len(rows)-1)
	for i, fields := range rows[1:] {
		if len(fields) <= affiliatorCol || len(fields) <= affiliateeCol {
			return nil, &MalformedRowError{Line: i + 2, Fields: len(fields), Reason: "missing affiliator or affiliatee column"}
		}
		events = append(events, model.EventAccount{
			Affiliator: strings.TrimSpace(fields[affiliatorCol]),
			Affiliatee: strings.TrimSpace(fields[affiliateeCol]),
		})
	}
	return events, nil
}

// WriteAffiliateeChains writes affiliate,chain... rows in table order, each
// terminated by ",\n".
func WriteAffiliateeChains(path string, table *model.AffiliateTable) error {
	records := table.Records()
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = append([]string{rec.Account}, rec.Chain...)
	}
	return writeFileAtomic(path, encodeRows(rows, rowTerminator))
}

// encodeRows quotes every field and ends each row with terminator.
func encodeRows(rows [][]string, terminator string) []byte {
	var out bytes.Buffer
	for _, fields := range rows {
		for i, f := range fields {
			if i > 0 {
				out.WriteByte(',')
			}
			out.WriteByte('"')
			out.WriteString(strings.ReplaceAll(f, `"`, `""`))
			out.WriteByte('"')
		}
		out.WriteString(terminator)
	}
	return out.Bytes()
}

func readAll(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrIO, path, err)
	}
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedRowError{Line: parseErr.StartLine, Reason: parseErr.Err.Error()}
			}
			return nil, fmt.Errorf("%w: parse %s: %w", model.ErrIO, path, err)
		}
		rows = append(rows, fields)
	}
}
