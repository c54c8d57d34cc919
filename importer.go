package sproutbank

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// The importer replays a bank-export CSV through the ordinary deposit and
// withdraw primitives. Exports carry preamble lines before the real
// header and use a European decimal comma with a dollar prefix ("$253,89").

type StatementRow struct {
	Date        time.Time
	Description string
	Deposit     *decimal.Decimal
	Withdrawal  *decimal.Decimal
}

type ImportReport struct {
	Imported int
	Skipped  int
	Errors   []error
}

const csvHeaderPrefix = "Date,Description"

var csvDateLayouts = []string{
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006",
}

// ParseStatement reads an export, skipping everything before the header
// row. Rows without a parsable deposit or withdrawal are dropped.
func ParseStatement(r io.Reader) ([]StatementRow, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	headerIdx := -1
	for i, ln := range lines {
		if strings.HasPrefix(ln, csvHeaderPrefix) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("statement header row not found")
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines[headerIdx:], "\n")))
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, c := range header {
		col[strings.TrimSpace(c)] = i
	}

	var rows []StatementRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		date, ok := parseDate(field(rec, col, "Date"))
		if !ok {
			continue
		}
		dep := parseCurrency(field(rec, col, "Deposits"))
		wd := parseCurrency(field(rec, col, "Withdrawal"))
		if dep == nil && wd == nil {
			continue
		}
		rows = append(rows, StatementRow{
			Date:        date,
			Description: field(rec, col, "Description"),
			Deposit:     dep,
			Withdrawal:  wd,
		})
	}
	return rows, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCurrency handles values like "$7,00" and "$253,89": strip the
// dollar sign and quotes, then treat the comma as the decimal separator.
func parseCurrency(s string) *decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), `"`, ""))
	if s == "" {
		return nil
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

type Importer struct {
	svc Service
	log *zerolog.Logger
}

func NewImporter(svc Service, log *zerolog.Logger) *Importer {
	return &Importer{
		svc: svc,
		log: log,
	}
}

// Run replays rows oldest-first against the account. A failed row is
// recorded and skipped; it never aborts the batch.
func (im *Importer) Run(acctID snowflake.ID, rows []StatementRow) ImportReport {
	sorted := make([]StatementRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var rep ImportReport
	for _, row := range sorted {
		var err error
		switch {
		case row.Deposit != nil:
			_, err = im.svc.Deposit(ChargeReq{
				Amount: *row.Deposit,
				Note:   row.Description,
				AcctID: acctID,
			})
		case row.Withdrawal != nil:
			_, err = im.svc.Withdraw(ChargeReq{
				Amount: *row.Withdrawal,
				Note:   row.Description,
				AcctID: acctID,
			})
		}
		if err != nil {
			rep.Skipped++
			rep.Errors = append(rep.Errors, fmt.Errorf("row %s %q: %w", row.Date.Format("2006-01-02"), row.Description, err))
			im.log.Err(err).
				Str("date", row.Date.Format("2006-01-02")).
				Str("description", row.Description).
				Msg("import row failed")
			continue
		}
		rep.Imported++
	}
	return rep
}
