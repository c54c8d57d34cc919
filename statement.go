package sproutbank

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// Statement renders the account's ledger, newest first, as a PDF.
func (s *serviceImpl) Statement(w io.Writer, req StatementReq) error {
	acct, err := s.getAccount(req.AcctID)
	if err != nil {
		return err
	}
	txns, err := s.repo.ListTransactions(req.AcctID)
	if err != nil {
		return storageErr(err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Account statement: %s", acct.Name))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Balance: %s", acct.Balance.StringFixed(2)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 8, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Kind", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Amount", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Balance", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 8, "Note", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, txn := range txns {
		pdf.CellFormat(40, 7, txn.Timestamp.Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, string(txn.Kind), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, txn.Amount.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, txn.BalanceAfter.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 7, txn.Note, "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
