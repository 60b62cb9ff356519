package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store"
	"github.com/loancollect/ldts/pkg/idx"
	"github.com/loancollect/ldts/pkg/slogx"
	"github.com/xuri/excelize/v2"
)

// Workbook layout constants. Upstream files carry a metadata line above the
// header, so the header sits on the second row and data starts on the third.
const (
	importHeaderRow = 1
	importDataRow   = 2
	importChunkSize = 500
)

var ErrNoReports = fmt.Errorf("no reports found")

// PastDueService imports and serves the bulk past-due report. Rows are a
// pass-through: dates stay strings, amounts are de-comma'd floats, and the
// caller's scope decides which rows they may see.
type PastDueService struct {
	Store store.Store

	// Now is the clock. Overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *PastDueService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Import reads an xlsx workbook and bulk-inserts its rows. Rows without a
// loan account number are dropped. The last four workbook columns are
// position-mapped onto the interest-discount and discounted-ORB fields
// because their header text changes between report cycles. Returns the
// number of rows stored.
func (s *PastDueService) Import(ctx context.Context, r io.Reader) (int, error) {
	l := slogx.FromContext(ctx)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, validationErrorf("unreadable workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return 0, validationErrorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, validationErrorf("unreadable workbook: %v", err)
	}
	if len(rows) <= importDataRow {
		return 0, validationErrorf("workbook has no data rows")
	}

	headers := make([]string, len(rows[importHeaderRow]))
	headerIndex := make(map[string]int, len(headers))
	for i, h := range rows[importHeaderRow] {
		h = strings.TrimSpace(h)
		headers[i] = h
		headerIndex[h] = i
	}
	if len(headers) < 4 {
		return 0, validationErrorf("workbook header row too short")
	}

	// The trailing four columns, in order: interest discount 1 and 2,
	// discounted ORB 1 and 2.
	dynamic := [4]int{len(headers) - 4, len(headers) - 3, len(headers) - 2, len(headers) - 1}

	reportAsOf := fmt.Sprintf("%d/%d/%d", int(s.now().Month()), s.now().Day(), s.now().Year())

	cell := func(row []string, header string) string {
		i, ok := headerIndex[header]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	at := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []domain.PastDueRecord
	for _, row := range rows[importDataRow:] {
		loanAccountNo := cell(row, "LOAN ACCOUNT NO.")
		if loanAccountNo == "" {
			continue
		}
		records = append(records, domain.PastDueRecord{
			ID:                idx.New().String(),
			LoanAccountNo:     loanAccountNo,
			DisbDate:          normalizeDate(cell(row, "DISB DATE")),
			Funder:            cell(row, "FUNDER"),
			TCAA:              cell(row, "TCAA"),
			WrittenOff:        cell(row, "WRITTEN OFF"),
			SMRDCollAgency:    cell(row, "SMRD (COLL AGENCY)"),
			Region:            cell(row, "REGION"),
			Company:           cell(row, "COMPANY"),
			DivisionNo:        cell(row, "DIVISION NO."),
			StationNo:         cell(row, "STATION NO."),
			EmployeeID:        cell(row, "EMPLOYEE ID"),
			ClientName:        cell(row, "CLIENT NAME"),
			PNValue:           parseAmount(cell(row, "PN VALUE")),
			PrincipalValue:    parseAmount(cell(row, "PRINCIPAL VALUE")),
			AmortAmt:          parseAmount(cell(row, "AMORT AMT")),
			OutPrinBal:        parseAmount(cell(row, "OUT PRIN BAL")),
			LastPaymentDate:   normalizeDate(cell(row, "LAST PYMNT. DATE")),
			FirstDueDate:      normalizeDate(cell(row, "FIRST DUE DATE")),
			MaturityDate:      normalizeDate(cell(row, "MATURITY")),
			PastDue:           parseAmount(cell(row, "(A) PAST DUE")),
			ORB:               parseAmount(cell(row, "(B) ORB")),
			NFC:               parseAmount(cell(row, "(C) NFC")),
			Penalty:           parseAmount(cell(row, "(D) PENALTY")),
			TotalORB:          parseAmount(cell(row, "(E) TOTAL ORB")),
			InterestDiscount1: parseAmount(at(row, dynamic[0])),
			InterestDiscount2: parseAmount(at(row, dynamic[1])),
			DiscountedORB1:    parseAmount(at(row, dynamic[2])),
			DiscountedORB2:    parseAmount(at(row, dynamic[3])),
			ReportAsOf:        reportAsOf,
		})
	}

	for start := 0; start < len(records); start += importChunkSize {
		end := min(start+importChunkSize, len(records))
		if err := s.Store.PastDue().InsertRecords(ctx, records[start:end]); err != nil {
			return 0, storeErr(err)
		}
	}

	l.Info("past due report imported",
		slog.Int("rows", len(records)), slog.String("report_as_of", reportAsOf))
	return len(records), nil
}

// List returns the rows visible to the principal per their derived scope.
// A NONE scope yields an empty set without touching the store.
func (s *PastDueService) List(ctx context.Context, p domain.Principal) ([]domain.PastDueRecord, error) {
	filter, visible := scopeFilter(ResolveScope(p))
	if !visible {
		return nil, nil
	}

	records, err := s.Store.PastDue().ListRecords(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}
	return records, nil
}

// Export writes the principal's visible rows as an xlsx workbook. Returns
// ErrNoReports when nothing is visible, so callers can 404 instead of
// shipping an empty file.
func (s *PastDueService) Export(ctx context.Context, p domain.Principal, w io.Writer) error {
	records, err := s.List(ctx, p)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNoReports
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "PastDueReports"
	f.SetSheetName("Sheet1", sheet)

	header := []any{
		"loan_account_no", "disb_date", "funder", "tcaa", "written_off",
		"smrd_coll_agency", "region", "company", "division_no", "station_no",
		"employee_id", "client_name", "pn_value", "principal_value", "amort_amt",
		"out_prin_bal", "last_payment_date", "first_due_date", "maturity_date",
		"past_due", "orb", "nfc", "penalty", "total_orb",
		"interest_discount_1", "interest_discount_2",
		"discounted_orb_1", "discounted_orb_2", "report_as_of",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range records {
		row := []any{
			rec.LoanAccountNo, rec.DisbDate, rec.Funder, rec.TCAA, rec.WrittenOff,
			rec.SMRDCollAgency, rec.Region, rec.Company, rec.DivisionNo, rec.StationNo,
			rec.EmployeeID, rec.ClientName, rec.PNValue, rec.PrincipalValue, rec.AmortAmt,
			rec.OutPrinBal, rec.LastPaymentDate, rec.FirstDueDate, rec.MaturityDate,
			rec.PastDue, rec.ORB, rec.NFC, rec.Penalty, rec.TotalORB,
			rec.InterestDiscount1, rec.InterestDiscount2,
			rec.DiscountedORB1, rec.DiscountedORB2, rec.ReportAsOf,
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// scopeFilter maps a visibility scope onto the store filter. The second
// return is false when the scope permits nothing.
func scopeFilter(sc domain.Scope) (store.PastDueFilter, bool) {
	switch sc.Level {
	case domain.ScopeAll:
		return store.PastDueFilter{}, true
	case domain.ScopeRegion:
		if sc.RegionID == nil {
			return store.PastDueFilter{}, false
		}
		return store.PastDueFilter{Region: strconv.FormatInt(*sc.RegionID, 10)}, true
	case domain.ScopeDivision:
		if sc.RegionID == nil || sc.DivisionID == nil {
			return store.PastDueFilter{}, false
		}
		return store.PastDueFilter{
			Region:     strconv.FormatInt(*sc.RegionID, 10),
			DivisionNo: strconv.FormatInt(*sc.DivisionID, 10),
		}, true
	default:
		return store.PastDueFilter{}, false
	}
}

// parseAmount strips thousands separators and parses a decimal amount.
// Anything unparseable maps to zero, matching the pass-through posture of
// the import.
func parseAmount(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeDate renders a bare Excel serial number as MM/DD/YYYY and passes
// anything else through trimmed. Serial 25569 is the Unix epoch.
func normalizeDate(s string) string {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	t := time.Unix(int64((serial-25569)*86400), 0).UTC()
	return fmt.Sprintf("%02d/%02d/%04d", int(t.Month()), t.Day(), t.Year())
}
