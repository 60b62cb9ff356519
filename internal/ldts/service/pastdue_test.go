package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var importHeaders = []any{
	"LOAN ACCOUNT NO.", "DISB DATE", "FUNDER", "TCAA", "WRITTEN OFF",
	"SMRD (COLL AGENCY)", "REGION", "COMPANY", "DIVISION NO.", "STATION NO.",
	"EMPLOYEE ID", "CLIENT NAME", "PN VALUE", "PRINCIPAL VALUE", "AMORT AMT",
	"OUT PRIN BAL", "LAST PYMNT. DATE", "FIRST DUE DATE", "MATURITY",
	"(A) PAST DUE", "(B) ORB", "(C) NFC", "(D) PENALTY", "(E) TOTAL ORB",
	"INT DISC 30%", "INT DISC 50%", "DISC ORB 30%", "DISC ORB 50%",
}

// buildWorkbook lays out the upstream shape: a metadata line, then the
// header row, then data.
func buildWorkbook(t *testing.T, dataRows [][]any) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"PAST DUE REPORT AS OF TODAY"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &importHeaders))
	for i, row := range dataRows {
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+3), &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func dataRow(loanAccountNo, region, divisionNo string) []any {
	return []any{
		loanAccountNo, "01/15/2024", "FUNDER-A", "", "", "AG-1",
		region, "CO-1", divisionNo, "ST-9", "EMP-7", "DOE, JANE",
		"1,500.00", "1,200.00", "100.00", "900.00",
		"02/01/2026", "02/15/2024", "01/15/2027",
		"300.00", "600.00", "50.00", "25.00", "975.00",
		"10.00", "20.00", "965.00", "955.00",
	}
}

func newTestPastDue(t *testing.T) *PastDueService {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return &PastDueService{Store: st}
}

func TestPastDueImport(t *testing.T) {
	svc := newTestPastDue(t)
	ctx := context.Background()

	wb := buildWorkbook(t, [][]any{
		dataRow("LA-001", "4", "17"),
		dataRow("LA-002", "5", "21"),
		{"", "skipped: no loan account"},
		dataRow("LA-003", "4", "18"),
	})

	n, err := svc.Import(ctx, wb)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	admin := domain.Principal{UserType: domain.UserTypeAdmin}
	records, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, records, 3)

	rec := records[0]
	require.Equal(t, "LA-001", rec.LoanAccountNo)
	require.Equal(t, "01/15/2024", rec.DisbDate)
	require.Equal(t, 1500.0, rec.PNValue)
	require.Equal(t, 975.0, rec.TotalORB)

	// Trailing dynamic columns land on the discount fields regardless of
	// their header text.
	require.Equal(t, 10.0, rec.InterestDiscount1)
	require.Equal(t, 20.0, rec.InterestDiscount2)
	require.Equal(t, 965.0, rec.DiscountedORB1)
	require.Equal(t, 955.0, rec.DiscountedORB2)
	require.NotEmpty(t, rec.ReportAsOf)
}

func TestPastDueImportRejectsMalformed(t *testing.T) {
	svc := newTestPastDue(t)
	ctx := context.Background()

	t.Run("not a workbook", func(t *testing.T) {
		_, err := svc.Import(ctx, bytes.NewReader([]byte("plain text")))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("no data rows", func(t *testing.T) {
		_, err := svc.Import(ctx, buildWorkbook(t, nil))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestPastDueListScoping(t *testing.T) {
	svc := newTestPastDue(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, buildWorkbook(t, [][]any{
		dataRow("LA-001", "4", "17"),
		dataRow("LA-002", "4", "18"),
		dataRow("LA-003", "5", "17"),
	}))
	require.NoError(t, err)

	t.Run("region scope sees its region only", func(t *testing.T) {
		sd := domain.Principal{UserType: domain.UserTypeSD, RegionID: ptr(4)}
		records, err := svc.List(ctx, sd)
		require.NoError(t, err)
		require.Len(t, records, 2)
	})

	t.Run("division scope narrows further", func(t *testing.T) {
		fc := domain.Principal{UserType: domain.UserTypeFC, RegionID: ptr(4), DivisionID: ptr(17)}
		records, err := svc.List(ctx, fc)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "LA-001", records[0].LoanAccountNo)
	})

	t.Run("no scope sees nothing", func(t *testing.T) {
		records, err := svc.List(ctx, domain.Principal{})
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("division scope without ids sees nothing", func(t *testing.T) {
		fc := domain.Principal{UserType: domain.UserTypeFC, RegionID: ptr(4)}
		records, err := svc.List(ctx, fc)
		require.NoError(t, err)
		require.Empty(t, records)
	})
}

func TestPastDueExport(t *testing.T) {
	svc := newTestPastDue(t)
	ctx := context.Background()

	admin := domain.Principal{UserType: domain.UserTypeAdmin}

	t.Run("empty store exports nothing", func(t *testing.T) {
		var buf bytes.Buffer
		err := svc.Export(ctx, admin, &buf)
		require.ErrorIs(t, err, ErrNoReports)
	})

	_, err := svc.Import(ctx, buildWorkbook(t, [][]any{
		dataRow("LA-001", "4", "17"),
		dataRow("LA-002", "5", "21"),
	}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, admin, &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("PastDueReports")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two records
	require.Equal(t, "loan_account_no", rows[0][0])
	require.Equal(t, "LA-001", rows[1][0])
}
