package sqlite

import (
	"context"
	"strings"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store"
)

type pastDueRepo struct {
	db dbtx
}

const pastDueColumns = `id, loan_account_no, disb_date, funder, tcaa, written_off,
	smrd_coll_agency, region, company, division_no, station_no, employee_id,
	client_name, pn_value, principal_value, amort_amt, out_prin_bal,
	last_payment_date, first_due_date, maturity_date, past_due, orb, nfc,
	penalty, total_orb, interest_discount_1, interest_discount_2,
	discounted_orb_1, discounted_orb_2, report_as_of`

func (r *pastDueRepo) InsertRecords(ctx context.Context, records []domain.PastDueRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Multi-row VALUES keeps bulk import round trips down. Callers already
	// chunk batches, so the placeholder count stays within SQLite limits.
	var sb strings.Builder
	sb.WriteString(`INSERT INTO past_due_reports (` + pastDueColumns + `) VALUES `)
	args := make([]any, 0, len(records)*30)
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			rec.ID, rec.LoanAccountNo, rec.DisbDate, rec.Funder, rec.TCAA, rec.WrittenOff,
			rec.SMRDCollAgency, rec.Region, rec.Company, rec.DivisionNo, rec.StationNo, rec.EmployeeID,
			rec.ClientName, rec.PNValue, rec.PrincipalValue, rec.AmortAmt, rec.OutPrinBal,
			rec.LastPaymentDate, rec.FirstDueDate, rec.MaturityDate, rec.PastDue, rec.ORB, rec.NFC,
			rec.Penalty, rec.TotalORB, rec.InterestDiscount1, rec.InterestDiscount2,
			rec.DiscountedORB1, rec.DiscountedORB2, rec.ReportAsOf,
		)
	}

	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *pastDueRepo) ListRecords(ctx context.Context, filter store.PastDueFilter) ([]domain.PastDueRecord, error) {
	query := `SELECT ` + pastDueColumns + ` FROM past_due_reports`
	var conds []string
	var args []any
	if filter.Region != "" {
		conds = append(conds, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.DivisionNo != "" {
		conds = append(conds, "division_no = ?")
		args = append(args, filter.DivisionNo)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PastDueRecord
	for rows.Next() {
		var rec domain.PastDueRecord
		if err := rows.Scan(
			&rec.ID, &rec.LoanAccountNo, &rec.DisbDate, &rec.Funder, &rec.TCAA, &rec.WrittenOff,
			&rec.SMRDCollAgency, &rec.Region, &rec.Company, &rec.DivisionNo, &rec.StationNo, &rec.EmployeeID,
			&rec.ClientName, &rec.PNValue, &rec.PrincipalValue, &rec.AmortAmt, &rec.OutPrinBal,
			&rec.LastPaymentDate, &rec.FirstDueDate, &rec.MaturityDate, &rec.PastDue, &rec.ORB, &rec.NFC,
			&rec.Penalty, &rec.TotalORB, &rec.InterestDiscount1, &rec.InterestDiscount2,
			&rec.DiscountedORB1, &rec.DiscountedORB2, &rec.ReportAsOf,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
