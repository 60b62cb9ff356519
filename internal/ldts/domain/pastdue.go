package domain

// PastDueRecord is one row of the bulk past-due report exchanged through
// spreadsheet import/export. Date columns are carried verbatim as strings;
// upstream workbooks mix serial dates and free-form text and the system is a
// pass-through for them.
type PastDueRecord struct {
	ID                string  `json:"id"`
	LoanAccountNo     string  `json:"loan_account_no"`
	DisbDate          string  `json:"disb_date,omitempty"`
	Funder            string  `json:"funder,omitempty"`
	TCAA              string  `json:"tcaa,omitempty"`
	WrittenOff        string  `json:"written_off,omitempty"`
	SMRDCollAgency    string  `json:"smrd_coll_agency,omitempty"`
	Region            string  `json:"region,omitempty"`
	Company           string  `json:"company,omitempty"`
	DivisionNo        string  `json:"division_no,omitempty"`
	StationNo         string  `json:"station_no,omitempty"`
	EmployeeID        string  `json:"employee_id,omitempty"`
	ClientName        string  `json:"client_name,omitempty"`
	PNValue           float64 `json:"pn_value"`
	PrincipalValue    float64 `json:"principal_value"`
	AmortAmt          float64 `json:"amort_amt"`
	OutPrinBal        float64 `json:"out_prin_bal"`
	LastPaymentDate   string  `json:"last_payment_date,omitempty"`
	FirstDueDate      string  `json:"first_due_date,omitempty"`
	MaturityDate      string  `json:"maturity_date,omitempty"`
	PastDue           float64 `json:"past_due"`
	ORB               float64 `json:"orb"`
	NFC               float64 `json:"nfc"`
	Penalty           float64 `json:"penalty"`
	TotalORB          float64 `json:"total_orb"`
	InterestDiscount1 float64 `json:"interest_discount_1"`
	InterestDiscount2 float64 `json:"interest_discount_2"`
	DiscountedORB1    float64 `json:"discounted_orb_1"`
	DiscountedORB2    float64 `json:"discounted_orb_2"`
	ReportAsOf        string  `json:"report_as_of,omitempty"`
}
