package dto

import (
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	LoanNumber       string  `json:"loanNumber,omitempty"`
	MemberID         int64   `json:"memberId"`
	SocietyID        int64   `json:"societyId"`
	OfficerID        int64   `json:"officerId,omitempty"`
	ProductID        int64   `json:"productId"`
	Amount           string  `json:"amount" example:"12000.00"`
	InterestRate     string  `json:"interestRate" example:"12"`
	TenureMonths     int     `json:"tenureMonths" example:"12"`
	MonthlySavings   *string `json:"monthlySavings,omitempty" example:"200.00"`
	DisbursementDate string  `json:"disbursementDate,omitempty" example:"2024-01-10"`
	FirstDueDate     string  `json:"firstDueDate" example:"2024-02-10"`
}

// ToParams converts the request into service parameters. Range checks on
// the schedule terms are left to the service.
func (r *CreateLoanRequest) ToParams() (loan.CreateLoanParams, error) {
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return loan.CreateLoanParams{}, err
	}
	rate, err := parseDecimal("interestRate", r.InterestRate)
	if err != nil {
		return loan.CreateLoanParams{}, err
	}
	firstDue, err := parseDate("firstDueDate", r.FirstDueDate)
	if err != nil {
		return loan.CreateLoanParams{}, err
	}

	p := loan.CreateLoanParams{
		LoanNumber:   strings.TrimSpace(r.LoanNumber),
		MemberID:     r.MemberID,
		SocietyID:    r.SocietyID,
		OfficerID:    r.OfficerID,
		ProductID:    r.ProductID,
		Amount:       amount,
		InterestRate: rate,
		TenureMonths: r.TenureMonths,
		FirstDueDate: firstDue,
	}
	if r.MonthlySavings != nil {
		savings, err := parseDecimal("monthlySavings", *r.MonthlySavings)
		if err != nil {
			return loan.CreateLoanParams{}, err
		}
		p.MonthlySavings = &savings
	}
	if r.DisbursementDate != "" {
		if p.DisbursementDate, err = parseDate("disbursementDate", r.DisbursementDate); err != nil {
			return loan.CreateLoanParams{}, err
		}
	}
	return p, nil
}

type PreviewScheduleRequest struct {
	Amount         string `json:"amount" example:"12000.00"`
	InterestRate   string `json:"interestRate" example:"12"`
	TenureMonths   int    `json:"tenureMonths" example:"12"`
	MonthlySavings string `json:"monthlySavings,omitempty" example:"200.00"`
	FirstDueDate   string `json:"firstDueDate" example:"2024-02-10"`
}

func (r *PreviewScheduleRequest) ToInput() (loan.ScheduleInput, error) {
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return loan.ScheduleInput{}, err
	}
	rate, err := parseDecimal("interestRate", r.InterestRate)
	if err != nil {
		return loan.ScheduleInput{}, err
	}
	savings := decimal.Zero
	if r.MonthlySavings != "" {
		if savings, err = parseDecimal("monthlySavings", r.MonthlySavings); err != nil {
			return loan.ScheduleInput{}, err
		}
	}
	firstDue, err := parseDate("firstDueDate", r.FirstDueDate)
	if err != nil {
		return loan.ScheduleInput{}, err
	}
	return loan.ScheduleInput{
		Amount:         amount,
		AnnualRate:     rate,
		TenureMonths:   r.TenureMonths,
		MonthlySavings: savings,
		FirstDueDate:   firstDue,
	}, nil
}

type MakePaymentRequest struct {
	Amount        string `json:"amount" example:"1320.00"`
	Method        string `json:"paymentMethod,omitempty" example:"CASH"`
	ReceiptNumber string `json:"receiptNumber,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
	PaymentDate   string `json:"paymentDate,omitempty" example:"2024-02-10"`
}

func (r *MakePaymentRequest) ToParams(loanID int64, processedBy *int64) (loan.MakePaymentParams, error) {
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return loan.MakePaymentParams{}, err
	}
	p := loan.MakePaymentParams{
		LoanID:        loanID,
		Amount:        amount,
		Method:        loan.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.Method))),
		ReceiptNumber: strings.TrimSpace(r.ReceiptNumber),
		ProcessedBy:   processedBy,
		Remarks:       r.Remarks,
	}
	if r.PaymentDate != "" {
		if p.AsOf, err = parseDate("paymentDate", r.PaymentDate); err != nil {
			return loan.MakePaymentParams{}, err
		}
	}
	return p, nil
}

type LoanResponse struct {
	ID                   int64                 `json:"id"`
	LoanNumber           string                `json:"loanNumber"`
	MemberID             int64                 `json:"memberId"`
	SocietyID            int64                 `json:"societyId"`
	OfficerID            int64                 `json:"officerId"`
	ProductID            int64                 `json:"productId"`
	Amount               string                `json:"amount"`
	InterestRate         string                `json:"interestRate"`
	TenureMonths         int                   `json:"tenureMonths"`
	MonthlySavings       string                `json:"monthlySavings"`
	DisbursementDate     string                `json:"disbursementDate"`
	FirstDueDate         string                `json:"firstDueDate"`
	LastDueDate          string                `json:"lastDueDate"`
	TotalInterest        string                `json:"totalInterest"`
	TotalPayable         string                `json:"totalPayable"`
	OutstandingPrincipal string                `json:"outstandingPrincipal"`
	OutstandingInterest  string                `json:"outstandingInterest"`
	Status               string                `json:"status"`
	ClearedByOfficial    bool                  `json:"clearedByOfficial"`
	ClearedBy            *int64                `json:"clearedBy,omitempty"`
	ClearedAt            *time.Time            `json:"clearedAt,omitempty"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
	Schedule             []InstallmentResponse `json:"schedule,omitempty"`
}

type InstallmentResponse struct {
	ID                int64   `json:"id,omitempty"`
	InstallmentNumber int     `json:"installmentNumber"`
	DueDate           string  `json:"dueDate"`
	OpeningBalance    string  `json:"openingBalance"`
	PrincipalAmount   string  `json:"principalAmount"`
	InterestAmount    string  `json:"interestAmount"`
	SavingsAmount     string  `json:"savingsAmount"`
	TotalInstallment  string  `json:"totalInstallment"`
	ClosingBalance    string  `json:"closingBalance"`
	PenaltyApplied    string  `json:"penaltyApplied"`
	PenaltyPaid       string  `json:"penaltyPaid"`
	InterestPaid      string  `json:"interestPaid"`
	PrincipalPaid     string  `json:"principalPaid"`
	SavingsPaid       string  `json:"savingsPaid"`
	PaidAmount        string  `json:"paidAmount"`
	AmountDue         string  `json:"amountDue"`
	PaidDate          *string `json:"paidDate,omitempty"`
	Status            string  `json:"status"`
}

type SplitResponse struct {
	Penalty   string `json:"penalty"`
	Interest  string `json:"interest"`
	Principal string `json:"principal"`
	Savings   string `json:"savings"`
	Excess    string `json:"excess"`
}

type PaymentResponse struct {
	ID            int64     `json:"id"`
	LoanID        int64     `json:"loanId"`
	InstallmentID *int64    `json:"installmentId,omitempty"`
	ReceiptNumber string    `json:"receiptNumber"`
	Amount        string    `json:"amount"`
	PrincipalPaid string    `json:"principalPaid"`
	InterestPaid  string    `json:"interestPaid"`
	SavingsPaid   string    `json:"savingsPaid"`
	PenaltyPaid   string    `json:"penaltyPaid"`
	ExcessAmount  string    `json:"excessAmount"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentDate   string    `json:"paymentDate"`
	ProcessedBy   *int64    `json:"processedBy,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SavingsEntryResponse struct {
	ID              int64  `json:"id"`
	MemberID        int64  `json:"memberId"`
	LoanID          *int64 `json:"loanId,omitempty"`
	TransactionType string `json:"transactionType"`
	Amount          string `json:"amount"`
	Balance         string `json:"balance"`
	Description     string `json:"description"`
	TransactionDate string `json:"transactionDate"`
}

type PaymentResultResponse struct {
	Payment              PaymentResponse       `json:"payment"`
	Split                SplitResponse         `json:"split"`
	Installment          InstallmentResponse   `json:"installment"`
	PreviousStatus       string                `json:"previousStatus"`
	LoanStatus           string                `json:"loanStatus"`
	OutstandingPrincipal string                `json:"outstandingPrincipal"`
	OutstandingInterest  string                `json:"outstandingInterest"`
	SavingsCredit        *SavingsEntryResponse `json:"savingsCredit,omitempty"`
}

type ClearanceResponse struct {
	Loan           LoanResponse          `json:"loan"`
	PreviousStatus string                `json:"previousStatus"`
	SavingsReturn  *SavingsEntryResponse `json:"savingsReturn,omitempty"`
}

type OutstandingResponse struct {
	LoanID    int64  `json:"loanId"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Penalties string `json:"penalties"`
	Total     string `json:"total"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func date(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, apperrors.NewValidationError(field, "is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError(field, "must be a decimal number")
	}
	return d, nil
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(field, "is required")
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func NewLoanResponse(l *loan.Loan, includeSchedule bool) LoanResponse {
	resp := LoanResponse{
		ID:                   l.ID,
		LoanNumber:           l.LoanNumber,
		MemberID:             l.MemberID,
		SocietyID:            l.SocietyID,
		OfficerID:            l.OfficerID,
		ProductID:            l.ProductID,
		Amount:               money(l.Amount),
		InterestRate:         l.InterestRate.String(),
		TenureMonths:         l.TenureMonths,
		MonthlySavings:       money(l.MonthlySavings),
		DisbursementDate:     date(l.DisbursementDate),
		FirstDueDate:         date(l.FirstDueDate),
		LastDueDate:          date(l.LastDueDate),
		TotalInterest:        money(l.TotalInterest),
		TotalPayable:         money(l.TotalPayable),
		OutstandingPrincipal: money(l.OutstandingPrincipal),
		OutstandingInterest:  money(l.OutstandingInterest),
		Status:               string(l.Status),
		ClearedByOfficial:    l.ClearedByOfficial,
		ClearedBy:            l.ClearedBy,
		ClearedAt:            l.ClearedAt,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
	if includeSchedule && l.Schedule != nil {
		resp.Schedule = NewScheduleResponse(l.Schedule)
	}
	return resp
}

func NewScheduleResponse(schedule []loan.Installment) []InstallmentResponse {
	resp := make([]InstallmentResponse, len(schedule))
	for i, inst := range schedule {
		resp[i] = NewInstallmentResponse(inst)
	}
	return resp
}

func NewInstallmentResponse(inst loan.Installment) InstallmentResponse {
	resp := InstallmentResponse{
		ID:                inst.ID,
		InstallmentNumber: inst.InstallmentNumber,
		DueDate:           date(inst.DueDate),
		OpeningBalance:    money(inst.OpeningBalance),
		PrincipalAmount:   money(inst.PrincipalAmount),
		InterestAmount:    money(inst.InterestAmount),
		SavingsAmount:     money(inst.SavingsAmount),
		TotalInstallment:  money(inst.TotalInstallment),
		ClosingBalance:    money(inst.ClosingBalance),
		PenaltyApplied:    money(inst.PenaltyApplied),
		PenaltyPaid:       money(inst.PenaltyPaid),
		InterestPaid:      money(inst.InterestPaid),
		PrincipalPaid:     money(inst.PrincipalPaid),
		SavingsPaid:       money(inst.SavingsPaid),
		PaidAmount:        money(inst.PaidAmount),
		AmountDue:         money(inst.AmountDue()),
		Status:            string(inst.Status),
	}
	if inst.PaidDate != nil {
		paid := date(*inst.PaidDate)
		resp.PaidDate = &paid
	}
	return resp
}

func NewPaymentResponse(p loan.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		LoanID:        p.LoanID,
		InstallmentID: p.InstallmentID,
		ReceiptNumber: p.ReceiptNumber,
		Amount:        money(p.Amount),
		PrincipalPaid: money(p.PrincipalPaid),
		InterestPaid:  money(p.InterestPaid),
		SavingsPaid:   money(p.SavingsPaid),
		PenaltyPaid:   money(p.PenaltyPaid),
		ExcessAmount:  money(p.ExcessAmount),
		PaymentMethod: string(p.Method),
		PaymentDate:   date(p.PaymentDate),
		ProcessedBy:   p.ProcessedBy,
		Remarks:       p.Remarks,
		CreatedAt:     p.CreatedAt,
	}
}

func NewPaymentsResponse(payments []loan.Payment) []PaymentResponse {
	resp := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = NewPaymentResponse(p)
	}
	return resp
}

func newSavingsEntryResponse(e *loan.SavingsEntry) *SavingsEntryResponse {
	if e == nil {
		return nil
	}
	return &SavingsEntryResponse{
		ID:              e.ID,
		MemberID:        e.MemberID,
		LoanID:          e.LoanID,
		TransactionType: string(e.Type),
		Amount:          money(e.Amount),
		Balance:         money(e.Balance),
		Description:     e.Description,
		TransactionDate: date(e.TransactionDate),
	}
}

func NewPaymentResultResponse(res *loan.PaymentResult) PaymentResultResponse {
	resp := PaymentResultResponse{
		Payment: NewPaymentResponse(*res.Payment),
		Split: SplitResponse{
			Penalty:   money(res.Split.Penalty),
			Interest:  money(res.Split.Interest),
			Principal: money(res.Split.Principal),
			Savings:   money(res.Split.Savings),
			Excess:    money(res.Split.Excess),
		},
		PreviousStatus:       string(res.PreviousStatus),
		LoanStatus:           string(res.Loan.Status),
		OutstandingPrincipal: money(res.Loan.OutstandingPrincipal),
		OutstandingInterest:  money(res.Loan.OutstandingInterest),
		SavingsCredit:        newSavingsEntryResponse(res.SavingsCredit),
	}
	if res.Installment != nil {
		resp.Installment = NewInstallmentResponse(*res.Installment)
	}
	return resp
}

func NewClearanceResponse(res *loan.ClearanceResult) ClearanceResponse {
	return ClearanceResponse{
		Loan:           NewLoanResponse(res.Loan, false),
		PreviousStatus: string(res.PreviousStatus),
		SavingsReturn:  newSavingsEntryResponse(res.SavingsReturn),
	}
}

func NewOutstandingResponse(o *loan.Outstanding) OutstandingResponse {
	return OutstandingResponse{
		LoanID:    o.LoanID,
		Principal: money(o.Principal),
		Interest:  money(o.Interest),
		Penalties: money(o.Penalties),
		Total:     money(o.Total),
	}
}
