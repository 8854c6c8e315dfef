package handler

import (
	"coop-loans/internal/api/handler/dto"
	"coop-loans/internal/domain/loan"
	"log/slog"
	"net/http"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// CreateLoan handles the creation of a new loan.
//
// @Summary Create a new loan
// @Description Creates a PENDING loan and its flat-rate repayment schedule. monthlySavings defaults to the configured amount, loanNumber is generated when omitted and officerId defaults to the authenticated officer.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 409 {object} dto.ErrorResponse "Loan number already used"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	params, err := req.ToParams()
	if err != nil {
		respondError(w, err)
		return
	}
	if params.OfficerID == 0 {
		params.OfficerID = actorFromRequest(r).OfficerID
	}

	createdLoan, err := h.service.CreateLoan(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(createdLoan, true))
}

// GetLoan retrieves the details of a specific loan.
//
// @Summary Retrieve loan details
// @Description Retrieves a loan by its ID. Add `include=schedule` to embed the repayment schedule.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param include query string false "Use 'schedule' to include the repayment schedule"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	includeSchedule := r.URL.Query().Get("include") == "schedule"
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan, includeSchedule))
}

// GetSchedule returns a loan's repayment schedule.
//
// @Summary Retrieve repayment schedule
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {array} dto.InstallmentResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/schedule [get]
// @Security BearerAuth
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	schedule, err := h.service.GetLoanSchedule(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(schedule))
}

// GetOutstanding retrieves the outstanding amount for a specific loan.
//
// @Summary Retrieve outstanding loan amount
// @Description Outstanding principal and interest plus unpaid penalties.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.OutstandingResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/outstanding [get]
// @Security BearerAuth
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	outstanding, err := h.service.GetOutstanding(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewOutstandingResponse(outstanding))
}

// MakePayment records a payment against the loan's earliest unsettled installment.
//
// @Summary Make a loan payment
// @Description Allocates the amount to penalty, interest, principal and savings of the earliest unsettled installment. Send an Idempotency-Key header to make retries safe.
// @Tags Payments
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param Idempotency-Key header string false "Client-generated key for safe retries"
// @Param request body dto.MakePaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResultResponse "Payment allocated"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount, nothing due or loan not payable"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Receipt number already used"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	var req dto.MakePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidArgument(err))
		return
	}
	params, err := req.ToParams(loanID, actorFromRequest(r).ID())
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.MakePayment(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Payment recorded",
		"loan_id", loanID,
		"receipt_number", result.Payment.ReceiptNumber,
		"loan_status", result.Loan.Status,
	)
	respondJSON(w, http.StatusCreated, dto.NewPaymentResultResponse(result))
}

// ListPayments lists a loan's payments in payment order.
//
// @Summary List loan payments
// @Tags Payments
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {array} dto.PaymentResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [get]
// @Security BearerAuth
func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	payments, err := h.service.ListPayments(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPaymentsResponse(payments))
}

// ClearLoan closes a loan by official decision and returns collected savings.
//
// @Summary Clear a loan
// @Description Only admins and officials may clear a loan. Savings collected through the schedule are returned to the member's savings ledger.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param Idempotency-Key header string false "Client-generated key for safe retries"
// @Success 200 {object} dto.ClearanceResponse "Loan cleared"
// @Failure 403 {object} dto.ErrorResponse "Caller may not clear loans"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan already cleared"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/clear [post]
// @Security BearerAuth
func (h *LoanHandler) ClearLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	result, err := h.service.ClearLoan(r.Context(), loanID, actorFromRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewClearanceResponse(result))
}

// PreviewSchedule computes a schedule without persisting anything.
//
// @Summary Preview a repayment schedule
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.PreviewScheduleRequest true "Schedule terms"
// @Success 200 {array} dto.InstallmentResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid schedule terms"
// @Router /schedules/preview [post]
// @Security BearerAuth
func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.PreviewScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidArgument(err))
		return
	}
	in, err := req.ToInput()
	if err != nil {
		respondError(w, err)
		return
	}

	schedule, err := h.service.PreviewSchedule(in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(schedule))
}
