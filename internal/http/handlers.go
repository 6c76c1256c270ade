package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"debtplan/internal/core"
	"debtplan/internal/ledger"
	"debtplan/internal/loanfile"
	dlog "debtplan/internal/log"
	"debtplan/internal/projection"
	"debtplan/internal/services"
)

type loanJSON struct {
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	Principal      float64   `json:"principal"`
	AmountPaid     float64   `json:"amount_paid"`
	Outstanding    float64   `json:"outstanding"`
	MinimumPayment float64   `json:"minimum_payment"`
	InterestRate   float64   `json:"interest_rate"`
	TenureMonths   int       `json:"tenure_months"`
	StartDate      string    `json:"start_date,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

func toLoanJSON(r core.LoanRecord) loanJSON {
	return loanJSON{
		ID:             r.ID,
		Type:           r.Type,
		Principal:      r.Principal,
		AmountPaid:     r.AmountPaid,
		Outstanding:    core.RoundCents(r.Outstanding()),
		MinimumPayment: r.MinimumPayment,
		InterestRate:   r.InterestRate,
		TenureMonths:   r.TenureMonths,
		StartDate:      r.StartDate.String(),
		Description:    r.Description,
		CreatedAt:      r.CreatedAt,
	}
}

type loanRequest struct {
	Type           string   `json:"type"`
	Principal      float64  `json:"principal"`
	AmountPaid     float64  `json:"amount_paid"`
	MinimumPayment float64  `json:"minimum_payment"`
	InterestRate   *float64 `json:"interest_rate"`
	TenureMonths   int      `json:"tenure_months"`
	StartDate      string   `json:"start_date"`
	Description    string   `json:"description"`
}

// record applies the catalogue rate when interest_rate is omitted.
func (req loanRequest) record() (core.LoanRecord, error) {
	entry := loanfile.Entry{
		Type:           sanitizeInput(req.Type),
		Principal:      req.Principal,
		AmountPaid:     req.AmountPaid,
		MinimumPayment: req.MinimumPayment,
		InterestRate:   req.InterestRate,
		TenureMonths:   req.TenureMonths,
		StartDate:      strings.TrimSpace(req.StartDate),
		Description:    sanitizeInput(req.Description),
	}
	return entry.Record()
}

type snapshotJSON struct {
	ID                int64               `json:"id"`
	Strategy          core.Strategy       `json:"strategy"`
	Budget            float64             `json:"budget"`
	Cascade           bool                `json:"cascade"`
	MonthsToPayoff    int                 `json:"months_to_payoff"`
	Payable           bool                `json:"payable"`
	TotalInterestPaid float64             `json:"total_interest_paid"`
	FinalBalance      float64             `json:"final_balance"`
	LoanCount         int                 `json:"loan_count"`
	ComputedAt        time.Time           `json:"computed_at"`
	Trajectory        []core.BalancePoint `json:"trajectory,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			dlog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", dlog.FieldError, err)
			ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	records, err := s.loans.ListLoans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]loanJSON, 0, len(records))
	var outstanding float64
	for _, rec := range records {
		out = append(out, toLoanJSON(rec))
		outstanding += rec.Outstanding()
	}
	NewJSONResponse().Body(map[string]any{
		"loans":             out,
		"count":             len(out),
		"total_outstanding": core.RoundCents(outstanding),
	}).Write(w)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := req.record()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.loans.AddLoan(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec.ID = id

	dlog.FromContext(r.Context()).InfoContext(r.Context(), "Loan created",
		dlog.NewFields().WithLoan(id, rec.Type).WithOperation(dlog.OpCreate).ToSlice()...)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/loans/"+strconv.FormatInt(id, 10)).
		Body(toLoanJSON(rec)).
		Write(w)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDPath(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.loans.GetLoan(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toLoanJSON(rec)).Write(w)
}

// handleUpdateLoan replaces every editable field; omitted fields reset to
// their defaults as on create.
func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDPath(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req loanRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := req.record()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec.ID = id
	if err := s.loans.UpdateLoan(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.loans.GetLoan(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dlog.FromContext(r.Context()).InfoContext(r.Context(), "Loan updated",
		dlog.NewFields().WithLoan(id, updated.Type).WithOperation(dlog.OpUpdate).ToSlice()...)
	NewJSONResponse().Body(toLoanJSON(updated)).Write(w)
}

func (s *Server) handleLoanSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDPath(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.loans.GetLoan(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := projection.Amortization(rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var interest float64
	for _, row := range rows {
		interest += row.Interest
	}
	NewJSONResponse().Body(map[string]any{
		"loan":           toLoanJSON(rec),
		"schedule":       rows,
		"total_interest": core.RoundCents(interest),
	}).Write(w)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDPath(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.loans.DeleteLoan(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	dlog.FromContext(r.Context()).InfoContext(r.Context(), "Loan deleted",
		dlog.NewFields().WithLoan(id, "").WithOperation(dlog.OpDelete).ToSlice()...)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func handleLoanTypes(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"types":   core.LoanTypes(),
		"default": core.DefaultLoanType,
	}).Write(w)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePlanParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.plans.Plan(r.Context(), p.Budget, p.Strategy, p.Cascade)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePlanParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cmp, err := s.plans.Compare(r.Context(), p.Budget, p.Cascade)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(cmp).Write(w)
}

type simulateRequest struct {
	Loans    []core.Loan `json:"loans"`
	Budget   float64     `json:"budget"`
	Strategy string      `json:"strategy"`
	Cascade  bool        `json:"cascade"`
}

// handleSimulate runs a posted snapshot without touching the ledger. An
// empty strategy compares both.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Strategy) == "" {
		cmp, err := s.plans.CompareLoans(r.Context(), req.Loans, req.Budget, req.Cascade)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		NewJSONResponse().Body(cmp).Write(w)
		return
	}

	strategy, err := core.ParseStrategy(req.Strategy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.plans.Simulate(r.Context(), req.Loans, req.Budget, strategy, req.Cascade)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("strategy")
	if raw == "" {
		raw = string(core.Avalanche)
	}
	strategy, err := core.ParseStrategy(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.snapshots == nil {
		NotFoundError("no recorded plans").Write(w)
		return
	}
	snap, err := s.snapshots.LatestPlan(r.Context(), strategy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	withTrajectory, err := ParseBoolParam(r.URL.Query(), "trajectory")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := snapshotJSON{
		ID:                snap.ID,
		Strategy:          snap.Strategy,
		Budget:            snap.Budget,
		Cascade:           snap.Cascade,
		MonthsToPayoff:    snap.MonthsToPayoff,
		Payable:           snap.MonthsToPayoff != core.Unpayable,
		TotalInterestPaid: snap.TotalInterestPaid,
		FinalBalance:      snap.FinalBalance,
		LoanCount:         snap.LoanCount,
		ComputedAt:        snap.ComputedAt,
	}
	if withTrajectory {
		out.Trajectory = snap.Trajectory
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleRefreshPlans(w http.ResponseWriter, r *http.Request) {
	queued, err := s.loans.RequestRefresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !queued {
		ServiceUnavailableError("plan worker not configured").Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(map[string]bool{"queued": true}).Write(w)
}

type projectionRequest struct {
	Kind string `json:"kind"`

	Monthly      float64 `json:"monthly"`
	Amount       float64 `json:"amount"`
	AnnualReturn float64 `json:"annual_return"`
	Inflation    float64 `json:"inflation"`
	Months       int     `json:"months"`

	Corpus         float64 `json:"corpus"`
	WithdrawalRate float64 `json:"withdrawal_rate"`
	Years          int     `json:"years"`

	MonthlyExpenses float64 `json:"monthly_expenses"`
	PreReturn       float64 `json:"pre_return"`
	PostReturn      float64 `json:"post_return"`
	YearsToRetire   int     `json:"years_to_retire"`
	RetirementYears int     `json:"retirement_years"`
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var req projectionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		out any
		err error
	)
	switch strings.ToLower(strings.TrimSpace(req.Kind)) {
	case "sip":
		out, err = projection.SIP(req.Monthly, req.AnnualReturn, req.Inflation, req.Months)
	case "lumpsum", "lump_sum":
		out, err = projection.LumpSum(req.Amount, req.AnnualReturn, req.Inflation, req.Months)
	case "swp":
		out, err = projection.SWP(req.Corpus, req.WithdrawalRate, req.AnnualReturn, req.Years)
	case "retirement":
		out, err = projection.PlanRetirement(req.MonthlyExpenses, req.Inflation, req.PostReturn, req.PreReturn, req.YearsToRetire, req.RetirementYears)
	default:
		UnprocessableEntityError("kind must be one of sip, lumpsum, swp, retirement").Write(w)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(out).Write(w)
}

var validationErrors = []error{
	core.ErrInvalidBudget,
	core.ErrInvalidLoan,
	core.ErrUnknownStrategy,
	core.ErrInvalidAmount,
	core.ErrInvalidRate,
	core.ErrInvalidTenure,
	core.ErrPaidExceedsPrincipal,
	core.ErrUnknownLoanType,
	core.ErrDescriptionTooLong,
	core.ErrInvalidDate,
	projection.ErrInvalidInput,
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrReadOnly):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		dlog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			dlog.FieldPath, r.URL.Path, dlog.FieldError, err)
		if status == http.StatusGatewayTimeout {
			ErrorResponse(status, "timed out").Write(w)
			return
		}
		InternalServerError().Write(w)
		return
	}

	msg := err.Error()
	if status == http.StatusNotFound {
		msg = "not found"
	}
	ErrorResponse(status, msg).Write(w)
}

var (
	_ loanService = (*services.LoanService)(nil)
	_ planService = (*services.PlanService)(nil)
)
