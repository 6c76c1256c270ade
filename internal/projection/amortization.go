package projection

import (
	"fmt"

	"debtplan/internal/core"
)

// AmortizationRow is one month of a loan's repayment schedule.
type AmortizationRow struct {
	Month     int     `json:"month"` // 1-based
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Balance   float64 `json:"balance"` // after this month's payment
}

// Amortization lays out a loan's EMI schedule over its tenure, starting from
// the full principal. Each month interest is charged on the running balance
// and the rest of the EMI reduces it. Once the balance reaches zero the
// remaining months carry no payment. An EMI below the monthly interest
// grows the balance.
func Amortization(rec core.LoanRecord) ([]AmortizationRow, error) {
	if err := checkAll("principal", rec.Principal, "emi", rec.MinimumPayment, "interest_rate", rec.InterestRate); err != nil {
		return nil, err
	}
	if rec.TenureMonths <= 0 {
		return nil, fmt.Errorf("%w: tenure = %d months", ErrInvalidInput, rec.TenureMonths)
	}

	r := monthlyRate(rec.InterestRate)
	balance := rec.Principal
	rows := make([]AmortizationRow, 0, rec.TenureMonths)
	for m := 1; m <= rec.TenureMonths; m++ {
		interest := balance * r
		principal := min(rec.MinimumPayment-interest, balance)
		balance -= principal
		if balance < 0 {
			balance = 0
		}
		rows = append(rows, AmortizationRow{
			Month:     m,
			Payment:   interest + principal,
			Interest:  interest,
			Principal: principal,
			Balance:   balance,
		})
	}
	return rows, nil
}
