package core

import "strings"

// LoanType is an entry of the loan catalogue offered when recording a loan.
type LoanType struct {
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	DefaultRate float64 `json:"default_rate"`
}

var loanTypes = []LoanType{
	{"Personal Loan", "cash", 15.0},
	{"Credit Card Loan", "credit-card", 45.0},
	{"Education Loan", "book", 10.0},
	{"Home Loan", "house", 8.0},
	{"Car Loan", "car-front", 9.0},
	{"Business Loan", "briefcase", 12.0},
	{"Gold Loan", "gem", 10.0},
	{"Agricultural Loan", "flower1", 7.0},
	{"Consumer Durable Loan", "cart-fill", 18.0},
	{"Loan Against Property", "building", 11.0},
	{"Loans Against Securities", "shield-lock", 9.0},
	{"Payday Loan", "calendar", 50.0},
	{"Two-Wheeler Loan", "bicycle", 12.0},
	{"Government-Backed Loan", "bank", 6.0},
}

// DefaultLoanType is used when a record arrives without a type.
const DefaultLoanType = "Personal Loan"

// LoanTypes returns a copy of the catalogue.
func LoanTypes() []LoanType {
	return append([]LoanType(nil), loanTypes...)
}

// LookupLoanType finds a catalogue entry, case-insensitively.
func LookupLoanType(name string) (LoanType, bool) {
	name = strings.TrimSpace(name)
	for _, lt := range loanTypes {
		if strings.EqualFold(lt.Name, name) {
			return lt, true
		}
	}
	return LoanType{}, false
}
