package storage

// Row types mirroring the SQLite schema.

type Loan struct {
	ID           int64
	LoanType     string
	Principal    float64
	AmountPaid   float64
	EmiAmount    float64
	InterestRate float64
	Tenure       int64
	StartDate    string
	Description  string
	CreatedAt    string
}

type PlanSnapshot struct {
	ID             int64
	Strategy       string
	Budget         float64
	Cascade        int64
	MonthsToPayoff int64
	TotalInterest  float64
	FinalBalance   float64
	Trajectory     string
	LoanCount      int64
	ComputedAt     string
}
