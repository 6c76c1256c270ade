// Package loanfile reads and writes loan snapshots stored as YAML or TOML.
//
//	budget: 800
//	strategy: avalanche
//	loans:
//	  - type: Credit Card Loan
//	    principal: 2400
//	    minimum_payment: 120
//	    interest_rate: 42
package loanfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"debtplan/internal/core"
)

type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

var ErrUnsupportedFormat = errors.New("unsupported loan file format")

// File is the on-disk shape of a loan snapshot.
type File struct {
	Budget   float64 `json:"budget,omitempty" yaml:"budget,omitempty" toml:"budget,omitempty"`
	Strategy string  `json:"strategy,omitempty" yaml:"strategy,omitempty" toml:"strategy,omitempty"`
	Cascade  bool    `json:"cascade,omitempty" yaml:"cascade,omitempty" toml:"cascade,omitempty"`
	Loans    []Entry `json:"loans" yaml:"loans" toml:"loans"`
}

// Entry is one loan. A missing interest_rate falls back to the loan
// type's catalogue rate.
type Entry struct {
	Type           string   `json:"type" yaml:"type" toml:"type"`
	Principal      float64  `json:"principal" yaml:"principal" toml:"principal"`
	AmountPaid     float64  `json:"amount_paid,omitempty" yaml:"amount_paid,omitempty" toml:"amount_paid,omitempty"`
	MinimumPayment float64  `json:"minimum_payment" yaml:"minimum_payment" toml:"minimum_payment"`
	InterestRate   *float64 `json:"interest_rate,omitempty" yaml:"interest_rate,omitempty" toml:"interest_rate"`
	TenureMonths   int      `json:"tenure_months,omitempty" yaml:"tenure_months,omitempty" toml:"tenure_months,omitempty"`
	StartDate      string   `json:"start_date,omitempty" yaml:"start_date,omitempty" toml:"start_date,omitempty"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads a loan file, choosing the decoder by extension.
func Load(path string) (File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read loan file: %w", err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func Parse(data []byte, format Format) (File, error) {
	var f File
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse yaml: %w", err)
		}
	case TOML:
		if err := toml.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return f, nil
}

// Save writes f to path in the format matching its extension.
func Save(path string, f File) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	switch format {
	case YAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		enc.Close()
	case TOML:
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create loan file dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Records converts entries to validated ledger records. IDs follow file
// order starting at 1.
func (f File) Records() ([]core.LoanRecord, error) {
	out := make([]core.LoanRecord, 0, len(f.Loans))
	for i, e := range f.Loans {
		rec, err := e.Record()
		if err != nil {
			return nil, fmt.Errorf("loan %d: %w", i+1, err)
		}
		rec.ID = int64(i + 1)
		out = append(out, rec)
	}
	return out, nil
}

func (e Entry) Record() (core.LoanRecord, error) {
	typ := strings.TrimSpace(e.Type)
	if typ == "" {
		typ = core.DefaultLoanType
	}
	lt, ok := core.LookupLoanType(typ)
	if !ok {
		return core.LoanRecord{}, fmt.Errorf("%w: %q", core.ErrUnknownLoanType, typ)
	}
	rate := lt.DefaultRate
	if e.InterestRate != nil {
		rate = *e.InterestRate
	}
	start, err := core.ParseDate(e.StartDate)
	if err != nil {
		return core.LoanRecord{}, err
	}
	rec := core.LoanRecord{
		Type:           lt.Name,
		Principal:      e.Principal,
		AmountPaid:     e.AmountPaid,
		MinimumPayment: e.MinimumPayment,
		InterestRate:   rate,
		TenureMonths:   e.TenureMonths,
		StartDate:      start,
		Description:    strings.TrimSpace(e.Description),
		CreatedAt:      time.Now().UTC(),
	}
	if err := rec.Validate(); err != nil {
		return core.LoanRecord{}, err
	}
	return rec, nil
}

// FromRecords builds a file from ledger records, e.g. for export.
func FromRecords(records []core.LoanRecord) File {
	f := File{Loans: make([]Entry, 0, len(records))}
	for _, r := range records {
		rate := r.InterestRate
		f.Loans = append(f.Loans, Entry{
			Type:           r.Type,
			Principal:      r.Principal,
			AmountPaid:     r.AmountPaid,
			MinimumPayment: r.MinimumPayment,
			InterestRate:   &rate,
			TenureMonths:   r.TenureMonths,
			StartDate:      r.StartDate.String(),
			Description:    r.Description,
		})
	}
	return f
}
