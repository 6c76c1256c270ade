package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"debtplan/internal/config"
	"debtplan/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("unknown backend should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:       "sqlite",
		SQLiteDBPath:      "/tmp/x.db",
		SnapshotRetention: 7,
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/x.db" || cfg.SnapshotRetention != 7 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"sheets", Config{Type: SheetsBackend, GoogleSpreadsheetID: "abc"}, false},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "sqlite" || got[1] != "sheets" || got[2] != "memory" {
		t.Errorf("unexpected types: %v", got)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	seed := "loans:\n  - type: Car Loan\n    principal: 5000\n    minimum_payment: 150\n    interest_rate: 9\n"
	if err := os.WriteFile(filepath.Join(dir, "loans.yaml"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	loans, err := res.Ledger.ListLoans(context.Background())
	if err != nil {
		t.Fatalf("ListLoans: %v", err)
	}
	if len(loans) != 1 || loans[0].Type != "Car Loan" || loans[0].Principal != 5000 {
		t.Errorf("unexpected loans: %+v", loans)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "debts.db")

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Ping == nil {
		t.Fatal("sqlite backend should expose Ping")
	}
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	id, err := res.Ledger.CreateLoan(ctx, core.LoanRecord{
		Type: "Personal Loan", Principal: 1000, MinimumPayment: 50, InterestRate: 12,
	})
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if id <= 0 {
		t.Errorf("id = %d", id)
	}
}
