package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/form-ingress/pkg/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "audit.sqlite")
	store, err := Open(context.Background(), DriverSQLite, dsn, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordCleaningOperations(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ops := []model.CleaningOperation{
		{TableName: "responses", ColumnName: "id", OriginalValue: nil, NewValue: "a", RowIdentifier: "a", CleaningOperation: "uuid_generation", CleaningReason: "missing_response_id", CleanedAt: time.Now()},
		{TableName: "responses", ColumnName: "horodateur", OriginalValue: "2024-03-15", NewValue: "15/03/2024 00:00:00", RowIdentifier: "a", CleaningOperation: "date_format", CleaningReason: "non_canonical_date"},
		{TableName: "responses", ColumnName: "pays", OriginalValue: "cameroon", NewValue: "Cameroun", RowIdentifier: "a", CleaningOperation: "country_standardization", CleaningReason: "synonym"},
		{TableName: "responses", ColumnName: "horodateur", OriginalValue: "hier", NewValue: "hier", RowIdentifier: "b", CleaningOperation: "date_format", CleaningReason: "non_canonical_date"},
		{TableName: "other", ColumnName: "pays", OriginalValue: "rdc", NewValue: "République Démocratique du Congo", RowIdentifier: "c", CleaningOperation: "country_standardization", CleaningReason: "synonym"},
	}
	if err := store.RecordCleaningOperations(ctx, ops); err != nil {
		t.Fatalf("RecordCleaningOperations: %v", err)
	}

	counts, err := store.CountByOperation(ctx, "responses")
	if err != nil {
		t.Fatalf("CountByOperation: %v", err)
	}
	want := []OperationCount{
		{Operation: "country_standardization", Count: 1},
		{Operation: "date_format", Count: 2},
		{Operation: "uuid_generation", Count: 1},
	}
	if len(counts) != len(want) {
		t.Fatalf("got %+v, want %+v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("got %+v, want %+v", counts, want)
		}
	}

	var original *string
	if err := store.db.GetContext(ctx, &original,
		`SELECT original_value FROM cleaned_on_ingress WHERE cleaning_operation = 'uuid_generation'`); err != nil {
		t.Fatalf("select original: %v", err)
	}
	if original != nil {
		t.Fatalf("nil original value should be stored as NULL, got %q", *original)
	}
}

func TestRecordManyOperations(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ops := make([]model.CleaningOperation, batchSize*2+7)
	for i := range ops {
		ops[i] = model.CleaningOperation{
			TableName: "bulk", ColumnName: "pays", NewValue: "Togo",
			RowIdentifier: "r", CleaningOperation: "country_standardization", CleaningReason: "synonym",
		}
	}
	if err := store.RecordCleaningOperations(ctx, ops); err != nil {
		t.Fatalf("RecordCleaningOperations: %v", err)
	}
	counts, err := store.CountByOperation(ctx, "bulk")
	if err != nil {
		t.Fatalf("CountByOperation: %v", err)
	}
	if len(counts) != 1 || counts[0].Count != len(ops) {
		t.Fatalf("got %+v, want %d rows", counts, len(ops))
	}
}

func TestRecordNothing(t *testing.T) {
	store := openTestStore(t)
	if err := store.RecordCleaningOperations(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	if _, err := Open(context.Background(), DriverSQLite, ":memory:", nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
	if _, err := Open(context.Background(), "oracle", "dsn", zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
