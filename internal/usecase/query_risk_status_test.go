package usecase_test

import (
	"context"
	"errors"
	"testing"

	"catetrust/internal/domain"
	"catetrust/internal/infra/memstore"
	"catetrust/internal/usecase"
)

func TestQueryRiskStatus(t *testing.T) {
	registry := memstore.NewRiskRegistry()
	ctx := context.Background()
	if err := registry.Upsert(ctx, domain.AssetRiskRecord{AssetID: "BTC/USD", RiskScore: 80, IsBlocked: true}); err != nil {
		t.Fatalf("seed registry: %v", err)
	}
	query := &usecase.QueryRiskStatus{Registry: registry}

	rec, err := query.Execute(ctx, "BTC/USD")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if rec.RiskScore != 80 || !rec.IsBlocked {
		t.Fatal("unexpected record")
	}

	if _, err := query.Execute(ctx, "ETH/USD"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := query.Execute(ctx, ""); !errors.Is(err, domain.ErrAssetIDEmpty) {
		t.Fatalf("expected empty asset id, got %v", err)
	}
	if _, err := query.Execute(ctx, "12345678901234567"); !errors.Is(err, domain.ErrAssetIDTooLong) {
		t.Fatalf("expected asset id too long, got %v", err)
	}
}
