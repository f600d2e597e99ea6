package policyopa

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"catetrust/internal/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join("..", "..", "..", "policy", "bundles", "reference_v0")
	engine, err := NewEngineFromBundlePath(context.Background(), path, "reference_v0")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func basePolicyInput() domain.PolicyInput {
	return domain.PolicyInput{
		AssetID:         "BTC/USD",
		RiskScore:       80,
		IsBlocked:       true,
		ConfidenceRatio: 9000,
		PublisherCount:  5,
		SignerIdentity:  "aa",
	}
}

func TestEngineDeterministic(t *testing.T) {
	engine := newEngine(t)
	input := basePolicyInput()

	first, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate first: %v", err)
	}
	second, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate second: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic policy evaluation")
	}
	if !first.Result.Allow {
		t.Fatalf("expected allow for baseline input")
	}
	if len(first.Result.Deny) != 0 {
		t.Fatalf("expected empty deny list")
	}
	if first.BundleHash == "" {
		t.Fatalf("expected bundle hash to be set")
	}
}

func TestEnginePolicyDenies(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name   string
		mutate func(input *domain.PolicyInput)
		want   string
	}{
		{
			name: "zero publishers",
			mutate: func(input *domain.PolicyInput) {
				input.PublisherCount = 0
			},
			want: "NO_PUBLISHERS",
		},
		{
			name: "blocked with low score",
			mutate: func(input *domain.PolicyInput) {
				input.RiskScore = 10
			},
			want: "INCONSISTENT_BLOCK",
		},
		{
			name: "unblocked at max risk",
			mutate: func(input *domain.PolicyInput) {
				input.IsBlocked = false
				input.RiskScore = 100
			},
			want: "UNBLOCKED_AT_MAX_RISK",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			input := basePolicyInput()
			tt.mutate(&input)
			out, err := engine.Evaluate(context.Background(), input)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if out.Result.Allow {
				t.Fatalf("expected deny")
			}
			found := false
			for _, deny := range out.Result.Deny {
				if deny.Code == tt.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected deny code %s, got %+v", tt.want, out.Result.Deny)
			}
		})
	}
}

func TestEngineRejectsTimeBuiltin(t *testing.T) {
	rejectBuiltin(t, "time.now_ns()")
}

func TestEngineRejectsHttpSend(t *testing.T) {
	rejectBuiltin(t, "http.send({\"method\": \"get\", \"url\": \"https://example.com\"})")
}

func TestEngineRejectsRand(t *testing.T) {
	rejectBuiltin(t, "rand.intn(10)")
}

func rejectBuiltin(t *testing.T, expr string) {
	t.Helper()
	dir := t.TempDir()
	regoContent := `package catetrust.policy
result := {"allow": true, "deny": []} {
  ` + expr + `
}`
	if err := os.WriteFile(filepath.Join(dir, "policy.rego"), []byte(regoContent), 0o644); err != nil {
		t.Fatalf("write rego: %v", err)
	}

	_, err := NewEngineFromBundlePath(context.Background(), dir, "test")
	if err == nil {
		t.Fatalf("expected builtin to be rejected")
	}
}
