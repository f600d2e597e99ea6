package usecase_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"catetrust/internal/domain"
	"catetrust/internal/infra/cachemem"
	"catetrust/internal/infra/edverify"
	"catetrust/internal/infra/memstore"
	"catetrust/internal/infra/replay"
	"catetrust/internal/usecase"
)

type countingConfigStore struct {
	*memstore.TrustConfigStore
	gets int
}

func (c *countingConfigStore) Get(ctx context.Context) (*domain.TrustConfig, error) {
	c.gets++
	return c.TrustConfigStore.Get(ctx)
}

type verifyFixture struct {
	signer    domain.Identity
	signerKey ed25519.PrivateKey

	configs *countingConfigStore
	ledger  *replay.MemoryLedger
	verify  *usecase.VerifyDecision
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate signer key: %v", err)
	}

	f := &verifyFixture{
		signerKey: priv,
		configs:   &countingConfigStore{TrustConfigStore: memstore.NewTrustConfigStore()},
		ledger:    replay.NewMemoryLedger(replay.MemoryLedgerConfig{}),
	}
	copy(f.signer[:], pub)

	if err := f.configs.Create(context.Background(), domain.TrustConfig{
		Authority:     identity(1),
		TrustedSigner: f.signer,
	}); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	f.verify = &usecase.VerifyDecision{
		Configs: f.configs,
		Ledger:  f.ledger,
		Clock:   fixedClock(publishNow),
	}
	return f
}

func (f *verifyFixture) signedRequest(t *testing.T) usecase.VerifyRequest {
	t.Helper()
	var digest domain.Digest
	if _, err := rand.Read(digest[:]); err != nil {
		t.Fatalf("random digest: %v", err)
	}
	var signature domain.DecisionSignature
	copy(signature[:], ed25519.Sign(f.signerKey, digest[:]))

	op, err := edverify.BuildOperation(f.signer, digest, signature)
	if err != nil {
		t.Fatalf("build verifier operation: %v", err)
	}
	return usecase.VerifyRequest{
		Digest:            digest,
		Signature:         signature,
		SignerIdentity:    f.signer,
		DecisionTimestamp: publishNow,
		Batch: &domain.OperationBatch{
			Operations: []domain.RawOperation{op, {FacilityID: "risk-publisher/v1"}},
			Index:      1,
		},
	}
}

func TestVerifyDecisionLeavesNoState(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()
	req := f.signedRequest(t)

	outcome, err := f.verify.Execute(ctx, req)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !outcome.SignerTrusted || !outcome.ProvenanceVerified || !outcome.Fresh {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if f.ledger.Len() != 0 {
		t.Fatalf("verify-only must not consume the ledger, len=%d", f.ledger.Len())
	}

	// Repeating the same check succeeds; nothing was consumed.
	if _, err := f.verify.Execute(ctx, req); err != nil {
		t.Fatalf("second verify: %v", err)
	}
}

func TestVerifyDecisionReportsConsumedDigest(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()
	req := f.signedRequest(t)

	if err := f.ledger.Consume(ctx, req.Digest, publishNow); err != nil {
		t.Fatalf("consume: %v", err)
	}
	_, err := f.verify.Execute(ctx, req)
	if !errors.Is(err, domain.ErrDecisionAlreadyUsed) {
		t.Fatalf("expected decision already used, got %v", err)
	}
}

func TestVerifyDecisionRejectsUntrustedSigner(t *testing.T) {
	f := newVerifyFixture(t)
	req := f.signedRequest(t)
	req.SignerIdentity = identity(9)

	_, err := f.verify.Execute(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidSigner) {
		t.Fatalf("expected invalid signer, got %v", err)
	}
}

func TestVerifyDecisionRejectsStaleTimestamp(t *testing.T) {
	f := newVerifyFixture(t)
	req := f.signedRequest(t)
	req.DecisionTimestamp = publishNow - 301

	_, err := f.verify.Execute(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidTimestamp) {
		t.Fatalf("expected invalid timestamp, got %v", err)
	}
}

type countingCache struct {
	*cachemem.Cache
	puts int
}

func (c *countingCache) Put(ctx context.Context, key string, value domain.VerificationOutcome, ttl time.Duration) error {
	c.puts++
	return c.Cache.Put(ctx, key, value, ttl)
}

func TestVerifyDecisionCachesCrossCheckOnly(t *testing.T) {
	f := newVerifyFixture(t)
	cache := &countingCache{Cache: cachemem.New()}
	f.verify.Cache = cache
	f.verify.CacheTTL = time.Minute
	ctx := context.Background()
	req := f.signedRequest(t)

	if _, err := f.verify.Execute(ctx, req); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	getsAfterFirst := f.configs.gets
	if cache.puts != 1 {
		t.Fatalf("expected one cache fill, got %d", cache.puts)
	}

	outcome, err := f.verify.Execute(ctx, req)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !outcome.SignerTrusted || !outcome.ProvenanceVerified {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	// The cross-check is memoized, the signer check is not.
	if cache.puts != 1 {
		t.Fatalf("cached verify refilled the cache, puts=%d", cache.puts)
	}
	if f.configs.gets == getsAfterFirst {
		t.Fatal("cached verify must still re-check the current trust config")
	}
}

func TestVerifyDecisionCacheDoesNotMaskRotation(t *testing.T) {
	f := newVerifyFixture(t)
	f.verify.Cache = cachemem.New()
	f.verify.CacheTTL = time.Minute
	ctx := context.Background()
	req := f.signedRequest(t)

	if _, err := f.verify.Execute(ctx, req); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	// Rotate the trusted signer between the two calls; the cached
	// cross-check must not vouch for the now-untrusted identity.
	cfg, err := f.configs.Get(ctx)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.TrustedSigner = identity(7)
	if err := f.configs.Update(ctx, *cfg); err != nil {
		t.Fatalf("rotate signer: %v", err)
	}

	if _, err := f.verify.Execute(ctx, req); !errors.Is(err, domain.ErrInvalidSigner) {
		t.Fatalf("expected invalid signer after rotation, got %v", err)
	}
}

func TestVerifyDecisionCacheDoesNotMaskMissingStep(t *testing.T) {
	f := newVerifyFixture(t)
	f.verify.Cache = cachemem.New()
	f.verify.CacheTTL = time.Minute
	ctx := context.Background()
	req := f.signedRequest(t)

	if _, err := f.verify.Execute(ctx, req); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	// Same triple, but a batch with no verifier operation in front.
	req.Batch = &domain.OperationBatch{
		Operations: []domain.RawOperation{{FacilityID: "risk-publisher/v1"}},
		Index:      0,
	}
	if _, err := f.verify.Execute(ctx, req); !errors.Is(err, domain.ErrMissingVerificationStep) {
		t.Fatalf("expected missing verification step, got %v", err)
	}
}

func TestVerifyDecisionCacheDoesNotMaskConsumedDigest(t *testing.T) {
	f := newVerifyFixture(t)
	f.verify.Cache = cachemem.New()
	f.verify.CacheTTL = time.Minute
	ctx := context.Background()
	req := f.signedRequest(t)

	if _, err := f.verify.Execute(ctx, req); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if err := f.ledger.Consume(ctx, req.Digest, publishNow); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if _, err := f.verify.Execute(ctx, req); !errors.Is(err, domain.ErrDecisionAlreadyUsed) {
		t.Fatalf("expected decision already used, got %v", err)
	}
}
