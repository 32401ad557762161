package collector

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"wallet-risk-scorer/internal/balances"
	"wallet-risk-scorer/internal/balances/stub"
	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/observability"
)

const wallet = domain.WalletAddress("0xabc")

var testChains = []domain.ChainID{1, 137, 56}

func rate(v float64) *float64 { return &v }

func entry(chain domain.ChainID, symbol string, usd float64) domain.ChainBalanceEntry {
	return domain.ChainBalanceEntry{
		Chain:     chain,
		Symbol:    symbol,
		Quantity:  1,
		QuoteRate: rate(usd),
		QuoteUSD:  usd,
	}
}

func newCollector(source BalanceSource) *Collector {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return New(source, testChains, zerolog.Nop()).WithClock(func() time.Time { return fixed })
}

func TestCollect_Complete(t *testing.T) {
	source := stub.NewSource()
	source.SetBalances(1, wallet, []domain.ChainBalanceEntry{entry(1, "ETH", 1000)})
	source.SetBalances(137, wallet, []domain.ChainBalanceEntry{entry(137, "MATIC", 50)})
	source.SetBalances(56, wallet, nil)

	snap, err := newCollector(source).Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if snap.Status != domain.SnapshotComplete {
		t.Errorf("status = %s, want complete", snap.Status)
	}
	if len(snap.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(snap.Entries))
	}
	if len(snap.FailedChains) != 0 {
		t.Errorf("FailedChains = %v, want empty", snap.FailedChains)
	}
	// Entries sorted by chain for deterministic snapshots.
	if snap.Entries[0].Chain != 1 || snap.Entries[1].Chain != 137 {
		t.Errorf("entries not sorted by chain: %+v", snap.Entries)
	}
}

func TestCollect_PartialWhenOneChainFails(t *testing.T) {
	source := stub.NewSource()
	source.SetBalances(1, wallet, []domain.ChainBalanceEntry{entry(1, "ETH", 1000)})
	source.SetBalances(137, wallet, []domain.ChainBalanceEntry{entry(137, "MATIC", 50)})
	source.FailChain(56, wallet)

	snap, err := newCollector(source).Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if snap.Status != domain.SnapshotPartial {
		t.Errorf("status = %s, want partial", snap.Status)
	}
	if len(snap.FailedChains) != 1 || snap.FailedChains[0] != 56 {
		t.Errorf("FailedChains = %v, want [56]", snap.FailedChains)
	}
	if len(snap.Entries) != 2 {
		t.Errorf("got %d entries, want 2 from surviving chains", len(snap.Entries))
	}
}

func TestCollect_FailedWhenAllChainsFail(t *testing.T) {
	source := stub.NewSource()
	for _, chain := range testChains {
		source.FailChain(chain, wallet)
	}

	snap, err := newCollector(source).Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if snap.Status != domain.SnapshotFailed {
		t.Errorf("status = %s, want failed", snap.Status)
	}
	if len(snap.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(snap.Entries))
	}
	if len(snap.FailedChains) != len(testChains) {
		t.Errorf("FailedChains = %v, want all of %v", snap.FailedChains, testChains)
	}
}

func TestCollect_PermanentFailureDoesNotPoisonOtherChains(t *testing.T) {
	source := stub.NewSource()
	source.SetError(1, wallet, &balances.FetchError{
		Kind: balances.KindPermanent, Chain: 1, Wallet: wallet,
	})
	source.SetBalances(137, wallet, []domain.ChainBalanceEntry{entry(137, "MATIC", 50)})
	source.SetBalances(56, wallet, []domain.ChainBalanceEntry{entry(56, "BNB", 300)})

	snap, err := newCollector(source).Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if snap.Status != domain.SnapshotPartial {
		t.Errorf("status = %s, want partial", snap.Status)
	}
	for _, chain := range []domain.ChainID{137, 56} {
		if source.Calls(chain, wallet) != 1 {
			t.Errorf("chain %d queried %d times, want exactly 1", chain, source.Calls(chain, wallet))
		}
	}
}

func TestCollect_EachChainQueriedOnce(t *testing.T) {
	source := stub.NewSource()
	for _, chain := range testChains {
		source.SetBalances(chain, wallet, nil)
	}

	if _, err := newCollector(source).Collect(context.Background(), wallet); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	for _, chain := range testChains {
		if got := source.Calls(chain, wallet); got != 1 {
			t.Errorf("chain %d queried %d times, want 1", chain, got)
		}
	}
}

func TestCollect_CountsChainFailures(t *testing.T) {
	source := stub.NewSource()
	source.SetBalances(1, wallet, []domain.ChainBalanceEntry{entry(1, "ETH", 1000)})
	source.FailChain(137, wallet)
	source.FailChain(56, wallet)

	m := observability.NewMetrics("collector_test")
	if _, err := newCollector(source).WithMetrics(m).Collect(context.Background(), wallet); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	for _, chain := range []string{"137", "56"} {
		if got := testutil.ToFloat64(m.ChainFailuresTotal.WithLabelValues(chain)); got != 1 {
			t.Errorf("chain %s failure count = %v, want 1", chain, got)
		}
	}
	if got := testutil.ToFloat64(m.ChainFailuresTotal.WithLabelValues("1")); got != 0 {
		t.Errorf("chain 1 failure count = %v, want 0", got)
	}
}

func TestCollect_CancelledContext(t *testing.T) {
	source := stub.NewSource()
	for _, chain := range testChains {
		source.SetBalances(chain, wallet, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context may surface as an error or an empty snapshot
	// depending on scheduling; it must never panic or hang.
	snap, err := newCollector(source).Collect(ctx, wallet)
	if err == nil && snap == nil {
		t.Error("Collect returned neither snapshot nor error")
	}
}
