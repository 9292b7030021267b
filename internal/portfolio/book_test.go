package portfolio

import (
	"math"
	"testing"
	"time"

	"attsim/internal/domain"
)

var tradeDay = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

// fixedPrices quotes the same close for a symbol on every date; a missing
// entry means no observation for the day.
type fixedPrices map[string]float64

func (p fixedPrices) CloseOn(symbol string, _ time.Time) (float64, bool) {
	px, ok := p[symbol]
	return px, ok
}

func TestOpenGuards(t *testing.T) {
	b := NewBook(1000, 3)

	if st := b.Open("AAA", 100, 0, tradeDay, domain.SignalKeep); st != SkippedBadPrice {
		t.Errorf("Open with zero price = %v, want SkippedBadPrice", st)
	}
	if st := b.Open("AAA", 0, 10, tradeDay, domain.SignalKeep); st != SkippedBadValue {
		t.Errorf("Open with zero value = %v, want SkippedBadValue", st)
	}
	if b.Cash() != 1000 || len(b.Trades()) != 0 {
		t.Errorf("guarded Open mutated the book: cash %v, trades %d", b.Cash(), len(b.Trades()))
	}
}

func TestCloseGuards(t *testing.T) {
	b := NewBook(1000, 3)

	if st := b.Close("AAA", 10, tradeDay, domain.SignalKeep); st != SkippedNoPosition {
		t.Errorf("Close without position = %v, want SkippedNoPosition", st)
	}
	b.Open("AAA", 500, 10, tradeDay, domain.SignalKeep)
	if st := b.Close("AAA", -1, tradeDay, domain.SignalKeep); st != SkippedBadPrice {
		t.Errorf("Close with negative price = %v, want SkippedBadPrice", st)
	}
	if _, held := b.Position("AAA"); !held {
		t.Error("guarded Close removed the position")
	}
}

func TestOpenCloseAccounting(t *testing.T) {
	b := NewBook(1000, 3)

	if st := b.Open("AAA", 400, 8, tradeDay, domain.SignalBuy); st != Executed {
		t.Fatalf("Open = %v, want Executed", st)
	}
	pos, held := b.Position("AAA")
	if !held || pos.Qty != 50 || pos.LastFill != 8 {
		t.Fatalf("position = %+v (held %v), want qty 50 at 8", pos, held)
	}
	if b.Cash() != 600 {
		t.Errorf("cash after open = %v, want 600", b.Cash())
	}

	// A second buy increases the position and refreshes the last fill.
	b.Open("AAA", 100, 10, tradeDay, domain.SignalBuy)
	pos, _ = b.Position("AAA")
	if pos.Qty != 60 || pos.LastFill != 10 {
		t.Errorf("position after add = %+v, want qty 60 at 10", pos)
	}

	if st := b.Close("AAA", 10, tradeDay, domain.SignalSell); st != Executed {
		t.Fatalf("Close = %v, want Executed", st)
	}
	if _, held := b.Position("AAA"); held {
		t.Error("closed position still present; zero-quantity residue must be removed")
	}
	if b.Cash() != 1100 {
		t.Errorf("cash after close = %v, want 1100", b.Cash())
	}

	// Ledger reconciliation: every record's cash delta equals its gross
	// value with the sign of the action.
	for i, tr := range b.Trades() {
		delta := tr.CashAfter - tr.CashBefore
		want := tr.Gross
		if tr.Action == domain.ActionBuy {
			want = -tr.Gross
		}
		if math.Abs(delta-want) > 1e-9 {
			t.Errorf("trade %d: cash delta %v, want %v", i, delta, want)
		}
	}
	if last := b.Trades()[len(b.Trades())-1]; last.PosAfter != 0 {
		t.Errorf("SELL record PosAfter = %v, want 0", last.PosAfter)
	}
}

func TestRebalanceEqualWeighting(t *testing.T) {
	b := NewBook(900, 3)
	prices := fixedPrices{"AAA": 10, "BBB": 20, "CCC": 30}

	b.Rebalance([]string{"AAA", "BBB", "CCC"}, tradeDay, prices, domain.SignalKeep)

	if len(b.Holdings()) != 3 {
		t.Fatalf("holdings = %v, want 3 positions", b.Holdings())
	}
	for _, tr := range b.Trades() {
		if math.Abs(tr.Gross-300) > 1e-9 {
			t.Errorf("%s gross = %v, want 300 (cash/3)", tr.Symbol, tr.Gross)
		}
	}
	if math.Abs(b.Cash()) > 1e-9 {
		t.Errorf("cash after full rebalance = %v, want ~0", b.Cash())
	}
}

func TestRebalanceClosesNonCandidates(t *testing.T) {
	b := NewBook(1000, 2)
	prices := fixedPrices{"OLD": 10, "NEW": 20}

	b.Open("OLD", 400, 10, tradeDay, domain.SignalKeep)
	b.Rebalance([]string{"NEW"}, tradeDay, prices, domain.SignalKeep)

	if _, held := b.Position("OLD"); held {
		t.Error("OLD still held after rebalance away from it")
	}
	if _, held := b.Position("NEW"); !held {
		t.Error("NEW not opened by rebalance")
	}
}

func TestRebalanceKeepsPositionWithoutPrice(t *testing.T) {
	b := NewBook(1000, 1)
	prices := fixedPrices{"NEW": 20} // no quote for STUCK today

	b.Open("STUCK", 500, 10, tradeDay, domain.SignalKeep)
	b.Rebalance([]string{"NEW"}, tradeDay, prices, domain.SignalKeep)

	// STUCK cannot be sold without a price and still occupies its slot, so
	// NEW is not opened either (no open slots).
	if _, held := b.Position("STUCK"); !held {
		t.Error("STUCK was closed despite having no price observation")
	}
	if _, held := b.Position("NEW"); held {
		t.Error("NEW opened although no slot was free")
	}
}

func TestRebalanceSkipsUnquotedCandidateWithoutConsumingSlot(t *testing.T) {
	b := NewBook(800, 2)
	prices := fixedPrices{"BBB": 10, "CCC": 20}

	b.Rebalance([]string{"AAA", "BBB", "CCC"}, tradeDay, prices, domain.SignalKeep)

	holdings := b.Holdings()
	if len(holdings) != 2 || holdings[0] != "BBB" || holdings[1] != "CCC" {
		t.Errorf("holdings = %v, want [BBB CCC] (AAA skipped, slot reused)", holdings)
	}
}

func TestRebalanceWithNoOpenSlots(t *testing.T) {
	b := NewBook(1000, 1)
	prices := fixedPrices{"AAA": 10, "BBB": 20}

	b.Open("AAA", 500, 10, tradeDay, domain.SignalKeep)
	b.Rebalance([]string{"AAA", "BBB"}, tradeDay, prices, domain.SignalKeep)

	if _, held := b.Position("BBB"); held {
		t.Error("BBB opened although the target position count was reached")
	}
	if len(b.Trades()) != 1 {
		t.Errorf("trades = %d, want 1 (the original open only)", len(b.Trades()))
	}
}

func TestLiquidateAll(t *testing.T) {
	b := NewBook(1000, 3)
	prices := fixedPrices{"AAA": 10} // BBB has no quote today

	b.Open("AAA", 300, 10, tradeDay, domain.SignalKeep)
	b.Open("BBB", 300, 15, tradeDay, domain.SignalKeep)

	b.LiquidateAll(tradeDay, prices, domain.SignalSell)

	if _, held := b.Position("AAA"); held {
		t.Error("AAA still held after liquidation")
	}
	// No price, no forced close: the position carries over.
	if _, held := b.Position("BBB"); !held {
		t.Error("BBB force-closed without a price observation")
	}
}

func TestTotalValueMarksToMarket(t *testing.T) {
	b := NewBook(1000, 3)
	b.Open("AAA", 400, 8, tradeDay, domain.SignalKeep)  // 50 shares
	b.Open("BBB", 300, 10, tradeDay, domain.SignalKeep) // 30 shares

	got := b.TotalValue(map[string]float64{"AAA": 9, "BBB": 10})
	want := 300.0 + 50*9 + 30*10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalValue = %v, want %v", got, want)
	}

	// A held symbol missing from the snapshot contributes 0 for the day.
	got = b.TotalValue(map[string]float64{"AAA": 9})
	if want := 300.0 + 50*9; math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalValue with missing quote = %v, want %v", got, want)
	}
}

func TestHoldingsInsertionOrder(t *testing.T) {
	b := NewBook(1000, 5)
	b.Open("CCC", 100, 1, tradeDay, domain.SignalKeep)
	b.Open("AAA", 100, 1, tradeDay, domain.SignalKeep)
	b.Open("BBB", 100, 1, tradeDay, domain.SignalKeep)
	b.Close("AAA", 1, tradeDay, domain.SignalKeep)
	b.Open("AAA", 100, 1, tradeDay, domain.SignalKeep)

	got := b.Holdings()
	want := []string{"CCC", "BBB", "AAA"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Holdings() = %v, want %v", got, want)
		}
	}
}
