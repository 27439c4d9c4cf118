package engine

import "testing"

func newRestingOrder(id Id64, side Side, ticks Ticks, lots Lots) *Order {
	return newOrder("acc1", 1, "EURUSD", 0, id, "", side, lots, ticks, 1, 0)
}

func TestMarketSideInsertOrdersByPricePriority(t *testing.T) {
	bids := newMarketSide(true)
	o1 := newRestingOrder(1, SideBuy, 100, 10)
	o2 := newRestingOrder(2, SideBuy, 102, 10)
	o3 := newRestingOrder(3, SideBuy, 101, 10)

	bids.insertOrder(o1)
	bids.insertOrder(o2)
	bids.insertOrder(o3)

	levels := bids.Levels()
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	// Bids are descending: best (highest) first.
	want := []Ticks{102, 101, 100}
	for i, lvl := range levels {
		if lvl.ticks != want[i] {
			t.Fatalf("level %d: got ticks %d, want %d", i, lvl.ticks, want[i])
		}
	}
}

func TestMarketSideFIFOWithinLevel(t *testing.T) {
	offers := newMarketSide(false)
	o1 := newRestingOrder(1, SideSell, 100, 5)
	o2 := newRestingOrder(2, SideSell, 100, 5)
	offers.insertOrder(o1)
	offers.insertOrder(o2)

	lvl, ok := offers.Best()
	if !ok {
		t.Fatalf("expected a best level")
	}
	if lvl.lots != 10 || lvl.count != 2 {
		t.Fatalf("got lots=%d count=%d, want lots=10 count=2", lvl.lots, lvl.count)
	}
	if front := lvl.front(); front.Id != 1 {
		t.Fatalf("expected order 1 at head of queue, got %d", front.Id)
	}
}

func TestMarketSideRemoveOrderDropsEmptyLevel(t *testing.T) {
	bids := newMarketSide(true)
	o1 := newRestingOrder(1, SideBuy, 100, 10)
	bids.insertOrder(o1)
	bids.removeOrder(o1)

	if _, ok := bids.Best(); ok {
		t.Fatalf("expected side to be empty after removing its only order")
	}
	if o1.level != nil || o1.elem != nil {
		t.Fatalf("expected order's level/elem pointers cleared after removal")
	}
}

func TestMarketSideTakeOrderPartialLeavesResidual(t *testing.T) {
	bids := newMarketSide(true)
	o1 := newRestingOrder(1, SideBuy, 100, 10)
	bids.insertOrder(o1)

	bids.takeOrder(o1, 4, 42)

	if o1.ResdLots != 6 {
		t.Fatalf("got resdLots=%d, want 6", o1.ResdLots)
	}
	lvl, _ := bids.Best()
	if lvl.lots != 6 {
		t.Fatalf("level lots not updated: got %d, want 6", lvl.lots)
	}
	if o1.level == nil {
		t.Fatalf("partially filled order should still be resting")
	}
}

func TestMarketSideTakeOrderFullRemovesFromBook(t *testing.T) {
	bids := newMarketSide(true)
	o1 := newRestingOrder(1, SideBuy, 100, 10)
	bids.insertOrder(o1)

	bids.takeOrder(o1, 10, 42)

	if o1.ResdLots != 0 {
		t.Fatalf("got resdLots=%d, want 0", o1.ResdLots)
	}
	if o1.level != nil {
		t.Fatalf("fully filled order should be removed from the book")
	}
	if _, ok := bids.Best(); ok {
		t.Fatalf("expected side to be empty")
	}
}

func TestMarketSideCancelOrder(t *testing.T) {
	offers := newMarketSide(false)
	o1 := newRestingOrder(1, SideSell, 100, 10)
	offers.insertOrder(o1)

	offers.cancelOrder(o1, 7)

	if o1.State != StateCancel || o1.ResdLots != 0 {
		t.Fatalf("got state=%v resdLots=%d, want CANCEL/0", o1.State, o1.ResdLots)
	}
	if _, ok := offers.Best(); ok {
		t.Fatalf("expected side to be empty after cancel")
	}
}

func TestMarketSideReviseOrderLowersResidual(t *testing.T) {
	bids := newMarketSide(true)
	o1 := newRestingOrder(1, SideBuy, 100, 10)
	bids.insertOrder(o1)

	bids.reviseOrder(o1, 4, 9)

	if o1.Lots != 4 || o1.ResdLots != 4 || o1.State != StateRevise {
		t.Fatalf("got lots=%d resdLots=%d state=%v, want 4/4/REVISE", o1.Lots, o1.ResdLots, o1.State)
	}
	lvl, _ := bids.Best()
	if lvl.lots != 4 {
		t.Fatalf("level lots not updated: got %d, want 4", lvl.lots)
	}
}
