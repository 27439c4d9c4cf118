package engine

import "testing"

// TestFullFill: a resting sell is exactly matched by an incoming buy of
// the same size; both orders end up done and the book is empty.
func TestFullFill(t *testing.T) {
	s, m := newTestServ()

	resp1, err := s.CreateOrder("seller", m, "", SideSell, 10, 100, 1, 1000)
	if err != nil {
		t.Fatalf("create resting order: %v", err)
	}
	maker := resp1.Orders()[0]

	resp2, err := s.CreateOrder("buyer", m, "", SideBuy, 10, 100, 1, 1001)
	if err != nil {
		t.Fatalf("create crossing order: %v", err)
	}
	taker := resp2.Orders()[0]

	if !maker.done() || maker.ResdLots != 0 {
		t.Fatalf("expected maker fully filled, got state=%v resd=%d", maker.State, maker.ResdLots)
	}
	if !taker.done() || taker.ResdLots != 0 {
		t.Fatalf("expected taker fully filled, got state=%v resd=%d", taker.State, taker.ResdLots)
	}
	if _, ok := m.OfferSide().Best(); ok {
		t.Fatalf("expected offer side empty after full fill")
	}
	// Only the taker's own execs: its New exec and its trade exec.
	if len(resp2.Execs()) != 2 {
		t.Fatalf("expected exactly the taker's own two execs in its response, got %d", len(resp2.Execs()))
	}
}

// TestPartialFillWithPriceImprovement: a larger incoming buy at a worse
// (higher) price than a resting sell fills at the resting maker's price,
// not its own limit, and leaves a residual resting.
func TestPartialFillWithPriceImprovement(t *testing.T) {
	s, m := newTestServ()

	if _, err := s.CreateOrder("seller", m, "", SideSell, 5, 100, 1, 1000); err != nil {
		t.Fatalf("create resting order: %v", err)
	}

	resp, err := s.CreateOrder("buyer", m, "", SideBuy, 8, 105, 1, 1001)
	if err != nil {
		t.Fatalf("create crossing order: %v", err)
	}
	taker := resp.Orders()[0]

	if taker.ExecLots != 5 {
		t.Fatalf("got execLots=%d, want 5", taker.ExecLots)
	}
	if taker.ResdLots != 3 {
		t.Fatalf("got resdLots=%d, want 3 resting", taker.ResdLots)
	}
	if taker.LastTicks != 100 {
		t.Fatalf("got fill price %d, want maker's price 100 (maker price wins)", taker.LastTicks)
	}
	lvl, ok := m.BidSide().Best()
	if !ok || lvl.lots != 3 {
		t.Fatalf("expected residual of 3 lots resting on the bid side")
	}
}

// TestSelfCross: an account crossing its own resting order still trades
// (no self-trade prevention per spec.md §4.2), and both legs are surfaced
// in the response.
func TestSelfCross(t *testing.T) {
	s, m := newTestServ()

	if _, err := s.CreateOrder("acc1", m, "", SideSell, 5, 100, 1, 1000); err != nil {
		t.Fatalf("create resting order: %v", err)
	}

	resp, err := s.CreateOrder("acc1", m, "", SideBuy, 5, 100, 1, 1001)
	if err != nil {
		t.Fatalf("create self-crossing order: %v", err)
	}

	if len(resp.Orders()) != 2 {
		t.Fatalf("expected both legs of the self-cross in the response, got %d orders", len(resp.Orders()))
	}
	// The taker's New exec plus both trade legs.
	if len(resp.Execs()) != 3 {
		t.Fatalf("expected the New exec and both trade execs in the response, got %d", len(resp.Execs()))
	}
}

// TestCancelAfterPartialFill: cancelling an order that has already traded
// part of its quantity only removes the residual; the exec history for
// the filled part is untouched.
func TestCancelAfterPartialFill(t *testing.T) {
	s, m := newTestServ()

	if _, err := s.CreateOrder("seller", m, "", SideSell, 4, 100, 1, 1000); err != nil {
		t.Fatalf("create resting order: %v", err)
	}
	resp, err := s.CreateOrder("buyer", m, "", SideBuy, 10, 100, 1, 1001)
	if err != nil {
		t.Fatalf("create partial-fill order: %v", err)
	}
	taker := resp.Orders()[0]
	if taker.ResdLots != 6 {
		t.Fatalf("got resdLots=%d, want 6", taker.ResdLots)
	}

	cresp, err := s.CancelOrderByID("buyer", m, taker.Id, 1002)
	if err != nil {
		t.Fatalf("cancel residual: %v", err)
	}
	cancelled := cresp.Orders()[0]
	if cancelled.State != StateCancel || cancelled.ResdLots != 0 {
		t.Fatalf("got state=%v resdLots=%d, want CANCEL/0", cancelled.State, cancelled.ResdLots)
	}
	if cancelled.ExecLots != 4 {
		t.Fatalf("cancel must not touch the already-executed quantity: got %d, want 4", cancelled.ExecLots)
	}
}

// TestReviseDown: a live order's lots can be reduced so long as the new
// value stays above zero and is not below the already-executed quantity.
func TestReviseDown(t *testing.T) {
	s, m := newTestServ()

	resp, err := s.CreateOrder("acc1", m, "", SideBuy, 10, 100, 1, 1000)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	order := resp.Orders()[0]

	rresp, err := s.ReviseOrderByID("acc1", m, order.Id, 4, 1001)
	if err != nil {
		t.Fatalf("revise down: %v", err)
	}
	revised := rresp.Orders()[0]
	if revised.Lots != 4 || revised.ResdLots != 4 || revised.State != StateRevise {
		t.Fatalf("got lots=%d resdLots=%d state=%v, want 4/4/REVISE", revised.Lots, revised.ResdLots, revised.State)
	}
}

func TestReviseRejectsBelowExecutedLots(t *testing.T) {
	s, m := newTestServ()

	if _, err := s.CreateOrder("seller", m, "", SideSell, 4, 100, 1, 1000); err != nil {
		t.Fatalf("create resting order: %v", err)
	}
	resp, err := s.CreateOrder("buyer", m, "", SideBuy, 10, 100, 1, 1001)
	if err != nil {
		t.Fatalf("create partial-fill order: %v", err)
	}
	taker := resp.Orders()[0]
	if taker.ExecLots != 4 {
		t.Fatalf("setup: got execLots=%d, want 4", taker.ExecLots)
	}

	if _, err := s.ReviseOrderByID("buyer", m, taker.Id, 2, 1002); err == nil {
		t.Fatalf("expected revising below executed lots to fail")
	}
}
