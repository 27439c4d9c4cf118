package engine

import (
	"testing"

	"pgregory.net/rapid"
)

// TestMarketIdBijectionProperty: fromMarketId must invert toMarketId for
// every (instrId, settlDay) pair representable within their bit widths
// (spec.md §6).
func TestMarketIdBijectionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		instrId := Id32(rapid.Uint32Range(0, 1<<24-1).Draw(rt, "instrId"))
		settlDay := JulianDay(rapid.Int32Range(0, 1<<24-1).Draw(rt, "settlDay"))

		id := toMarketId(instrId, settlDay)
		gotInstr, gotSettl := fromMarketId(id)

		if gotInstr != instrId || gotSettl != settlDay {
			rt.Fatalf("round-trip broke: in=(%d,%d) out=(%d,%d)", instrId, settlDay, gotInstr, gotSettl)
		}
	})
}

// TestCreateThenCancelRoundTripProperty: for any sequence of lots/ticks an
// order created and then immediately cancelled before it can trade always
// ends up with zero residual and leaves the book exactly as it was before
// the order existed (spec.md §4.1 invariant 3: level aggregates track
// their queue).
func TestCreateThenCancelRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, m := newTestServ()

		lots := Lots(rapid.Int64Range(1, 1000).Draw(rt, "lots"))
		ticks := Ticks(rapid.Int64Range(1, 100000).Draw(rt, "ticks"))
		side := SideBuy
		if rapid.Bool().Draw(rt, "sell") {
			side = SideSell
		}

		resp, err := s.CreateOrder("acc1", m, "", side, lots, ticks, 1, 1000)
		if err != nil {
			rt.Fatalf("create: %v", err)
		}
		order := resp.Orders()[0]

		if _, err := s.CancelOrderByID("acc1", m, order.Id, 1001); err != nil {
			rt.Fatalf("cancel: %v", err)
		}

		if order.ResdLots != 0 || order.State != StateCancel {
			rt.Fatalf("got resdLots=%d state=%v after cancel", order.ResdLots, order.State)
		}
		if _, ok := m.BidSide().Best(); ok {
			rt.Fatalf("expected bid side empty after cancelling the only order")
		}
		if _, ok := m.OfferSide().Best(); ok {
			rt.Fatalf("expected offer side empty after cancelling the only order")
		}
	})
}

// TestLoadReplayEquivalenceProperty: loading a Serv from a snapshot taken
// after N orders at distinct prices (some of which fully fill against an
// earlier resting order) reproduces the same best-of-book on both sides
// as the live original.
func TestLoadReplayEquivalenceProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s1, m1 := newTestServ()

		n := rapid.IntRange(1, 8).Draw(rt, "n")
		for i := 0; i < n; i++ {
			// Strictly increasing ticks on alternating sides: every sell
			// rests above the best bid, and every later buy crosses the
			// sell just before it and fills fully against it (same lots),
			// so only the first buy and the last sell (if unmatched) rest.
			ticks := Ticks(100 + i*10)
			side := SideBuy
			if i%2 == 1 {
				side = SideSell
			}
			if _, err := s1.CreateOrder("acc1", m1, "", side, 5, ticks, 1, Time(1000+i)); err != nil {
				rt.Fatalf("create order %d: %v", i, err)
			}
		}

		accnt := s1.Accnt("acc1")
		model := &fakeModel{
			assets:  s1.Assets().All(),
			instrs:  s1.Instrs().All(),
			markets: []*MarketSnapshot{{Id: m1.Id(), Instr: m1.Instr(), SettlDay: m1.SettlDay(), State: m1.State()}},
			orders:  accnt.Orders(),
			execs:   accnt.Execs(),
			trades:  accnt.Trades(),
			posns:   accnt.Posns(),
		}

		s2 := NewServ(&memQueue{}, 16)
		if err := s2.Load(model, Time(1000+n+1)); err != nil {
			rt.Fatalf("load: %v", err)
		}
		m2, err := s2.Market(m1.Id())
		if err != nil {
			rt.Fatalf("market missing after load: %v", err)
		}

		bestBid1, okBid1 := m1.BidSide().Best()
		bestBid2, okBid2 := m2.BidSide().Best()
		if okBid1 != okBid2 || (okBid1 && bestBid1.ticks != bestBid2.ticks) {
			rt.Fatalf("best bid mismatch after load")
		}

		bestOffer1, okOffer1 := m1.OfferSide().Best()
		bestOffer2, okOffer2 := m2.OfferSide().Best()
		if okOffer1 != okOffer2 || (okOffer1 && bestOffer1.ticks != bestOffer2.ticks) {
			rt.Fatalf("best offer mismatch after load")
		}
	})
}
