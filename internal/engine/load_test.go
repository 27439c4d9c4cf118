package engine

import "testing"

// fakeModel replays exactly the snapshot captured from a live Serv; it
// plays the role a real internal/model implementation would, reading back
// whatever was durably written.
type fakeModel struct {
	assets  []*Asset
	instrs  []*Instrument
	markets []*MarketSnapshot
	orders  []*Order
	execs   []*Exec
	trades  []*Exec
	posns   []*Posn
}

func (m *fakeModel) ReadAssets(fn func(*Asset)) error {
	for _, a := range m.assets {
		fn(a)
	}
	return nil
}

func (m *fakeModel) ReadInstrs(fn func(*Instrument)) error {
	for _, i := range m.instrs {
		fn(i)
	}
	return nil
}

func (m *fakeModel) ReadMarkets(fn func(*MarketSnapshot)) error {
	for _, ms := range m.markets {
		fn(ms)
	}
	return nil
}

func (m *fakeModel) ReadOrders(fn func(*Order)) error {
	for _, o := range m.orders {
		fn(o)
	}
	return nil
}

func (m *fakeModel) ReadExecs(since Time, fn func(*Exec)) error {
	for _, e := range m.execs {
		if e.Created >= since {
			fn(e)
		}
	}
	return nil
}

func (m *fakeModel) ReadTrades(fn func(*Exec)) error {
	for _, e := range m.trades {
		fn(e)
	}
	return nil
}

func (m *fakeModel) ReadPosns(busDay JulianDay, fn func(*Posn)) error {
	for _, p := range m.posns {
		fn(p)
	}
	return nil
}

// TestLoadReplayReconstructsLiveBook: after a partial fill leaves one
// resting order and one trade on the books, a fresh Serv loaded from a
// snapshot of that state ends up with the same best price and residual
// lots as the original — the load order (assets, instrs, markets, orders,
// execs, trades, posns) must not corrupt cross-references.
func TestLoadReplayReconstructsLiveBook(t *testing.T) {
	s1, m1 := newTestServ()

	if _, err := s1.CreateOrder("seller", m1, "", SideSell, 10, 100, 1, 1000); err != nil {
		t.Fatalf("create resting order: %v", err)
	}
	resp, err := s1.CreateOrder("buyer", m1, "", SideBuy, 4, 100, 1, 1001)
	if err != nil {
		t.Fatalf("create partial fill: %v", err)
	}
	buyerExec := resp.Execs()[0]

	seller := s1.Accnt("seller")
	buyer := s1.Accnt("buyer")

	model := &fakeModel{
		assets: s1.Assets().All(),
		instrs: s1.Instrs().All(),
		markets: []*MarketSnapshot{
			{Id: m1.Id(), Instr: m1.Instr(), SettlDay: m1.SettlDay(), State: m1.State()},
		},
		orders: append(append([]*Order{}, seller.Orders()...), buyer.Orders()...),
		execs:  append(append([]*Exec{}, seller.Execs()...), buyer.Execs()...),
		trades: append(append([]*Exec{}, seller.Trades()...), buyer.Trades()...),
		posns:  append(append([]*Posn{}, seller.Posns()...), buyer.Posns()...),
	}

	mq2 := &memQueue{}
	s2 := NewServ(mq2, 16)
	if err := s2.Load(model, buyerExec.Created+1); err != nil {
		t.Fatalf("load: %v", err)
	}

	m2, err := s2.Market(m1.Id())
	if err != nil {
		t.Fatalf("market missing after load: %v", err)
	}

	lvl, ok := m2.OfferSide().Best()
	if !ok || lvl.lots != 6 {
		t.Fatalf("got offer residual ok=%v lots=%v, want 6 lots resting", ok, lvl)
	}

	buyer2 := s2.Accnt("buyer")
	if len(buyer2.Trades()) != 1 {
		t.Fatalf("expected the buyer's trade to survive load, got %d", len(buyer2.Trades()))
	}

	// The recovered exec-id counter must be strictly ahead of every
	// replayed id so a subsequent order never collides with one.
	next := m2.allocId()
	for _, e := range model.execs {
		if next == e.Id {
			t.Fatalf("allocId() collided with a replayed exec id %d", e.Id)
		}
	}
}
