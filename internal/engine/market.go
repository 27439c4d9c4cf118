package engine

// Market is state keyed by marketId: instrument symbol, settlement day,
// state flags, a monotonic exec-id counter, and the two MarketSide values
// (bid, offer). A Market owns its resting orders.
type Market struct {
	id       Id64
	instr    string
	settlDay JulianDay
	state    MarketState
	execSeq  Id64

	bidSide   *MarketSide
	offerSide *MarketSide
}

func newMarket(id Id64, instr string, settlDay JulianDay, state MarketState) *Market {
	return &Market{
		id:        id,
		instr:     instr,
		settlDay:  settlDay,
		state:     state,
		bidSide:   newMarketSide(true),
		offerSide: newMarketSide(false),
	}
}

func (m *Market) Id() Id64            { return m.id }
func (m *Market) Instr() string       { return m.instr }
func (m *Market) SettlDay() JulianDay { return m.settlDay }
func (m *Market) State() MarketState  { return m.state }
func (m *Market) BidSide() *MarketSide   { return m.bidSide }
func (m *Market) OfferSide() *MarketSide { return m.offerSide }

func (m *Market) setState(state MarketState) { m.state = state }

// allocId returns ++execSeq. The counter persists across restarts, and is
// recovered on load as max(id)+1 over all journalled execs for the market
// (spec.md §4.5).
func (m *Market) allocId() Id64 {
	m.execSeq++
	return m.execSeq
}

// restoreSeq advances the counter to at least seq, used during load replay
// so that subsequent allocId calls never collide with a replayed id.
func (m *Market) restoreSeq(seq Id64) {
	if seq > m.execSeq {
		m.execSeq = seq
	}
}

func (m *Market) sideFor(side Side) *MarketSide {
	if side == SideBuy {
		return m.bidSide
	}
	return m.offerSide
}

// insertOrder places o on its side of the book, keyed by o.Side.
func (m *Market) insertOrder(o *Order) {
	m.sideFor(o.Side).insertOrder(o)
}

// removeOrder removes o from its side of the book.
func (m *Market) removeOrder(o *Order) {
	m.sideFor(o.Side).removeOrder(o)
}

// takeOrder reduces a resting order by lots as a result of a match.
func (m *Market) takeOrder(o *Order, lots Lots, now Time) {
	m.sideFor(o.Side).takeOrder(o, lots, now)
}

// reviseOrder applies a lots reduction to a resting order.
func (m *Market) reviseOrder(o *Order, newLots Lots, now Time) {
	m.sideFor(o.Side).reviseOrder(o, newLots, now)
}

// cancelOrder removes o from the book and marks it cancelled.
func (m *Market) cancelOrder(o *Order, now Time) {
	m.sideFor(o.Side).cancelOrder(o, now)
}

// MarketSet is the registry of markets, keyed by market id.
type MarketSet struct {
	byID map[Id64]*Market
}

func NewMarketSet() *MarketSet {
	return &MarketSet{byID: make(map[Id64]*Market)}
}

func (s *MarketSet) Insert(m *Market) { s.byID[m.id] = m }

func (s *MarketSet) Find(id Id64) (*Market, bool) {
	m, ok := s.byID[id]
	return m, ok
}

func (s *MarketSet) Len() int { return len(s.byID) }

func (s *MarketSet) All() []*Market {
	out := make([]*Market, 0, len(s.byID))
	for _, m := range s.byID {
		out = append(out, m)
	}
	return out
}
