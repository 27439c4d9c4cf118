package engine

// BBOSnapshot is an immutable copy of a market's top-of-book at the
// instant it was taken. Copying out of *MarketSide here, inside the
// single engine goroutine, is what lets callers read it from any
// goroutine without racing the book (spec.md §5).
type BBOSnapshot struct {
	MarketId Id64

	HasBid   bool
	BidTicks Ticks
	BidLots  Lots

	HasOffer   bool
	OfferTicks Ticks
	OfferLots  Lots
}

// NewBBOSnapshot copies market's current top-of-book. Safe to call only
// from the engine's single goroutine (e.g. from an Engine.SetNotify
// callback); the returned value is then safe to pass anywhere.
func NewBBOSnapshot(market *Market) *BBOSnapshot { return newBBOSnapshot(market) }

func newBBOSnapshot(market *Market) *BBOSnapshot {
	snap := &BBOSnapshot{MarketId: market.Id()}
	snap.BidTicks, snap.BidLots, snap.HasBid = market.BidSide().BestTicksLots()
	snap.OfferTicks, snap.OfferLots, snap.HasOffer = market.OfferSide().BestTicksLots()
	return snap
}

// AccntSnapshot is an immutable copy of an account's live state. Every
// field is a value or a freshly built slice, never a pointer into the
// account's own maps, for the same reason as BBOSnapshot.
type AccntSnapshot struct {
	Symbol string
	Orders []OrderJSON
	Execs  []ExecJSON
	Trades []ExecJSON
	Posns  []Posn
}

func newAccntSnapshot(a *Account) *AccntSnapshot {
	out := &AccntSnapshot{Symbol: a.Symbol()}
	for _, o := range a.Orders() {
		out.Orders = append(out.Orders, o.ToJSON())
	}
	for _, e := range a.Execs() {
		out.Execs = append(out.Execs, e.ToJSON())
	}
	for _, e := range a.Trades() {
		out.Trades = append(out.Trades, e.ToJSON())
	}
	for _, p := range a.Posns() {
		out.Posns = append(out.Posns, *p)
	}
	return out
}
