package engine

import (
	"container/list"
	"sort"
)

// level is one price point on a MarketSide: a FIFO queue of resting
// orders plus the aggregates the spec requires (§3 invariant 3: level.lots
// == Σ resdLots of its queue, level.count == queue length).
type level struct {
	ticks  Ticks
	lots   Lots
	count  int
	orders *list.List // of *Order, oldest first
}

func newLevel(ticks Ticks) *level {
	return &level{ticks: ticks, orders: list.New()}
}

// front returns the head-of-queue order, or nil if the level is empty.
func (l *level) front() *Order {
	if l.orders.Len() == 0 {
		return nil
	}
	return l.orders.Front().Value.(*Order)
}

// MarketSide maintains one side (bid or offer) of a Market's book: an
// ordered collection of Level keyed by price, each a FIFO queue of the
// orders resting at that price. Bids compare by descending price, offers
// by ascending price (spec.md §4.1); ties within a level use arrival
// order.
type MarketSide struct {
	descending bool
	byTicks    map[Ticks]*level
	// sorted order of price points; front() is the best price.
	order []Ticks
}

func newMarketSide(descending bool) *MarketSide {
	return &MarketSide{
		descending: descending,
		byTicks:    make(map[Ticks]*level),
	}
}

// less reports whether a has priority over b for this side's direction.
func (s *MarketSide) less(a, b Ticks) bool {
	if s.descending {
		return a > b
	}
	return a < b
}

// levelIndex finds the position of ticks in the sorted order slice, and
// whether it exists (for removal) or where it should be inserted (for
// insertion), using the side's ordering.
func (s *MarketSide) levelIndex(ticks Ticks) int {
	return sort.Search(len(s.order), func(i int) bool {
		return !s.less(s.order[i], ticks)
	})
}

// findOrAllocLevel returns the level for ticks, creating and inserting an
// empty one in price-priority order if it does not already exist.
func (s *MarketSide) findOrAllocLevel(ticks Ticks) *level {
	i := s.levelIndex(ticks)
	if i < len(s.order) && s.order[i] == ticks {
		return s.byTicks[ticks]
	}
	lvl := newLevel(ticks)
	s.byTicks[ticks] = lvl
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = ticks
	return lvl
}

func (s *MarketSide) removeLevel(ticks Ticks) {
	i := s.levelIndex(ticks)
	if i < len(s.order) && s.order[i] == ticks {
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
	delete(s.byTicks, ticks)
}

// Best returns the top-of-book level for this side, or false if the side
// is empty.
func (s *MarketSide) Best() (*level, bool) {
	if len(s.order) == 0 {
		return nil, false
	}
	return s.byTicks[s.order[0]], true
}

// BestTicksLots reports the ticks and aggregate resting lots at the top of
// book, for the best-bid/offer market-data view (spec.md §1).
func (s *MarketSide) BestTicksLots() (ticks Ticks, lots Lots, ok bool) {
	lvl, found := s.Best()
	if !found {
		return 0, 0, false
	}
	return lvl.ticks, lvl.lots, true
}

// Levels returns the levels of this side in price priority, best first.
func (s *MarketSide) Levels() []*level {
	out := make([]*level, len(s.order))
	for i, t := range s.order {
		out[i] = s.byTicks[t]
	}
	return out
}

// insertOrder finds or allocates the level for o.Ticks, appends o to that
// level's FIFO, and updates the level's aggregates.
func (s *MarketSide) insertOrder(o *Order) {
	lvl := s.findOrAllocLevel(o.Ticks)
	o.elem = lvl.orders.PushBack(o)
	o.level = lvl
	lvl.lots += o.ResdLots
	lvl.count++
}

// removeOrder splices o out of its level's FIFO and drops the level if it
// becomes empty.
func (s *MarketSide) removeOrder(o *Order) {
	lvl := o.level
	if lvl == nil {
		return
	}
	lvl.orders.Remove(o.elem)
	lvl.lots -= o.ResdLots
	lvl.count--
	if lvl.orders.Len() == 0 {
		s.removeLevel(lvl.ticks)
	}
	o.level = nil
	o.elem = nil
}

// takeOrder records a fill of lots at o's own price on o (residual,
// executed lots/cost, last fill, and State Trade once the residual reaches
// zero) and reduces its level: if the residual reaches zero the order is
// removed from the book entirely.
func (s *MarketSide) takeOrder(o *Order, lots Lots, now Time) {
	lvl := o.level
	o.trade(lots, cost(lots, o.Ticks), lots, o.Ticks, now)
	if lvl != nil {
		lvl.lots -= lots
	}
	if o.ResdLots == 0 {
		if lvl != nil {
			lvl.orders.Remove(o.elem)
			lvl.count--
			if lvl.orders.Len() == 0 {
				s.removeLevel(lvl.ticks)
			}
		}
		o.level = nil
		o.elem = nil
	}
}

// reviseOrder applies a lots reduction to a resting order: delta = o.Lots -
// newLots (must be >= 0 by precondition, enforced by the caller).
func (s *MarketSide) reviseOrder(o *Order, newLots Lots, now Time) {
	delta := o.Lots - newLots
	lvl := o.level
	o.Lots = newLots
	o.ResdLots -= delta
	if lvl != nil {
		lvl.lots -= delta
	}
	o.Modified = now
	o.State = StateRevise
}

// cancelOrder removes o from the book and marks it cancelled.
func (s *MarketSide) cancelOrder(o *Order, now Time) {
	s.removeOrder(o)
	o.State = StateCancel
	o.ResdLots = 0
	o.Modified = now
}
