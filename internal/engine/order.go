package engine

import "container/list"

// Order is a live order record. Order does not point back at Account or
// Market; it is identified purely by id, avoiding the cyclic references the
// teacher's intrusive-list source relied on (spec.md §9).
type Order struct {
	Accnt    string
	MarketId Id64
	Instr    string
	SettlDay JulianDay
	Id       Id64
	Ref      string

	State State
	Side  Side

	Lots     Lots // original
	Ticks    Ticks
	ResdLots Lots
	ExecLots Lots
	ExecCost Cost

	LastLots  Lots
	LastTicks Ticks

	MinLots Lots

	Created  Time
	Modified Time

	// level is the price-ordered bucket this order currently rests in, and
	// elem is its node within that level's arrival-ordered FIFO. Both are
	// nil when the order is not resting in a book (e.g. fully filled at
	// construction or not yet inserted).
	level *level
	elem  *list.Element
}

// newOrder constructs a brand-new order in State New with its full
// quantity outstanding.
func newOrder(accnt string, marketId Id64, instr string, settlDay JulianDay, id Id64, ref string,
	side Side, lots Lots, ticks Ticks, minLots Lots, now Time) *Order {
	return &Order{
		Accnt:    accnt,
		MarketId: marketId,
		Instr:    instr,
		SettlDay: settlDay,
		Id:       id,
		Ref:      ref,
		State:    StateNew,
		Side:     side,
		Lots:     lots,
		Ticks:    ticks,
		ResdLots: lots,
		MinLots:  minLots,
		Created:  now,
		Modified: now,
	}
}

// done reports whether the order has reached a terminal state (fully
// filled or cancelled) and is therefore no longer resting in any book.
func (o *Order) done() bool {
	return o.State == StateTrade || o.State == StateCancel
}

// trade applies the effect of one or more matched fills to the order:
// sumLots/sumCost accumulate across all matches in this operation,
// lastLots/lastTicks record the final (most recent) fill.
func (o *Order) trade(sumLots Lots, sumCost Cost, lastLots Lots, lastTicks Ticks, now Time) {
	o.ResdLots -= sumLots
	o.ExecLots += sumLots
	o.ExecCost += sumCost
	o.LastLots = lastLots
	o.LastTicks = lastTicks
	o.Modified = now
	if o.ResdLots == 0 {
		o.State = StateTrade
	}
}

// reviseLots applies a lots reduction outside of matching (client-initiated
// revision). Precondition: newLots has already been validated by the
// caller (§4.3: monotonicity, minLots, execLots bounds).
func (o *Order) reviseLots(newLots Lots, now Time) {
	delta := o.Lots - newLots
	o.Lots = newLots
	o.ResdLots -= delta
	o.Modified = now
	o.State = StateRevise
}

// cancel marks the order terminal with no residual.
func (o *Order) cancel(now Time) {
	o.State = StateCancel
	o.ResdLots = 0
	o.Modified = now
}
