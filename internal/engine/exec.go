package engine

// Exec is an immutable execution record, appended-only. Execs are
// shared-ownership value types: the same record is referenced from the
// originating account's exec ring, the response handed to the caller, and
// the batch submitted to the journal. Because Exec is never mutated after
// construction, aliasing across those three owners is safe (spec.md §3).
type Exec struct {
	Accnt    string
	MarketId Id64
	Instr    string
	SettlDay JulianDay
	Id       Id64
	OrderId  Id64 // 0 for a manual trade
	Ref      string
	State    State
	Side     Side

	Lots     Lots
	Ticks    Ticks
	ResdLots Lots
	ExecLots Lots
	ExecCost Cost

	LastLots  Lots
	LastTicks Ticks
	MinLots   Lots

	MatchId Id64 // peer execution id, for trades
	PosnLots Lots
	PosnCost Cost
	LiqInd   LiqInd
	Cpty     string // counterparty symbol, empty unless a manual back-to-back trade

	Created Time
}

// newExec snapshots order's post-operation fields into a fresh Exec
// carrying id. Used for New/Revise/Cancel execs and as the basis for trade
// execs before trade() is applied.
func newExec(order *Order, id Id64, created Time) *Exec {
	return &Exec{
		Accnt:    order.Accnt,
		MarketId: order.MarketId,
		Instr:    order.Instr,
		SettlDay: order.SettlDay,
		Id:       id,
		OrderId:  order.Id,
		Ref:      order.Ref,
		State:    order.State,
		Side:     order.Side,
		Lots:     order.Lots,
		Ticks:    order.Ticks,
		ResdLots: order.ResdLots,
		ExecLots: order.ExecLots,
		ExecCost: order.ExecCost,
		LastLots:  order.LastLots,
		LastTicks: order.LastTicks,
		MinLots:   order.MinLots,
		Created:   created,
	}
}

// revise sets this exec to reflect a client-initiated revision to lots.
func (e *Exec) revise(lots Lots) {
	delta := e.Lots - lots
	e.State = StateRevise
	e.Lots = lots
	e.ResdLots -= delta
}

// cancel sets this exec to reflect a cancellation.
func (e *Exec) cancel() {
	e.State = StateCancel
	e.ResdLots = 0
}

// trade sets this exec to reflect one taker-side fill across possibly
// several matches: sumLots/sumCost are the operation's running totals,
// lastLots/lastTicks the final fill, matchId the peer exec, liqInd/cpty the
// counterparty classification.
func (e *Exec) trade(sumLots Lots, sumCost Cost, lastLots Lots, lastTicks Ticks, matchId Id64,
	liqInd LiqInd, cpty string) {
	e.State = StateTrade
	e.ResdLots -= sumLots
	e.ExecLots += sumLots
	e.ExecCost += sumCost
	e.LastLots = lastLots
	e.LastTicks = lastTicks
	e.MatchId = matchId
	e.LiqInd = liqInd
	e.Cpty = cpty
}

// tradeMaker is the single-fill form of trade(), used for a maker's exec.
func (e *Exec) tradeMaker(lots Lots, ticks Ticks, matchId Id64, liqInd LiqInd, cpty string) {
	e.trade(lots, cost(lots, ticks), lots, ticks, matchId, liqInd, cpty)
}

// posn snapshots the post-trade position into this exec.
func (e *Exec) posn(netLots Lots, netCost Cost) {
	e.PosnLots = netLots
	e.PosnCost = netCost
}

// opposite builds the mirrored peer exec for a manual back-to-back trade
// (spec.md §4.7): same lots/ticks, opposite side, a fresh id, and the
// counterparty relationship reversed.
func (e *Exec) opposite(cptyId Id64) *Exec {
	side := SideSell
	if e.Side == SideSell {
		side = SideBuy
	}
	return &Exec{
		Accnt:     e.Cpty,
		MarketId:  e.MarketId,
		Instr:     e.Instr,
		SettlDay:  e.SettlDay,
		Id:        cptyId,
		OrderId:   0,
		Ref:       "",
		State:     StateTrade,
		Side:      side,
		Lots:      e.Lots,
		Ticks:     e.Ticks,
		ResdLots:  0,
		ExecLots:  e.Lots,
		ExecCost:  cost(e.Lots, e.Ticks),
		LastLots:  e.LastLots,
		LastTicks: e.LastTicks,
		MinLots:   1,
		MatchId:   e.Id,
		LiqInd:    e.LiqInd,
		Cpty:      e.Accnt,
		Created:   e.Created,
	}
}
