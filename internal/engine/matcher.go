package engine

// Match is one crossed pair produced by the matcher: the lots traded, the
// resting maker order, the maker's and taker's newly allocated exec
// records (still unlinked from any account), and the maker's position
// (fetched here, before commit, because fetching it may need to allocate —
// see spec.md §4.3).
type Match struct {
	Lots       Lots
	MakerOrder *Order
	MakerExec  *Exec
	MakerPosn  *Posn
	TakerExec  *Exec
}

// scratch holds the reserve-phase working buffers for one operation. It is
// cleared on every exit path by the caller's scope guard (spec.md §4.3,
// §9 "scoped cleanup of scratch buffers" design note), so no operation
// ever observes stale state left over from a previous one.
type scratch struct {
	matches []Match
	execs   []*Exec
}

func (s *scratch) clear() {
	s.matches = s.matches[:0]
	s.execs = s.execs[:0]
}

// spread returns the signed distance between maker and taker prices for
// direct: positive means the prices no longer cross.
func spread(takerTicks, makerTicks Ticks, direct Direct) Ticks {
	if direct == DirectPaid {
		// Paid when the taker lifts the offer.
		return makerTicks - takerTicks
	}
	// Given when the taker hits the bid.
	return takerTicks - makerTicks
}

func minLots(a, b Lots) Lots {
	if a < b {
		return a
	}
	return b
}

// matchOrders resolves taker against the opposite side of market. For each
// maker in price-time priority it computes the crossable quantity at the
// maker's price (maker price always wins — spec.md §4.2 step 3), allocates
// two fresh exec ids, and records a Match plus both execs into sc. No
// shared state (book, account, position) is mutated here; matchOrders only
// appends to sc and resp. The taker order's own fields ARE updated in
// place at the end, mirroring the teacher/original's in-place
// accumulation onto the order object passed in.
func matchOrders(accnts *AccntSet, market *Market, takerAccnt *Account, taker *Order, now Time,
	sc *scratch, resp *Response) {

	var marketSide *MarketSide
	var direct Direct
	if taker.Side == SideBuy {
		marketSide = market.OfferSide()
		direct = DirectPaid
	} else {
		marketSide = market.BidSide()
		direct = DirectGiven
	}

	sumLots := Lots(0)
	sumCost := Cost(0)
	lastLots := Lots(0)
	lastTicks := Ticks(0)

outer:
	for _, lvl := range marketSide.Levels() {
		for e := lvl.orders.Front(); e != nil; e = e.Next() {
			makerOrder := e.Value.(*Order)

			if sumLots == taker.ResdLots {
				break outer
			}
			if spread(taker.Ticks, makerOrder.Ticks, direct) > 0 {
				break outer
			}

			lots := minLots(taker.ResdLots-sumLots, makerOrder.ResdLots)
			ticks := makerOrder.Ticks

			sumLots += lots
			sumCost += cost(lots, ticks)
			lastLots = lots
			lastTicks = ticks

			makerId := market.allocId()
			takerId := market.allocId()

			makerAccnt := accnts.Accnt(makerOrder.Accnt)
			makerPosn := makerAccnt.posn(market.Id(), market.Instr(), market.SettlDay())

			makerExec := newExec(makerOrder, makerId, now)
			makerExec.tradeMaker(lots, ticks, takerId, LiqMaker, takerAccnt.Symbol())

			takerExec := newExec(taker, takerId, now)
			takerExec.trade(sumLots, sumCost, lots, ticks, makerId, LiqTaker, makerOrder.Accnt)

			match := Match{
				Lots:       lots,
				MakerOrder: makerOrder,
				MakerExec:  makerExec,
				MakerPosn:  makerPosn,
				TakerExec:  takerExec,
			}

			// Self-cross: still surface the maker side of the trade to
			// the caller, even though accounting proceeds no
			// differently (spec.md §4.2).
			if makerOrder.Accnt == takerAccnt.Symbol() {
				resp.insertOrder(makerOrder)
				resp.insertExec(makerExec)
			}
			resp.insertExec(takerExec)

			sc.matches = append(sc.matches, match)
			sc.execs = append(sc.execs, makerExec, takerExec)
		}
	}

	if len(sc.matches) > 0 {
		taker.trade(sumLots, sumCost, lastLots, lastTicks, now)
	}
}

// commitMatches applies the committed effect of every match recorded
// during the reserve phase: reduces each maker on its market side,
// updates maker and taker positions and account indices. Must not fail —
// by the time this runs, the journal has already accepted the batch
// (spec.md §4.3).
func commitMatches(accnts *AccntSet, market *Market, takerAccnt *Account, takerPosn *Posn,
	matches []Match, now Time) {
	for _, match := range matches {
		makerOrder := match.MakerOrder

		market.takeOrder(makerOrder, match.Lots, now)

		makerAccnt := accnts.Accnt(makerOrder.Accnt)

		// Maker updated first, consistent with last-look semantics
		// (spec.md GLOSSARY, §4.3).
		makerExec := match.MakerExec
		makerExec.posn(match.MakerPosn.NetLots, match.MakerPosn.NetCost)
		match.MakerPosn.addTrade(makerExec.Side, makerExec.LastLots, makerExec.LastTicks)

		makerAccnt.pushExecFront(makerExec)
		makerAccnt.insertTrade(makerExec)
		if makerOrder.done() {
			makerAccnt.removeOrder(makerOrder)
		}

		takerExec := match.TakerExec
		takerExec.posn(takerPosn.NetLots, takerPosn.NetCost)
		takerPosn.addTrade(takerExec.Side, takerExec.LastLots, takerExec.LastTicks)

		takerAccnt.pushExecFront(takerExec)
		takerAccnt.insertTrade(takerExec)
	}
}
