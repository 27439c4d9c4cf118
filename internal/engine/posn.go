package engine

// posnKey identifies a Posn by (market, instrument, settlement day). Positions
// are never netted across settlement days (spec.md §1 Non-goals).
type posnKey struct {
	marketId Id64
	instr    string
	settlDay JulianDay
}

// Posn is a running net position keyed by (accnt, marketId, instr,
// settlDay). It is owned by the account and retained across business
// days; it is never removed within a day.
type Posn struct {
	Accnt    string
	MarketId Id64
	Instr    string
	SettlDay JulianDay

	NetLots Lots
	NetCost Cost
}

func newPosn(accnt string, marketId Id64, instr string, settlDay JulianDay) *Posn {
	return &Posn{Accnt: accnt, MarketId: marketId, Instr: instr, SettlDay: settlDay}
}

// NetLots and NetCost are exported fields above; addTrade applies the
// signed effect of one fill: +lots,+cost for a Buy, -lots,-cost for a Sell.
func (p *Posn) addTrade(side Side, lastLots Lots, lastTicks Ticks) {
	c := cost(lastLots, lastTicks)
	if side == SideBuy {
		p.NetLots += lastLots
		p.NetCost += c
	} else {
		p.NetLots -= lastLots
		p.NetCost -= c
	}
}
