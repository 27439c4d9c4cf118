package engine

// execReplayWindow bounds how far back Load reads execs: one week, per
// spec.md §4.4 (608400000ms in the spec text; the value actually used by
// the original source, and reproduced here, is 7*24h = 604800000ms).
const execReplayWindow = 7 * 24 * 60 * 60 * 1000 // ms

// MarketSnapshot is the persisted shape of a market, as read during Load.
type MarketSnapshot struct {
	Id       Id64
	Instr    string
	SettlDay JulianDay
	State    MarketState
}

// Model is the read side of durable storage that Load rebuilds the engine
// from. Implementations live in internal/model; the core depends only on
// this interface (spec.md §2, "Out of scope (external collaborators)").
type Model interface {
	ReadAssets(func(*Asset)) error
	ReadInstrs(func(*Instrument)) error
	ReadMarkets(func(*MarketSnapshot)) error
	ReadOrders(func(*Order)) error
	ReadExecs(since Time, fn func(*Exec)) error
	ReadTrades(func(*Exec)) error
	ReadPosns(busDay JulianDay, fn func(*Posn)) error
}

// Load rebuilds the engine from persisted state in the order spec.md §4.4
// requires: assets, instruments, markets, live orders (each inserted into
// its owning account AND the appropriate market side), execs from the last
// 7×24h window, trades, and positions for the current business day.
//
// Every order references a market; every exec references an order that
// may already be filled and removed; trades and positions are independent
// summaries — hence this exact ordering.
func (s *Serv) Load(model Model, now Time) error {
	busDay := s.busDay.Of(now)

	if err := model.ReadAssets(func(a *Asset) { s.assets.Insert(a) }); err != nil {
		return err
	}
	if err := model.ReadInstrs(func(i *Instrument) { s.instrs.Insert(i) }); err != nil {
		return err
	}
	if err := model.ReadMarkets(func(ms *MarketSnapshot) {
		m := newMarket(ms.Id, ms.Instr, ms.SettlDay, ms.State)
		s.markets.Insert(m)
	}); err != nil {
		return err
	}

	maxSeq := make(map[Id64]Id64)
	var orphanErr error
	if err := model.ReadOrders(func(o *Order) {
		accnt := s.accnts.Accnt(o.Accnt)
		accnt.insertOrder(o)
		if o.Id > maxSeq[o.MarketId] {
			maxSeq[o.MarketId] = o.Id
		}
		market, ok := s.markets.Find(o.MarketId)
		if !ok {
			// Unwind: an order with no owning market is a corrupt
			// journal; fatal errors propagate and abort (spec.md §7).
			accnt.removeOrder(o)
			if orphanErr == nil {
				orphanErr = newErrorf(MarketNotFound, "order '%s' references unknown market '%s'", o.Id, o.MarketId)
			}
			return
		}
		market.insertOrder(o)
	}); err != nil {
		return err
	}
	if orphanErr != nil {
		return orphanErr
	}

	// Execs arrive oldest-first; pushing each onto the front leaves the
	// ring newest-first, and evicts the oldest once it is full.
	since := now - execReplayWindow
	if err := model.ReadExecs(since, func(e *Exec) {
		accnt := s.accnts.Accnt(e.Accnt)
		accnt.pushExecFront(e)
		if e.Id > maxSeq[e.MarketId] {
			maxSeq[e.MarketId] = e.Id
		}
	}); err != nil {
		return err
	}

	if err := model.ReadTrades(func(e *Exec) {
		accnt := s.accnts.Accnt(e.Accnt)
		accnt.insertTrade(e)
	}); err != nil {
		return err
	}

	if err := model.ReadPosns(busDay, func(p *Posn) {
		accnt := s.accnts.Accnt(p.Accnt)
		accnt.insertPosn(p)
	}); err != nil {
		return err
	}

	// Recover each market's exec-id counter as max(id)+1 over every
	// journalled exec for that market (spec.md §4.5).
	for id, seq := range maxSeq {
		if m, ok := s.markets.Find(id); ok {
			m.restoreSeq(seq)
		}
	}

	return nil
}
