package engine

// TradePair is the result of createTrade: the manual trade exec, plus (if
// a counterparty was specified) the mirrored back-to-back exec.
type TradePair struct {
	Trade    *Exec
	Opposite *Exec // nil unless a counterparty symbol was given
}

// Serv is the matching service: it orchestrates createOrder, reviseOrder,
// cancelOrder, createTrade and archiveTrade as two-phase
// reserve/commit transactions across the book, the accounts, the
// positions, and the durable journal (spec.md §4.3). A single Serv owns
// all markets and accounts and is intended to be driven by exactly one
// goroutine (spec.md §5); callers serialize access to it, e.g. via the
// command channel in cmd/server.
type Serv struct {
	mq       MsgQueue
	log      Logger
	maxExecs int
	busDay   BusinessDay

	assets  *AssetSet
	instrs  *InstrSet
	markets *MarketSet
	accnts  *AccntSet

	sc scratch
}

// Option configures a Serv at construction.
type Option func(*Serv)

func WithLogger(l Logger) Option {
	return func(s *Serv) { s.log = l }
}

func WithBusinessDay(b BusinessDay) Option {
	return func(s *Serv) { s.busDay = b }
}

// NewServ constructs a Serv with empty reference data and no accounts or
// markets; call Load to recover persisted state, or CreateMarket/etc to
// build up state from scratch (e.g. in tests).
func NewServ(mq MsgQueue, maxExecs int, opts ...Option) *Serv {
	s := &Serv{
		mq:       mq,
		log:      noopLogger{},
		maxExecs: maxExecs,
		busDay:   MarketZone,
		assets:   NewAssetSet(),
		instrs:   NewInstrSet(),
		markets:  NewMarketSet(),
		accnts:   NewAccntSet(maxExecs),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Serv) Assets() *AssetSet   { return s.assets }
func (s *Serv) Instrs() *InstrSet   { return s.instrs }
func (s *Serv) Markets() *MarketSet { return s.markets }
func (s *Serv) Accnts() *AccntSet   { return s.accnts }

func (s *Serv) Instr(symbol string) (*Instrument, error) {
	i, ok := s.instrs.Find(symbol)
	if !ok {
		return nil, newErrorf(InstrumentNotFound, "instrument '%s' does not exist", symbol)
	}
	return i, nil
}

func (s *Serv) Market(id Id64) (*Market, error) {
	m, ok := s.markets.Find(id)
	if !ok {
		return nil, newErrorf(MarketNotFound, "market '%s' does not exist", id)
	}
	return m, nil
}

// Accnt returns the named account, creating an empty one on first
// reference (spec.md §4.6).
func (s *Serv) Accnt(symbol string) *Account {
	return s.accnts.Accnt(symbol)
}

// CreateMarket creates and journals a new market for instr, settling on
// settlDay (0 means spot). Fails with AlreadyExists if the derived market
// id collides with an existing market.
func (s *Serv) CreateMarket(instr *Instrument, settlDay JulianDay, state MarketState, now Time) (*Market, error) {
	if settlDay != 0 {
		busDay := s.busDay.Of(now)
		if settlDay < busDay {
			return nil, newError(InvalidArgument, "settl-day before bus-day")
		}
	}
	id := toMarketId(instr.Id, settlDay)
	if _, found := s.markets.Find(id); found {
		return nil, newErrorf(AlreadyExists, "market for '%s' on %d already exists", instr.Symbol, jdToIso(settlDay))
	}
	if err := s.mq.CreateMarket(id, instr.Symbol, settlDay, state); err != nil {
		return nil, newErrorf(JournalFailure, "create market: %v", err)
	}
	m := newMarket(id, instr.Symbol, settlDay, state)
	s.markets.Insert(m)
	return m, nil
}

// UpdateMarket journals and applies a market state transition.
func (s *Serv) UpdateMarket(market *Market, state MarketState, now Time) error {
	if err := s.mq.UpdateMarket(market.Id(), state); err != nil {
		return newErrorf(JournalFailure, "update market: %v", err)
	}
	market.setState(state)
	return nil
}

// CreateOrder validates, matches, journals, and commits a new order
// (spec.md §4.3 Phase 1/Phase 2). On any Phase-1 error, no state has
// changed. On a JournalFailure, the Phase-1 book insertion (if any) is
// unwound before the error is returned.
func (s *Serv) CreateOrder(accntSym string, market *Market, ref string, side Side, lots Lots,
	ticks Ticks, minLots Lots, now Time) (*Response, error) {

	accnt := s.accnts.Accnt(accntSym)

	// N.B. duplicates are only checked in the ref index; refs may be
	// reused so long as only one order is live at a time (spec.md §4.3
	// comment preserved from the original source).
	if ref != "" && accnt.exists(ref) {
		return nil, newErrorf(RefAlreadyExists, "order '%s' already exists", ref)
	}

	busDay := s.busDay.Of(now)
	if market.SettlDay() != 0 && market.SettlDay() < busDay {
		return nil, newErrorf(MarketClosed, "market for '%s' on %d has closed", market.Instr(), jdToIso(market.SettlDay()))
	}
	if lots <= 0 || lots < minLots {
		return nil, newErrorf(InvalidArgument, "invalid lots '%d'", lots)
	}

	id := market.allocId()
	order := newOrder(accntSym, market.Id(), market.Instr(), market.SettlDay(), id, ref, side, lots, ticks, minLots, now)
	exec := newExec(order, id, now)

	resp := NewResponse()
	resp.insertOrder(order)
	resp.insertExec(exec)

	s.sc.clear()
	defer s.sc.clear()
	s.sc.execs = append(s.sc.execs, exec)

	// Phase 1: match into scratch buffers. No shared state mutated yet.
	matchOrders(s.accnts, market, accnt, order, now, &s.sc, resp)

	resp.SetMarket(market)

	var posn *Posn
	if len(s.sc.matches) > 0 {
		// Fetched before commit because allocation may fail; avoided
		// entirely when there were no matches.
		posn = accnt.posn(market.Id(), market.Instr(), market.SettlDay())
		resp.SetPosn(posn)
	}

	// Place the incomplete residual, if any, before the journal call so
	// that a journal failure can be unwound by simply removing it again.
	inserted := false
	if !order.done() {
		market.insertOrder(order)
		inserted = true
	}

	if err := s.mq.CreateExec(s.sc.execs); err != nil {
		if inserted {
			market.removeOrder(order)
		}
		return nil, newErrorf(JournalFailure, "create exec: %v", err)
	}

	// Phase 2: commit. Must not fail past this point.
	if !order.done() {
		accnt.insertOrder(order)
	}
	accnt.pushExecFront(exec)

	if len(s.sc.matches) > 0 {
		commitMatches(s.accnts, market, accnt, posn, s.sc.matches, now)
	}

	return resp, nil
}

func (s *Serv) lookupOrder(accnt *Account, market *Market, id Id64) (*Order, error) {
	o, ok := accnt.OrderByID(market.Id(), id)
	if !ok {
		return nil, newErrorf(OrderNotFound, "order '%s' does not exist", id)
	}
	return o, nil
}

func (s *Serv) lookupOrderByRef(accnt *Account, ref string) (*Order, error) {
	o, ok := accnt.OrderByRef(ref)
	if !ok {
		return nil, newErrorf(OrderNotFound, "order '%s' does not exist", ref)
	}
	return o, nil
}

// ReviseOrder revises order's lots. Revised lots must not be greater than
// original lots, less than executed lots, or less than minLots
// (spec.md §4, scenario 5).
func (s *Serv) ReviseOrder(accntSym string, market *Market, order *Order, lots Lots, now Time) (*Response, error) {
	if order.done() {
		return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
	}
	return s.doReviseOrder(s.accnts.Accnt(accntSym), market, order, lots, now)
}

func (s *Serv) ReviseOrderByID(accntSym string, market *Market, id Id64, lots Lots, now Time) (*Response, error) {
	accnt := s.accnts.Accnt(accntSym)
	order, err := s.lookupOrder(accnt, market, id)
	if err != nil {
		return nil, err
	}
	if order.done() {
		return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
	}
	return s.doReviseOrder(accnt, market, order, lots, now)
}

func (s *Serv) ReviseOrderByRef(accntSym string, market *Market, ref string, lots Lots, now Time) (*Response, error) {
	accnt := s.accnts.Accnt(accntSym)
	order, err := s.lookupOrderByRef(accnt, ref)
	if err != nil {
		return nil, err
	}
	if order.done() {
		return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
	}
	return s.doReviseOrder(accnt, market, order, lots, now)
}

// ReviseOrdersBatch revises a set of orders as one journal batch: all ids
// are validated before anything is journalled, so the batch either
// entirely succeeds or leaves no state mutated.
func (s *Serv) ReviseOrdersBatch(accntSym string, market *Market, ids []Id64, lots Lots, now Time) (*Response, error) {
	accnt := s.accnts.Accnt(accntSym)
	resp := NewResponse()
	resp.SetMarket(market)

	for _, id := range ids {
		order, err := s.lookupOrder(accnt, market, id)
		if err != nil {
			return nil, err
		}
		if order.done() {
			return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
		}
		if err := validReviseLots(order, lots); err != nil {
			return nil, err
		}
		exec := newExec(order, market.allocId(), now)
		exec.revise(lots)
		resp.insertOrder(order)
		resp.insertExec(exec)
	}

	if err := s.mq.CreateExec(resp.Execs()); err != nil {
		return nil, newErrorf(JournalFailure, "create exec: %v", err)
	}

	for _, exec := range resp.Execs() {
		order, ok := accnt.OrderByID(market.Id(), exec.OrderId)
		if !ok {
			s.log.Errorf("revised order %s vanished from account %s before commit", exec.OrderId, accntSym)
			continue
		}
		market.reviseOrder(order, lots, now)
		accnt.pushExecFront(exec)
	}
	return resp, nil
}

// validReviseLots enforces the three monotonicity rules spec.md §4.3
// requires of a revision: not greater than original lots, not less than
// executed lots, not less than minLots.
func validReviseLots(order *Order, lots Lots) error {
	if lots == 0 || lots > order.Lots || lots < order.ExecLots || lots < order.MinLots {
		return newErrorf(InvalidArgument, "invalid lots '%d'", lots)
	}
	return nil
}

func (s *Serv) doReviseOrder(accnt *Account, market *Market, order *Order, lots Lots, now Time) (*Response, error) {
	if err := validReviseLots(order, lots); err != nil {
		return nil, err
	}
	exec := newExec(order, market.allocId(), now)
	exec.revise(lots)

	resp := NewResponse()
	resp.SetMarket(market)
	resp.insertOrder(order)
	resp.insertExec(exec)

	if err := s.mq.CreateExec([]*Exec{exec}); err != nil {
		return nil, newErrorf(JournalFailure, "create exec: %v", err)
	}

	market.reviseOrder(order, lots, now)
	accnt.pushExecFront(exec)
	return resp, nil
}

func (s *Serv) doCancelOrder(accnt *Account, market *Market, order *Order, now Time) (*Response, error) {
	exec := newExec(order, market.allocId(), now)
	exec.cancel()

	resp := NewResponse()
	resp.SetMarket(market)
	resp.insertOrder(order)
	resp.insertExec(exec)

	if err := s.mq.CreateExec([]*Exec{exec}); err != nil {
		return nil, newErrorf(JournalFailure, "create exec: %v", err)
	}

	market.cancelOrder(order, now)
	accnt.removeOrder(order)
	accnt.pushExecFront(exec)
	return resp, nil
}

// CancelOrder cancels a live order.
func (s *Serv) CancelOrder(accntSym string, market *Market, order *Order, now Time) (*Response, error) {
	if order.done() {
		return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
	}
	return s.doCancelOrder(s.accnts.Accnt(accntSym), market, order, now)
}

func (s *Serv) CancelOrderByID(accntSym string, market *Market, id Id64, now Time) (*Response, error) {
	accnt := s.accnts.Accnt(accntSym)
	order, err := s.lookupOrder(accnt, market, id)
	if err != nil {
		return nil, err
	}
	if order.done() {
		return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
	}
	return s.doCancelOrder(accnt, market, order, now)
}

func (s *Serv) CancelOrderByRef(accntSym string, market *Market, ref string, now Time) (*Response, error) {
	accnt := s.accnts.Accnt(accntSym)
	order, err := s.lookupOrderByRef(accnt, ref)
	if err != nil {
		return nil, err
	}
	if order.done() {
		return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
	}
	return s.doCancelOrder(accnt, market, order, now)
}

// CancelOrdersBatch cancels a set of orders as one journal batch.
func (s *Serv) CancelOrdersBatch(accntSym string, market *Market, ids []Id64, now Time) (*Response, error) {
	accnt := s.accnts.Accnt(accntSym)
	resp := NewResponse()
	resp.SetMarket(market)

	for _, id := range ids {
		order, err := s.lookupOrder(accnt, market, id)
		if err != nil {
			return nil, err
		}
		if order.done() {
			return nil, newErrorf(TooLate, "order '%s' is done", order.Id)
		}
		exec := newExec(order, market.allocId(), now)
		exec.cancel()
		resp.insertOrder(order)
		resp.insertExec(exec)
	}

	if err := s.mq.CreateExec(resp.Execs()); err != nil {
		return nil, newErrorf(JournalFailure, "create exec: %v", err)
	}

	for _, exec := range resp.Execs() {
		order, ok := accnt.OrderByID(market.Id(), exec.OrderId)
		if !ok {
			s.log.Errorf("cancelled order %s vanished from account %s before commit", exec.OrderId, accntSym)
			continue
		}
		market.cancelOrder(order, now)
		accnt.removeOrder(order)
		accnt.pushExecFront(exec)
	}
	return resp, nil
}

// CancelAllMatching atomically cancels every live order in market matching
// pred. The spec leaves bulk-cancel semantics as an open question (its
// source has two unimplemented overloads); this implements
// cancel-all-matching-predicate, as spec.md §9 instructs.
func (s *Serv) CancelAllMatching(market *Market, pred func(*Order) bool, now Time) (*Response, error) {
	var ids []Id64
	var accntOf []*Account
	sides := []*MarketSide{market.BidSide(), market.OfferSide()}
	for _, side := range sides {
		for _, lvl := range side.Levels() {
			for e := lvl.orders.Front(); e != nil; e = e.Next() {
				o := e.Value.(*Order)
				if pred(o) {
					ids = append(ids, o.Id)
					accntOf = append(accntOf, s.accnts.Accnt(o.Accnt))
				}
			}
		}
	}

	resp := NewResponse()
	resp.SetMarket(market)
	execs := make([]*Exec, 0, len(ids))
	orders := make([]*Order, 0, len(ids))
	for i, id := range ids {
		accnt := accntOf[i]
		order, ok := accnt.OrderByID(market.Id(), id)
		if !ok {
			continue
		}
		exec := newExec(order, market.allocId(), now)
		exec.cancel()
		resp.insertOrder(order)
		resp.insertExec(exec)
		execs = append(execs, exec)
		orders = append(orders, order)
	}

	if len(execs) == 0 {
		return resp, nil
	}
	if err := s.mq.CreateExec(execs); err != nil {
		return nil, newErrorf(JournalFailure, "create exec: %v", err)
	}

	for i, order := range orders {
		accnt := accntOf[i]
		market.cancelOrder(order, now)
		accnt.removeOrder(order)
		accnt.pushExecFront(execs[i])
	}
	return resp, nil
}

// CreateTrade books an admin manual trade without an originating order
// (spec.md §4.7). If cpty is non-empty, a mirrored back-to-back exec is
// built for the counterparty account and both positions are updated as
// one journal batch.
func (s *Serv) CreateTrade(accntSym string, market *Market, ref string, side Side, lots Lots,
	ticks Ticks, liqInd LiqInd, cpty string, now Time) (TradePair, error) {

	accnt := s.accnts.Accnt(accntSym)
	posn := accnt.posn(market.Id(), market.Instr(), market.SettlDay())

	id := market.allocId()
	trade := newManualExec(accntSym, market.Id(), market.Instr(), market.SettlDay(), id, ref, side,
		lots, ticks, posn.NetLots, posn.NetCost, liqInd, cpty, now)

	var oppTrade *Exec
	if cpty != "" {
		cptyAccnt := s.accnts.Accnt(cpty)
		cptyPosn := cptyAccnt.posn(market.Id(), market.Instr(), market.SettlDay())
		oppTrade = trade.opposite(market.allocId())

		if err := s.mq.CreateExec([]*Exec{trade, oppTrade}); err != nil {
			return TradePair{}, newErrorf(JournalFailure, "create exec: %v", err)
		}

		cptyAccnt.pushExecFront(oppTrade)
		cptyAccnt.insertTrade(oppTrade)
		cptyPosn.addTrade(oppTrade.Side, oppTrade.LastLots, oppTrade.LastTicks)
	} else {
		if err := s.mq.CreateExec([]*Exec{trade}); err != nil {
			return TradePair{}, newErrorf(JournalFailure, "create exec: %v", err)
		}
	}

	accnt.pushExecFront(trade)
	accnt.insertTrade(trade)
	posn.addTrade(trade.Side, trade.LastLots, trade.LastTicks)

	return TradePair{Trade: trade, Opposite: oppTrade}, nil
}

// newManualExec builds the exec for a manual trade: orderId 0, state
// Trade, no residual, full lots executed, minLots 1 (spec.md §4.7).
func newManualExec(accnt string, marketId Id64, instr string, settlDay JulianDay, id Id64, ref string,
	side Side, lots Lots, ticks Ticks, posnLots Lots, posnCost Cost, liqInd LiqInd, cpty string, created Time) *Exec {
	return &Exec{
		Accnt:     accnt,
		MarketId:  marketId,
		Instr:     instr,
		SettlDay:  settlDay,
		Id:        id,
		OrderId:   0,
		Ref:       ref,
		State:     StateTrade,
		Side:      side,
		Lots:      lots,
		Ticks:     ticks,
		ResdLots:  0,
		ExecLots:  lots,
		ExecCost:  cost(lots, ticks),
		LastLots:  lots,
		LastTicks: ticks,
		MinLots:   1,
		MatchId:   0,
		PosnLots:  posnLots,
		PosnCost:  posnCost,
		LiqInd:    liqInd,
		Cpty:      cpty,
		Created:   created,
	}
}

// ArchiveTrade removes trade from accnt's live trade index. The trade
// remains in the durable journal (spec.md §4.8).
func (s *Serv) ArchiveTrade(accntSym string, trade *Exec, now Time) error {
	if trade.State != StateTrade {
		return newErrorf(InvalidArgument, "exec '%s' is not a trade", trade.Id)
	}
	return s.doArchiveTrade(s.accnts.Accnt(accntSym), trade, now)
}

func (s *Serv) ArchiveTradeByID(accntSym string, marketId, id Id64, now Time) error {
	accnt := s.accnts.Accnt(accntSym)
	trade, ok := accnt.Trade(marketId, id)
	if !ok {
		return newErrorf(TradeNotFound, "trade '%s' does not exist", id)
	}
	return s.doArchiveTrade(accnt, trade, now)
}

// ArchiveTradesBatch validates every id first (fails if any is unknown),
// then journals and removes the whole batch, preserving atomicity
// (spec.md §4.8).
func (s *Serv) ArchiveTradesBatch(accntSym string, marketId Id64, ids []Id64, now Time) error {
	accnt := s.accnts.Accnt(accntSym)
	trades := make([]*Exec, len(ids))
	for i, id := range ids {
		trade, ok := accnt.Trade(marketId, id)
		if !ok {
			return newErrorf(TradeNotFound, "trade '%s' does not exist", id)
		}
		trades[i] = trade
	}

	if err := s.mq.ArchiveTrade(marketId, ids, now); err != nil {
		return newErrorf(JournalFailure, "archive trade: %v", err)
	}

	for _, trade := range trades {
		accnt.removeTrade(trade)
	}
	return nil
}

func (s *Serv) doArchiveTrade(accnt *Account, trade *Exec, now Time) error {
	if err := s.mq.ArchiveTrade(trade.MarketId, []Id64{trade.Id}, now); err != nil {
		return newErrorf(JournalFailure, "archive trade: %v", err)
	}
	accnt.removeTrade(trade)
	return nil
}

// ExpireEndOfDay and SettlEndOfDay are scheduled hooks that would iterate
// every market and issue cancels/settlements at the end of the business
// day. The spec treats these as out of scope for the core (spec.md §9
// Open Questions); they are exposed so a scheduler can be wired up without
// reaching into Serv internals, but neither performs any work yet.
func (s *Serv) ExpireEndOfDay(now Time) error { return nil }
func (s *Serv) SettlEndOfDay(now Time) error  { return nil }
