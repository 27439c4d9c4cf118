package engine

import "container/list"

// marketOrderKey indexes an Order, Exec, or trade within an account by the
// pair (marketId, id).
type marketOrderKey struct {
	marketId Id64
	id       Id64
}

// Account holds the four indices a participant's state is organized into:
// live orders (by (marketId,id) and by ref), a bounded ring of the most
// recent execs (front = newest), trades, and positions (spec.md §3, §4.6).
type Account struct {
	symbol   string
	maxExecs int

	ordersByID  map[marketOrderKey]*Order
	ordersByRef map[string]*Order

	execRing *list.List // of *Exec, front = newest
	execLen  int

	trades map[marketOrderKey]*Exec
	posns  map[posnKey]*Posn
}

func NewAccount(symbol string, maxExecs int) *Account {
	return &Account{
		symbol:      symbol,
		maxExecs:    maxExecs,
		ordersByID:  make(map[marketOrderKey]*Order),
		ordersByRef: make(map[string]*Order),
		execRing:    list.New(),
		trades:      make(map[marketOrderKey]*Exec),
		posns:       make(map[posnKey]*Posn),
	}
}

func (a *Account) Symbol() string { return a.symbol }

// exists reports whether ref collides with a live order (spec.md invariant
// 6: at most one live order maps to a given non-empty ref).
func (a *Account) exists(ref string) bool {
	if ref == "" {
		return false
	}
	_, ok := a.ordersByRef[ref]
	return ok
}

// insertOrder registers o as live in both indices. An empty ref is never
// registered in the ref index.
func (a *Account) insertOrder(o *Order) {
	a.ordersByID[marketOrderKey{o.MarketId, o.Id}] = o
	if o.Ref != "" {
		a.ordersByRef[o.Ref] = o
	}
}

// removeOrder releases o from both live-order indices. Must be called
// atomically with the market side's removal at terminal state (spec.md
// §3 ownership rules).
func (a *Account) removeOrder(o *Order) {
	delete(a.ordersByID, marketOrderKey{o.MarketId, o.Id})
	if o.Ref != "" {
		delete(a.ordersByRef, o.Ref)
	}
}

func (a *Account) OrderByID(marketId, id Id64) (*Order, bool) {
	o, ok := a.ordersByID[marketOrderKey{marketId, id}]
	return o, ok
}

func (a *Account) OrderByRef(ref string) (*Order, bool) {
	o, ok := a.ordersByRef[ref]
	return o, ok
}

func (a *Account) Orders() []*Order {
	out := make([]*Order, 0, len(a.ordersByID))
	for _, o := range a.ordersByID {
		out = append(out, o)
	}
	return out
}

// pushExecFront pushes e onto the front (newest) of the exec ring,
// evicting the oldest (back) exec if the ring is at capacity. The ring
// bounds memory; older execs spill only to durable storage (spec.md §3).
func (a *Account) pushExecFront(e *Exec) {
	a.execRing.PushFront(e)
	a.execLen++
	if a.maxExecs > 0 && a.execLen > a.maxExecs {
		a.execRing.Remove(a.execRing.Back())
		a.execLen--
	}
}

// pushExecBack appends e at the back (oldest end) of the ring; if the ring
// is then over capacity, the front (newest) exec is evicted.
func (a *Account) pushExecBack(e *Exec) {
	a.execRing.PushBack(e)
	a.execLen++
	if a.maxExecs > 0 && a.execLen > a.maxExecs {
		a.execRing.Remove(a.execRing.Front())
		a.execLen--
	}
}

// Execs returns the exec ring contents, newest first.
func (a *Account) Execs() []*Exec {
	out := make([]*Exec, 0, a.execLen)
	for e := a.execRing.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Exec))
	}
	return out
}

func (a *Account) ExecLen() int { return a.execLen }

// insertTrade registers a trade in the account's live trade index.
func (a *Account) insertTrade(e *Exec) {
	a.trades[marketOrderKey{e.MarketId, e.Id}] = e
}

// removeTrade archives a trade out of the account's live index. The trade
// remains in the durable journal (spec.md §4.8).
func (a *Account) removeTrade(e *Exec) {
	delete(a.trades, marketOrderKey{e.MarketId, e.Id})
}

func (a *Account) Trade(marketId, id Id64) (*Exec, bool) {
	e, ok := a.trades[marketOrderKey{marketId, id}]
	return e, ok
}

func (a *Account) Trades() []*Exec {
	out := make([]*Exec, 0, len(a.trades))
	for _, e := range a.trades {
		out = append(out, e)
	}
	return out
}

// posn returns the position for (marketId, instr, settlDay), creating it
// lazily on first trade in that key (spec.md §4.6).
func (a *Account) posn(marketId Id64, instr string, settlDay JulianDay) *Posn {
	key := posnKey{marketId, instr, settlDay}
	p, ok := a.posns[key]
	if !ok {
		p = newPosn(a.symbol, marketId, instr, settlDay)
		a.posns[key] = p
	}
	return p
}

// insertPosn registers a position loaded from durable storage.
func (a *Account) insertPosn(p *Posn) {
	a.posns[posnKey{p.MarketId, p.Instr, p.SettlDay}] = p
}

func (a *Account) Posns() []*Posn {
	out := make([]*Posn, 0, len(a.posns))
	for _, p := range a.posns {
		out = append(out, p)
	}
	return out
}

// AccntSet is the registry of accounts, keyed by symbol. Lookup is lazy: a
// missing symbol causes an empty account to be created and inserted
// (spec.md §4.6).
type AccntSet struct {
	maxExecs int
	byID     map[string]*Account
}

func NewAccntSet(maxExecs int) *AccntSet {
	return &AccntSet{maxExecs: maxExecs, byID: make(map[string]*Account)}
}

func (s *AccntSet) Accnt(symbol string) *Account {
	a, ok := s.byID[symbol]
	if !ok {
		a = NewAccount(symbol, s.maxExecs)
		s.byID[symbol] = a
	}
	return a
}

func (s *AccntSet) Find(symbol string) (*Account, bool) {
	a, ok := s.byID[symbol]
	return a, ok
}

func (s *AccntSet) All() []*Account {
	out := make([]*Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	return out
}
