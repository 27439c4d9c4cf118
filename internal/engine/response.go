package engine

// Response accumulates the caller-visible effect of one operation: the
// orders touched (the taker plus, for a self-cross, the resting maker), the
// execs generated, the market the operation ran against, and — when any
// match occurred — the taker's resulting position. Built during Phase 1
// (reserve) and handed back to the caller once Phase 2 (commit) succeeds.
type Response struct {
	market *Market
	posn   *Posn
	orders []*Order
	execs  []*Exec
}

func NewResponse() *Response { return &Response{} }

func (r *Response) SetMarket(m *Market) { r.market = m }
func (r *Response) Market() *Market     { return r.market }

func (r *Response) SetPosn(p *Posn) { r.posn = p }
func (r *Response) Posn() *Posn     { return r.posn }

func (r *Response) insertOrder(o *Order) { r.orders = append(r.orders, o) }
func (r *Response) Orders() []*Order     { return r.orders }

func (r *Response) insertExec(e *Exec) { r.execs = append(r.execs, e) }
func (r *Response) Execs() []*Exec     { return r.execs }
