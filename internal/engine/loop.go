// internal/engine/loop.go
package engine

import "context"

// Engine wraps a Serv and serializes access to it through a single command
// channel, so that the matching core itself never needs to know about
// goroutines (spec.md §5: "callers serialize access to it, e.g. via the
// command channel in cmd/server"). Exactly one goroutine should ever call
// Run.
type Engine struct {
	serv   *Serv
	cmds   chan Command
	done   chan struct{}
	notify func(*Market)
}

// NewEngine constructs an Engine around serv with a command channel of the
// given buffer depth.
func NewEngine(serv *Serv, buffer int) *Engine {
	return &Engine{
		serv: serv,
		cmds: make(chan Command, buffer),
		done: make(chan struct{}),
	}
}

// SetNotify registers fn to be called, from within Run's goroutine,
// immediately after any command that may have moved a market's
// top-of-book. Callers use it to push BBOSnapshots out to market-data
// subscribers without reading the book from another goroutine.
func (e *Engine) SetNotify(fn func(*Market)) { e.notify = fn }

// Serv returns the underlying service. Only safe to call from within Run's
// goroutine, or before Run has started (e.g. to Load initial state).
func (e *Engine) Serv() *Serv { return e.serv }

// Submit hands cmd to the engine's single goroutine and blocks until the
// reply is enqueued on cmd.Resp. Callers from other goroutines should use
// Submit rather than writing to the command channel directly so that a
// full buffer or a cancelled ctx doesn't deadlock the caller.
func (e *Engine) Submit(ctx context.Context, cmd Command) (CommandResult, error) {
	select {
	case e.cmds <- cmd:
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
	select {
	case res := <-cmd.Resp:
		return res, nil
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
}

// Done is closed once Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Run drains the command channel until ctx is cancelled, dispatching each
// Command to the matching Serv method and replying on cmd.Resp exactly
// once. This is the only goroutine that may touch e.serv's state.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case cmd := <-e.cmds:
			cmd.Resp <- e.dispatch(cmd)

		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) dispatch(cmd Command) CommandResult {
	switch cmd.Type {

	case CmdCreateMarket:
		if cmd.Instr == nil {
			return CommandResult{Err: newErrorf(InvalidArgument, "create market: no instrument given")}
		}
		market, err := e.serv.CreateMarket(cmd.Instr, cmd.SettlDay, cmd.State, cmd.Now)
		return CommandResult{Market: market, Err: err}

	case CmdUpdateMarket:
		market, err := e.serv.Market(cmd.MarketId)
		if err != nil {
			return CommandResult{Err: err}
		}
		if err := e.serv.UpdateMarket(market, cmd.State, cmd.Now); err != nil {
			return CommandResult{Err: err}
		}
		return CommandResult{Market: market}

	case CmdCreateOrder:
		market, err := e.serv.Market(cmd.MarketId)
		if err != nil {
			return CommandResult{Err: err}
		}
		resp, err := e.serv.CreateOrder(cmd.Accnt, market, cmd.Ref, cmd.Side, cmd.Lots, cmd.Ticks, cmd.MinLots, cmd.Now)
		e.notifyBook(market, err)
		return CommandResult{Response: resp, Err: err}

	case CmdReviseOrder:
		market, err := e.serv.Market(cmd.MarketId)
		if err != nil {
			return CommandResult{Err: err}
		}
		accnt := e.serv.Accnt(cmd.Accnt)
		var resp *Response
		switch {
		case len(cmd.Ids) > 1:
			resp, err = e.serv.ReviseOrdersBatch(cmd.Accnt, market, cmd.Ids, cmd.Lots, cmd.Now)
		case cmd.Ref != "":
			resp, err = e.serv.ReviseOrderByRef(cmd.Accnt, market, cmd.Ref, cmd.Lots, cmd.Now)
		case cmd.OrderId != 0:
			resp, err = e.serv.ReviseOrderByID(cmd.Accnt, market, cmd.OrderId, cmd.Lots, cmd.Now)
		default:
			order, lookupErr := e.serv.lookupOrder(accnt, market, cmd.OrderId)
			if lookupErr != nil {
				return CommandResult{Err: lookupErr}
			}
			resp, err = e.serv.ReviseOrder(cmd.Accnt, market, order, cmd.Lots, cmd.Now)
		}
		e.notifyBook(market, err)
		return CommandResult{Response: resp, Err: err}

	case CmdCancelOrder:
		market, err := e.serv.Market(cmd.MarketId)
		if err != nil {
			return CommandResult{Err: err}
		}
		var resp *Response
		switch {
		case len(cmd.Ids) > 1:
			resp, err = e.serv.CancelOrdersBatch(cmd.Accnt, market, cmd.Ids, cmd.Now)
		case cmd.Ref != "":
			resp, err = e.serv.CancelOrderByRef(cmd.Accnt, market, cmd.Ref, cmd.Now)
		default:
			resp, err = e.serv.CancelOrderByID(cmd.Accnt, market, cmd.OrderId, cmd.Now)
		}
		e.notifyBook(market, err)
		return CommandResult{Response: resp, Err: err}

	case CmdCreateTrade:
		market, err := e.serv.Market(cmd.MarketId)
		if err != nil {
			return CommandResult{Err: err}
		}
		pair, err := e.serv.CreateTrade(cmd.Accnt, market, cmd.Ref, cmd.Side, cmd.Lots, cmd.Ticks, cmd.LiqInd, cmd.Cpty, cmd.Now)
		return CommandResult{TradePair: pair, Err: err}

	case CmdArchiveTrade:
		var err error
		if len(cmd.Ids) > 1 {
			err = e.serv.ArchiveTradesBatch(cmd.Accnt, cmd.MarketId, cmd.Ids, cmd.Now)
		} else {
			err = e.serv.ArchiveTradeByID(cmd.Accnt, cmd.MarketId, cmd.OrderId, cmd.Now)
		}
		return CommandResult{Err: err}

	case CmdQueryBBO:
		market, err := e.serv.Market(cmd.MarketId)
		if err != nil {
			return CommandResult{Err: err}
		}
		return CommandResult{BBO: newBBOSnapshot(market)}

	case CmdQueryAccnt:
		return CommandResult{Accnt: newAccntSnapshot(e.serv.Accnt(cmd.Accnt))}

	default:
		return CommandResult{Err: newErrorf(InvalidArgument, "unknown command type %d", cmd.Type)}
	}
}

// notifyBook calls e.notify with market's fresh state, if a notifier is
// registered and the command that may have moved the book succeeded.
func (e *Engine) notifyBook(market *Market, err error) {
	if err == nil && e.notify != nil {
		e.notify(market)
	}
}
