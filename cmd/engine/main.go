// Command engine is a minimal in-process demo of the matching core,
// exercising a resting order and a crossing order with no journal, no
// REST layer, and no websockets — useful for sanity-checking the core in
// isolation.
package main

import (
	"fmt"

	"matchcore/internal/engine"
)

// discardQueue accepts every journal write and keeps nothing; fine for a
// demo that never restarts.
type discardQueue struct{}

func (discardQueue) CreateMarket(engine.Id64, string, engine.JulianDay, engine.MarketState) error {
	return nil
}
func (discardQueue) UpdateMarket(engine.Id64, engine.MarketState) error { return nil }
func (discardQueue) CreateExec([]*engine.Exec) error                   { return nil }
func (discardQueue) ArchiveTrade(engine.Id64, []engine.Id64, engine.Time) error { return nil }

func main() {
	serv := engine.NewServ(discardQueue{}, 16)

	instr := &engine.Instrument{Id: 1, Symbol: "BTCUSD", Asset: "BTC", Ccy: "USD", MinLots: 1, MaxLots: 1_000_000}
	serv.Instrs().Insert(instr)

	market, err := serv.CreateMarket(instr, 0, engine.MarketOpen, 0)
	if err != nil {
		panic(err)
	}

	// Maker: seller rests 1 lot at 100.
	if _, err := serv.CreateOrder("seller", market, "sell-1", engine.SideSell, 1, 100, 1, 0); err != nil {
		panic(err)
	}

	// Taker: buyer lifts it at 100.
	resp, err := serv.CreateOrder("buyer", market, "buy-1", engine.SideBuy, 1, 100, 1, 1)
	if err != nil {
		panic(err)
	}

	for _, e := range resp.Execs() {
		fmt.Printf("exec: accnt=%s side=%s state=%s lots=%d ticks=%d\n", e.Accnt, e.Side, e.State, e.LastLots, e.LastTicks)
	}
}
