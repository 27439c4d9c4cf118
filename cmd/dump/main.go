// Command dump loads the engine state from the Postgres Model (reference
// data, live orders, recent execs, trades and positions) and prints the
// whole recovered state as one JSON object, matching spec.md §6's CLI dump
// utilities. The Pebble journal named by -journal is opened but not read.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"matchcore/db"
	"matchcore/internal/engine"
	"matchcore/internal/journal"
	"matchcore/internal/model"
)

type dumpQueue struct{ j *journal.Pebble }

func (q dumpQueue) CreateMarket(engine.Id64, string, engine.JulianDay, engine.MarketState) error {
	return nil
}
func (q dumpQueue) UpdateMarket(engine.Id64, engine.MarketState) error         { return nil }
func (q dumpQueue) CreateExec([]*engine.Exec) error                            { return nil }
func (q dumpQueue) ArchiveTrade(engine.Id64, []engine.Id64, engine.Time) error { return nil }

func main() {
	journalDir := flag.String("journal", "./data/journal", "pebble journal directory")
	flag.Parse()

	j, err := journal.OpenPebble(*journalDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	serv := engine.NewServ(dumpQueue{j: j}, 0)
	if err := serv.Load(model.NewPostgres(pool), engine.Time(time.Now().UnixMilli())); err != nil {
		fmt.Fprintf(os.Stderr, "load: %v\n", err)
		os.Exit(1)
	}

	out := struct {
		Assets  []*engine.Asset      `json:"assets"`
		Contrs  []*engine.Instrument `json:"contrs"`
		Markets []marketDump         `json:"markets"`
		Traders []traderDump         `json:"traders"`
		Orders  []engine.OrderJSON   `json:"orders"`
		Trades  []engine.ExecJSON    `json:"trades"`
		Posns   []*engine.Posn       `json:"posns"`
	}{
		Assets: serv.Assets().All(),
		Contrs: serv.Instrs().All(),
	}

	for _, m := range serv.Markets().All() {
		out.Markets = append(out.Markets, marketDump{Id: m.Id(), Instr: m.Instr(), SettlDay: m.SettlDay(), State: m.State()})
	}

	for _, accnt := range serv.Accnts().All() {
		out.Traders = append(out.Traders, traderDump{Symbol: accnt.Symbol()})
		for _, o := range accnt.Orders() {
			out.Orders = append(out.Orders, o.ToJSON())
		}
		for _, e := range accnt.Trades() {
			out.Trades = append(out.Trades, e.ToJSON())
		}
		out.Posns = append(out.Posns, accnt.Posns()...)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}

type marketDump struct {
	Id       engine.Id64        `json:"id"`
	Instr    string             `json:"instr"`
	SettlDay engine.JulianDay   `json:"settl_day"`
	State    engine.MarketState `json:"state"`
}

type traderDump struct {
	Symbol string `json:"symbol"`
}
