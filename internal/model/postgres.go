// Package model provides the durable-read side Load rebuilds the engine
// from: a Postgres-backed implementation of engine.Model, queried directly
// over pgx (no generated query layer ships in this repo, per DESIGN.md).
package model

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"matchcore/internal/engine"
)

// Postgres implements every engine.Model read against Postgres tables:
// assets, instruments, markets, live orders, recent execs, trades and
// positions. It does not read the Pebble journal.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an already-connected pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (m *Postgres) ReadAssets(fn func(*engine.Asset)) error {
	ctx := context.Background()
	rows, err := m.pool.Query(ctx, `SELECT symbol, display, type FROM assets`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a engine.Asset
		var typ int8
		if err := rows.Scan(&a.Symbol, &a.Display, &typ); err != nil {
			return err
		}
		a.Type = engine.AssetType(typ)
		fn(&a)
	}
	return rows.Err()
}

func (m *Postgres) ReadInstrs(fn func(*engine.Instrument)) error {
	ctx := context.Background()
	rows, err := m.pool.Query(ctx, `
		SELECT id, symbol, display, asset, ccy, lot_numer, lot_denom,
		       tick_numer, tick_denom, pip_dp, min_lots, max_lots
		FROM instruments`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var i engine.Instrument
		if err := rows.Scan(&i.Id, &i.Symbol, &i.Display, &i.Asset, &i.Ccy,
			&i.LotNumer, &i.LotDenom, &i.TickNumer, &i.TickDenom, &i.PipDp,
			&i.MinLots, &i.MaxLots); err != nil {
			return err
		}
		fn(&i)
	}
	return rows.Err()
}

func (m *Postgres) ReadMarkets(fn func(*engine.MarketSnapshot)) error {
	ctx := context.Background()
	rows, err := m.pool.Query(ctx, `SELECT id, instr, settl_day, state FROM markets`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ms engine.MarketSnapshot
		if err := rows.Scan(&ms.Id, &ms.Instr, &ms.SettlDay, &ms.State); err != nil {
			return err
		}
		fn(&ms)
	}
	return rows.Err()
}

// ReadOrders reads every live (not done) order, the set Load inserts back
// into both its owning account and its market side (spec.md §4.4).
func (m *Postgres) ReadOrders(fn func(*engine.Order)) error {
	ctx := context.Background()
	rows, err := m.pool.Query(ctx, `
		SELECT accnt, market_id, instr, settl_day, id, ref, state, side,
		       lots, ticks, resd_lots, exec_lots, exec_cost,
		       last_lots, last_ticks, min_lots, created, modified
		FROM orders WHERE state NOT IN (2, 3)`) // StateCancel, StateTrade
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		o, err := scanOrderLike(rows.Scan)
		if err != nil {
			return err
		}
		fn(o)
	}
	return rows.Err()
}

func (m *Postgres) ReadExecs(since engine.Time, fn func(*engine.Exec)) error {
	ctx := context.Background()
	rows, err := m.pool.Query(ctx, `
		SELECT accnt, market_id, instr, settl_day, id, order_id, ref, state, side,
		       lots, ticks, resd_lots, exec_lots, exec_cost, last_lots, last_ticks,
		       min_lots, match_id, posn_lots, posn_cost, liq_ind, cpty, created
		FROM execs WHERE created >= $1 ORDER BY created ASC`, int64(since))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanExec(rows.Scan)
		if err != nil {
			return err
		}
		fn(e)
	}
	return rows.Err()
}

func (m *Postgres) ReadTrades(fn func(*engine.Exec)) error {
	ctx := context.Background()
	rows, err := m.pool.Query(ctx, `
		SELECT accnt, market_id, instr, settl_day, id, order_id, ref, state, side,
		       lots, ticks, resd_lots, exec_lots, exec_cost, last_lots, last_ticks,
		       min_lots, match_id, posn_lots, posn_cost, liq_ind, cpty, created
		FROM trades`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanExec(rows.Scan)
		if err != nil {
			return err
		}
		fn(e)
	}
	return rows.Err()
}

func (m *Postgres) ReadPosns(busDay engine.JulianDay, fn func(*engine.Posn)) error {
	ctx := context.Background()
	rows, err := m.pool.Query(ctx, `
		SELECT accnt, market_id, instr, settl_day, net_lots, net_cost
		FROM posns WHERE settl_day = $1 OR settl_day = 0`, int32(busDay))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var p engine.Posn
		if err := rows.Scan(&p.Accnt, &p.MarketId, &p.Instr, &p.SettlDay, &p.NetLots, &p.NetCost); err != nil {
			return err
		}
		fn(&p)
	}
	return rows.Err()
}

// scanOrderLike scans the columns shared by the orders and execs tables
// into an *engine.Order (execs additionally carry order_id/match_id/posn/
// liq/cpty, scanned separately by scanExec).
func scanOrderLike(scan func(dest ...any) error) (*engine.Order, error) {
	o := &engine.Order{}
	err := scan(&o.Accnt, &o.MarketId, &o.Instr, &o.SettlDay, &o.Id, &o.Ref, &o.State, &o.Side,
		&o.Lots, &o.Ticks, &o.ResdLots, &o.ExecLots, &o.ExecCost,
		&o.LastLots, &o.LastTicks, &o.MinLots, &o.Created, &o.Modified)
	return o, err
}

func scanExec(scan func(dest ...any) error) (*engine.Exec, error) {
	e := &engine.Exec{}
	err := scan(&e.Accnt, &e.MarketId, &e.Instr, &e.SettlDay, &e.Id, &e.OrderId, &e.Ref, &e.State, &e.Side,
		&e.Lots, &e.Ticks, &e.ResdLots, &e.ExecLots, &e.ExecCost, &e.LastLots, &e.LastTicks,
		&e.MinLots, &e.MatchId, &e.PosnLots, &e.PosnCost, &e.LiqInd, &e.Cpty, &e.Created)
	return e, err
}
