package engine

import (
	"bytes"
	"fmt"
	"strconv"
)

// OrderJSON mirrors spec.md §6's Order wire shape: snake_case fields, null
// for absent optional scalars.
type OrderJSON struct {
	Accnt     string `json:"accnt"`
	MarketId  Id64   `json:"market_id"`
	Instr     string `json:"instr"`
	SettlDate *int64 `json:"settl_date"`
	Id        Id64   `json:"id"`
	Ref       *string `json:"ref"`
	State     string `json:"state"`
	Side      string `json:"side"`
	Lots      Lots   `json:"lots"`
	Ticks     Ticks  `json:"ticks"`
	ResdLots  Lots   `json:"resd_lots"`
	ExecLots  Lots   `json:"exec_lots"`
	ExecCost  Cost   `json:"exec_cost"`
	LastLots  *Lots  `json:"last_lots"`
	LastTicks *Ticks `json:"last_ticks"`
	MinLots   *Lots  `json:"min_lots"`
	Created   Time   `json:"created"`
	Modified  Time   `json:"modified"`
}

// ToJSON converts o into its wire representation.
func (o *Order) ToJSON() OrderJSON {
	out := OrderJSON{
		Accnt:    o.Accnt,
		MarketId: o.MarketId,
		Instr:    o.Instr,
		Id:       o.Id,
		State:    o.State.String(),
		Side:     o.Side.String(),
		Lots:     o.Lots,
		Ticks:    o.Ticks,
		ResdLots: o.ResdLots,
		ExecLots: o.ExecLots,
		ExecCost: o.ExecCost,
		Created:  o.Created,
		Modified: o.Modified,
	}
	if o.SettlDay != 0 {
		jd := jdToIso(o.SettlDay)
		out.SettlDate = &jd
	}
	if o.Ref != "" {
		out.Ref = &o.Ref
	}
	if o.LastLots != 0 {
		ll, lt := o.LastLots, o.LastTicks
		out.LastLots = &ll
		out.LastTicks = &lt
	}
	if o.MinLots != 0 {
		ml := o.MinLots
		out.MinLots = &ml
	}
	return out
}

// ExecJSON mirrors the Exec wire shape, extending OrderJSON's fields with
// the trade-specific ones spec.md §3 lists for Exec.
type ExecJSON struct {
	OrderJSON
	OrderId  Id64    `json:"order_id"`
	MatchId  *Id64   `json:"match_id"`
	PosnLots *Lots   `json:"posn_lots"`
	PosnCost *Cost   `json:"posn_cost"`
	LiqInd   string  `json:"liq_ind"`
	Cpty     *string `json:"cpty"`
}

func (e *Exec) ToJSON() ExecJSON {
	order := OrderJSON{
		Accnt:    e.Accnt,
		MarketId: e.MarketId,
		Instr:    e.Instr,
		Id:       e.Id,
		State:    e.State.String(),
		Side:     e.Side.String(),
		Lots:     e.Lots,
		Ticks:    e.Ticks,
		ResdLots: e.ResdLots,
		ExecLots: e.ExecLots,
		ExecCost: e.ExecCost,
		Created:  e.Created,
		Modified: e.Created,
	}
	if e.SettlDay != 0 {
		jd := jdToIso(e.SettlDay)
		order.SettlDate = &jd
	}
	if e.Ref != "" {
		order.Ref = &e.Ref
	}
	if e.LastLots != 0 {
		ll, lt := e.LastLots, e.LastTicks
		order.LastLots = &ll
		order.LastTicks = &lt
	}
	if e.MinLots != 0 {
		ml := e.MinLots
		order.MinLots = &ml
	}
	out := ExecJSON{OrderJSON: order, OrderId: e.OrderId, LiqInd: e.LiqInd.String()}
	if e.State == StateTrade {
		mid := e.MatchId
		out.MatchId = &mid
		pl, pc := e.PosnLots, e.PosnCost
		out.PosnLots = &pl
		out.PosnCost = &pc
	}
	if e.Cpty != "" {
		out.Cpty = &e.Cpty
	}
	return out
}

// MarshalDSV renders o in the positional delimited form §6 describes: same
// fields as JSON, empty for absent optionals. cmd/dump does not call it;
// the dump tool writes JSON only.
func (o *Order) MarshalDSV(delim byte) []byte {
	var buf bytes.Buffer
	fields := []string{
		o.Accnt,
		o.MarketId.String(),
		o.Instr,
		dsvJDay(o.SettlDay),
		o.Id.String(),
		o.Ref,
		o.State.String(),
		o.Side.String(),
		strconv.FormatInt(int64(o.Lots), 10),
		strconv.FormatInt(int64(o.Ticks), 10),
		strconv.FormatInt(int64(o.ResdLots), 10),
		strconv.FormatInt(int64(o.ExecLots), 10),
		strconv.FormatInt(int64(o.ExecCost), 10),
		dsvLots(o.LastLots),
		dsvTicks(o.LastLots, o.LastTicks),
		dsvMinLots(o.MinLots),
		strconv.FormatInt(int64(o.Created), 10),
		strconv.FormatInt(int64(o.Modified), 10),
	}
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(delim)
		}
		buf.WriteString(f)
	}
	return buf.Bytes()
}

func dsvJDay(jd JulianDay) string {
	if jd == 0 {
		return ""
	}
	return fmt.Sprintf("%d", jdToIso(jd))
}

func dsvLots(l Lots) string {
	if l == 0 {
		return ""
	}
	return strconv.FormatInt(int64(l), 10)
}

func dsvTicks(gate Lots, t Ticks) string {
	if gate == 0 {
		return ""
	}
	return strconv.FormatInt(int64(t), 10)
}

func dsvMinLots(l Lots) string {
	if l == 0 {
		return ""
	}
	return strconv.FormatInt(int64(l), 10)
}
