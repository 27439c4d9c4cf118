package rest

import "matchcore/internal/engine"

// createMarketRequest is the body of POST /markets.
type createMarketRequest struct {
	Instr    string             `json:"instr"`
	SettlDay int64              `json:"settl_date"`
	State    engine.MarketState `json:"state"`
}

// updateMarketRequest is the body of PATCH /markets/{id}.
type updateMarketRequest struct {
	State engine.MarketState `json:"state"`
}

// createOrderRequest is the body of POST /accnts/{accnt}/orders.
type createOrderRequest struct {
	Ref     string `json:"ref"`
	Side    string `json:"side"`
	Lots    int64  `json:"lots"`
	Ticks   int64  `json:"ticks"`
	MinLots int64  `json:"min_lots"`
}

// reviseOrderRequest is the body of PATCH /accnts/{accnt}/orders/{id}.
type reviseOrderRequest struct {
	Lots int64 `json:"lots"`
}

// createTradeRequest is the body of POST /accnts/{accnt}/trades.
type createTradeRequest struct {
	Ref    string `json:"ref"`
	Side   string `json:"side"`
	Lots   int64  `json:"lots"`
	Ticks  int64  `json:"ticks"`
	LiqInd string `json:"liq_ind"`
	Cpty   string `json:"cpty"`
}

// accntSnapshot is the body of GET /accnts/{accnt}.
type accntSnapshot struct {
	Orders []engine.OrderJSON `json:"orders"`
	Execs  []engine.ExecJSON  `json:"execs"`
	Trades []engine.ExecJSON  `json:"trades"`
	Posns  []engine.Posn      `json:"posns"`
}

func parseLiqInd(s string) engine.LiqInd {
	switch s {
	case "MAKER", "maker":
		return engine.LiqMaker
	case "TAKER", "taker":
		return engine.LiqTaker
	default:
		return engine.LiqNone
	}
}
