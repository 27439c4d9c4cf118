package engine

// CommandType discriminates the payload carried by a Command.
type CommandType int

const (
	CmdCreateMarket CommandType = iota
	CmdUpdateMarket
	CmdCreateOrder
	CmdReviseOrder
	CmdCancelOrder
	CmdCreateTrade
	CmdArchiveTrade
	CmdQueryBBO
	CmdQueryAccnt
)

// Command is one request handed to Engine.Run over its command channel.
// Only the fields relevant to Type are populated; Resp is always set by
// the caller and always receives exactly one CommandResult.
type Command struct {
	Type CommandType

	Accnt    string
	MarketId Id64
	Instr    *Instrument
	SettlDay JulianDay
	State    MarketState

	Ref     string
	Side    Side
	Lots    Lots
	Ticks   Ticks
	MinLots Lots

	OrderId Id64
	Ids     []Id64

	LiqInd LiqInd
	Cpty   string

	Now Time

	Resp chan CommandResult
}

// CommandResult is the single reply Engine.Run sends back for a Command.
// Exactly one of the non-error fields is meaningful, depending on the
// Command's Type.
type CommandResult struct {
	Market    *Market
	Response  *Response
	TradePair TradePair
	BBO       *BBOSnapshot
	Accnt     *AccntSnapshot
	Err       error
}
