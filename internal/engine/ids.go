package engine

import "fmt"

// Id64 is a 64-bit positive integer identifier. Market ids, order ids and
// exec ids are all Id64: an order id and an exec id share no namespace, but
// each is unique within the market that allocated it.
type Id64 uint64

// Id32 identifies reference data: assets and instruments.
type Id32 uint32

// JulianDay is a day count since the Julian epoch. settlDay == 0 means
// "no settlement" (spot).
type JulianDay int32

// Lots is a signed count of contract lots.
type Lots int64

// Ticks is a signed price expressed in integer tick units of the instrument.
type Ticks int64

// Cost is the signed product of Lots and Ticks, wide enough that
// lots*ticks never overflows for any realistic contract size.
type Cost int64

// Time is milliseconds since the UNIX epoch.
type Time int64

// cost computes lots * ticks with the sign convention used throughout the
// book: a positive result for a long, a negative result for a short.
func cost(lots Lots, ticks Ticks) Cost {
	return Cost(lots) * Cost(ticks)
}

// Side is the aggressor/resting direction of an order.
type Side int8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// ParseSide parses the wire representation of a Side ("BUY"/"SELL", also
// accepting lower-case for REST-layer leniency).
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY", "buy":
		return SideBuy, nil
	case "SELL", "sell":
		return SideSell, nil
	default:
		return 0, newErrorf(InvalidArgument, "invalid side %q", s)
	}
}

// Direct is the direction in which a taker crossed the book: Paid when a
// buy lifts the offer, Given when a sell hits the bid. Used only to select
// the correct spread sign in the matcher.
type Direct int8

const (
	DirectPaid Direct = iota
	DirectGiven
)

// State is the lifecycle state of an Order or the kind of event an Exec
// records.
type State int8

const (
	StateNew State = iota
	StateRevise
	StateCancel
	StateTrade
	StatePending
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateRevise:
		return "REVISE"
	case StateCancel:
		return "CANCEL"
	case StateTrade:
		return "TRADE"
	case StatePending:
		return "PENDING"
	default:
		return "UNKNOWN"
	}
}

// LiqInd classifies which side of a trade an exec represents.
type LiqInd int8

const (
	LiqNone LiqInd = iota
	LiqMaker
	LiqTaker
)

func (l LiqInd) String() string {
	switch l {
	case LiqMaker:
		return "MAKER"
	case LiqTaker:
		return "TAKER"
	default:
		return "NONE"
	}
}

// MarketState is a bitset of market lifecycle flags.
type MarketState uint32

const (
	MarketOpen MarketState = 1 << iota
	MarketClosedFlag
	MarketSuspended
)

// toMarketId is the bijection between (instrId, settlDay) and a market id:
// the top 40 bits hold the instrument id, the low 24 bits hold the
// Julian-day-since-epoch. settlDay == 0 means spot/no-settlement.
//
// Example: toMarketId(171, 2492719) == 0xab26092f (171 == 0xab,
// 2492719 == 0x26092f).
func toMarketId(instrId Id32, settlDay JulianDay) Id64 {
	return Id64(uint64(instrId)<<24 | (uint64(settlDay) & 0x00FFFFFF))
}

// fromMarketId inverts toMarketId.
func fromMarketId(id Id64) (instrId Id32, settlDay JulianDay) {
	instrId = Id32(uint64(id) >> 24)
	settlDay = JulianDay(uint64(id) & 0x00FFFFFF)
	return
}

func (i Id64) String() string {
	return fmt.Sprintf("%d", uint64(i))
}
