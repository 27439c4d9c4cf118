package engine

import "regexp"

// SymbolPattern is the grammar shared by account, instrument and asset
// symbols, and by non-empty order refs.
var SymbolPattern = regexp.MustCompile(`^[0-9A-Za-z\-._]{3,16}$`)

func validSymbol(s string) bool {
	return SymbolPattern.MatchString(s)
}

// AssetType classifies an Asset.
type AssetType int8

const (
	AssetCurrency AssetType = iota
	AssetCommodity
	AssetEquity
	AssetIndex
)

// Asset is an immutable reference record constructed at load and never
// mutated afterwards.
type Asset struct {
	Symbol  string
	Display string
	Type    AssetType
}

// Instrument is an immutable reference record describing a tradeable
// contract: its contract size (lotNumer/lotDenom), tick value
// (tickNumer/tickDenom), decimal places for display (pipDp), and its
// [minLots, maxLots] lot band. Serv.CreateOrder does not check an order's
// lots against this band; it checks only the order's own minLots.
type Instrument struct {
	Id       Id32
	Symbol   string
	Display  string
	Asset    string
	Ccy      string
	LotNumer int64
	LotDenom int64
	TickNumer int64
	TickDenom int64
	PipDp    int
	MinLots  Lots
	MaxLots  Lots
}

// AssetSet is the immutable-after-load registry of assets, keyed by symbol.
type AssetSet struct {
	byID map[string]*Asset
}

func NewAssetSet() *AssetSet {
	return &AssetSet{byID: make(map[string]*Asset)}
}

func (s *AssetSet) Insert(a *Asset) { s.byID[a.Symbol] = a }

func (s *AssetSet) Find(symbol string) (*Asset, bool) {
	a, ok := s.byID[symbol]
	return a, ok
}

func (s *AssetSet) Len() int { return len(s.byID) }

func (s *AssetSet) All() []*Asset {
	out := make([]*Asset, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	return out
}

// InstrSet is the immutable-after-load registry of instruments, keyed by
// symbol.
type InstrSet struct {
	byID map[string]*Instrument
}

func NewInstrSet() *InstrSet {
	return &InstrSet{byID: make(map[string]*Instrument)}
}

func (s *InstrSet) Insert(i *Instrument) { s.byID[i.Symbol] = i }

func (s *InstrSet) Find(symbol string) (*Instrument, bool) {
	i, ok := s.byID[symbol]
	return i, ok
}

func (s *InstrSet) Len() int { return len(s.byID) }

func (s *InstrSet) All() []*Instrument {
	out := make([]*Instrument, 0, len(s.byID))
	for _, i := range s.byID {
		out = append(out, i)
	}
	return out
}
