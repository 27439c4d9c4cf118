package engine

// memQueue is an in-memory MsgQueue for tests: it accepts everything and
// never fails, mirroring how the teacher's test suite stubs durability
// collaborators rather than standing up a real backend.
type memQueue struct {
	markets []Id64
	execs   [][]*Exec
}

func (q *memQueue) CreateMarket(id Id64, instr string, settlDay JulianDay, state MarketState) error {
	q.markets = append(q.markets, id)
	return nil
}

func (q *memQueue) UpdateMarket(id Id64, state MarketState) error { return nil }

func (q *memQueue) CreateExec(execs []*Exec) error {
	q.execs = append(q.execs, execs)
	return nil
}

func (q *memQueue) ArchiveTrade(marketId Id64, ids []Id64, modified Time) error { return nil }

// newTestServ builds a Serv with one instrument ("EURUSD") and one spot
// market ready to trade, for tests that don't care about reference-data
// setup.
func newTestServ() (*Serv, *Market) {
	mq := &memQueue{}
	s := NewServ(mq, 16)

	instr := &Instrument{Id: 1, Symbol: "EURUSD", Asset: "EUR", Ccy: "USD", MinLots: 1, MaxLots: 1_000_000}
	s.instrs.Insert(instr)

	m, err := s.CreateMarket(instr, 0, MarketOpen, 0)
	if err != nil {
		panic(err)
	}
	return s, m
}
