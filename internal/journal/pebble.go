// Package journal provides durable MsgQueue implementations the matching
// core journals every state-changing operation through before committing
// it in memory.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"matchcore/internal/engine"
)

// marketRecord is the durable shape of a market create/update.
type marketRecord struct {
	Id       engine.Id64        `json:"id"`
	Instr    string             `json:"instr"`
	SettlDay engine.JulianDay   `json:"settl_day"`
	State    engine.MarketState `json:"state"`
}

// archiveRecord is the durable shape of an archive-trade journal entry.
type archiveRecord struct {
	MarketId engine.Id64   `json:"market_id"`
	Ids      []engine.Id64 `json:"ids"`
	Modified engine.Time   `json:"modified"`
}

// Pebble is the primary MsgQueue: every record is written with pebble.Sync,
// so CreateExec/CreateMarket/UpdateMarket/ArchiveTrade never return until
// the write is durable on disk (spec.md §5, §6: "marketId big-endian ++
// recordSeq" key ordering so Load can range-scan in replay order).
type Pebble struct {
	db  *pebble.DB
	seq atomic.Uint64
}

// OpenPebble opens (or creates) the journal database rooted at dir.
func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{DisableWAL: false})
	if err != nil {
		return nil, err
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Close() error { return p.db.Close() }

func marketKey(id engine.Id64) []byte {
	buf := make([]byte, len("market/")+8)
	n := copy(buf, "market/")
	binary.BigEndian.PutUint64(buf[n:], uint64(id))
	return buf
}

func execKey(marketId engine.Id64, seq uint64) []byte {
	buf := make([]byte, len("exec/")+16)
	n := copy(buf, "exec/")
	binary.BigEndian.PutUint64(buf[n:], uint64(marketId))
	binary.BigEndian.PutUint64(buf[n+8:], seq)
	return buf
}

func archiveKey(marketId engine.Id64, seq uint64) []byte {
	buf := make([]byte, len("archive/")+16)
	n := copy(buf, "archive/")
	binary.BigEndian.PutUint64(buf[n:], uint64(marketId))
	binary.BigEndian.PutUint64(buf[n+8:], seq)
	return buf
}

func (p *Pebble) CreateMarket(id engine.Id64, instr string, settlDay engine.JulianDay, state engine.MarketState) error {
	rec := marketRecord{Id: id, Instr: instr, SettlDay: settlDay, State: state}
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.db.Set(marketKey(id), val, pebble.Sync)
}

func (p *Pebble) UpdateMarket(id engine.Id64, state engine.MarketState) error {
	val, closer, err := p.db.Get(marketKey(id))
	if err != nil {
		return fmt.Errorf("update market %s: %w", id, err)
	}
	var rec marketRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		closer.Close()
		return err
	}
	closer.Close()
	rec.State = state
	out, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.db.Set(marketKey(id), out, pebble.Sync)
}

// CreateExec journals a batch atomically via a single pebble.Batch: either
// every exec in the batch lands durably, or none does.
func (p *Pebble) CreateExec(execs []*engine.Exec) error {
	if len(execs) == 0 {
		return nil
	}
	batch := p.db.NewBatch()
	defer batch.Close()
	for _, e := range execs {
		val, err := json.Marshal(e.ToJSON())
		if err != nil {
			return err
		}
		seq := p.seq.Add(1)
		if err := batch.Set(execKey(e.MarketId, seq), val, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (p *Pebble) ArchiveTrade(marketId engine.Id64, ids []engine.Id64, modified engine.Time) error {
	rec := archiveRecord{MarketId: marketId, Ids: ids, Modified: modified}
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	seq := p.seq.Add(1)
	return p.db.Set(archiveKey(marketId, seq), val, pebble.Sync)
}

// ScanExecs range-scans every journalled exec for marketId in replay order,
// the access pattern Load needs (spec.md §4.4, §6).
func (p *Pebble) ScanExecs(marketId engine.Id64, fn func(engine.ExecJSON) error) error {
	lower := execKey(marketId, 0)
	upper := execKey(marketId, ^uint64(0))
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var rec engine.ExecJSON
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}
