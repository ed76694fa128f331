package batch

import (
	"sync"

	"scribeq/internal/classify"
)

// LedgerEntry is one appended cost record. Chained items append one entry per
// leg, so per-item totals are sums over entries.
type LedgerEntry struct {
	ItemID int64
	Kind   classify.Kind
	Cost   float64
}

// CreditLedger accumulates per-run credit usage. It is reset at run start and
// append-only afterwards.
type CreditLedger struct {
	mu      sync.Mutex
	entries []LedgerEntry
}

// NewCreditLedger returns an empty ledger.
func NewCreditLedger() *CreditLedger {
	return &CreditLedger{}
}

// Add appends a cost record. Zero-cost entries are recorded too, keeping one
// entry per completed leg.
func (l *CreditLedger) Add(itemID int64, kind classify.Kind, cost float64) {
	l.mu.Lock()
	l.entries = append(l.entries, LedgerEntry{ItemID: itemID, Kind: kind, Cost: cost})
	l.mu.Unlock()
}

// Total returns the run-wide credit sum.
func (l *CreditLedger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total float64
	for _, entry := range l.entries {
		total += entry.Cost
	}
	return total
}

// ItemTotal returns the credit sum for one queue item.
func (l *CreditLedger) ItemTotal(itemID int64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total float64
	for _, entry := range l.entries {
		if entry.ItemID == itemID {
			total += entry.Cost
		}
	}
	return total
}

// Entries returns a copy of the recorded entries.
func (l *CreditLedger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]LedgerEntry, len(l.entries))
	copy(cp, l.entries)
	return cp
}
