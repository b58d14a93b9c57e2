package main

import (
	"fmt"
	"sort"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
)

// transition is one published fill state
type transition struct {
	ChainID uint32
	FillID  uint32
	Status  zigzag.OrderStatus
}

func (t transition) String() string {
	return fmt.Sprintf("fill %d:%d %s", t.ChainID, t.FillID, t.Status)
}

// tally counts published fill transitions
type tally struct {
	counts map[transition]int
	events int
}

func newTally() *tally {
	return &tally{counts: make(map[transition]int)}
}

// add counts the fill transitions carried by op and reports how many it saw
func (t *tally) add(op zigzag.Operation) int {
	var seen []transition
	switch v := op.(type) {
	case *zigzag.Fillreceipt:
		seen = append(seen, transition{v.ChainID, v.ID, v.Status})
	case *zigzag.Fills:
		for _, f := range v.Fills {
			seen = append(seen, transition{f.ChainID, f.ID, f.Status})
		}
	case *zigzag.Fillstatus:
		for _, s := range v.Statuses {
			seen = append(seen, transition{s.ChainID, s.FillID, s.Status})
		}
	}
	for _, tr := range seen {
		t.counts[tr]++
		t.events++
	}
	return len(seen)
}

// duplicates returns transitions published more than once, sorted
func (t *tally) duplicates() []transition {
	var dups []transition
	for tr, n := range t.counts {
		if n > 1 {
			dups = append(dups, tr)
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		a, b := dups[i], dups[j]
		if a.ChainID != b.ChainID {
			return a.ChainID < b.ChainID
		}
		if a.FillID != b.FillID {
			return a.FillID < b.FillID
		}
		return a.Status < b.Status
	})
	return dups
}
