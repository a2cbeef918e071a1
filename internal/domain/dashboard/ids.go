package dashboard

import (
	"strconv"
	"sync"
	"time"
)

// Prefix returns the synthetic id prefix used for backend-sourced items
// that arrive without an id.
func Prefix(c Category) string {
	switch c {
	case CategoryProblems:
		return "p"
	case CategoryProcedures:
		return "proc"
	case CategoryHealthMaintenance:
		return "hm"
	case CategoryOrders:
		return "ord"
	case CategoryImaging:
		return "img"
	case CategoryCommunications:
		return "comm"
	case CategoryLabs:
		return "lab"
	case CategoryNotes:
		return "note"
	}
	return "item"
}

// SyntheticID builds a positional id of the form {prefix}-{index}.
func SyntheticID(c Category, index int) string {
	return Prefix(c) + "-" + strconv.Itoa(index)
}

// IDGenerator issues manual-entry ids of the form manual-{unix-millis}.
// Successive calls within the same millisecond get strictly increasing
// timestamps, so ids from one generator never collide.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) Manual() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ts := time.Now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	return "manual-" + strconv.FormatInt(ts, 10)
}
