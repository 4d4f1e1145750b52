package store

import "github.com/dmitrijs2005/assetflow/internal/client/models"

// arena holds one collection: ids in display order (newest first after a
// create) and the records keyed by id. Records are owned by the arena and
// never handed out without cloning.
type arena struct {
	order []string
	byID  map[string]models.Record
}

func newArena(capacity int) *arena {
	return &arena{
		order: make([]string, 0, capacity),
		byID:  make(map[string]models.Record, capacity),
	}
}

// buildArena indexes records in their given order. Records without an id
// and repeated ids are returned in skipped; the first occurrence wins.
func buildArena(records []models.Record) (a *arena, skipped int) {
	a = newArena(len(records))
	for _, r := range records {
		id, ok := r.ID()
		if !ok {
			skipped++
			continue
		}
		if _, dup := a.byID[id]; dup {
			skipped++
			continue
		}
		a.order = append(a.order, id)
		a.byID[id] = r.Clone()
	}
	return a, skipped
}

func (a *arena) len() int { return len(a.order) }

func (a *arena) get(id string) (models.Record, bool) {
	r, ok := a.byID[id]
	return r, ok
}

func (a *arena) prepend(id string, r models.Record) {
	a.remove(id)
	a.order = append(a.order, "")
	copy(a.order[1:], a.order)
	a.order[0] = id
	a.byID[id] = r
}

// replace swaps the record stored under id, keeping its position.
func (a *arena) replace(id string, r models.Record) bool {
	if _, ok := a.byID[id]; !ok {
		return false
	}
	a.byID[id] = r
	return true
}

func (a *arena) remove(id string) bool {
	if _, ok := a.byID[id]; !ok {
		return false
	}
	delete(a.byID, id)
	for i, v := range a.order {
		if v == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// records returns deep copies in display order.
func (a *arena) records() []models.Record {
	out := make([]models.Record, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id].Clone())
	}
	return out
}
