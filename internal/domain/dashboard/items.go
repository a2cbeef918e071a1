package dashboard

import (
	"encoding/json"
	"fmt"
)

type identifiable interface {
	ItemID() string
}

func prepend[T identifiable](items []T, item T) []T {
	return append([]T{item}, items...)
}

func removeByID[T identifiable](items []T, id string) ([]T, bool) {
	out := make([]T, 0, len(items))
	removed := false
	for _, it := range items {
		if it.ItemID() == id {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, removed
}

// RemoveItem deletes the record with id from category c. Returns false when
// no record matched.
func (d *Data) RemoveItem(c Category, id string) bool {
	var removed bool
	switch c {
	case CategoryProblems:
		d.Problems, removed = removeByID(d.Problems, id)
	case CategoryProcedures:
		d.Procedures, removed = removeByID(d.Procedures, id)
	case CategoryHealthMaintenance:
		d.HealthMaintenance, removed = removeByID(d.HealthMaintenance, id)
	case CategoryOrders:
		d.Orders, removed = removeByID(d.Orders, id)
	case CategoryImaging:
		d.Imaging, removed = removeByID(d.Imaging, id)
	case CategoryCommunications:
		d.Communications, removed = removeByID(d.Communications, id)
	case CategoryLabs:
		d.Labs, removed = removeByID(d.Labs, id)
	case CategoryNotes:
		d.Notes, removed = removeByID(d.Notes, id)
	}
	return removed
}

// AddManual prepends a manually entered record to category c. The record
// starts from the category's entry-form defaults (today's date plus the
// category default status), the submitted fields are decoded over those
// defaults, and the given id wins over anything in the body. New items
// appear first.
func (d *Data) AddManual(c Category, id, today string, raw json.RawMessage) error {
	switch c {
	case CategoryProblems:
		p := Problem{Status: "Active", OnsetDate: today}
		if err := overlay(raw, &p); err != nil {
			return err
		}
		p.ID = id
		d.Problems = prepend(d.Problems, p)
	case CategoryProcedures:
		p := Procedure{Status: "Scheduled", Date: today}
		if err := overlay(raw, &p); err != nil {
			return err
		}
		p.ID = id
		d.Procedures = prepend(d.Procedures, p)
	case CategoryHealthMaintenance:
		h := HealthMaintenanceItem{LastDate: today, NextDueDate: today}
		if err := overlay(raw, &h); err != nil {
			return err
		}
		h.ID = id
		d.HealthMaintenance = prepend(d.HealthMaintenance, h)
	case CategoryOrders:
		o := Order{Status: "Ordered", OrderedDate: today}
		if err := overlay(raw, &o); err != nil {
			return err
		}
		o.ID = id
		d.Orders = prepend(d.Orders, o)
	case CategoryImaging:
		img := Imaging{Status: "Final", Date: today}
		if err := overlay(raw, &img); err != nil {
			return err
		}
		img.ID = id
		d.Imaging = prepend(d.Imaging, img)
	case CategoryCommunications:
		cm := Communication{Status: "Completed", Date: today}
		if err := overlay(raw, &cm); err != nil {
			return err
		}
		cm.ID = id
		d.Communications = prepend(d.Communications, cm)
	case CategoryLabs:
		l := Lab{Interpretation: "Normal", Date: today}
		if err := overlay(raw, &l); err != nil {
			return err
		}
		l.ID = id
		d.Labs = prepend(d.Labs, l)
	case CategoryNotes:
		n := Note{Type: "office", Date: today}
		if err := overlay(raw, &n); err != nil {
			return err
		}
		n.ID = id
		d.Notes = prepend(d.Notes, n)
	default:
		return fmt.Errorf("unknown category %q", c)
	}
	return nil
}

// UpdateItem decodes the submitted fields over the existing record with the
// given id, keeping the id itself. Returns false when no record matched.
func (d *Data) UpdateItem(c Category, id string, raw json.RawMessage) (bool, error) {
	switch c {
	case CategoryProblems:
		return updateByID(d.Problems, id, raw, func(p *Problem) { p.ID = id })
	case CategoryProcedures:
		return updateByID(d.Procedures, id, raw, func(p *Procedure) { p.ID = id })
	case CategoryHealthMaintenance:
		return updateByID(d.HealthMaintenance, id, raw, func(h *HealthMaintenanceItem) { h.ID = id })
	case CategoryOrders:
		return updateByID(d.Orders, id, raw, func(o *Order) { o.ID = id })
	case CategoryImaging:
		return updateByID(d.Imaging, id, raw, func(i *Imaging) { i.ID = id })
	case CategoryCommunications:
		return updateByID(d.Communications, id, raw, func(c *Communication) { c.ID = id })
	case CategoryLabs:
		return updateByID(d.Labs, id, raw, func(l *Lab) { l.ID = id })
	case CategoryNotes:
		return updateByID(d.Notes, id, raw, func(n *Note) { n.ID = id })
	}
	return false, fmt.Errorf("unknown category %q", c)
}

func updateByID[T identifiable](items []T, id string, raw json.RawMessage, keepID func(*T)) (bool, error) {
	for i := range items {
		if items[i].ItemID() != id {
			continue
		}
		updated := items[i]
		if err := overlay(raw, &updated); err != nil {
			return false, err
		}
		keepID(&updated)
		items[i] = updated
		return true, nil
	}
	return false, nil
}

func overlay(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode item fields: %w", err)
	}
	return nil
}
