package services

import "apartment-tracker/models"

// FindNew returns every listing in current whose id does not appear in
// previous, keeping current's order.
//
// Identity is the id alone. Listings sharing an id inside current are all
// reported when that id is new, and the empty id is an ordinary value: once
// any empty-id listing was seen, no empty-id listing counts as new.
func FindNew(current, previous models.Snapshot) models.Snapshot {
	seen := previous.IDs()
	fresh := models.Snapshot{}
	for _, l := range current {
		if _, ok := seen[l.ID]; !ok {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

// FindRemoved returns the listings of previous that no longer appear in current.
func FindRemoved(current, previous models.Snapshot) models.Snapshot {
	return FindNew(previous, current)
}
