// Package service holds the business rules: the visibility resolver, the
// membership and invite state machines, lists, follows and search.
package service

import (
	"sort"

	"circles/internal/models"
)

// ListPredicate reports whether a list belongs to one of the sets that make
// up a user's accessible lists.
type ListPredicate func(l *models.RestaurantList) bool

// OwnedBy matches lists owned by userID.
func OwnedBy(userID uint) ListPredicate {
	return func(l *models.RestaurantList) bool {
		return userID != 0 && l.OwnerID == userID
	}
}

// PublicNotOwnedBy matches public lists owned by someone other than userID.
func PublicNotOwnedBy(userID uint) ListPredicate {
	return func(l *models.RestaurantList) bool {
		return l.MakePublic && (userID == 0 || l.OwnerID != userID)
	}
}

// SharedWithHomeCircle matches non-public lists of other owners shared with a
// home circle in circleIDs.
func SharedWithHomeCircle(userID uint, circleIDs []uint) ListPredicate {
	set := idSet(circleIDs)
	return func(l *models.RestaurantList) bool {
		if l.MakePublic || !l.ShareWithCircle || l.CircleID == nil || l.OwnerID == userID {
			return false
		}
		_, ok := set[*l.CircleID]
		return ok
	}
}

// UnionLists merges list sets, dropping duplicate ids, newest first.
func UnionLists(sets ...[]models.RestaurantList) []models.RestaurantList {
	seen := make(map[uint]struct{})
	var out []models.RestaurantList
	for _, set := range sets {
		for _, l := range set {
			if _, dup := seen[l.ID]; dup {
				continue
			}
			seen[l.ID] = struct{}{}
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// FilterLists keeps lists matching p.
func FilterLists(lists []models.RestaurantList, p ListPredicate) []models.RestaurantList {
	out := lists[:0:0]
	for i := range lists {
		if p(&lists[i]) {
			out = append(out, lists[i])
		}
	}
	return out
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Paginate slices lists for a page. Offsets past the end yield nil.
func Paginate(lists []models.RestaurantList, limit, offset int) []models.RestaurantList {
	if offset >= len(lists) {
		return nil
	}
	end := offset + limit
	if end > len(lists) {
		end = len(lists)
	}
	return lists[offset:end]
}
