// Package models defines client-side data models used by the AssetFlow console.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// CollectionName names one of the fixed domain collections served by the
// AssetFlow backend. The set is closed; see Collections.
type CollectionName string

const (
	Assets        CollectionName = "assets"
	Loans         CollectionName = "loans"
	Maintenances  CollectionName = "maintenances"
	Procurements  CollectionName = "procurements"
	Properties    CollectionName = "properties"
	Vendors       CollectionName = "vendors"
	Activities    CollectionName = "activities"
	Notifications CollectionName = "notifications"
	Users         CollectionName = "users"
)

var ErrUnknownCollection = errors.New("unknown collection")

var allCollections = []CollectionName{
	Assets,
	Loans,
	Maintenances,
	Procurements,
	Properties,
	Vendors,
	Activities,
	Notifications,
	Users,
}

// aliases maps singular page names used in the console to collections.
var aliases = map[string]CollectionName{
	"asset":        Assets,
	"loan":         Loans,
	"maintenance":  Maintenances,
	"procurement":  Procurements,
	"property":     Properties,
	"vendor":       Vendors,
	"activity":     Activities,
	"notification": Notifications,
	"user":         Users,
}

// Collections returns the nine collection names in their canonical order.
// The returned slice is a copy and may be modified by the caller.
func Collections() []CollectionName {
	out := make([]CollectionName, len(allCollections))
	copy(out, allCollections)
	return out
}

// Valid reports whether c belongs to the closed set of collections.
func (c CollectionName) Valid() bool {
	for _, n := range allCollections {
		if n == c {
			return true
		}
	}
	return false
}

func (c CollectionName) String() string { return string(c) }

// ParseCollection resolves a user-supplied name (plural or singular,
// case-insensitive) to a CollectionName.
func ParseCollection(s string) (CollectionName, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c := CollectionName(name); c.Valid() {
		return c, nil
	}
	if c, ok := aliases[name]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
}
