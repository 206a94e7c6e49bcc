// Package feature defines the canonical geocoding feature model and the
// batch transforms that build it: indexing raw rows by compound key, applying
// staging overlays, and assembling one Feature per key.
package feature

import (
	"fmt"

	"github.com/geostack-labs/geoverify/internal/geom"
)

// Key is the compound identifier of a geocoding feature: the entity id plus
// the map code namespace it lives in. It is the dataset's primary identity.
type Key struct {
	ID      int
	MapCode int
}

// String renders the key in the canonical "id_mapcode" form used throughout
// reports and the backing stores.
func (k Key) String() string {
	return fmt.Sprintf("%d_%d", k.ID, k.MapCode)
}

// Class is the integer code of a geocoding entity type.
type Class int

// Geocoding classes.
const (
	ClassUnknown  Class = -1
	ClassCountry  Class = 0
	ClassState    Class = 1
	ClassCounty   Class = 2
	ClassCity     Class = 10
	ClassZip      Class = 100
	ClassAreaCode Class = 101
	ClassCMSA     Class = 102
	ClassCongress Class = 103
)

// String returns the human-readable class name.
func (c Class) String() string {
	switch c {
	case ClassCountry:
		return "country"
	case ClassState:
		return "state"
	case ClassCounty:
		return "county"
	case ClassCity:
		return "city"
	case ClassZip:
		return "zip"
	case ClassAreaCode:
		return "area-code"
	case ClassCMSA:
		return "cmsa"
	case ClassCongress:
		return "congressional-district"
	default:
		return "unknown"
	}
}

// Properties holds the non-geometric attributes of a feature.
type Properties struct {
	// Names maps a normalized locale code (or "none" for the locale-less
	// display name) to the localized name. Absent locales are absent keys.
	Names map[string]string

	FIPS string
	ISO2 string
	ISO3 string

	// Synonyms is the ordered list of alternate names. May be empty.
	Synonyms []string
}

// Feature is the canonical unit produced by assembly: one geocoding entity
// with its identity, hierarchy position, properties and geometries.
type Feature struct {
	Key   Key
	Class Class

	// ParentID references another feature's ID within the same map code.
	// Nil for countries and for features whose parent column was empty or
	// unparsable.
	ParentID *int

	Props Properties
	Geom  geom.Collection
}

// ParentKey returns the compound key of the feature's parent, if it has one.
func (f *Feature) ParentKey() (Key, bool) {
	if f.ParentID == nil {
		return Key{}, false
	}
	return Key{ID: *f.ParentID, MapCode: f.Key.MapCode}, true
}
