// Package geo resolves caller locations to residence-hall communities.
//
// Two independent paths feed the resolver:
//
//   - Coordinates: NearestBuilding finds the closest known building by
//     great-circle distance. Browser geolocation is frequently denied, so
//     missing coordinates are a normal input state, not an error.
//   - Free text: ResolveByName runs an ordered matching cascade (exact key,
//     substring either direction, whole token) against the building lookup
//     table. A miss is a normal outcome; callers branch on the nil result.
//
// The building and community tables are static reference data, immutable
// after construction.
package geo

import (
	"math"
	"slices"
	"strings"
)

// earthRadiusMiles is the Earth radius used for haversine distance.
const earthRadiusMiles = 3959

// Building is a residence hall with known coordinates.
type Building struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Community is a named cluster of buildings sharing one front desk and
// policy set.
type Community struct {
	Name              string
	Buildings         []string
	FrontDesk         string
	FrontDeskPhone    string
	FrontDeskLocation string
	QuietHours        string
	CourtesyHours     string
	Laundry           string
	DiningNearby      []string
	Mailroom          string
	Parking           string
	RoomType          string
	Amenities         []string
	Policies          map[string]string
}

// Resolver answers nearest-building and name-to-community queries over the
// static reference tables. Safe for concurrent use; all state is read-only
// after construction.
type Resolver struct {
	buildings   []Building
	communities []Community

	// lookup maps lower-cased building and community names to an index
	// into communities.
	lookup map[string]int
}

// NewResolver builds a Resolver over the given reference data.
// Building order is significant: NearestBuilding breaks distance ties by
// first occurrence.
func NewResolver(buildings []Building, communities []Community) *Resolver {
	r := &Resolver{
		buildings:   buildings,
		communities: communities,
		lookup:      make(map[string]int),
	}
	for i, c := range communities {
		r.lookup[strings.ToLower(c.Name)] = i
		for _, b := range c.Buildings {
			r.lookup[strings.ToLower(b)] = i
		}
	}
	return r
}

// Default returns a Resolver over the built-in campus tables.
func Default() *Resolver {
	return NewResolver(CampusBuildings, CampusCommunities)
}

// NearestBuilding returns the building closest to the given coordinates and
// its distance in miles. Ties go to the earlier entry in the building list,
// so results are deterministic. ok is false only when no buildings are
// configured.
func (r *Resolver) NearestBuilding(lat, lon float64) (nearest Building, miles float64, ok bool) {
	if len(r.buildings) == 0 {
		return Building{}, 0, false
	}
	nearest = r.buildings[0]
	miles = Haversine(lat, lon, nearest.Latitude, nearest.Longitude)
	for _, b := range r.buildings[1:] {
		if d := Haversine(lat, lon, b.Latitude, b.Longitude); d < miles {
			nearest = b
			miles = d
		}
	}
	return nearest, miles, true
}

// BuildingByName returns the building with the given name, matched
// case-insensitively.
func (r *Resolver) BuildingByName(name string) (Building, bool) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, b := range r.buildings {
		if strings.ToLower(b.Name) == lowered {
			return b, true
		}
	}
	return Building{}, false
}

// ResolveByName maps free text (a building or community name as typed by a
// student) to a Community. The cascade is evaluated in order and the first
// rule that matches wins:
//
//  1. exact case-insensitive key in the lookup table
//  2. substring containment in either direction against any key
//  3. a whole token of a known name (split on spaces and hyphens) equal to
//     the input
//
// Returns nil when nothing matches.
func (r *Resolver) ResolveByName(text string) *Community {
	name := strings.ToLower(strings.TrimSpace(text))
	if name == "" {
		return nil
	}

	// Rule 1: exact key.
	if i, ok := r.lookup[name]; ok {
		return &r.communities[i]
	}

	// Rule 2: substring either direction. Keys are iterated through the
	// community/building declaration order to keep the result stable.
	for i := range r.communities {
		for _, key := range r.keysFor(i) {
			if strings.Contains(key, name) || strings.Contains(name, key) {
				return &r.communities[i]
			}
		}
	}

	// Rule 3: whole token. Catches inputs like "boggs" against "Boggs Hall"
	// when rule 2 already failed for multi-word inputs.
	for i := range r.communities {
		for _, key := range r.keysFor(i) {
			for _, tok := range strings.FieldsFunc(key, func(r rune) bool {
				return r == ' ' || r == '-'
			}) {
				if tok == name {
					return &r.communities[i]
				}
			}
		}
	}

	return nil
}

// keysFor returns the lower-cased match keys for community i, community
// name first, then its buildings in declaration order.
func (r *Resolver) keysFor(i int) []string {
	c := r.communities[i]
	keys := make([]string, 0, len(c.Buildings)+1)
	keys = append(keys, strings.ToLower(c.Name))
	for _, b := range c.Buildings {
		keys = append(keys, strings.ToLower(b))
	}
	return keys
}

// Haversine computes the great-circle distance in miles between two
// latitude/longitude points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// FrontDeskInfo renders the community's phone block for prompt context.
// The phone number appears verbatim so the model can quote it.
func (c *Community) FrontDeskInfo() string {
	var b strings.Builder
	b.WriteString("Phone info for " + c.Name + ":\n")
	b.WriteString("  Front Desk: " + c.FrontDeskPhone)
	if c.FrontDeskLocation != "" {
		b.WriteString(" (at " + c.FrontDeskLocation + ")")
	}
	return b.String()
}

// Describe renders the community reference data as flat text for prompt
// context.
func (c *Community) Describe() string {
	var b strings.Builder
	b.WriteString("Community: " + c.Name + "\n")
	b.WriteString("Buildings: " + strings.Join(c.Buildings, ", ") + "\n")
	b.WriteString("Front desk: " + c.FrontDesk + ", " + c.FrontDeskPhone)
	if c.FrontDeskLocation != "" {
		b.WriteString(" (" + c.FrontDeskLocation + ")")
	}
	b.WriteString("\n")
	b.WriteString("Quiet hours: " + c.QuietHours + "\n")
	b.WriteString("Courtesy hours: " + c.CourtesyHours + "\n")
	b.WriteString("Laundry: " + c.Laundry + "\n")
	b.WriteString("Mailroom: " + c.Mailroom + "\n")
	b.WriteString("Parking: " + c.Parking + "\n")
	b.WriteString("Room type: " + c.RoomType + "\n")
	if len(c.DiningNearby) > 0 {
		b.WriteString("Dining nearby: " + strings.Join(c.DiningNearby, ", ") + "\n")
	}
	if len(c.Amenities) > 0 {
		b.WriteString("Amenities: " + strings.Join(c.Amenities, ", ") + "\n")
	}
	for _, key := range sortedKeys(c.Policies) {
		b.WriteString(strings.ReplaceAll(key, "_", " ") + ": " + c.Policies[key] + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// sortedKeys returns map keys in lexical order for deterministic rendering.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
