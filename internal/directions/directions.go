// Package directions answers campus wayfinding questions with walking
// routes from a resident's hall to well-known destinations.
package directions

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/DaBoB6868/dorm-ra-bot/internal/geo"
)

// walkSpeedMPH is the assumed walking pace for time estimates.
const walkSpeedMPH = 3.0

// transitThresholdMinutes is the walk length past which a transit
// suggestion is appended.
const transitThresholdMinutes = 20

// intentPhrases mark a query as a wayfinding question.
var intentPhrases = []string{
	"how do i get to",
	"how to get to",
	"how do you get to",
	"directions",
	"where is",
	"where's",
	"how far",
	"nearest",
	"closest",
	"walk to",
	"walking to",
	"route to",
	"way to",
	"get from",
}

var transitPhrases = []string{"bus", "transit", "ride", "shuttle"}

var safetyPhrases = []string{"night", "dark", "late", "safe", "alone", "escort"}

// nameStopWords are destination-name tokens too generic to identify a
// destination on their own.
var nameStopWords = map[string]bool{
	"the": true, "uga": true, "university": true, "center": true,
	"student": true, "main": true, "dining": true, "commons": true,
	"learning": true, "hall": true,
}

// Resolver matches wayfinding queries to campus destinations and renders
// walking directions. Safe for concurrent use; all state is read-only.
type Resolver struct {
	destinations []Destination
	campus       *geo.Resolver
}

// NewResolver builds a Resolver over the built-in destination table.
func NewResolver(campus *geo.Resolver) *Resolver {
	return &Resolver{destinations: CampusDestinations, campus: campus}
}

// IsDirectionsQuery reports whether the query looks like a wayfinding
// question.
func (r *Resolver) IsDirectionsQuery(query string) bool {
	lowered := strings.ToLower(query)
	for _, phrase := range intentPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// Resolve renders directions for the query from the resident's community.
// Returns "" when community is nil, because a route needs a starting
// point. A wayfinding query that names no known destination gets the
// destination listing instead.
func (r *Resolver) Resolve(query string, community *geo.Community) string {
	if community == nil || len(community.Buildings) == 0 {
		return ""
	}
	origin, ok := r.campus.BuildingByName(community.Buildings[0])
	if !ok {
		return ""
	}

	lowered := strings.ToLower(query)
	dest, ok := r.matchDestination(lowered)
	if !ok {
		return r.listDestinations(origin)
	}

	miles := geo.Haversine(origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude)
	minutes := walkMinutes(miles)

	var b strings.Builder
	fmt.Fprintf(&b, "Directions from %s to %s:\n", origin.Name, dest.Name)
	fmt.Fprintf(&b, "  Distance: about %.1f miles (roughly a %d minute walk)\n", miles, minutes)
	fmt.Fprintf(&b, "  Route: exit %s toward the main sidewalk, then %s.\n", origin.Name, dest.Approach)
	if len(dest.BusRoutes) > 0 {
		fmt.Fprintf(&b, "  Bus option: the %s stops near %s.\n",
			routeList(dest.BusRoutes), dest.Name)
	}

	if minutes > transitThresholdMinutes || containsAny(lowered, transitPhrases) {
		b.WriteString("\nCampus transit is free with your UGA ID. Check the UGA Bus App for live arrival times.\n")
	}
	if containsAny(lowered, safetyPhrases) {
		b.WriteString("\nAfter dark, stick to lit walkways and consider the free UGA Safe Ride service at (706) 369-6220. Walking with a friend is always a good idea.\n")
	}
	return b.String()
}

// matchDestination resolves the lowered query to a destination. Matching
// cascades: longest contained name or alias wins, then a distinctive
// whole-word token from a destination name.
func (r *Resolver) matchDestination(lowered string) (Destination, bool) {
	var best Destination
	bestLen := 0
	for _, d := range r.destinations {
		for _, key := range append([]string{d.Name}, d.Aliases...) {
			k := strings.ToLower(key)
			if len(k) > bestLen && strings.Contains(lowered, k) {
				best = d
				bestLen = len(k)
			}
		}
	}
	if bestLen > 0 {
		return best, true
	}

	queryTokens := make(map[string]bool)
	for _, tok := range tokenize(lowered) {
		queryTokens[tok] = true
	}
	for _, d := range r.destinations {
		for _, key := range append([]string{d.Name}, d.Aliases...) {
			for _, tok := range tokenize(strings.ToLower(key)) {
				if nameStopWords[tok] {
					continue
				}
				if queryTokens[tok] {
					return d, true
				}
			}
		}
	}
	return Destination{}, false
}

// listDestinations is the fallback when a wayfinding query names no known
// place. Each destination carries its distance and walk time from the
// resident's hall so the answer is useful on its own.
func (r *Resolver) listDestinations(origin geo.Building) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I can give walking directions from %s to these campus destinations:\n", origin.Name)
	for _, d := range r.destinations {
		miles := geo.Haversine(origin.Latitude, origin.Longitude, d.Latitude, d.Longitude)
		fmt.Fprintf(&b, "  %s: about %.1f miles (%d minute walk)\n", d.Name, miles, walkMinutes(miles))
	}
	return b.String()
}

// walkMinutes converts a distance to a walking estimate, never under a
// minute.
func walkMinutes(miles float64) int {
	minutes := int(math.Round(miles / walkSpeedMPH * 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func routeList(routes []string) string {
	switch len(routes) {
	case 1:
		return routes[0] + " route"
	case 2:
		return routes[0] + " and " + routes[1] + " routes"
	default:
		return strings.Join(routes[:len(routes)-1], ", ") + ", and " + routes[len(routes)-1] + " routes"
	}
}
