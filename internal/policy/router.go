package policy

import (
	"strings"
	"unicode/utf8"
)

// maxDocChars caps the rendered text of one document or guide section so a
// single sprawling document cannot crowd everything else out of the prompt.
const maxDocChars = 3000

const truncationMark = "\n...(truncated)"

// keywordRoute pairs a lowercase query keyword with its targets. Tables are
// ordered slices so matching is deterministic.
type keywordRoute struct {
	keyword string
	targets []string
}

// docRoutes maps query keywords to standalone policy document IDs.
var docRoutes = []keywordRoute{
	{"academic honesty", []string{"academic_honesty_policy"}},
	{"plagiarism", []string{"academic_honesty_policy"}},
	{"cheating", []string{"academic_honesty_policy"}},
	{"code of conduct", []string{"code_of_conduct"}},
	{"conduct", []string{"code_of_conduct"}},
	{"student conduct", []string{"code_of_conduct"}},
	{"disciplinary", []string{"code_of_conduct"}},
	{"computer use", []string{"computer_use_policy"}},
	{"acceptable use", []string{"computer_use_policy"}},
	{"network policy", []string{"computer_use_policy"}},
	{"minors", []string{"minors_policy"}},
	{"children", []string{"minors_policy"}},
	{"babysit", []string{"minors_policy"}},
	{"harassment", []string{"ndah_policy"}},
	{"discrimination", []string{"ndah_policy"}},
	{"title ix", []string{"ndah_policy"}},
	{"sexual misconduct", []string{"ndah_policy"}},
	{"hazing", []string{"code_of_conduct", "ndah_policy"}},
	{"alcohol", []string{"code_of_conduct"}},
	{"drugs", []string{"code_of_conduct"}},
	{"weapon", []string{"code_of_conduct"}},
}

// guideRoutes maps query keywords to dot paths inside the community guide
// document.
var guideRoutes = []keywordRoute{
	{"quiet hours", []string{"policies.noise_courtesy_and_quiet_hours"}},
	{"noise", []string{"policies.noise_courtesy_and_quiet_hours"}},
	{"courtesy hours", []string{"policies.noise_courtesy_and_quiet_hours"}},
	{"guest", []string{"policies.guests_and_visitation"}},
	{"visitor", []string{"policies.guests_and_visitation"}},
	{"visitation", []string{"policies.guests_and_visitation"}},
	{"overnight", []string{"policies.guests_and_visitation"}},
	{"pet", []string{"policies.pets"}},
	{"animal", []string{"policies.pets"}},
	{"fish tank", []string{"policies.pets"}},
	{"smoke", []string{"policies.smoking_and_tobacco"}},
	{"smoking", []string{"policies.smoking_and_tobacco"}},
	{"vape", []string{"policies.smoking_and_tobacco"}},
	{"tobacco", []string{"policies.smoking_and_tobacco"}},
	{"candle", []string{"policies.prohibited_items"}},
	{"prohibited", []string{"policies.prohibited_items"}},
	{"appliance", []string{"policies.prohibited_items"}},
	{"microwave", []string{"policies.prohibited_items"}},
	{"fire", []string{"safety.fire_safety"}},
	{"fire drill", []string{"safety.fire_safety"}},
	{"evacuation", []string{"safety.fire_safety"}},
	{"emergency", []string{"safety.emergency_procedures"}},
	{"maintenance", []string{"services.maintenance_and_work_orders"}},
	{"work order", []string{"services.maintenance_and_work_orders"}},
	{"repair", []string{"services.maintenance_and_work_orders"}},
	{"broken", []string{"services.maintenance_and_work_orders"}},
	{"laundry", []string{"services.laundry"}},
	{"washer", []string{"services.laundry"}},
	{"dryer", []string{"services.laundry"}},
	{"mail", []string{"services.mail_and_packages"}},
	{"package", []string{"services.mail_and_packages"}},
	{"internet", []string{"services.internet_and_cable"}},
	{"wifi", []string{"services.internet_and_cable"}},
	{"wi-fi", []string{"services.internet_and_cable"}},
	{"move in", []string{"housing_processes.move_in"}},
	{"move-in", []string{"housing_processes.move_in"}},
	{"move out", []string{"housing_processes.move_out"}},
	{"move-out", []string{"housing_processes.move_out"}},
	{"checkout", []string{"housing_processes.move_out"}},
	{"room change", []string{"housing_processes.room_changes"}},
	{"roommate", []string{"housing_processes.roommate_agreements"}},
	{"key", []string{"policies.keys_and_access"}},
	{"lockout", []string{"policies.keys_and_access"}},
	{"locked out", []string{"policies.keys_and_access"}},
	{"lost key", []string{"policies.keys_and_access"}},
	{"parking", []string{"services.parking"}},
	{"bike", []string{"services.bicycles"}},
	{"bicycle", []string{"services.bicycles"}},
	{"trash", []string{"services.trash_and_recycling"}},
	{"recycling", []string{"services.trash_and_recycling"}},
	{"dining", []string{"services.dining"}},
	{"meal plan", []string{"services.dining"}},
	{"alcohol in", []string{"policies.alcohol_and_drugs"}},
	{"decorat", []string{"policies.room_decoration"}},
	{"poster", []string{"policies.room_decoration"}},
}

// fallbackPaths are the guide sections returned when no keyword matches, so
// the assistant always has baseline residence hall context to work with.
var fallbackPaths = []string{"policies", "general_information"}

// Result is the routed structured context for one query.
type Result struct {
	// Text is the rendered context: matched policy documents first, then
	// matched guide sections.
	Text string

	// Sources lists the titles of documents that contributed, first match
	// first, no duplicates.
	Sources []string
}

// Router matches queries against the keyword tables and renders the matched
// documents and guide sections as prompt context.
type Router struct {
	store *Store
}

// NewRouter builds a router over the given store.
func NewRouter(store *Store) *Router {
	return &Router{store: store}
}

// Route resolves the query to structured context. Matching is substring
// containment on the lowercased query; when no guide keyword matches, the
// fallback guide sections are included so baseline residence hall context
// is present even for queries that only hit a standalone document.
func (r *Router) Route(query string) Result {
	lowered := strings.ToLower(query)

	var res Result
	var parts []string
	seenDoc := make(map[string]bool)
	seenSource := make(map[string]bool)

	addSource := func(title string) {
		if title == "" || seenSource[title] {
			return
		}
		seenSource[title] = true
		res.Sources = append(res.Sources, title)
	}

	for _, route := range docRoutes {
		if !strings.Contains(lowered, route.keyword) {
			continue
		}
		for _, id := range route.targets {
			if seenDoc[id] {
				continue
			}
			seenDoc[id] = true
			doc, ok := r.store.ByID(id)
			if !ok {
				continue
			}
			parts = append(parts, renderDoc(doc))
			addSource(doc.Title)
		}
	}

	paths := r.matchGuidePaths(lowered)
	guide := r.store.Guide()
	// The fallback sections apply whenever no guide keyword matched, even
	// when a standalone document already did.
	if len(paths) == 0 {
		paths = fallbackPaths
	}
	guideUsed := false
	for _, path := range paths {
		section, ok := guide.Lookup(path)
		if !ok {
			continue
		}
		label := strings.ReplaceAll(path, ".", " > ")
		label = strings.ReplaceAll(label, "_", " ")
		if text := truncate(section.Flatten(label)); text != "" {
			parts = append(parts, text)
			guideUsed = true
		}
	}
	if guideUsed {
		if doc, ok := r.store.ByID(GuideDocID); ok {
			addSource(doc.Title)
		}
	}

	res.Text = strings.Join(parts, "\n\n")
	return res
}

func (r *Router) matchGuidePaths(lowered string) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, route := range guideRoutes {
		if !strings.Contains(lowered, route.keyword) {
			continue
		}
		for _, path := range route.targets {
			if seen[path] {
				continue
			}
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths
}

// renderDoc flattens a standalone document under a bracketed title header.
func renderDoc(doc Document) string {
	return "[" + doc.Title + "]\n" + truncate(doc.Data.Flatten(""))
}

// truncate caps s at maxDocChars bytes, backing up to a rune boundary so
// the cut never splits a multi-byte character.
func truncate(s string) string {
	if len(s) <= maxDocChars {
		return s
	}
	cut := maxDocChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMark
}
