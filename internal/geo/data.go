package geo

// Static campus reference data. Coordinates come from the housing office's
// building survey; order matters for nearest-building tie breaking.

// CampusBuildings lists every residence hall with surveyed coordinates.
var CampusBuildings = []Building{
	{Name: "Boggs Hall", Latitude: 33.9516, Longitude: -83.3732},
	{Name: "Church Hall", Latitude: 33.9519, Longitude: -83.3736},
	{Name: "Hill Hall", Latitude: 33.9522, Longitude: -83.3741},
	{Name: "Mell Hall", Latitude: 33.9514, Longitude: -83.3744},
	{Name: "Morris Hall", Latitude: 33.9511, Longitude: -83.3738},
	{Name: "Creswell Hall", Latitude: 33.9535, Longitude: -83.3760},
	{Name: "Russell Hall", Latitude: 33.9505, Longitude: -83.3750},
	{Name: "Brumby Hall", Latitude: 33.9541, Longitude: -83.3766},
	{Name: "Myers Hall", Latitude: 33.9545, Longitude: -83.3770},
	{Name: "Rutherford Hall", Latitude: 33.9548, Longitude: -83.3775},
	{Name: "Mary Lyndon Hall", Latitude: 33.9551, Longitude: -83.3779},
	{Name: "Reed Hall", Latitude: 33.9555, Longitude: -83.3780},
	{Name: "Payne Hall", Latitude: 33.9565, Longitude: -83.3790},
}

// CampusCommunities groups the buildings by front desk. Building lists are
// ordered; the first entry is the community's flagship hall.
var CampusCommunities = []Community{
	{
		Name:              "Hill Community",
		Buildings:         []string{"Boggs Hall", "Church Hall", "Hill Hall", "Mell Hall", "Morris Hall"},
		FrontDesk:         "Hill Community Front Desk",
		FrontDeskPhone:    "(706) 542-5000",
		FrontDeskLocation: "Boggs Hall lobby",
		QuietHours:        "Sunday-Thursday 10:00 PM - 8:00 AM, Friday-Saturday midnight - 8:00 AM",
		CourtesyHours:     "24 hours a day",
		Laundry:           "Free laundry rooms on the ground floor of each hall",
		DiningNearby:      []string{"Snelling Dining Commons", "Bolton Dining Commons"},
		Mailroom:          "Hill Community mailroom, Boggs Hall ground floor",
		Parking:           "W01 lot with a valid resident permit",
		RoomType:          "Traditional double with community bath",
		Amenities:         []string{"community kitchen", "study lounges", "piano room"},
		Policies: map[string]string{
			"guests":     "Overnight guests up to 3 consecutive nights with roommate consent",
			"appliances": "Microwaves up to 700W and fridges up to 4.5 cu ft allowed",
		},
	},
	{
		Name:              "Creswell Community",
		Buildings:         []string{"Creswell Hall"},
		FrontDesk:         "Creswell Front Desk",
		FrontDeskPhone:    "(706) 542-5003",
		FrontDeskLocation: "Creswell Hall main lobby",
		QuietHours:        "Sunday-Thursday 10:00 PM - 8:00 AM, Friday-Saturday midnight - 8:00 AM",
		CourtesyHours:     "24 hours a day",
		Laundry:           "Free laundry room, Creswell ground floor next to the mailboxes",
		DiningNearby:      []string{"Bolton Dining Commons"},
		Mailroom:          "Creswell Hall ground floor",
		Parking:           "W02 lot with a valid resident permit",
		RoomType:          "Traditional double with community bath",
		Amenities:         []string{"24-hour study lounge", "music practice room", "community kitchen"},
		Policies: map[string]string{
			"guests": "Overnight guests up to 3 consecutive nights with roommate consent",
			"pets":   "Fish in tanks of 10 gallons or less only",
		},
	},
	{
		Name:              "Russell Community",
		Buildings:         []string{"Russell Hall", "Brumby Hall"},
		FrontDesk:         "Russell Front Desk",
		FrontDeskPhone:    "(706) 542-5002",
		FrontDeskLocation: "Russell Hall rotunda",
		QuietHours:        "Sunday-Thursday 10:00 PM - 8:00 AM, Friday-Saturday midnight - 8:00 AM",
		CourtesyHours:     "24 hours a day",
		Laundry:           "Free laundry rooms on floors 2, 5, and 8",
		DiningNearby:      []string{"Bolton Dining Commons", "The Niche"},
		Mailroom:          "Russell Hall ground floor",
		Parking:           "W02 lot with a valid resident permit",
		RoomType:          "Traditional double with community bath",
		Amenities:         []string{"game room", "study lounges on every floor", "bike storage"},
		Policies: map[string]string{
			"guests": "Overnight guests up to 3 consecutive nights with roommate consent",
		},
	},
	{
		Name:              "Myers Community",
		Buildings:         []string{"Myers Hall", "Rutherford Hall", "Mary Lyndon Hall"},
		FrontDesk:         "Myers Front Desk",
		FrontDeskPhone:    "(706) 542-5004",
		FrontDeskLocation: "Myers Hall lobby",
		QuietHours:        "Sunday-Thursday 10:00 PM - 8:00 AM, Friday-Saturday midnight - 8:00 AM",
		CourtesyHours:     "24 hours a day",
		Laundry:           "Free laundry room in the Myers basement",
		DiningNearby:      []string{"Snelling Dining Commons"},
		Mailroom:          "Myers Hall lobby",
		Parking:           "S11 lot with a valid resident permit",
		RoomType:          "Mix of traditional and suite-style rooms",
		Amenities:         []string{"historic lounge", "seminar room", "front porch"},
		Policies: map[string]string{
			"guests": "Overnight guests up to 3 consecutive nights with roommate consent",
		},
	},
	{
		Name:              "Reed Community",
		Buildings:         []string{"Reed Hall", "Payne Hall"},
		FrontDesk:         "Reed Front Desk",
		FrontDeskPhone:    "(706) 542-5005",
		FrontDeskLocation: "Reed Hall main entrance",
		QuietHours:        "Sunday-Thursday 10:00 PM - 8:00 AM, Friday-Saturday midnight - 8:00 AM",
		CourtesyHours:     "24 hours a day",
		Laundry:           "Free laundry room between Reed and Payne",
		DiningNearby:      []string{"Snelling Dining Commons"},
		Mailroom:          "Reed Hall ground floor",
		Parking:           "S11 lot with a valid resident permit",
		RoomType:          "Traditional double with community bath",
		Amenities:         []string{"courtyard", "study lounges", "community kitchen"},
		Policies: map[string]string{
			"guests": "Overnight guests up to 3 consecutive nights with roommate consent",
		},
	},
}
