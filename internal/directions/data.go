package directions

// Destination is a campus landmark students ask for directions to.
type Destination struct {
	Name      string
	Aliases   []string
	Latitude  float64
	Longitude float64

	// Approach is a short phrase describing the final leg of the walk.
	Approach string

	// BusRoutes lists UGA campus transit routes that stop nearby.
	BusRoutes []string
}

// CampusDestinations is the built-in destination table. Order matters only
// for the fallback listing; matching scans the whole table.
var CampusDestinations = []Destination{
	{
		Name:      "Ramsey Student Center",
		Aliases:   []string{"rec center", "ramsey", "the gym", "recreation center"},
		Latitude:  33.9387,
		Longitude: -83.3700,
		Approach:  "follow College Station Road east and the Ramsey Center is the large glass building past the intramural fields",
		BusRoutes: []string{"East-West", "Milledge Avenue"},
	},
	{
		Name:      "Tate Student Center",
		Aliases:   []string{"tate", "student center"},
		Latitude:  33.9530,
		Longitude: -83.3757,
		Approach:  "head up Lumpkin Street and Tate is across the plaza from the bookstore",
		BusRoutes: []string{"Orbit", "Campus Loop"},
	},
	{
		Name:      "Miller Learning Center",
		Aliases:   []string{"mlc", "learning center"},
		Latitude:  33.9521,
		Longitude: -83.3753,
		Approach:  "cross the Tate plaza and the MLC is the brick building with the clock facade on Lumpkin Street",
		BusRoutes: []string{"Orbit", "Campus Loop"},
	},
	{
		Name:      "Main Library",
		Aliases:   []string{"library", "main stacks"},
		Latitude:  33.9546,
		Longitude: -83.3734,
		Approach:  "walk through North Campus past Herty Field and the Main Library faces the quad",
		BusRoutes: []string{"Campus Loop"},
	},
	{
		Name:      "Science Learning Center",
		Aliases:   []string{"slc"},
		Latitude:  33.9419,
		Longitude: -83.3765,
		Approach:  "follow Carlton Street west and the SLC sits across from the Coverdell Center",
		BusRoutes: []string{"East-West", "Health Sciences"},
	},
	{
		Name:      "Sanford Stadium",
		Aliases:   []string{"stadium", "sanford"},
		Latitude:  33.9497,
		Longitude: -83.3733,
		Approach:  "follow Sanford Drive until the bridge and the stadium gates are below you",
		BusRoutes: []string{"Campus Loop"},
	},
	{
		Name:      "Bolton Dining Commons",
		Aliases:   []string{"bolton"},
		Latitude:  33.9539,
		Longitude: -83.3781,
		Approach:  "head toward Baxter Street and Bolton is the round glass dining hall at the corner of Lumpkin",
		BusRoutes: []string{"Orbit"},
	},
	{
		Name:      "Snelling Dining Commons",
		Aliases:   []string{"snelling"},
		Latitude:  33.9501,
		Longitude: -83.3764,
		Approach:  "follow Sanford Drive south and Snelling is next to the Miller Plant Sciences building",
		BusRoutes: []string{"Campus Loop"},
	},
	{
		Name:      "University Health Center",
		Aliases:   []string{"health center", "uhc", "clinic"},
		Latitude:  33.9381,
		Longitude: -83.3706,
		Approach:  "take the East Campus Road sidewalk south and the Health Center is opposite the Ramsey Center",
		BusRoutes: []string{"East-West", "Health Sciences"},
	},
	{
		Name:      "UGA Bookstore",
		Aliases:   []string{"bookstore"},
		Latitude:  33.9528,
		Longitude: -83.3754,
		Approach:  "the bookstore shares the plaza with the Tate Student Center on Lumpkin Street",
		BusRoutes: []string{"Orbit", "Campus Loop"},
	},
}
