package config

// RegionGroup names a regional market, the postcode areas inside it, and the
// annual growth bonus applied to predictions there.
type RegionGroup struct {
	Name      string
	Bonus     float64
	AreaCodes []string
}

// RegionGroups lists the markets that attract a growth bonus. Areas outside
// every group get no bonus.
var RegionGroups = []RegionGroup{
	{
		Name:  "London",
		Bonus: 0.5,
		AreaCodes: []string{
			"E", "EC", "N", "NW", "SE", "SW", "W", "WC",
			"BR", "CR", "DA", "EN", "HA", "IG", "KT", "RM", "SM", "TW", "UB", "WD",
		},
	},
	{
		Name:  "Northern Powerhouse",
		Bonus: 0.4,
		AreaCodes: []string{
			"M", "L", "LS", "S", "NE", "BD", "HD", "HU", "SR", "WF",
		},
	},
	{
		Name:  "Scottish Cities",
		Bonus: 0.2,
		AreaCodes: []string{
			"AB", "DD", "EH", "G", "KY", "ML", "PA",
		},
	},
	{
		Name:  "Welsh Cities",
		Bonus: 0.3,
		AreaCodes: []string{
			"CF", "LL", "NP", "SA", "SY",
		},
	},
}

// RegionBonus returns the growth bonus and group name for an area code, or
// zero and an empty name when the area is in no group.
func RegionBonus(areaCode string) (float64, string) {
	for _, group := range RegionGroups {
		for _, code := range group.AreaCodes {
			if code == areaCode {
				return group.Bonus, group.Name
			}
		}
	}
	return 0, ""
}
