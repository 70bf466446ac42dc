package provider

// Franchise ids as assigned by the league, Atlanta through Washington.
var teamIDs = []int64{
	1610612737, 1610612738, 1610612739, 1610612740, 1610612741,
	1610612742, 1610612743, 1610612744, 1610612745, 1610612746,
	1610612747, 1610612748, 1610612749, 1610612750, 1610612751,
	1610612752, 1610612753, 1610612754, 1610612755, 1610612756,
	1610612757, 1610612758, 1610612759, 1610612760, 1610612761,
	1610612762, 1610612763, 1610612764, 1610612765, 1610612766,
}

// TeamIDs returns the 30 active franchise ids.
func TeamIDs() []int64 {
	out := make([]int64, len(teamIDs))
	copy(out, teamIDs)
	return out
}
