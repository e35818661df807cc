// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package points

// # Pricing Tables
//
// Both tables are the single source of truth for download pricing. Editing a
// value here changes the economy everywhere; no call site hardcodes a cost.

// tierBaseCost is the undiscounted download price per content tier.
var tierBaseCost = map[Tier]int{
	TierNormal:    3,
	TierPremium:   8,
	TierExclusive: 15,
}

// rankDiscount is the flat discount each rank subtracts from the base cost.
//
// The legend value (99) exceeds every base cost on purpose: legend members
// download for free. It is a permanent waiver, not a bug, and [Price] clamps
// the result at zero.
var rankDiscount = map[Rank]int{
	RankNewcomer:    0,
	RankPlayer:      1,
	RankContributor: 1,
	RankArtist:      2,
	RankStar:        3,
	RankLegend:      99,
}

// Price returns the point cost of downloading content of the given tier for
// a member of the given rank.
//
// Pure function: deterministic, no side effects, no I/O. Unknown tiers fall
// back to the normal base cost and unknown ranks to no discount, matching
// stored legacy rows.
func Price(tier Tier, rank Rank) int {
	baseCost, ok := tierBaseCost[tier]
	if !ok {
		baseCost = tierBaseCost[TierNormal]
	}

	discount := rankDiscount[rank]

	if cost := baseCost - discount; cost > 0 {
		return cost
	}
	return 0
}

// # Rank Progression

// rankThreshold maps lifetime earnings to ranks, lowest first. [RankFor]
// walks it in order, so entries must stay sorted by MinEarned.
var rankThreshold = []struct {
	Rank      Rank
	MinEarned int
}{
	{RankNewcomer, 0},
	{RankPlayer, 30},
	{RankContributor, 100},
	{RankArtist, 300},
	{RankStar, 600},
	{RankLegend, 1000},
}

// RankFor returns the rank a member holds with the given lifetime earnings.
//
// Progression is monotonic because totalpointsearned only ever grows:
// debits reduce the spendable balance, never the lifetime total.
func RankFor(totalPointsEarned int) Rank {
	current := RankNewcomer
	for _, threshold := range rankThreshold {
		if totalPointsEarned >= threshold.MinEarned {
			current = threshold.Rank
		}
	}
	return current
}
