// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package points_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fourt/community/internal/community/points"
)

/*
TestPrice verifies the full (tier, rank) pricing matrix against the economy
tables, including the clamped legend waiver.
*/
func TestPrice(t *testing.T) {
	testCases := []struct {
		name string
		tier points.Tier
		rank points.Rank
		want int
	}{
		{"normal_newcomer", points.TierNormal, points.RankNewcomer, 3},
		{"normal_player", points.TierNormal, points.RankPlayer, 2},
		{"normal_contributor", points.TierNormal, points.RankContributor, 2},
		{"normal_artist", points.TierNormal, points.RankArtist, 1},
		{"normal_star", points.TierNormal, points.RankStar, 0},
		{"normal_legend", points.TierNormal, points.RankLegend, 0},
		{"premium_newcomer", points.TierPremium, points.RankNewcomer, 8},
		{"premium_star", points.TierPremium, points.RankStar, 5},
		{"premium_legend", points.TierPremium, points.RankLegend, 0},
		{"exclusive_newcomer", points.TierExclusive, points.RankNewcomer, 15},
		{"exclusive_artist", points.TierExclusive, points.RankArtist, 13},
		{"exclusive_legend", points.TierExclusive, points.RankLegend, 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, points.Price(testCase.tier, testCase.rank))
		})
	}
}

/*
TestPrice_UnknownValues verifies the legacy-row fallbacks: unknown tiers
price as normal, unknown ranks get no discount.
*/
func TestPrice_UnknownValues(t *testing.T) {
	assert.Equal(t, 3, points.Price(points.Tier("mystery"), points.RankNewcomer))
	assert.Equal(t, 8, points.Price(points.TierPremium, points.Rank("unranked")))
}

/*
TestPrice_NeverNegative sweeps every known pair and asserts the clamp.
*/
func TestPrice_NeverNegative(t *testing.T) {
	tiers := []points.Tier{points.TierNormal, points.TierPremium, points.TierExclusive}
	ranks := []points.Rank{
		points.RankNewcomer, points.RankPlayer, points.RankContributor,
		points.RankArtist, points.RankStar, points.RankLegend,
	}

	for _, tier := range tiers {
		for _, rank := range ranks {
			assert.GreaterOrEqual(t, points.Price(tier, rank), 0,
				"price(%s, %s) must not be negative", tier, rank)
		}
	}
}

/*
TestRankFor verifies the progression thresholds, including the boundaries.
*/
func TestRankFor(t *testing.T) {
	testCases := []struct {
		earned int
		want   points.Rank
	}{
		{0, points.RankNewcomer},
		{29, points.RankNewcomer},
		{30, points.RankPlayer},
		{99, points.RankPlayer},
		{100, points.RankContributor},
		{299, points.RankContributor},
		{300, points.RankArtist},
		{600, points.RankStar},
		{999, points.RankStar},
		{1000, points.RankLegend},
		{50000, points.RankLegend},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.want, points.RankFor(testCase.earned),
			"RankFor(%d)", testCase.earned)
	}
}

/*
TestTierValid verifies the tier enumeration guard.
*/
func TestTierValid(t *testing.T) {
	assert.True(t, points.TierNormal.Valid())
	assert.True(t, points.TierPremium.Valid())
	assert.True(t, points.TierExclusive.Valid())
	assert.False(t, points.Tier("vip").Valid())
	assert.False(t, points.Tier("").Valid())
}
