// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// We keep it short (15m) to minimize the impact of a leaked token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a session/refresh token remains valid.
	// Long-lived (30 days) to provide a good user experience.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32
)

// # Daily Check-In Rewards

// The streak resets when a day is skipped and wraps after day 30.
const (
	// CheckinBaseReward applies on streak days 1 through 6.
	CheckinBaseReward = 2

	// CheckinWeeklyReward applies on streak day 7.
	CheckinWeeklyReward = 5

	// CheckinVeteranReward applies on streak days 8 through 29.
	CheckinVeteranReward = 3

	// CheckinMonthlyReward applies on streak day 30.
	CheckinMonthlyReward = 15

	// CheckinStreakCycle is the streak length after which the cycle restarts.
	CheckinStreakCycle = 30
)

// CheckinReward returns the points earned for reaching a streak day.
func CheckinReward(streakDay int) int {
	switch {
	case streakDay >= CheckinStreakCycle:
		return CheckinMonthlyReward
	case streakDay >= 8:
		return CheckinVeteranReward
	case streakDay == 7:
		return CheckinWeeklyReward
	default:
		return CheckinBaseReward
	}
}

/*
NextStreakDay computes the streak day a check-in at "now" would reach.

Description: Consecutive calendar days (UTC) extend the streak; a skipped
day or completing the 30-day cycle restarts it at day 1. Same-day calls
return the current streak unchanged; the storage-level claim guard is what
actually rejects a second check-in.
*/
func NextStreakDay(currentStreak int, lastCheckinAt *time.Time, now time.Time) int {
	if lastCheckinAt == nil {
		return 1
	}

	today := now.UTC().Truncate(24 * time.Hour)
	lastDay := lastCheckinAt.UTC().Truncate(24 * time.Hour)

	switch {
	case lastDay.Equal(today):
		return currentStreak
	case lastDay.Equal(today.AddDate(0, 0, -1)) && currentStreak < CheckinStreakCycle:
		return currentStreak + 1
	default:
		return 1
	}
}
