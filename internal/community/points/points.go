// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package points implements the community point economy.

It owns the two halves of every priced or rewarded action: the pure
Rank/Pricing engine (lookup tables mapping content tier and member rank to a
point cost) and the Ledger (the per-user balance with its append-only
transaction history).

# Architecture

  - Pricing: Pure functions over exhaustive enum tables. No I/O.
  - Ledger: Credit/Debit against the account row, always paired with an
    audit transaction row.
  - Anti-Abuse: Daily caps and cooldowns on reward-earning actions.

The central correctness rule of the platform lives here: a balance can never
go negative, and a debit is a single atomic check-then-decrement.
*/
package points

import "time"

// # Enumerations

// Tier classifies shareable content and drives its base download price.
type Tier string

const (
	TierNormal    Tier = "normal"
	TierPremium   Tier = "premium"
	TierExclusive Tier = "exclusive"
)

// Valid reports whether the tier is a known enumeration value.
func (t Tier) Valid() bool {
	switch t {
	case TierNormal, TierPremium, TierExclusive:
		return true
	}
	return false
}

// Rank is a member's reputation level, driven by total points earned.
// It is monotonic: spending points never demotes a member.
type Rank string

const (
	RankNewcomer    Rank = "newcomer"
	RankPlayer      Rank = "player"
	RankContributor Rank = "contributor"
	RankArtist      Rank = "artist"
	RankStar        Rank = "star"
	RankLegend      Rank = "legend"
)

// # Core Entities

// Transaction is one append-only ledger entry. Debits carry a negative amount.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int       `json:"amount"`
	Reason      string    `json:"reason"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaderboardEntry is a public ranking row ordered by lifetime earnings.
type LeaderboardEntry struct {
	Position          int    `json:"position"`
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	TotalPointsEarned int    `json:"total_points_earned"`
	Rank              Rank   `json:"rank"`
}

// # Transaction Reasons

const (
	ReasonRegisterBonus    = "register_bonus"
	ReasonDailyCheckin     = "daily_checkin"
	ReasonUploadApproved   = "upload_approved"
	ReasonComment          = "comment"
	ReasonDownloadMidi     = "download_midi"
	ReasonDownloadReceived = "download_received"
	ReasonMilestone50      = "milestone_50_downloads"
	ReasonMilestone100     = "milestone_100_downloads"
	ReasonRatingReceived   = "rating_received"
)

// # Reward Values

const (
	// RegisterBonus is credited once at account creation.
	RegisterBonus = 5

	// CommentReward is credited per comment, subject to anti-abuse checks.
	CommentReward = 1

	// UploadApprovedReward is credited when an admin approves an upload.
	UploadApprovedReward = 5

	// Milestone50Reward and Milestone100Reward go to the uploader when their
	// file crosses the matching download count.
	Milestone50Reward  = 10
	Milestone100Reward = 20

	// RatingReceivedReward goes to the uploader for every third rating of
	// four stars or better on one of their files.
	RatingReceivedReward = 1
)

// # Anti-Abuse Limits

const (
	// MaxUploadPointsPerDay caps upload rewards at 3 approvals per day.
	MaxUploadPointsPerDay = 3 * UploadApprovedReward

	// MaxCommentPointsPerDay caps comment rewards at 3 comments per day.
	MaxCommentPointsPerDay = 3 * CommentReward

	// UploadCooldown is the minimum spacing between rewarded uploads.
	UploadCooldown = 30 * time.Minute

	// CommentCooldown is the minimum spacing between rewarded comments.
	CommentCooldown = 5 * time.Minute
)

// # History Limits

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

// # Field Identifiers

const (
	FieldStars   = "stars"
	FieldAmount  = "amount"
	FieldReason  = "reason"
	FieldMessage = "message"
)
