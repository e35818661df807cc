// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package midi

import "time"

// # Upload Constraints

const (
	// MaxFileSize is the upload size ceiling for a single MIDI file.
	MaxFileSize = 5 << 20 // 5 MiB

	// MaxUploadsPerDay caps how many files one member may submit per UTC day,
	// independent of whether they are later approved.
	MaxUploadsPerDay = 3

	// MaxTitleLength and MaxDescriptionLength bound the metadata fields.
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000

	// MaxTags bounds the number of tags per file.
	MaxTags = 10
)

// # Download Handles

const (
	// DownloadHandleTTL is how long a granted file handle stays redeemable.
	// Short on purpose: a handle is proof of a completed charge, not a
	// shareable link.
	DownloadHandleTTL = 5 * time.Minute

	// DownloadHandleLength is the byte length of the random handle token.
	DownloadHandleLength = 32
)

// # Social Constraints

const (
	// MinScore and MaxScore bound a star rating.
	MinScore = 1
	MaxScore = 5

	// MaxCommentLength bounds a single comment body.
	MaxCommentLength = 2000

	// DefaultCommentLimit and MaxCommentLimit bound comment pagination.
	DefaultCommentLimit = 50
	MaxCommentLimit     = 200

	// RatingMilestoneStep: every RatingMilestoneStep-th rating of
	// RatingMilestoneMinScore or better rewards the uploader.
	RatingMilestoneStep     = 3
	RatingMilestoneMinScore = 4
)

// # Download Milestones

const (
	// Milestone50 and Milestone100 are the download counts at which the
	// uploader earns a one-time bonus.
	Milestone50  = 50
	Milestone100 = 100
)
