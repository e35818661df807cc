// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package midi implements the shared MIDI file catalog.

It covers the full life of a file: multipart upload, admin moderation,
tiered paid downloads against the points ledger, ratings, and comments.

# Architecture

  - Catalog: Paginated listing with tier filters, sorting, and text search.
  - Entitlement: The download gate; charge-once semantics per (user, file).
  - Social: Upserted star ratings and append-only comments, both feeding
    uploader rewards.
*/
package midi

import (
	"time"

	"github.com/fourt/community/internal/community/points"
)

// # Enumerations

// Status represents the moderation state of an uploaded file.
type Status string

const (
	// StatusPending indicates the file awaits admin review. Hidden from the catalog.
	StatusPending Status = "pending"
	// StatusApproved indicates the file is published and downloadable.
	StatusApproved Status = "approved"
	// StatusRejected indicates the file failed review. Hidden from the catalog.
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Sort identifies a catalog ordering.
type Sort string

const (
	// SortNewest orders by creation time, latest first.
	SortNewest Sort = "newest"
	// SortPopular orders by download count.
	SortPopular Sort = "popular"
	// SortRating orders by average rating, ties broken by rating count.
	SortRating Sort = "rating"
)

// IsValid reports whether s is a recognised [Sort] value.
func (s Sort) IsValid() bool {
	switch s {
	case SortNewest, SortPopular, SortRating:
		return true
	}
	return false
}

// # Core Entities

// Item represents one shared MIDI file in the catalog.
type Item struct {
	ID          string      `json:"id"`
	UploaderID  string      `json:"uploader_id"`
	Title       string      `json:"title"`
	Artist      string      `json:"artist,omitempty"`
	Description string      `json:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Tier        points.Tier `json:"tier"`
	Status      Status      `json:"status"`

	// FilePath is the server-side storage location. Never exposed to clients.
	FilePath string `json:"-"`

	FileSize        int64   `json:"file_size"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`

	DownloadCount int     `json:"download_count"`
	AvgRating     float64 `json:"avg_rating"`
	RatingCount   int     `json:"rating_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating is one user's star score for one file. Upserted, never duplicated.
type Rating struct {
	ID        string    `json:"id"`
	MidiID    string    `json:"midi_id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RateResult pairs the stored score with the file's recomputed aggregate.
type RateResult struct {
	Score       int     `json:"score"`
	AvgRating   float64 `json:"avg_rating"`
	RatingCount int     `json:"rating_count"`
}

// Comment is one append-only comment on a file.
type Comment struct {
	ID        string    `json:"id"`
	MidiID    string    `json:"midi_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Download records that a user has paid for (or freely obtained) a file.
// Its existence is what makes every later download of the same file free.
type Download struct {
	ID         string    `json:"id"`
	MidiID     string    `json:"midi_id"`
	UserID     string    `json:"user_id"`
	CostPoints int       `json:"cost_points"`
	CreatedAt  time.Time `json:"created_at"`
}

// DownloadGrant is the outcome of a successful pass through the download gate.
type DownloadGrant struct {
	// Handle is a short-lived opaque token redeemed at the file endpoint.
	Handle string `json:"handle"`

	// Charged is the number of points actually debited; zero for free
	// re-downloads, own uploads, and rank waivers.
	Charged int `json:"charged"`

	// Balance is the spendable balance after the charge.
	Balance int `json:"balance"`

	ExpiresAt time.Time `json:"expires_at"`
}

// # Query Types

// Filter carries the catalog listing parameters.
type Filter struct {
	// Search matches title and artist, case-insensitive substring.
	Search string

	// Tier restricts to one content tier when set.
	Tier points.Tier

	// UploaderID restricts to one uploader when set (my-uploads views).
	UploaderID string

	// Status restricts the moderation state. The public catalog forces
	// StatusApproved; admin and owner views may widen it.
	Status Status

	Sort Sort
}

// # Field Identifiers

const (
	FieldTitle       = "title"
	FieldArtist      = "artist"
	FieldDescription = "description"
	FieldTags        = "tags"
	FieldTier        = "tier"
	FieldStatus      = "status"
	FieldScore       = "score"
	FieldContent     = "content"
	FieldFile        = "file"
	FieldHandle      = "handle"
	FieldSort        = "sort"
)
