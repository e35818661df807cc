// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package midi

import (
	"context"
	"time"
)

// # Catalog Data Access

// ChargeResult reports what the download transaction actually did.
type ChargeResult struct {
	// Charged is the amount debited from the buyer; zero when the download
	// was free or already owned.
	Charged int

	// Balance is the buyer's spendable balance after the transaction.
	Balance int

	// AlreadyOwned is true when a prior download record made this one free.
	AlreadyOwned bool
}

// Repository defines the data access contract for the MIDI catalog.
type Repository interface {

	/*
		Create persists a new catalog item (normally in pending status).

		Parameters:
		  - context: context.Context
		  - item: *Item

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, item *Item) error

	/*
		FindByID returns the item with the given ID regardless of status.
		Callers are responsible for visibility rules.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Item: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Item, error)

	/*
		List returns a page of catalog items matching the filter.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []Item: Page of items
		  - int: Total match count
		  - error: Query failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]Item, int, error)

	/*
		CountUploadsToday counts a user's submissions since UTC midnight,
		regardless of their moderation outcome.

		Parameters:
		  - context: context.Context
		  - uploaderID: string

		Returns:
		  - int: Submission count
		  - error: Query failures
	*/
	CountUploadsToday(context context.Context, uploaderID string) (int, error)

	/*
		SetStatus records the moderation verdict for an item.

		Parameters:
		  - context: context.Context
		  - id: string
		  - status: Status

		Returns:
		  - *Item: The updated entity
		  - error: apperr.NotFound or update failures
	*/
	SetStatus(context context.Context, id string, status Status) (*Item, error)

	/*
		ChargeDownload executes the whole paid-download exchange in one
		database transaction: the charge-once guard, the buyer's debit, the
		uploader's credit, the download counter, and any crossed download
		milestones. Either all of it commits or none of it does.

		Description: The (user, midi) download record carries a uniqueness
		constraint. Inserting it first with ON CONFLICT DO NOTHING makes a
		repeat download observable inside the transaction, which turns it
		into a free re-download instead of a second charge.

		Parameters:
		  - context: context.Context
		  - userID: string (the buyer)
		  - item: *Item (the file being bought)
		  - cost: int (points to charge; zero means free)

		Returns:
		  - *ChargeResult: What was charged and the resulting balance
		  - error: apperr.PaymentRequired when funds are insufficient
	*/
	ChargeDownload(context context.Context, userID string, item *Item, cost int) (*ChargeResult, error)

	/*
		ListDownloads returns the items a user has download records for,
		most recent first.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []Item: Page of downloaded items
		  - int: Total download count
		  - error: Query failures
	*/
	ListDownloads(context context.Context, userID string, limit, offset int) ([]Item, int, error)

	/*
		UpsertRating stores or replaces a user's star score for an item and
		recomputes the item's aggregate rating in the same transaction.

		Parameters:
		  - context: context.Context
		  - rating: *Rating

		Returns:
		  - bool: true when this was the user's first rating of the item
		  - error: Persistence failures
	*/
	UpsertRating(context context.Context, rating *Rating) (bool, error)

	/*
		FindRating returns a user's existing rating for an item.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - midiID: string

		Returns:
		  - *Rating: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindRating(context context.Context, userID, midiID string) (*Rating, error)

	/*
		CountHighRatings counts the ratings at or above a score threshold.
		Drives the every-third-good-rating uploader reward.

		Parameters:
		  - context: context.Context
		  - midiID: string
		  - minScore: int

		Returns:
		  - int: Rating count
		  - error: Query failures
	*/
	CountHighRatings(context context.Context, midiID string, minScore int) (int, error)

	/*
		CreateComment appends a comment to an item.

		Parameters:
		  - context: context.Context
		  - comment: *Comment

		Returns:
		  - error: Persistence failures
	*/
	CreateComment(context context.Context, comment *Comment) error

	/*
		ListComments returns a page of an item's comments, newest first.

		Parameters:
		  - context: context.Context
		  - midiID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []Comment: Page of comments with author usernames
		  - int: Total comment count
		  - error: Query failures
	*/
	ListComments(context context.Context, midiID string, limit, offset int) ([]Comment, int, error)
}

// # Download Handles

// HandleRepository stores short-lived, single-use download handles.
type HandleRepository interface {

	/*
		Store saves a handle bound to a (user, midi) pair with a TTL.

		Parameters:
		  - context: context.Context
		  - handle: string
		  - userID: string
		  - midiID: string
		  - ttl: time.Duration

		Returns:
		  - error: Storage failures
	*/
	Store(context context.Context, handle, userID, midiID string, ttl time.Duration) error

	/*
		Redeem consumes a handle and returns its binding. A handle can be
		redeemed exactly once; expired or unknown handles fail.

		Parameters:
		  - context: context.Context
		  - handle: string

		Returns:
		  - string: userID the handle was granted to
		  - string: midiID the handle unlocks
		  - error: apperr.NotFound for unknown, used, or expired handles
	*/
	Redeem(context context.Context, handle string) (string, string, error)
}
