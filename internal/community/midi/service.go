// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package midi

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fourt/community/internal/community/auth"
	"github.com/fourt/community/internal/community/points"
	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/internal/platform/sec"
	"github.com/fourt/community/pkg/uuid"
)

// # Contracts & Types

// Accounts is the slice of the identity layer the catalog needs: the buyer's
// rank decides the price and the uploader receives the proceeds.
type Accounts interface {
	FindByID(context context.Context, id string) (*auth.User, error)
}

// Ledger is the slice of the points service the catalog needs for rewards
// that happen outside the download transaction.
type Ledger interface {
	Credit(context context.Context, userID string, amount int, reason string, referenceID *string) (int, error)
	CanEarnCommentPoints(context context.Context, userID string) (bool, error)
	CanEarnUploadPoints(context context.Context, userID string) (bool, error)
}

// Service implements the catalog use cases.
type Service struct {
	repository Repository
	handles    HandleRepository
	accounts   Accounts
	ledger     Ledger
	fileDir    string
}

// NewService constructs a new catalog [Service].
func NewService(
	repository Repository,
	handles HandleRepository,
	accounts Accounts,
	ledger Ledger,
	fileDir string,
) *Service {
	return &Service{
		repository: repository,
		handles:    handles,
		accounts:   accounts,
		ledger:     ledger,
		fileDir:    fileDir,
	}
}

// # Catalog Browsing

/*
List returns a page of the public catalog.

Description: The public catalog only ever shows approved files; the filter's
status field is forced regardless of what the caller set.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []Item: Page of approved items
  - int: Total match count
  - error: Query failures
*/
func (service *Service) List(context context.Context, filter Filter, limit, offset int) ([]Item, int, error) {
	filter.Status = StatusApproved
	if filter.Sort != "" && !filter.Sort.IsValid() {
		return nil, 0, apperr.ValidationError("Unknown sort order",
			apperr.FieldError{Field: FieldSort, Message: "must be one of: newest, popular, rating"})
	}
	if filter.Tier != "" && !filter.Tier.Valid() {
		return nil, 0, apperr.ValidationError("Unknown tier",
			apperr.FieldError{Field: FieldTier, Message: "must be one of: normal, premium, exclusive"})
	}

	return service.repository.List(context, filter, limit, offset)
}

/*
Get returns one item's details.

Description: Pending and rejected files are visible only to their uploader
and to admins; everyone else gets NotFound rather than Forbidden so the
existence of unreviewed files is not leaked.

Parameters:
  - context: context.Context
  - id: string
  - viewer: *sec.AuthClaims (nil for anonymous)

Returns:
  - *Item: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, id string, viewer *sec.AuthClaims) (*Item, error) {
	item, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if item.Status != StatusApproved {
		if viewer == nil || (viewer.UserID != item.UploaderID && !viewer.IsAdmin) {
			return nil, apperr.NotFound("Midi file")
		}
	}

	return item, nil
}

/*
MyMidi returns a page of the user's own uploads, every status included.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int
  - offset: int

Returns:
  - []Item: Page of uploads
  - int: Total upload count
  - error: Query failures
*/
func (service *Service) MyMidi(context context.Context, userID string, limit, offset int) ([]Item, int, error) {
	return service.repository.List(context, Filter{UploaderID: userID, Sort: SortNewest}, limit, offset)
}

/*
MyDownloads returns a page of the items the user has download records for.

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
func (service *Service) MyDownloads(context context.Context, userID string, limit, offset int) ([]Item, int, error) {
	return service.repository.ListDownloads(context, userID, limit, offset)
}

// # Upload & Moderation

// UploadInput carries a multipart upload into the service.
type UploadInput struct {
	UploaderID  string
	Title       string
	Artist      string
	Description string
	Tags        []string
	Tier        points.Tier
	Filename    string
	Size        int64
	File        io.Reader
}

/*
Upload validates and stores a new MIDI submission in pending status.

Description: The file lands on disk under a generated name; the declared
metadata goes to the catalog. Re-submission quota is per UTC day and counts
every submission, approved or not.

Parameters:
  - context: context.Context
  - input: UploadInput

Returns:
  - *Item: The pending catalog entry
  - error: Validation, quota, or persistence failures
*/
func (service *Service) Upload(context context.Context, input UploadInput) (*Item, error) {
	extension := strings.ToLower(filepath.Ext(input.Filename))
	if extension != ".mid" && extension != ".midi" {
		return nil, apperr.ValidationError("Only .mid and .midi files are accepted",
			apperr.FieldError{Field: FieldFile, Message: "must be a MIDI file"})
	}
	if input.Size <= 0 || input.Size > MaxFileSize {
		return nil, apperr.ValidationError("File exceeds the 5 MB size limit",
			apperr.FieldError{Field: FieldFile, Message: "must be between 1 byte and 5 MiB"})
	}
	if !input.Tier.Valid() {
		return nil, apperr.ValidationError("Unknown tier",
			apperr.FieldError{Field: FieldTier, Message: "must be one of: normal, premium, exclusive"})
	}
	if len(input.Tags) > MaxTags {
		return nil, apperr.ValidationError("Too many tags",
			apperr.FieldError{Field: FieldTags, Message: fmt.Sprintf("at most %d tags", MaxTags)})
	}

	// Daily quota check before we touch the disk.
	uploadsToday, err := service.repository.CountUploadsToday(context, input.UploaderID)
	if err != nil {
		return nil, err
	}
	if uploadsToday >= MaxUploadsPerDay {
		return nil, apperr.RateLimited(secondsToUTCMidnight(time.Now()))
	}

	storedPath, written, err := service.saveFile(input.File, extension)
	if err != nil {
		return nil, err
	}
	if written > MaxFileSize {
		_ = os.Remove(storedPath)
		return nil, apperr.ValidationError("File exceeds the 5 MB size limit",
			apperr.FieldError{Field: FieldFile, Message: "must be at most 5 MiB"})
	}

	item := &Item{
		ID:          uuid.New(),
		UploaderID:  input.UploaderID,
		Title:       input.Title,
		Artist:      input.Artist,
		Description: input.Description,
		Tags:        input.Tags,
		Tier:        input.Tier,
		Status:      StatusPending,
		FilePath:    storedPath,
		FileSize:    written,
	}

	if err := service.repository.Create(context, item); err != nil {
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("midi_service_upload_failed: %w", err)
	}

	return item, nil
}

// saveFile streams the upload to disk under a collision-free name.
func (service *Service) saveFile(source io.Reader, extension string) (string, int64, error) {
	if err := os.MkdirAll(service.fileDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("midi_service_storage_dir_failed: %w", err)
	}

	storedPath := filepath.Join(service.fileDir, uuid.New()+extension)
	destination, err := os.Create(storedPath)
	if err != nil {
		return "", 0, fmt.Errorf("midi_service_storage_create_failed: %w", err)
	}
	defer destination.Close()

	// One extra byte past the cap so oversized streams are detectable.
	written, err := io.Copy(destination, io.LimitReader(source, MaxFileSize+1))
	if err != nil {
		_ = os.Remove(storedPath)
		return "", 0, fmt.Errorf("midi_service_storage_write_failed: %w", err)
	}

	return storedPath, written, nil
}

/*
Review records the admin verdict on a pending upload.

Description: Approval publishes the file and rewards the uploader, subject
to the daily cap and cooldown. Rejection just hides the file.

Parameters:
  - context: context.Context
  - midiID: string
  - approve: bool

Returns:
  - *Item: The updated entity
  - error: apperr.NotFound, apperr.Conflict for already-reviewed files
*/
func (service *Service) Review(context context.Context, midiID string, approve bool) (*Item, error) {
	item, err := service.repository.FindByID(context, midiID)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusPending {
		return nil, apperr.Conflict("File has already been reviewed")
	}

	verdict := StatusRejected
	if approve {
		verdict = StatusApproved
	}

	updated, err := service.repository.SetStatus(context, midiID, verdict)
	if err != nil {
		return nil, err
	}

	if approve {
		allowed, err := service.ledger.CanEarnUploadPoints(context, item.UploaderID)
		if err == nil && allowed {
			_, _ = service.ledger.Credit(context, item.UploaderID, points.UploadApprovedReward, points.ReasonUploadApproved, &item.ID)
		}
	}

	return updated, nil
}

// # The Download Gate

/*
Download runs the entitlement gate and, on success, grants a file handle.

Description: The order of checks is fixed: visibility, then pricing, then
the atomic charge. The charge itself cannot double-bill; a repeated call
finds the existing download record and turns into a free re-download.
Uploaders always download their own files free.

Parameters:
  - context: context.Context
  - userID: string
  - midiID: string

Returns:
  - *DownloadGrant: Handle, amount charged, and resulting balance
  - error: apperr.NotFound, apperr.PaymentRequired
*/
func (service *Service) Download(context context.Context, userID, midiID string) (*DownloadGrant, error) {

	// ── 1. Resolve the parties ────────────────────────────────────────────
	user, err := service.accounts.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	item, err := service.repository.FindByID(context, midiID)
	if err != nil {
		return nil, err
	}

	// ── 2. Visibility ─────────────────────────────────────────────────────
	// Unapproved files are downloadable only by their uploader.
	if item.Status != StatusApproved && item.UploaderID != userID {
		return nil, apperr.NotFound("Midi file")
	}

	// ── 3. Pricing ────────────────────────────────────────────────────────
	cost := 0
	if item.UploaderID != userID {
		cost = points.Price(item.Tier, user.Rank)
	}

	// ── 4. Atomic Charge ──────────────────────────────────────────────────
	result, err := service.repository.ChargeDownload(context, userID, item, cost)
	if err != nil {
		return nil, err
	}

	// ── 5. Handle Grant ───────────────────────────────────────────────────
	handle, err := sec.GenerateSecureToken(DownloadHandleLength)
	if err != nil {
		return nil, fmt.Errorf("midi_service_handle_generation_failed: %w", err)
	}
	if err := service.handles.Store(context, handle, userID, midiID, DownloadHandleTTL); err != nil {
		return nil, fmt.Errorf("midi_service_handle_store_failed: %w", err)
	}

	return &DownloadGrant{
		Handle:    handle,
		Charged:   result.Charged,
		Balance:   result.Balance,
		ExpiresAt: time.Now().Add(DownloadHandleTTL),
	}, nil
}

/*
File redeems a download handle and returns the item whose bytes to serve.

Parameters:
  - context: context.Context
  - handle: string

Returns:
  - *Item: The granted file (FilePath points at the stored bytes)
  - error: apperr.NotFound for unknown, used, or expired handles
*/
func (service *Service) File(context context.Context, handle string) (*Item, error) {
	_, midiID, err := service.handles.Redeem(context, handle)
	if err != nil {
		return nil, err
	}

	return service.repository.FindByID(context, midiID)
}

// # Ratings

/*
Rate stores or replaces the user's star score for an approved file.

Description: Self-rating is rejected; it would let uploaders farm the
every-third-good-rating reward. Only a user's first rating of a file can
trigger the uploader milestone.

Parameters:
  - context: context.Context
  - userID: string
  - midiID: string
  - score: int (1..5)

Returns:
  - *RateResult: The stored score and the file's new rating aggregate
  - error: apperr.NotFound, apperr.Forbidden, validation failures
*/
func (service *Service) Rate(context context.Context, userID, midiID string, score int) (*RateResult, error) {
	if score < MinScore || score > MaxScore {
		return nil, apperr.ValidationError("Score must be between 1 and 5",
			apperr.FieldError{Field: FieldScore, Message: "must be between 1 and 5"})
	}

	item, err := service.repository.FindByID(context, midiID)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusApproved {
		return nil, apperr.NotFound("Midi file")
	}
	if item.UploaderID == userID {
		return nil, apperr.Forbidden("You cannot rate your own upload")
	}

	rating := &Rating{MidiID: midiID, UserID: userID, Score: score}
	isNew, err := service.repository.UpsertRating(context, rating)
	if err != nil {
		return nil, err
	}

	// Every third rating of four stars or better pays the uploader one point.
	if isNew && score >= RatingMilestoneMinScore {
		count, err := service.repository.CountHighRatings(context, midiID, RatingMilestoneMinScore)
		if err == nil && count > 0 && count%RatingMilestoneStep == 0 {
			_, _ = service.ledger.Credit(context, item.UploaderID, points.RatingReceivedReward, points.ReasonRatingReceived, &item.ID)
		}
	}

	updated, err := service.repository.FindByID(context, midiID)
	if err != nil {
		return nil, err
	}

	return &RateResult{
		Score:       rating.Score,
		AvgRating:   updated.AvgRating,
		RatingCount: updated.RatingCount,
	}, nil
}

/*
MyRating returns the user's existing rating for a file.

Parameters:
  - context: context.Context
  - userID: string
  - midiID: string

Returns:
  - *Rating: The stored rating
  - error: apperr.NotFound when the user has not rated the file
*/
func (service *Service) MyRating(context context.Context, userID, midiID string) (*Rating, error) {
	return service.repository.FindRating(context, userID, midiID)
}

// # Comments

/*
Comment appends a comment to an approved file.

Description: The comment is always stored. The one-point reward is a side
effect gated by the daily cap and cooldown; hitting either gate silently
skips the reward.

Parameters:
  - context: context.Context
  - userID: string
  - midiID: string
  - content: string

Returns:
  - *Comment: The stored comment
  - error: apperr.NotFound, validation failures
*/
func (service *Service) Comment(context context.Context, userID, midiID, content string) (*Comment, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, apperr.ValidationError("Comment cannot be empty",
			apperr.FieldError{Field: FieldContent, Message: "required"})
	}
	if len([]rune(trimmed)) > MaxCommentLength {
		return nil, apperr.ValidationError("Comment is too long",
			apperr.FieldError{Field: FieldContent, Message: fmt.Sprintf("at most %d characters", MaxCommentLength)})
	}

	item, err := service.repository.FindByID(context, midiID)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusApproved {
		return nil, apperr.NotFound("Midi file")
	}

	comment := &Comment{
		ID:      uuid.New(),
		MidiID:  midiID,
		UserID:  userID,
		Content: trimmed,
	}
	if err := service.repository.CreateComment(context, comment); err != nil {
		return nil, err
	}

	allowed, err := service.ledger.CanEarnCommentPoints(context, userID)
	if err == nil && allowed {
		_, _ = service.ledger.Credit(context, userID, points.CommentReward, points.ReasonComment, &comment.ID)
	}

	return comment, nil
}

/*
Comments returns a page of a file's comments, newest first.

Parameters:
  - context: context.Context
  - midiID: string
  - limit: int
  - offset: int

Returns:
  - []Comment: Page of comments
  - int: Total comment count
  - error: apperr.NotFound or query failures
*/
func (service *Service) Comments(context context.Context, midiID string, limit, offset int) ([]Comment, int, error) {
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	if limit > MaxCommentLimit {
		limit = MaxCommentLimit
	}
	if offset < 0 {
		offset = 0
	}

	item, err := service.repository.FindByID(context, midiID)
	if err != nil {
		return nil, 0, err
	}
	if item.Status != StatusApproved {
		return nil, 0, apperr.NotFound("Midi file")
	}

	return service.repository.ListComments(context, midiID, limit, offset)
}

// secondsToUTCMidnight reports how long until the daily quota resets.
func secondsToUTCMidnight(now time.Time) int {
	utc := now.UTC()
	midnight := utc.Truncate(24 * time.Hour).Add(24 * time.Hour)
	return int(midnight.Sub(utc).Seconds())
}
