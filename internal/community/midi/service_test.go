// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package midi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourt/community/internal/community/auth"
	"github.com/fourt/community/internal/community/points"
	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/pkg/uuid"
)

// # Test Doubles

type fakeRepository struct {
	mutex        sync.Mutex
	items        map[string]*Item
	balances     map[string]int
	owned        map[string]bool // "userID:midiID"
	uploadsToday map[string]int
	ratings      map[string]*Rating // "userID:midiID"
	comments     []Comment
	highRatings  map[string]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items:        make(map[string]*Item),
		balances:     make(map[string]int),
		owned:        make(map[string]bool),
		uploadsToday: make(map[string]int),
		ratings:      make(map[string]*Rating),
		highRatings:  make(map[string]int),
	}
}

func (repository *fakeRepository) Create(_ context.Context, item *Item) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	stored := *item
	repository.items[item.ID] = &stored
	repository.uploadsToday[item.UploaderID]++
	return nil
}

func (repository *fakeRepository) FindByID(_ context.Context, id string) (*Item, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	item, ok := repository.items[id]
	if !ok {
		return nil, apperr.NotFound("Midi file")
	}
	copied := *item
	return &copied, nil
}

func (repository *fakeRepository) List(_ context.Context, filter Filter, limit, offset int) ([]Item, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	matched := make([]Item, 0)
	for _, item := range repository.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.UploaderID != "" && item.UploaderID != filter.UploaderID {
			continue
		}
		matched = append(matched, *item)
	}
	return matched, len(matched), nil
}

func (repository *fakeRepository) CountUploadsToday(_ context.Context, uploaderID string) (int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.uploadsToday[uploaderID], nil
}

func (repository *fakeRepository) SetStatus(_ context.Context, id string, status Status) (*Item, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	item, ok := repository.items[id]
	if !ok {
		return nil, apperr.NotFound("Midi file")
	}
	item.Status = status
	copied := *item
	return &copied, nil
}

// ChargeDownload mirrors the store's transactional semantics: the ownership
// record is the charge-once guard, and the debit is conditional on balance.
func (repository *fakeRepository) ChargeDownload(_ context.Context, userID string, item *Item, cost int) (*ChargeResult, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	key := userID + ":" + item.ID
	if repository.owned[key] {
		return &ChargeResult{Charged: 0, Balance: repository.balances[userID], AlreadyOwned: true}, nil
	}

	if cost > 0 {
		if repository.balances[userID] < cost {
			return nil, apperr.PaymentRequired("Insufficient points")
		}
		repository.balances[userID] -= cost
		repository.balances[item.UploaderID] += cost
	}

	repository.owned[key] = true
	repository.items[item.ID].DownloadCount++
	return &ChargeResult{Charged: cost, Balance: repository.balances[userID]}, nil
}

func (repository *fakeRepository) ListDownloads(_ context.Context, userID string, limit, offset int) ([]Item, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	matched := make([]Item, 0)
	for _, item := range repository.items {
		if repository.owned[userID+":"+item.ID] {
			matched = append(matched, *item)
		}
	}
	return matched, len(matched), nil
}

func (repository *fakeRepository) UpsertRating(_ context.Context, rating *Rating) (bool, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	key := rating.UserID + ":" + rating.MidiID
	_, exists := repository.ratings[key]
	stored := *rating
	repository.ratings[key] = &stored
	if !exists && rating.Score >= RatingMilestoneMinScore {
		repository.highRatings[rating.MidiID]++
	}

	// Recompute the item aggregate from the stored scores, as the store does.
	sum, count := 0, 0
	for _, existing := range repository.ratings {
		if existing.MidiID == rating.MidiID {
			sum += existing.Score
			count++
		}
	}
	if item, ok := repository.items[rating.MidiID]; ok && count > 0 {
		item.AvgRating = float64(sum) / float64(count)
		item.RatingCount = count
	}

	return !exists, nil
}

func (repository *fakeRepository) FindRating(_ context.Context, userID, midiID string) (*Rating, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	rating, ok := repository.ratings[userID+":"+midiID]
	if !ok {
		return nil, apperr.NotFound("Rating")
	}
	copied := *rating
	return &copied, nil
}

func (repository *fakeRepository) CountHighRatings(_ context.Context, midiID string, minScore int) (int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.highRatings[midiID], nil
}

func (repository *fakeRepository) CreateComment(_ context.Context, comment *Comment) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.comments = append(repository.comments, *comment)
	return nil
}

func (repository *fakeRepository) ListComments(_ context.Context, midiID string, limit, offset int) ([]Comment, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	matched := make([]Comment, 0)
	for index := 0; index < len(repository.comments); index++ {
		if repository.comments[index].MidiID == midiID {
			matched = append(matched, repository.comments[index])
		}
	}
	return matched, len(matched), nil
}

type fakeHandles struct {
	mutex   sync.Mutex
	handles map[string]string
}

func newFakeHandles() *fakeHandles {
	return &fakeHandles{handles: make(map[string]string)}
}

func (repository *fakeHandles) Store(_ context.Context, handle, userID, midiID string, _ time.Duration) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.handles[handle] = userID + ":" + midiID
	return nil
}

func (repository *fakeHandles) Redeem(_ context.Context, handle string) (string, string, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	value, ok := repository.handles[handle]
	if !ok {
		return "", "", apperr.NotFound("Download handle")
	}
	delete(repository.handles, handle)
	parts := strings.SplitN(value, ":", 2)
	return parts[0], parts[1], nil
}

type fakeAccounts struct {
	users map[string]*auth.User
}

func (accounts *fakeAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := accounts.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

type creditedEntry struct {
	userID string
	amount int
	reason string
}

type fakeRewards struct {
	mutex      sync.Mutex
	credited   []creditedEntry
	commentsOK bool
	uploadsOK  bool
}

func (ledger *fakeRewards) Credit(_ context.Context, userID string, amount int, reason string, _ *string) (int, error) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()
	ledger.credited = append(ledger.credited, creditedEntry{userID: userID, amount: amount, reason: reason})
	return amount, nil
}

func (ledger *fakeRewards) CanEarnCommentPoints(_ context.Context, _ string) (bool, error) {
	return ledger.commentsOK, nil
}

func (ledger *fakeRewards) CanEarnUploadPoints(_ context.Context, _ string) (bool, error) {
	return ledger.uploadsOK, nil
}

// # Fixtures

type fixture struct {
	service    *Service
	repository *fakeRepository
	handles    *fakeHandles
	accounts   *fakeAccounts
	rewards    *fakeRewards
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repository := newFakeRepository()
	handles := newFakeHandles()
	accounts := &fakeAccounts{users: make(map[string]*auth.User)}
	rewards := &fakeRewards{commentsOK: true, uploadsOK: true}
	return &fixture{
		service:    NewService(repository, handles, accounts, rewards, t.TempDir()),
		repository: repository,
		handles:    handles,
		accounts:   accounts,
		rewards:    rewards,
	}
}

func (f *fixture) addUser(rank points.Rank, balance int) string {
	id := uuid.New()
	f.accounts.users[id] = &auth.User{ID: id, Username: "user-" + id[:8], Rank: rank}
	f.repository.balances[id] = balance
	return id
}

func (f *fixture) addItem(uploaderID string, tier points.Tier, status Status) *Item {
	item := &Item{
		ID:         uuid.New(),
		UploaderID: uploaderID,
		Title:      "Moonlight Sonata",
		Artist:     "Beethoven",
		Tier:       tier,
		Status:     status,
	}
	stored := *item
	f.repository.items[item.ID] = &stored
	return item
}

// # Download Gate

func TestDownloadChargesTierPriceWithRankDiscount(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	buyer := f.addUser(points.RankPlayer, 10)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	grant, err := f.service.Download(context.Background(), buyer, item.ID)
	require.NoError(t, err)

	// Normal tier costs 3, player discount is 1.
	assert.Equal(t, 2, grant.Charged)
	assert.Equal(t, 8, grant.Balance)
	assert.NotEmpty(t, grant.Handle)

	// The uploader received the proceeds.
	assert.Equal(t, 2, f.repository.balances[uploader])
}

func TestDownloadOwnUploadIsFree(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierExclusive, StatusApproved)

	grant, err := f.service.Download(context.Background(), uploader, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, grant.Charged)
}

func TestDownloadRepeatIsFree(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	buyer := f.addUser(points.RankNewcomer, 3)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	first, err := f.service.Download(context.Background(), buyer, item.ID)
	require.NoError(t, err)
	require.Equal(t, 3, first.Charged)

	// Balance is now zero, but the owned record makes the repeat free.
	second, err := f.service.Download(context.Background(), buyer, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Charged)
	assert.Equal(t, 0, second.Balance)
	assert.NotEqual(t, first.Handle, second.Handle)
}

func TestDownloadInsufficientPoints(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	buyer := f.addUser(points.RankNewcomer, 2)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	_, err := f.service.Download(context.Background(), buyer, item.ID)
	require.Error(t, err)

	assert.Equal(t, "INSUFFICIENT_POINTS", apperr.As(err).Code)

	// Nothing moved.
	assert.Equal(t, 2, f.repository.balances[buyer])
	assert.Equal(t, 0, f.repository.balances[uploader])
}

func TestDownloadUnapprovedHiddenFromOthers(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	buyer := f.addUser(points.RankNewcomer, 100)
	item := f.addItem(uploader, points.TierNormal, StatusPending)

	_, err := f.service.Download(context.Background(), buyer, item.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// The uploader can still fetch their own pending file, free.
	grant, err := f.service.Download(context.Background(), uploader, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, grant.Charged)
}

func TestDownloadConcurrentChargesOnce(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	buyer := f.addUser(points.RankNewcomer, 3)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	const attempts = 16
	results := make([]*DownloadGrant, attempts)

	var group sync.WaitGroup
	for index := 0; index < attempts; index++ {
		group.Add(1)
		go func(slot int) {
			defer group.Done()
			grant, err := f.service.Download(context.Background(), buyer, item.ID)
			if err == nil {
				results[slot] = grant
			}
		}(index)
	}
	group.Wait()

	charged := 0
	for index := 0; index < attempts; index++ {
		require.NotNil(t, results[index])
		if results[index].Charged > 0 {
			charged++
		}
	}

	assert.Equal(t, 1, charged)
	assert.Equal(t, 0, f.repository.balances[buyer])
	assert.Equal(t, 3, f.repository.balances[uploader])
}

func TestDownloadSpendSequence(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	// Fresh account holding exactly the signup bonus.
	buyer := f.addUser(points.RankNewcomer, points.RegisterBonus)
	normal := f.addItem(uploader, points.TierNormal, StatusApproved)
	premium := f.addItem(uploader, points.TierPremium, StatusApproved)

	grant, err := f.service.Download(context.Background(), buyer, normal.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, grant.Charged)
	assert.Equal(t, 2, grant.Balance)

	_, err = f.service.Download(context.Background(), buyer, premium.ID)
	require.Error(t, err)
	assert.Equal(t, "INSUFFICIENT_POINTS", apperr.As(err).Code)
	assert.Equal(t, 2, f.repository.balances[buyer])
}

func TestFileRedeemsHandleOnce(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	grant, err := f.service.Download(context.Background(), uploader, item.ID)
	require.NoError(t, err)

	served, err := f.service.File(context.Background(), grant.Handle)
	require.NoError(t, err)
	assert.Equal(t, item.ID, served.ID)

	_, err = f.service.File(context.Background(), grant.Handle)
	require.Error(t, err)
}

// # Upload & Moderation

func TestUploadCreatesPendingItem(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)

	item, err := f.service.Upload(context.Background(), UploadInput{
		UploaderID: uploader,
		Title:      "Clair de Lune",
		Artist:     "Debussy",
		Tags:       []string{"classical", "piano"},
		Tier:       points.TierNormal,
		Filename:   "clair.mid",
		Size:       64,
		File:       strings.NewReader(strings.Repeat("x", 64)),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, item.Status)
	assert.Equal(t, int64(64), item.FileSize)
	assert.NotEmpty(t, item.FilePath)
}

func TestUploadRejectsWrongExtension(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)

	_, err := f.service.Upload(context.Background(), UploadInput{
		UploaderID: uploader,
		Title:      "Not Midi",
		Tier:       points.TierNormal,
		Filename:   "song.mp3",
		Size:       64,
		File:       strings.NewReader("data"),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestUploadDailyLimit(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)

	for index := 0; index < MaxUploadsPerDay; index++ {
		_, err := f.service.Upload(context.Background(), UploadInput{
			UploaderID: uploader,
			Title:      "Etude",
			Tier:       points.TierNormal,
			Filename:   "etude.mid",
			Size:       32,
			File:       strings.NewReader(strings.Repeat("x", 32)),
		})
		require.NoError(t, err)
	}

	_, err := f.service.Upload(context.Background(), UploadInput{
		UploaderID: uploader,
		Title:      "One Too Many",
		Tier:       points.TierNormal,
		Filename:   "extra.mid",
		Size:       32,
		File:       strings.NewReader(strings.Repeat("x", 32)),
	})
	require.Error(t, err)
	assert.Equal(t, "RATE_LIMITED", apperr.As(err).Code)
}

func TestReviewApprovalRewardsUploader(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusPending)

	updated, err := f.service.Review(context.Background(), item.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)

	require.Len(t, f.rewards.credited, 1)
	assert.Equal(t, uploader, f.rewards.credited[0].userID)
	assert.Equal(t, points.UploadApprovedReward, f.rewards.credited[0].amount)
	assert.Equal(t, points.ReasonUploadApproved, f.rewards.credited[0].reason)
}

func TestReviewApprovalRewardGated(t *testing.T) {
	f := newFixture(t)
	f.rewards.uploadsOK = false
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusPending)

	updated, err := f.service.Review(context.Background(), item.ID, true)
	require.NoError(t, err)

	// The approval stands even when the daily reward cap blocks the credit.
	assert.Equal(t, StatusApproved, updated.Status)
	assert.Empty(t, f.rewards.credited)
}

func TestReviewTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusPending)

	_, err := f.service.Review(context.Background(), item.ID, false)
	require.NoError(t, err)

	_, err = f.service.Review(context.Background(), item.ID, true)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

// # Ratings

func TestRateMilestoneRewardsUploaderEveryThird(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	for index := 0; index < 5; index++ {
		rater := f.addUser(points.RankNewcomer, 0)
		_, err := f.service.Rate(context.Background(), rater, item.ID, 5)
		require.NoError(t, err)
	}

	// Five high ratings cross the milestone exactly once, at the third.
	require.Len(t, f.rewards.credited, 1)
	assert.Equal(t, uploader, f.rewards.credited[0].userID)
	assert.Equal(t, points.ReasonRatingReceived, f.rewards.credited[0].reason)
}

func TestRateLowScoresNeverReward(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	for index := 0; index < 6; index++ {
		rater := f.addUser(points.RankNewcomer, 0)
		_, err := f.service.Rate(context.Background(), rater, item.ID, 3)
		require.NoError(t, err)
	}

	assert.Empty(t, f.rewards.credited)
}

func TestRateOwnUploadForbidden(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	_, err := f.service.Rate(context.Background(), uploader, item.ID, 5)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

func TestRateScoreOutOfRange(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	rater := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	_, err := f.service.Rate(context.Background(), rater, item.ID, 0)
	require.Error(t, err)
	_, err = f.service.Rate(context.Background(), rater, item.ID, 6)
	require.Error(t, err)
}

func TestRateUpsertReplacesScore(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	rater := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	first, err := f.service.Rate(context.Background(), rater, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, first.AvgRating)
	assert.Equal(t, 1, first.RatingCount)

	// Re-rating replaces the score without inflating the count.
	second, err := f.service.Rate(context.Background(), rater, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, second.AvgRating)
	assert.Equal(t, 1, second.RatingCount)
}

func TestRateUpdateDoesNotRetrigger(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	raters := make([]string, 3)
	for index := 0; index < 3; index++ {
		raters[index] = f.addUser(points.RankNewcomer, 0)
		_, err := f.service.Rate(context.Background(), raters[index], item.ID, 5)
		require.NoError(t, err)
	}
	require.Len(t, f.rewards.credited, 1)

	// Re-rating is an update, not a new high rating.
	_, err := f.service.Rate(context.Background(), raters[0], item.ID, 4)
	require.NoError(t, err)
	assert.Len(t, f.rewards.credited, 1)
}

// # Comments

func TestCommentStoredAndRewarded(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	commenter := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	comment, err := f.service.Comment(context.Background(), commenter, item.ID, "  lovely arrangement  ")
	require.NoError(t, err)
	assert.Equal(t, "lovely arrangement", comment.Content)

	require.Len(t, f.rewards.credited, 1)
	assert.Equal(t, commenter, f.rewards.credited[0].userID)
	assert.Equal(t, points.CommentReward, f.rewards.credited[0].amount)
	assert.Equal(t, points.ReasonComment, f.rewards.credited[0].reason)
}

func TestCommentStoredWhenRewardGated(t *testing.T) {
	f := newFixture(t)
	f.rewards.commentsOK = false
	uploader := f.addUser(points.RankNewcomer, 0)
	commenter := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	_, err := f.service.Comment(context.Background(), commenter, item.ID, "still counts")
	require.NoError(t, err)

	comments, total, err := f.service.Comments(context.Background(), item.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, comments, 1)
	assert.Empty(t, f.rewards.credited)
}

func TestCommentEmptyRejected(t *testing.T) {
	f := newFixture(t)
	uploader := f.addUser(points.RankNewcomer, 0)
	commenter := f.addUser(points.RankNewcomer, 0)
	item := f.addItem(uploader, points.TierNormal, StatusApproved)

	_, err := f.service.Comment(context.Background(), commenter, item.ID, "   ")
	require.Error(t, err)
}
