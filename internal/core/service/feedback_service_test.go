package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratewise/feedback-system/internal/core/domain"
	"github.com/ratewise/feedback-system/internal/core/ports"
)

type stubFeedbackRepo struct {
	items  []domain.Feedback
	nextID int
	// failWith, when set, is returned by every operation.
	failWith error
}

func newStubFeedbackRepo() *stubFeedbackRepo {
	return &stubFeedbackRepo{nextID: 1}
}

func (r *stubFeedbackRepo) FindByIdentityAndResource(_ context.Context, identityID, resourceID string) (*domain.Feedback, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for i := range r.items {
		if r.items[i].IdentityID == identityID && r.items[i].ResourceID == resourceID {
			clone := r.items[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrFeedbackNotFound
}

func (r *stubFeedbackRepo) Insert(_ context.Context, fb *domain.Feedback) (*domain.Feedback, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for i := range r.items {
		if r.items[i].IdentityID == fb.IdentityID && r.items[i].ResourceID == fb.ResourceID {
			return nil, &domain.DuplicateFeedbackError{ResourceID: fb.ResourceID, Author: r.items[i].AuthorName}
		}
	}
	created := *fb
	created.ID = "fb-" + strconv.Itoa(r.nextID)
	r.nextID++
	r.items = append(r.items, created)
	clone := created
	return &clone, nil
}

func (r *stubFeedbackRepo) List(_ context.Context, q ports.FeedbackListQuery) ([]domain.Feedback, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}

	var matched []domain.Feedback
	for _, fb := range r.items {
		if q.ResourceID != "" && fb.ResourceID != q.ResourceID {
			continue
		}
		if q.CommentedOnly && fb.Comment == "" {
			continue
		}
		matched = append(matched, fb)
	}

	desc := q.OrderBy == ports.OrderDesc
	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		switch q.SortBy {
		case ports.SortByRating:
			if matched[i].Rating != matched[j].Rating {
				less = matched[i].Rating < matched[j].Rating
				if desc {
					less = !less
				}
				return less
			}
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
			if desc {
				less = !less
			}
			return less
		}
	})

	if q.Skip > 0 {
		if q.Skip >= int64(len(matched)) {
			return nil, nil
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *stubFeedbackRepo) DeleteByResource(_ context.Context, resourceID string) (int64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	var kept []domain.Feedback
	var removed int64
	for _, fb := range r.items {
		if fb.ResourceID == resourceID {
			removed++
			continue
		}
		kept = append(kept, fb)
	}
	r.items = kept
	return removed, nil
}

func (r *stubFeedbackRepo) AverageRating(_ context.Context, resourceID string) (float64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	var sum, n int
	for _, fb := range r.items {
		if fb.ResourceID == resourceID {
			sum += fb.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (r *stubFeedbackRepo) CountByResource(_ context.Context, resourceID string) (int64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	var n int64
	for _, fb := range r.items {
		if fb.ResourceID == resourceID {
			n++
		}
	}
	return n, nil
}

type recordingCache struct {
	stats       map[string]ports.ResourceStats
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{stats: make(map[string]ports.ResourceStats)}
}

func (c *recordingCache) Get(_ context.Context, resourceID string) (*ports.ResourceStats, error) {
	if s, ok := c.stats[resourceID]; ok {
		clone := s
		return &clone, nil
	}
	return nil, nil
}

func (c *recordingCache) Set(_ context.Context, resourceID string, stats ports.ResourceStats) error {
	c.stats[resourceID] = stats
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, resourceID string) error {
	delete(c.stats, resourceID)
	c.invalidated = append(c.invalidated, resourceID)
	return nil
}

func newFeedbackService(repo *stubFeedbackRepo, users *stubUserRepo, cache ports.AggregateCache) *FeedbackService {
	return NewFeedbackService(repo, users, cache, zerolog.Nop())
}

func submitAs(t *testing.T, svc *FeedbackService, p domain.Principal, resourceID string, rating int, comment string) *domain.Feedback {
	t.Helper()
	fb, err := svc.Submit(context.Background(), p, ports.SubmitFeedbackInput{
		ResourceID: resourceID,
		Rating:     rating,
		Comment:    comment,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return fb
}

func TestFeedbackService_Submit_Guest(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	fb := submitAs(t, svc, domain.Guest{GuestID: "g-1"}, "res-1", 5, "great")
	if fb.IdentityID != "guest:g-1" {
		t.Fatalf("unexpected identity id: %s", fb.IdentityID)
	}
	if fb.AuthorName != "g-1" {
		t.Fatalf("expected guest id as display name, got %s", fb.AuthorName)
	}
	if fb.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestFeedbackService_Submit_RegisteredUsesStoredUsername(t *testing.T) {
	users := newStubUserRepo()
	created, _ := users.Create(context.Background(), &domain.User{Email: "a@b.com", Username: "alice"})
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, users, nil)

	fb := submitAs(t, svc, domain.RegisteredUser{UserID: created.ID, Username: "stale"}, "res-1", 4, "nice")
	if fb.AuthorName != "alice" {
		t.Fatalf("expected display name from store, got %s", fb.AuthorName)
	}
	if fb.IdentityID != created.ID {
		t.Fatalf("unexpected identity id: %s", fb.IdentityID)
	}
}

func TestFeedbackService_Submit_DisplayNameFallsBackToID(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	// No matching user record; the lookup failure must not block submission.
	fb := submitAs(t, svc, domain.RegisteredUser{UserID: "missing-1"}, "res-1", 3, "")
	if fb.AuthorName != "missing-1" {
		t.Fatalf("expected fallback to the bare id, got %s", fb.AuthorName)
	}
}

func TestFeedbackService_Submit_DuplicateNamesFirstAuthor(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	submitAs(t, svc, domain.Guest{GuestID: "g-1"}, "res-1", 5, "great")

	_, err := svc.Submit(context.Background(), domain.Guest{GuestID: "g-1"}, ports.SubmitFeedbackInput{
		ResourceID: "res-1",
		Rating:     1,
	})
	var dup *domain.DuplicateFeedbackError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateFeedbackError, got %v", err)
	}
	if dup.Author != "g-1" {
		t.Fatalf("conflict should name the first submitter, got %s", dup.Author)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected exactly one stored record, got %d", len(repo.items))
	}
}

func TestFeedbackService_Submit_RejectsOutOfRangeRating(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), domain.Guest{GuestID: "g"}, ports.SubmitFeedbackInput{
			ResourceID: "res-1",
			Rating:     rating,
		})
		if err != domain.ErrInvalidRating {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
	if len(repo.items) != 0 {
		t.Fatalf("no record should be stored")
	}
}

func TestFeedbackService_Query_AverageIncludesUncommented(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	submitAs(t, svc, domain.Guest{GuestID: "g-1"}, "res-1", 5, "loved it")
	submitAs(t, svc, domain.Guest{GuestID: "g-2"}, "res-1", 3, "")
	submitAs(t, svc, domain.Guest{GuestID: "g-3"}, "res-1", 4, "decent")

	view, err := svc.Query(context.Background(), ports.FeedbackQueryInput{ResourceID: "res-1"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if view.AverageRating != 4.0 {
		t.Fatalf("expected average 4.0, got %v", view.AverageRating)
	}
	if view.TotalRatings != 3 {
		t.Fatalf("expected 3 total ratings, got %d", view.TotalRatings)
	}
	// The rating-only record counts in aggregates but stays out of the list.
	if len(view.RecentFeedbacks) != 2 {
		t.Fatalf("expected 2 commented records, got %d", len(view.RecentFeedbacks))
	}
}

func TestFeedbackService_Query_EmptyResource(t *testing.T) {
	svc := newFeedbackService(newStubFeedbackRepo(), newStubUserRepo(), nil)

	view, err := svc.Query(context.Background(), ports.FeedbackQueryInput{ResourceID: "nothing"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if view.AverageRating != 0 || view.TotalRatings != 0 {
		t.Fatalf("expected zero aggregates, got %+v", view)
	}
	if view.RecentFeedbacks == nil || len(view.RecentFeedbacks) != 0 {
		t.Fatalf("expected empty (non-nil) list, got %#v", view.RecentFeedbacks)
	}
}

func TestFeedbackService_Query_Pagination(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		repo.items = append(repo.items, domain.Feedback{
			ID:         "fb-" + strconv.Itoa(i),
			IdentityID: "guest:g-" + strconv.Itoa(i),
			ResourceID: "res-1",
			Rating:     i,
			Comment:    "comment " + strconv.Itoa(i),
			AuthorName: "g-" + strconv.Itoa(i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	expect := [][]string{
		{"fb-1", "fb-2"},
		{"fb-3", "fb-4"},
		{"fb-5"},
		{},
	}
	for page := 1; page <= 4; page++ {
		view, err := svc.Query(context.Background(), ports.FeedbackQueryInput{ResourceID: "res-1", Page: page})
		if err != nil {
			t.Fatalf("page %d: query failed: %v", page, err)
		}
		want := expect[page-1]
		if len(view.RecentFeedbacks) != len(want) {
			t.Fatalf("page %d: expected %d records, got %d", page, len(want), len(view.RecentFeedbacks))
		}
		for i, id := range want {
			if view.RecentFeedbacks[i].ID != id {
				t.Fatalf("page %d item %d: expected %s, got %s", page, i, id, view.RecentFeedbacks[i].ID)
			}
		}
	}
}

func TestFeedbackService_Query_SortByRatingDescending(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ratings := []int{2, 5, 4}
	for i, r := range ratings {
		repo.items = append(repo.items, domain.Feedback{
			ID:         "fb-" + strconv.Itoa(i+1),
			IdentityID: "guest:g-" + strconv.Itoa(i+1),
			ResourceID: "res-1",
			Rating:     r,
			Comment:    "c",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	view, err := svc.Query(context.Background(), ports.FeedbackQueryInput{
		ResourceID: "res-1",
		SortBy:     ports.SortByRating,
		OrderBy:    ports.OrderDesc,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if view.RecentFeedbacks[0].Rating != 5 || view.RecentFeedbacks[1].Rating != 4 {
		t.Fatalf("unexpected order: %+v", view.RecentFeedbacks)
	}
}

func TestFeedbackService_Query_StoreUnavailable(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.failWith = domain.ErrStoreUnavailable
	svc := newFeedbackService(repo, newStubUserRepo(), nil)

	_, err := svc.Query(context.Background(), ports.FeedbackQueryInput{ResourceID: "res-1"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestFeedbackService_Query_CacheServesAggregates(t *testing.T) {
	repo := newStubFeedbackRepo()
	cache := newRecordingCache()
	svc := newFeedbackService(repo, newStubUserRepo(), cache)

	submitAs(t, svc, domain.Guest{GuestID: "g-1"}, "res-1", 4, "ok")

	if _, err := svc.Query(context.Background(), ports.FeedbackQueryInput{ResourceID: "res-1"}); err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	if _, ok := cache.stats["res-1"]; !ok {
		t.Fatalf("expected aggregates to be back-filled into the cache")
	}

	// A warm cache must mask the store for the aggregate half of the query.
	cache.stats["res-1"] = ports.ResourceStats{AverageRating: 9.9, TotalRatings: 42}
	view, err := svc.Query(context.Background(), ports.FeedbackQueryInput{ResourceID: "res-1"})
	if err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if view.AverageRating != 9.9 || view.TotalRatings != 42 {
		t.Fatalf("expected cached aggregates, got %+v", view)
	}
}

func TestFeedbackService_Submit_InvalidatesCache(t *testing.T) {
	repo := newStubFeedbackRepo()
	cache := newRecordingCache()
	svc := newFeedbackService(repo, newStubUserRepo(), cache)

	cache.stats["res-1"] = ports.ResourceStats{AverageRating: 1, TotalRatings: 1}
	submitAs(t, svc, domain.Guest{GuestID: "g-1"}, "res-1", 5, "")

	if len(cache.invalidated) != 1 || cache.invalidated[0] != "res-1" {
		t.Fatalf("expected cache invalidation for res-1, got %v", cache.invalidated)
	}
}

func TestFeedbackService_Delete(t *testing.T) {
	repo := newStubFeedbackRepo()
	cache := newRecordingCache()
	svc := newFeedbackService(repo, newStubUserRepo(), cache)

	submitAs(t, svc, domain.Guest{GuestID: "g-1"}, "res-1", 5, "a")
	submitAs(t, svc, domain.Guest{GuestID: "g-2"}, "res-1", 3, "b")

	removed, err := svc.Delete(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	if _, err := svc.Delete(context.Background(), "res-1"); err != domain.ErrFeedbackNotFound {
		t.Fatalf("expected ErrFeedbackNotFound for empty resource, got %v", err)
	}
}
