// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package aggregate

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mij-project/mij-recommender/internal/logging"
	"github.com/mij-project/mij-recommender/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Now:                     testNow,
		HalfLifeDays:            14,
		MaskFollowForNewCreator: true,
	}
}

func buildSignals(t *testing.T, sig Signals, cfg Config) *Result {
	t.Helper()
	return Build(sig, cfg, logging.NewTestLogger(io.Discard))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuild_EmptySignals(t *testing.T) {
	res := buildSignals(t, Signals{}, testConfig())

	if res.CreatorWeights.Len() != 0 {
		t.Errorf("CreatorWeights.Len() = %d, want 0", res.CreatorWeights.Len())
	}
	if res.CategoryWeights.Len() != 0 {
		t.Errorf("CategoryWeights.Len() = %d, want 0", res.CategoryWeights.Len())
	}
}

func TestBuild_FollowWeightAndMasking(t *testing.T) {
	user := uuid.New()
	creator := uuid.New()
	follow := models.CreatorSignal{UserID: user, CreatorID: creator, OccurredAt: testNow.AddDate(0, 0, -100)}

	t.Run("mask enabled", func(t *testing.T) {
		res := buildSignals(t, Signals{Follows: []models.CreatorSignal{follow}}, testConfig())

		// Follow weight is flat regardless of age.
		if got := res.CreatorWeights.Weight(user, creator); got != 4.0 {
			t.Errorf("follow weight = %v, want 4.0", got)
		}
		if !res.CreatorSeen.Contains(user, creator) {
			t.Error("followed creator not marked seen with mask enabled")
		}
	})

	t.Run("mask disabled keeps weight but not seen", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaskFollowForNewCreator = false
		res := buildSignals(t, Signals{Follows: []models.CreatorSignal{follow}}, cfg)

		if got := res.CreatorWeights.Weight(user, creator); got != 4.0 {
			t.Errorf("follow weight = %v, want 4.0", got)
		}
		if res.CreatorSeen.Contains(user, creator) {
			t.Error("followed creator marked seen with mask disabled")
		}
	})
}

func TestBuild_LikeCategoryDilution(t *testing.T) {
	// One like on a post tagged with two categories at age zero: expected
	// category weight is 2.0 * exp(0) / 2 = 1.0 per category.
	user := uuid.New()
	creator := uuid.New()
	post := uuid.New()
	catA := uuid.New()
	catB := uuid.New()

	res := buildSignals(t, Signals{
		Likes: []models.PostSignal{
			{UserID: user, PostID: post, CreatorID: creator, OccurredAt: testNow},
		},
		PostCategories: []models.PostCategory{
			{PostID: post, CategoryID: catA},
			{PostID: post, CategoryID: catB},
		},
	}, testConfig())

	if got := res.CreatorWeights.Weight(user, creator); got != 3.0 {
		t.Errorf("like creator weight = %v, want 3.0", got)
	}
	for _, cat := range []uuid.UUID{catA, catB} {
		if got := res.CategoryWeights.Weight(user, cat); !almostEqual(got, 1.0) {
			t.Errorf("like category weight = %v, want 1.0", got)
		}
		if !res.CategorySeen.Contains(user, cat) {
			t.Error("liked category not marked seen")
		}
	}
}

func TestBuild_LikeOnUncategorizedPost(t *testing.T) {
	user := uuid.New()
	res := buildSignals(t, Signals{
		Likes: []models.PostSignal{
			{UserID: user, PostID: uuid.New(), CreatorID: uuid.New(), OccurredAt: testNow},
		},
	}, testConfig())

	if res.CategoryWeights.Len() != 0 {
		t.Errorf("CategoryWeights.Len() = %d, want 0 for uncategorized post", res.CategoryWeights.Len())
	}
}

func TestBuild_BookmarkDecay(t *testing.T) {
	user := uuid.New()
	creator := uuid.New()
	post := uuid.New()
	cat := uuid.New()
	age7 := testNow.AddDate(0, 0, -7)

	res := buildSignals(t, Signals{
		Bookmarks: []models.PostSignal{
			{UserID: user, PostID: post, CreatorID: creator, OccurredAt: age7},
		},
		PostCategories: []models.PostCategory{{PostID: post, CategoryID: cat}},
	}, testConfig())

	decay := math.Exp(-0.5)
	if got := res.CreatorWeights.Weight(user, creator); !almostEqual(got, 5.0*decay) {
		t.Errorf("bookmark creator weight = %v, want %v", got, 5.0*decay)
	}
	if got := res.CategoryWeights.Weight(user, cat); !almostEqual(got, 4.0*decay) {
		t.Errorf("bookmark category weight = %v, want %v", got, 4.0*decay)
	}
}

func TestBuild_PostViewPerDayDedup(t *testing.T) {
	user := uuid.New()
	creator := uuid.New()
	post := uuid.New()
	f := func(v float64) *float64 { return &v }

	view := func(at time.Time, watched float64) models.PostViewSignal {
		return models.PostViewSignal{
			PostSignal:     models.PostSignal{UserID: user, PostID: post, CreatorID: creator, OccurredAt: at},
			WatchedSeconds: f(watched),
			VideoSeconds:   f(100),
		}
	}

	t.Run("same day keeps highest weight", func(t *testing.T) {
		res := buildSignals(t, Signals{
			PostViews: []models.PostViewSignal{
				view(testNow, 50), // quality 1.0
				view(testNow, 80), // quality 1.5, same calendar day
			},
		}, testConfig())

		want := 1.0 * 1.5 // base * best quality at age zero
		got := res.CreatorWeights.Weight(user, creator)
		if !almostEqual(got, want) {
			t.Errorf("deduped view weight = %v, want %v", got, want)
		}
	})

	t.Run("different days accumulate", func(t *testing.T) {
		res := buildSignals(t, Signals{
			PostViews: []models.PostViewSignal{
				view(testNow, 80),
				view(testNow.AddDate(0, 0, -1), 80),
			},
		}, testConfig())

		want := 1.5 + 1.5*math.Exp(-1.0/14)
		got := res.CreatorWeights.Weight(user, creator)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("two-day view weight = %v, want %v", got, want)
		}
	})
}

func TestBuild_PostViewZeroQualityPruned(t *testing.T) {
	user := uuid.New()
	creator := uuid.New()
	post := uuid.New()
	f := func(v float64) *float64 { return &v }

	res := buildSignals(t, Signals{
		PostViews: []models.PostViewSignal{
			{
				PostSignal:     models.PostSignal{UserID: user, PostID: post, CreatorID: creator, OccurredAt: testNow},
				WatchedSeconds: f(2),
				VideoSeconds:   f(100),
			},
		},
	}, testConfig())

	// Below 10% watched yields zero weight, which the positivity filter
	// drops; the view still counts as an interaction for masking.
	if res.CreatorWeights.Len() != 0 {
		t.Errorf("CreatorWeights.Len() = %d, want 0", res.CreatorWeights.Len())
	}
	if !res.CreatorSeen.Contains(user, creator) {
		t.Error("zero-weight view not marked seen")
	}
}

func TestBuild_ProfileViewPerDayDedup(t *testing.T) {
	user := uuid.New()
	creator := uuid.New()

	res := buildSignals(t, Signals{
		ProfileViews: []models.CreatorSignal{
			{UserID: user, CreatorID: creator, OccurredAt: testNow},
			{UserID: user, CreatorID: creator, OccurredAt: testNow.Add(-3 * time.Hour)},
			{UserID: user, CreatorID: creator, OccurredAt: testNow.Add(-5 * time.Hour)},
		},
	}, testConfig())

	// Three views on the same day collapse to the single highest-weight row.
	got := res.CreatorWeights.Weight(user, creator)
	if math.Abs(got-1.5) > 1e-3 {
		t.Errorf("deduped profile view weight = %v, want ~1.5", got)
	}
}

func TestBuild_SinglePurchaseWeights(t *testing.T) {
	user := uuid.New()
	creator := uuid.New()
	post := uuid.New()
	cat := uuid.New()

	res := buildSignals(t, Signals{
		SinglePurchases: []models.PostSignal{
			{UserID: user, PostID: post, CreatorID: creator, OccurredAt: testNow},
		},
		PostCategories: []models.PostCategory{{PostID: post, CategoryID: cat}},
	}, testConfig())

	if got := res.CreatorWeights.Weight(user, creator); !almostEqual(got, 12.0) {
		t.Errorf("single purchase creator weight = %v, want 12.0", got)
	}
	if got := res.CategoryWeights.Weight(user, cat); !almostEqual(got, 10.0) {
		t.Errorf("single purchase category weight = %v, want 10.0", got)
	}
}

func TestBuild_PlanPurchaseDilution(t *testing.T) {
	user := uuid.New()
	creator := uuid.New()
	plan := uuid.New()
	cats := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	planCats := make([]models.PlanCategory, len(cats))
	for i, cat := range cats {
		planCats[i] = models.PlanCategory{PlanID: plan, CategoryID: cat}
	}

	res := buildSignals(t, Signals{
		PlanPurchases: []models.PlanSignal{
			{UserID: user, PlanID: plan, CreatorID: creator, OccurredAt: testNow},
		},
		PlanCategories: planCats,
	}, testConfig())

	if got := res.CreatorWeights.Weight(user, creator); !almostEqual(got, 6.0) {
		t.Errorf("plan purchase creator weight = %v, want 6.0", got)
	}
	for _, cat := range cats {
		if got := res.CategoryWeights.Weight(user, cat); !almostEqual(got, 0.5) {
			t.Errorf("plan purchase category weight = %v, want 0.5", got)
		}
	}
}

func TestBuild_SignalsSumLinearly(t *testing.T) {
	// A follow plus a like on the same creator: aggregate weight equals the
	// sum of each signal's individually computed weight.
	user := uuid.New()
	creator := uuid.New()
	post := uuid.New()

	follow := models.CreatorSignal{UserID: user, CreatorID: creator, OccurredAt: testNow}
	like := models.PostSignal{UserID: user, PostID: post, CreatorID: creator, OccurredAt: testNow}

	followOnly := buildSignals(t, Signals{Follows: []models.CreatorSignal{follow}}, testConfig())
	likeOnly := buildSignals(t, Signals{Likes: []models.PostSignal{like}}, testConfig())
	combined := buildSignals(t, Signals{
		Follows: []models.CreatorSignal{follow},
		Likes:   []models.PostSignal{like},
	}, testConfig())

	want := followOnly.CreatorWeights.Weight(user, creator) + likeOnly.CreatorWeights.Weight(user, creator)
	if got := combined.CreatorWeights.Weight(user, creator); !almostEqual(got, want) {
		t.Errorf("combined weight = %v, want %v", got, want)
	}
}

func TestBuild_DuplicateCategoryRowsIgnored(t *testing.T) {
	user := uuid.New()
	post := uuid.New()
	cat := uuid.New()

	res := buildSignals(t, Signals{
		Likes: []models.PostSignal{
			{UserID: user, PostID: post, CreatorID: uuid.New(), OccurredAt: testNow},
		},
		PostCategories: []models.PostCategory{
			{PostID: post, CategoryID: cat},
			{PostID: post, CategoryID: cat},
		},
	}, testConfig())

	// The duplicate link row must not double the dilution denominator.
	if got := res.CategoryWeights.Weight(user, cat); !almostEqual(got, 2.0) {
		t.Errorf("category weight with duplicate link rows = %v, want 2.0", got)
	}
}
