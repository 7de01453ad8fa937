// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

// Package aggregate transforms raw, timestamped interaction rows into the
// two weight tables consumed by the latent-factor scorer: user x creator and
// user x category.
//
// Each signal source contributes a base weight, optionally scaled by an
// exponential time decay and a watch-quality multiplier, and diluted evenly
// across the categories a post (or plan) belongs to. Post views and profile
// views are deduplicated per (user, target, calendar day), keeping the
// highest-weight row, so refreshing a page repeatedly does not inflate the
// signal while multi-day engagement still accumulates.
//
// Alongside the weight tables, the aggregator builds per-user "seen" sets:
// the union of all entities the user interacted with in-window, used by the
// scorer to mask already-known entities from recommendations. Follow weight
// always enters the creator table; whether follows also mark creators as
// seen is controlled by Config.MaskFollowForNewCreator, so a followed but
// otherwise uninteracted creator can contribute to factor training while
// still being recommended (or not) independently.
package aggregate

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mij-project/mij-recommender/internal/models"
)

// Signals bundles one window's raw interaction rows, as pulled by the
// database layer.
type Signals struct {
	Follows         []models.CreatorSignal
	Likes           []models.PostSignal
	Bookmarks       []models.PostSignal
	PostViews       []models.PostViewSignal
	ProfileViews    []models.CreatorSignal
	SinglePurchases []models.PostSignal
	PlanPurchases   []models.PlanSignal
	PostCategories  []models.PostCategory
	PlanCategories  []models.PlanCategory
}

// Config controls aggregation behavior.
type Config struct {
	// Now anchors age computation for time decay.
	Now time.Time

	// HalfLifeDays is the exponential decay half-life in days.
	HalfLifeDays float64

	// MaskFollowForNewCreator marks followed creators as seen when true.
	MaskFollowForNewCreator bool
}

// Result holds the aggregated weight tables and seen sets for one window.
type Result struct {
	CreatorWeights  *WeightTable
	CategoryWeights *WeightTable
	CreatorSeen     SeenSet
	CategorySeen    SeenSet
}

// dayKey buckets a timestamp into a UTC calendar day for per-day dedup.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// viewKey identifies one (user, target, day) bucket.
type viewKey struct {
	user   uuid.UUID
	target uuid.UUID
	day    string
}

// Build aggregates one window of signals into the creator and category
// weight tables.
func Build(sig Signals, cfg Config, logger zerolog.Logger) *Result {
	res := &Result{
		CreatorWeights:  NewWeightTable(),
		CategoryWeights: NewWeightTable(),
		CreatorSeen:     NewSeenSet(),
		CategorySeen:    NewSeenSet(),
	}

	postCats := groupPostCategories(sig.PostCategories)
	planCats := groupPlanCategories(sig.PlanCategories)

	res.addFollows(sig.Follows, cfg)
	res.addLikes(sig.Likes, postCats, cfg)
	res.addBookmarks(sig.Bookmarks, postCats, cfg)
	res.addPostViews(sig.PostViews, postCats, cfg)
	res.addProfileViews(sig.ProfileViews, cfg)
	res.addSinglePurchases(sig.SinglePurchases, postCats, cfg)
	res.addPlanPurchases(sig.PlanPurchases, planCats, cfg)

	droppedCreator := res.CreatorWeights.Prune()
	droppedCategory := res.CategoryWeights.Prune()
	if droppedCreator+droppedCategory > 0 {
		logger.Warn().
			Int("creator_pairs", droppedCreator).
			Int("category_pairs", droppedCategory).
			Msg("Dropped non-positive aggregate weights")
	}

	logger.Info().
		Int("creator_pairs", res.CreatorWeights.Len()).
		Int("creator_users", res.CreatorWeights.Users()).
		Int("category_pairs", res.CategoryWeights.Len()).
		Int("category_users", res.CategoryWeights.Users()).
		Msg("Aggregated interaction signals")

	return res
}

// groupPostCategories indexes category memberships by post.
func groupPostCategories(rows []models.PostCategory) map[uuid.UUID][]uuid.UUID {
	byPost := make(map[uuid.UUID][]uuid.UUID)
	seen := make(map[models.PostCategory]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		byPost[row.PostID] = append(byPost[row.PostID], row.CategoryID)
	}
	return byPost
}

// groupPlanCategories indexes the distinct categories reachable through each
// plan's bundled posts.
func groupPlanCategories(rows []models.PlanCategory) map[uuid.UUID][]uuid.UUID {
	byPlan := make(map[uuid.UUID][]uuid.UUID)
	seen := make(map[models.PlanCategory]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		byPlan[row.PlanID] = append(byPlan[row.PlanID], row.CategoryID)
	}
	return byPlan
}

// addFollows applies the follow signal: flat creator weight, no decay.
// Followed creators are masked from recommendations only when the
// mask-follow flag is set; the weight contribution is unconditional.
func (r *Result) addFollows(rows []models.CreatorSignal, cfg Config) {
	for _, row := range rows {
		r.CreatorWeights.Add(row.UserID, row.CreatorID, weightFollowCreator)
		if cfg.MaskFollowForNewCreator {
			r.CreatorSeen.Mark(row.UserID, row.CreatorID)
		}
	}
}

// addLikes applies the like signal: flat creator weight, decayed and diluted
// category weight.
func (r *Result) addLikes(rows []models.PostSignal, postCats map[uuid.UUID][]uuid.UUID, cfg Config) {
	for _, row := range rows {
		r.CreatorWeights.Add(row.UserID, row.CreatorID, weightLikeCreator)
		r.CreatorSeen.Mark(row.UserID, row.CreatorID)

		decay := decayFactor(row.OccurredAt, cfg.Now, cfg.HalfLifeDays)
		r.addDilutedCategory(row.UserID, postCats[row.PostID], weightLikeCategory*decay)
	}
}

// addBookmarks applies the bookmark signal: decayed creator weight, decayed
// and diluted category weight.
func (r *Result) addBookmarks(rows []models.PostSignal, postCats map[uuid.UUID][]uuid.UUID, cfg Config) {
	for _, row := range rows {
		decay := decayFactor(row.OccurredAt, cfg.Now, cfg.HalfLifeDays)
		r.CreatorWeights.Add(row.UserID, row.CreatorID, weightBookmarkCreator*decay)
		r.CreatorSeen.Mark(row.UserID, row.CreatorID)

		r.addDilutedCategory(row.UserID, postCats[row.PostID], weightBookmarkCategory*decay)
	}
}

// addPostViews applies the post-view signal. Views are deduplicated per
// (user, post, day) keeping the highest-weight row before attribution, then
// split to the post's creator and diluted across its categories.
func (r *Result) addPostViews(rows []models.PostViewSignal, postCats map[uuid.UUID][]uuid.UUID, cfg Config) {
	best := make(map[viewKey]models.PostViewSignal, len(rows))
	bestWeight := make(map[viewKey]float64, len(rows))

	for _, row := range rows {
		w := weightPostView *
			decayFactor(row.OccurredAt, cfg.Now, cfg.HalfLifeDays) *
			watchQualityMultiplier(row.WatchedSeconds, row.VideoSeconds)

		key := viewKey{user: row.UserID, target: row.PostID, day: dayKey(row.OccurredAt)}
		if prev, ok := bestWeight[key]; !ok || w > prev {
			bestWeight[key] = w
			best[key] = row
		}
	}

	for key, row := range best {
		w := bestWeight[key]
		r.CreatorWeights.Add(row.UserID, row.CreatorID, w)
		r.CreatorSeen.Mark(row.UserID, row.CreatorID)

		r.addDilutedCategory(row.UserID, postCats[row.PostID], w)
	}
}

// addProfileViews applies the profile-view signal with per (user, creator,
// day) dedup keeping the highest-weight row.
func (r *Result) addProfileViews(rows []models.CreatorSignal, cfg Config) {
	best := make(map[viewKey]float64, len(rows))
	for _, row := range rows {
		w := weightProfileView * decayFactor(row.OccurredAt, cfg.Now, cfg.HalfLifeDays)
		key := viewKey{user: row.UserID, target: row.CreatorID, day: dayKey(row.OccurredAt)}
		if prev, ok := best[key]; !ok || w > prev {
			best[key] = w
		}
	}

	for key, w := range best {
		r.CreatorWeights.Add(key.user, key.target, w)
		r.CreatorSeen.Mark(key.user, key.target)
	}
}

// addSinglePurchases applies succeeded single-post payments, the strongest
// signal in the model.
func (r *Result) addSinglePurchases(rows []models.PostSignal, postCats map[uuid.UUID][]uuid.UUID, cfg Config) {
	for _, row := range rows {
		decay := decayFactor(row.OccurredAt, cfg.Now, cfg.HalfLifeDays)
		r.CreatorWeights.Add(row.UserID, row.CreatorID, weightSinglePurchaseCreator*decay)
		r.CreatorSeen.Mark(row.UserID, row.CreatorID)

		r.addDilutedCategory(row.UserID, postCats[row.PostID], weightSinglePurchaseCategory*decay)
	}
}

// addPlanPurchases applies succeeded plan payments. Category weight is
// diluted across the distinct categories touched by all posts in the plan.
func (r *Result) addPlanPurchases(rows []models.PlanSignal, planCats map[uuid.UUID][]uuid.UUID, cfg Config) {
	for _, row := range rows {
		decay := decayFactor(row.OccurredAt, cfg.Now, cfg.HalfLifeDays)
		r.CreatorWeights.Add(row.UserID, row.CreatorID, weightPlanPurchaseCreator*decay)
		r.CreatorSeen.Mark(row.UserID, row.CreatorID)

		r.addDilutedCategory(row.UserID, planCats[row.PlanID], weightPlanPurchaseCategory*decay)
	}
}

// addDilutedCategory spreads weight evenly across the given categories and
// marks them seen. Posts without categories contribute no category signal.
func (r *Result) addDilutedCategory(user uuid.UUID, categories []uuid.UUID, weight float64) {
	if len(categories) == 0 {
		return
	}
	diluted := weight / float64(len(categories))
	for _, cat := range categories {
		r.CategoryWeights.Add(user, cat, diluted)
		r.CategorySeen.Mark(user, cat)
	}
}
