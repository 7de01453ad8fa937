// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package aggregate

import (
	"math"
	"time"
)

// Per-signal base weights. These constants are the implicit-feedback model:
// a succeeded single purchase is the strongest preference signal, a post view
// the weakest. Category attributions are further diluted across the
// categories of the post (or plan) that carried the signal.
const (
	weightFollowCreator = 4.0

	weightLikeCreator  = 3.0
	weightLikeCategory = 2.0

	weightBookmarkCreator  = 5.0
	weightBookmarkCategory = 4.0

	weightPostView = 1.0

	weightProfileView = 1.5

	weightSinglePurchaseCreator  = 12.0
	weightSinglePurchaseCategory = 10.0

	weightPlanPurchaseCreator  = 6.0
	weightPlanPurchaseCategory = 2.0
)

// Watch-quality multiplier quantization thresholds, applied to the watched
// fraction of a post view.
const (
	watchSampledFraction  = 0.10
	watchEngagedFraction  = 0.30
	watchCompleteFraction = 0.70
)

// decayFactor returns exp(-age_days / half_life) for an interaction that
// occurred at occurredAt. Future timestamps (clock skew between app servers
// and the batch host) decay as age zero.
func decayFactor(occurredAt, now time.Time, halfLifeDays float64) float64 {
	ageDays := now.Sub(occurredAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays / halfLifeDays)
}

// watchQualityMultiplier maps watch progress to a quantized multiplier:
// 0.0 below 10% watched, 0.5 from 10%, 1.0 from 30%, 1.5 from 70%.
// Rows without playback data (nil or non-positive duration) default to 1.0
// so image posts and legacy tracking rows still count as a plain view.
func watchQualityMultiplier(watchedSeconds, videoSeconds *float64) float64 {
	if watchedSeconds == nil || videoSeconds == nil || *videoSeconds <= 0 {
		return 1.0
	}

	fraction := *watchedSeconds / *videoSeconds
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	switch {
	case fraction >= watchCompleteFraction:
		return 1.5
	case fraction >= watchEngagedFraction:
		return 1.0
	case fraction >= watchSampledFraction:
		return 0.5
	default:
		return 0.0
	}
}
