// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/layout/ratios.go
// Summary: Split-ratio conversions and manual-resize helpers.
// Usage: The Actor persists Workspace.SplitRatios as a cumulative vector;
// these helpers convert to/from per-window proportions and recover ratios
// from observed (possibly manually resized) frames.
// Notes: Ported from original_source's tiling/manager/helpers.rs
// calculate_ratios_from_frames, averaging both edges of a split so either
// neighbour's resize is tolerated.

package layout

import "github.com/marcosmoura/stache/internal/model"

const (
	minRatio = 0.05
	maxRatio = 0.95
)

func clampRatio(v float64) float64 {
	if v < minRatio {
		return minRatio
	}
	if v > maxRatio {
		return maxRatio
	}
	return v
}

// Axis selects which dimension a set of split ratios is measured along.
type Axis int

const (
	AxisHorizontal Axis = iota // left-to-right splits (x positions)
	AxisVertical               // top-to-bottom splits (y positions)
)

// CumulativeToProportions converts an ascending cumulative ratio vector
// (n-1 values for n windows) into n per-window proportions summing to 1.
func CumulativeToProportions(cumulative []float64) []float64 {
	n := len(cumulative) + 1
	proportions := make([]float64, n)
	prev := 0.0
	for i, c := range cumulative {
		proportions[i] = c - prev
		prev = c
	}
	proportions[n-1] = 1.0 - prev
	return proportions
}

// ProportionsToCumulative converts n per-window proportions into an
// ascending cumulative ratio vector of n-1 values, clamped to [0.05, 0.95].
func ProportionsToCumulative(proportions []float64) []float64 {
	if len(proportions) <= 1 {
		return nil
	}
	cumulative := make([]float64, len(proportions)-1)
	running := 0.0
	for i := 0; i < len(proportions)-1; i++ {
		running += proportions[i]
		cumulative[i] = clampRatio(running)
	}
	return cumulative
}

// RatiosFromFrames recovers a cumulative ratio vector from the windows'
// observed frames, by averaging the trailing edge of window i and the
// leading edge of window i+1 to find the intended split point. This
// tolerates a manual resize from either side of the split.
func RatiosFromFrames(frames []model.Rect, rect model.Rect, gaps model.Gaps, axis Axis) []float64 {
	n := len(frames)
	if n < 2 {
		return nil
	}

	cumulative := make([]float64, n-1)

	if axis == AxisVertical {
		totalGap := gaps.InnerV * float64(n-1)
		available := float64(rect.H) - totalGap
		if available <= 0 {
			return nil
		}
		for i := 0; i < n-1; i++ {
			bottom := float64(frames[i].Y + frames[i].H)
			top := float64(frames[i+1].Y)
			splitPoint := (bottom + top) / 2
			gapsBefore := gaps.InnerV * (float64(i) + 0.5)
			splitInAvailable := splitPoint - float64(rect.Y) - gapsBefore
			cumulative[i] = clampRatio(splitInAvailable / available)
		}
		return cumulative
	}

	totalGap := gaps.InnerH * float64(n-1)
	available := float64(rect.W) - totalGap
	if available <= 0 {
		return nil
	}
	for i := 0; i < n-1; i++ {
		right := float64(frames[i].X + frames[i].W)
		left := float64(frames[i+1].X)
		splitPoint := (right + left) / 2
		gapsBefore := gaps.InnerH * (float64(i) + 0.5)
		splitInAvailable := splitPoint - float64(rect.X) - gapsBefore
		cumulative[i] = clampRatio(splitInAvailable / available)
	}
	return cumulative
}

// AdjustPair nudges the proportion of resizedIdx by delta, taking the
// difference from neighbourIdx only, then clamps both to [0.05, 0.95] and
// re-normalises the full vector to sum to 1.
func AdjustPair(proportions []float64, resizedIdx, neighbourIdx int, delta float64) []float64 {
	out := make([]float64, len(proportions))
	copy(out, proportions)

	if resizedIdx < 0 || resizedIdx >= len(out) || neighbourIdx < 0 || neighbourIdx >= len(out) {
		return out
	}

	newResized := clampRatio(out[resizedIdx] + delta)
	actualDelta := newResized - out[resizedIdx]
	newNeighbour := clampRatio(out[neighbourIdx] - actualDelta)

	out[resizedIdx] = newResized
	out[neighbourIdx] = newNeighbour

	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}
