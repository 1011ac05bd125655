// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/layout/layout.go
// Summary: Pure layout algorithms for the Layout Engine (L4).
// Usage: Compute is called by the Actor whenever a workspace's window set,
// variant, screen, or gaps change; its output is handed to the Animation
// Engine as (window_id, target_frame) pairs.
// Notes: Dwindle spiral-into-last and master ratio math are ported from
// original_source's tiling/layout/dwindle.rs and tiling/manager/helpers.rs.

package layout

import (
	"math"

	"github.com/marcosmoura/stache/internal/model"
)

// Placement is one (window, target frame) pair the engine emits.
type Placement struct {
	WindowID model.WindowID
	Frame    model.Rect
}

// MasterPosition selects which edge the master pane occupies.
type MasterPosition int

const (
	MasterAuto MasterPosition = iota
	MasterLeft
	MasterRight
	MasterTop
	MasterBottom
)

// Options carries the variant-specific knobs Compute needs beyond the
// common (windows, rect, gaps, ratios) arguments.
type Options struct {
	// MasterRatio is the percentage (0..100) of the long axis the master
	// pane occupies. Zero means "use the default of 60".
	MasterRatio int
	// MasterPosition selects master pane placement; MasterAuto resolves to
	// left on landscape screens, top on portrait screens.
	MasterPosition MasterPosition
}

// rectf is a float64 working rectangle; Compute rounds to pixels on output.
type rectf struct{ x, y, w, h float64 }

func (r rectf) toRect() model.Rect {
	return model.Rect{
		X: int32(math.Round(r.x)),
		Y: int32(math.Round(r.y)),
		W: int32(math.Round(r.w)),
		H: int32(math.Round(r.h)),
	}
}

func toRectf(r model.Rect) rectf {
	return rectf{x: float64(r.X), y: float64(r.Y), w: float64(r.W), h: float64(r.H)}
}

// applyOuterGaps shrinks the usable rect by the four outer gap values.
func applyOuterGaps(r rectf, g model.Gaps) rectf {
	if g.IsZero() {
		return r
	}
	return rectf{
		x: r.x + g.OuterLeft,
		y: r.y + g.OuterTop,
		w: r.w - g.OuterLeft - g.OuterRight,
		h: r.h - g.OuterTop - g.OuterBottom,
	}
}

// InnerRect returns usable with its outer gaps applied: the rect
// split/dwindle/master placements are actually computed against. Exposed so
// callers that need to map an observed frame back into the same coordinate
// space Compute used to produce it (manual-resize ratio recovery) don't
// duplicate the gap math.
func InnerRect(usable model.Rect, gaps model.Gaps) model.Rect {
	r := applyOuterGaps(toRectf(usable), gaps)
	if r.w < 0 {
		r.w = 0
	}
	if r.h < 0 {
		r.h = 0
	}
	return r.toRect()
}

// Compute returns target frames for windowIDs (in workspace order) under
// the given variant. Pure: no side effects, deterministic for equal inputs.
func Compute(variant model.LayoutVariant, windowIDs []model.WindowID, usable model.Rect, gaps model.Gaps, ratios []float64, opts Options) []Placement {
	if variant == model.LayoutFloating {
		return nil
	}
	if len(windowIDs) == 0 {
		return nil
	}

	inner := applyOuterGaps(toRectf(usable), gaps)
	if inner.w < 0 {
		inner.w = 0
	}
	if inner.h < 0 {
		inner.h = 0
	}

	proportions := splitProportions(ratios, len(windowIDs))

	switch variant {
	case model.LayoutMonocle:
		return monocle(windowIDs, inner)
	case model.LayoutSplitHorizontal:
		return splitColumns(windowIDs, inner, gaps.InnerH, proportions)
	case model.LayoutSplitVertical:
		return splitRows(windowIDs, inner, gaps.InnerV, proportions)
	case model.LayoutSplit:
		if usable.IsLandscape() {
			return splitColumns(windowIDs, inner, gaps.InnerH, proportions)
		}
		return splitRows(windowIDs, inner, gaps.InnerV, proportions)
	case model.LayoutDwindle:
		return dwindle(windowIDs, inner, gaps, ratios)
	case model.LayoutMaster:
		return master(windowIDs, inner, gaps, opts)
	case model.LayoutGrid:
		return grid(windowIDs, inner)
	default:
		return monocle(windowIDs, inner)
	}
}

// monocle places every window at the full usable rect.
func monocle(ids []model.WindowID, rect rectf) []Placement {
	out := make([]Placement, len(ids))
	r := rect.toRect()
	for i, id := range ids {
		out[i] = Placement{WindowID: id, Frame: r}
	}
	return out
}

// splitProportions converts a workspace's stored cumulative split-ratio
// vector into n per-window proportions summing to 1, falling back to an
// equal split when ratios is absent or stale (wrong length for the current
// window count, e.g. a window just closed).
func splitProportions(ratios []float64, n int) []float64 {
	if n > 0 && len(ratios) == n-1 {
		return CumulativeToProportions(ratios)
	}
	return equalProportions(n)
}

func equalProportions(n int) []float64 {
	proportions := make([]float64, n)
	if n == 0 {
		return proportions
	}
	share := 1.0 / float64(n)
	for i := range proportions {
		proportions[i] = share
	}
	return proportions
}

// splitColumns arranges windows in columns separated by innerGap, each
// column i taking proportions[i] of the available width.
func splitColumns(ids []model.WindowID, rect rectf, innerGap float64, proportions []float64) []Placement {
	n := len(ids)
	out := make([]Placement, n)
	totalGap := innerGap * float64(n-1)
	avail := rect.w - totalGap
	x := rect.x
	for i, id := range ids {
		colW := avail * proportions[i]
		out[i] = Placement{WindowID: id, Frame: rectf{x: x, y: rect.y, w: colW, h: rect.h}.toRect()}
		x += colW + innerGap
	}
	return out
}

// splitRows arranges windows in rows separated by innerGap, each row i
// taking proportions[i] of the available height.
func splitRows(ids []model.WindowID, rect rectf, innerGap float64, proportions []float64) []Placement {
	n := len(ids)
	out := make([]Placement, n)
	totalGap := innerGap * float64(n-1)
	avail := rect.h - totalGap
	y := rect.y
	for i, id := range ids {
		rowH := avail * proportions[i]
		out[i] = Placement{WindowID: id, Frame: rectf{x: rect.x, y: y, w: rect.w, h: rowH}.toRect()}
		y += rowH + innerGap
	}
	return out
}

// dwindle implements the recursive binary spiral partition: each new window
// splits the previously-added window's region, alternating axis starting
// from the orientation-appropriate direction (landscape: horizontal first;
// portrait: vertical first). Each split's ratio defaults to 0.5 (the
// classic spiral); when ratios holds a valid cumulative vector for this
// window count, each split instead takes window i's proportion relative to
// whatever proportion remains to be carved up, so a manual resize reshapes
// the spiral instead of being silently discarded.
func dwindle(ids []model.WindowID, rect rectf, gaps model.Gaps, ratios []float64) []Placement {
	n := len(ids)
	if n == 1 {
		return []Placement{{WindowID: ids[0], Frame: rect.toRect()}}
	}

	splitRatio := dwindleSplitRatios(ratios, n)

	landscape := rect.w >= rect.h
	frames := make([]rectf, n)
	frames[0] = rect

	for i := 1; i < n; i++ {
		parent := frames[i-1]
		var splitHorizontal bool
		if landscape {
			splitHorizontal = i%2 == 1
		} else {
			splitHorizontal = i%2 == 0
		}

		var first, second rectf
		if splitHorizontal {
			first, second = splitRectHorizontal(parent, splitRatio(i), gaps.InnerH)
		} else {
			first, second = splitRectVertical(parent, splitRatio(i), gaps.InnerV)
		}
		frames[i-1] = first
		frames[i] = second
	}

	out := make([]Placement, n)
	for i, id := range ids {
		out[i] = Placement{WindowID: id, Frame: frames[i].toRect()}
	}
	return out
}

// dwindleSplitRatios returns a function mapping split step i (the loop index
// in dwindle, 1..n-1) to the fraction of the current parent rect that window
// i-1 should receive. With no valid ratios it always returns 0.5. With a
// valid cumulative vector it converts to per-window proportions and, at each
// step, divides window i-1's proportion by the sum of all proportions not
// yet carved out (itself included) — the fraction of the still-undivided
// region window i-1's share represents.
func dwindleSplitRatios(ratios []float64, n int) func(i int) float64 {
	if len(ratios) != n-1 {
		return func(int) float64 { return 0.5 }
	}
	proportions := CumulativeToProportions(ratios)
	remaining := make([]float64, n)
	sum := 0.0
	for i := n - 1; i >= 0; i-- {
		sum += proportions[i]
		remaining[i] = sum
	}
	return func(i int) float64 {
		if remaining[i-1] <= 0 {
			return 0.5
		}
		return proportions[i-1] / remaining[i-1]
	}
}

// splitRectHorizontal splits parent left/right at ratio, with gap between halves.
func splitRectHorizontal(parent rectf, ratio, gap float64) (rectf, rectf) {
	avail := parent.w - gap
	leftW := avail * ratio
	rightW := avail - leftW
	left := rectf{x: parent.x, y: parent.y, w: leftW, h: parent.h}
	right := rectf{x: parent.x + leftW + gap, y: parent.y, w: rightW, h: parent.h}
	return left, right
}

// splitRectVertical splits parent top/bottom at ratio, with gap between halves.
func splitRectVertical(parent rectf, ratio, gap float64) (rectf, rectf) {
	avail := parent.h - gap
	topH := avail * ratio
	bottomH := avail - topH
	top := rectf{x: parent.x, y: parent.y, w: parent.w, h: topH}
	bottom := rectf{x: parent.x, y: parent.y + topH + gap, w: parent.w, h: bottomH}
	return top, bottom
}

// master gives the first window a fraction of the long axis; the remainder
// splits equally among the rest along the short axis.
func master(ids []model.WindowID, rect rectf, gaps model.Gaps, opts Options) []Placement {
	n := len(ids)
	if n == 1 {
		return []Placement{{WindowID: ids[0], Frame: rect.toRect()}}
	}

	ratioPct := opts.MasterRatio
	if ratioPct <= 0 {
		ratioPct = 60
	}
	r := float64(ratioPct) / 100.0

	pos := opts.MasterPosition
	landscape := rect.w >= rect.h
	if pos == MasterAuto {
		if landscape {
			pos = MasterLeft
		} else {
			pos = MasterTop
		}
	}

	out := make([]Placement, n)
	stackIDs := ids[1:]

	switch pos {
	case MasterLeft, MasterRight:
		masterW := rect.w*r - gaps.InnerH/2
		stackW := rect.w - masterW - gaps.InnerH
		var masterRect, stackRect rectf
		if pos == MasterLeft {
			masterRect = rectf{x: rect.x, y: rect.y, w: masterW, h: rect.h}
			stackRect = rectf{x: rect.x + masterW + gaps.InnerH, y: rect.y, w: stackW, h: rect.h}
		} else {
			stackRect = rectf{x: rect.x, y: rect.y, w: stackW, h: rect.h}
			masterRect = rectf{x: rect.x + stackW + gaps.InnerH, y: rect.y, w: masterW, h: rect.h}
		}
		out[0] = Placement{WindowID: ids[0], Frame: masterRect.toRect()}
		stackPlacements := splitRows(stackIDs, stackRect, gaps.InnerV, equalProportions(len(stackIDs)))
		copy(out[1:], stackPlacements)
	default: // MasterTop, MasterBottom
		masterH := rect.h*r - gaps.InnerV/2
		stackH := rect.h - masterH - gaps.InnerV
		var masterRect, stackRect rectf
		if pos == MasterTop {
			masterRect = rectf{x: rect.x, y: rect.y, w: rect.w, h: masterH}
			stackRect = rectf{x: rect.x, y: rect.y + masterH + gaps.InnerV, w: rect.w, h: stackH}
		} else {
			stackRect = rectf{x: rect.x, y: rect.y, w: rect.w, h: stackH}
			masterRect = rectf{x: rect.x, y: rect.y + stackH + gaps.InnerV, w: rect.w, h: masterH}
		}
		out[0] = Placement{WindowID: ids[0], Frame: masterRect.toRect()}
		stackPlacements := splitColumns(stackIDs, stackRect, gaps.InnerH, equalProportions(len(stackIDs)))
		copy(out[1:], stackPlacements)
	}

	return out
}

// grid arranges windows into ceil(sqrt(n)) columns by ceil(n/cols) rows.
// For n <= 12 the last row's cells stretch to fill remaining width; for
// n > 12 a simpler algorithm skips per-row balancing, per spec.
func grid(ids []model.WindowID, rect rectf) []Placement {
	n := len(ids)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := int(math.Ceil(float64(n) / float64(cols)))

	out := make([]Placement, n)
	cellW := rect.w / float64(cols)
	cellH := rect.h / float64(rows)

	if n > 12 {
		for i, id := range ids {
			col := i % cols
			row := i / cols
			out[i] = Placement{WindowID: id, Frame: rectf{
				x: rect.x + float64(col)*cellW,
				y: rect.y + float64(row)*cellH,
				w: cellW, h: cellH,
			}.toRect()}
		}
		return out
	}

	idx := 0
	for row := 0; row < rows; row++ {
		remaining := n - idx
		colsInRow := cols
		if remaining < cols {
			colsInRow = remaining
		}
		rowCellW := rect.w / float64(colsInRow)
		for col := 0; col < colsInRow; col++ {
			out[idx] = Placement{WindowID: ids[idx], Frame: rectf{
				x: rect.x + float64(col)*rowCellW,
				y: rect.y + float64(row)*cellH,
				w: rowCellW, h: cellH,
			}.toRect()}
			idx++
		}
	}
	return out
}

// RepositionThreshold is the per-component pixel delta below which a
// reposition is dropped by callers (caller policy, spec §4.4).
const RepositionThreshold = 2

// FilterRepositions drops placements whose frame is within
// RepositionThreshold of the window's current frame on every component.
func FilterRepositions(placements []Placement, current map[model.WindowID]model.Rect) []Placement {
	out := make([]Placement, 0, len(placements))
	for _, p := range placements {
		if cur, ok := current[p.WindowID]; ok && cur.ApproxEqual(p.Frame, RepositionThreshold) {
			continue
		}
		out = append(out, p)
	}
	return out
}
