// Package layout computes the nested-band layout for the goal calendar.
//
// Given the goals visible in one week, it produces a flat list of
// rectangular band segments in (column range, vertical offset) space:
// siblings are packed into lanes greedily so non-overlapping siblings share
// a lane, and children render nested inside their parent's band. The whole
// computation is pure — each displayed week lays out independently, so a
// goal spanning several weeks gets a separate band per week.
package layout

import (
	"sort"
	"time"
)

// Item is one goal as the layout engine sees it. Start and End are
// inclusive calendar dates at UTC midnight.
type Item struct {
	ID        int64
	ParentID  *int64
	Title     string
	Color     string
	Start     time.Time
	End       time.Time
	SortOrder int
}

// Band is one rendered rectangle: the visible portion of one goal within
// the displayed week. Top and Height are pixels; LeftPct and WidthPct are
// percentages of the week row width.
type Band struct {
	ID       int64   `json:"id"`
	ParentID *int64  `json:"parent_id,omitempty"`
	Title    string  `json:"title"`
	Color    string  `json:"color,omitempty"`
	Depth    int     `json:"depth"`
	Lane     int     `json:"lane"`
	StartCol int     `json:"start_col"`
	EndCol   int     `json:"end_col"`
	LeftPct  float64 `json:"left_pct"`
	WidthPct float64 `json:"width_pct"`
	Top      float64 `json:"top"`
	Height   float64 `json:"height"`
	Leaf     bool    `json:"leaf"`
}

// Span is a closed date interval, the input to standalone lane assignment.
type Span struct {
	Start time.Time
	End   time.Time
}

// Layout metrics. Leaf bands have a fixed height; parent bands reserve
// room at the top for their title label and pad below their last lane.
const (
	LeafHeight   = 22.0
	TitleInset   = 18.0
	LaneGap      = 4.0
	BottomPad    = 4.0
	DaysPerWeek  = 7
	EdgeInsetPct = 0.5
)

// AssignLanes packs spans into lanes: each span goes to the first lane
// whose last-placed end does not extend past the span's start, otherwise a
// new lane opens. Spans that touch only at a boundary day may share a lane;
// two spans in the same lane never overlap beyond that. The result maps
// each input index to its lane.
func AssignLanes(spans []Span) []int {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return spans[order[a]].Start.Before(spans[order[b]].Start)
	})

	lanes := make([]int, len(spans))
	var laneEnds []time.Time
	for _, idx := range order {
		s := spans[idx]
		placed := false
		for lane, end := range laneEnds {
			if !end.After(s.Start) {
				lanes[idx] = lane
				laneEnds[lane] = s.End
				placed = true
				break
			}
		}
		if !placed {
			lanes[idx] = len(laneEnds)
			laneEnds = append(laneEnds, s.End)
		}
	}
	return lanes
}

// Week computes the band layout for the week starting at weekStart
// (inclusive, seven days). Only items whose span intersects the week take
// part; heights are computed from the children visible this week, not the
// goal's full lifetime.
func Week(items []Item, weekStart time.Time) []Band {
	weekEnd := weekStart.AddDate(0, 0, DaysPerWeek-1)

	present := make(map[int64]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
	}

	visible := func(it Item) bool {
		return !it.Start.After(weekEnd) && !it.End.Before(weekStart)
	}

	children := make(map[int64][]Item)
	var roots []Item
	for _, it := range items {
		if !visible(it) {
			continue
		}
		// A parent outside the loaded set makes the item a root.
		if it.ParentID != nil && present[*it.ParentID] {
			children[*it.ParentID] = append(children[*it.ParentID], it)
		} else {
			roots = append(roots, it)
		}
	}
	sortSiblings(roots)
	for id := range children {
		sortSiblings(children[id])
	}

	// Pass 1: required height per node, bottom-up, memoized per week.
	heights := make(map[int64]float64)
	var height func(it Item) float64
	height = func(it Item) float64 {
		if h, ok := heights[it.ID]; ok {
			return h
		}
		kids := children[it.ID]
		if len(kids) == 0 {
			heights[it.ID] = LeafHeight
			return LeafHeight
		}
		laneHeights := laneMaxHeights(kids, height)
		h := TitleInset + BottomPad
		for _, lh := range laneHeights {
			h += lh
		}
		h += LaneGap * float64(len(laneHeights)-1)
		heights[it.ID] = h
		return h
	}

	// Pass 2: absolute top offsets, top-down.
	var out []Band
	var walk func(group []Item, depth int, top float64)
	walk = func(group []Item, depth int, top float64) {
		if len(group) == 0 {
			return
		}
		lanes := AssignLanes(groupSpans(group))
		laneHeights := laneMaxHeights(group, height)
		laneTops := make([]float64, len(laneHeights))
		offset := 0.0
		for lane, lh := range laneHeights {
			laneTops[lane] = offset
			offset += lh + LaneGap
		}

		for i, it := range group {
			t := top + laneTops[lanes[i]]
			kids := children[it.ID]
			out = append(out, band(it, weekStart, depth, lanes[i], t, height(it), len(kids) == 0))
			walk(kids, depth+1, t+TitleInset)
		}
	}
	walk(roots, 0, 0)
	return out
}

// band derives one rectangle, clipping the item's span to the visible week.
func band(it Item, weekStart time.Time, depth, lane int, top, height float64, leaf bool) Band {
	startCol := clampCol(daysBetween(weekStart, it.Start))
	endCol := clampCol(daysBetween(weekStart, it.End))

	return Band{
		ID:       it.ID,
		ParentID: it.ParentID,
		Title:    it.Title,
		Color:    it.Color,
		Depth:    depth,
		Lane:     lane,
		StartCol: startCol,
		EndCol:   endCol,
		LeftPct:  float64(startCol)/DaysPerWeek*100 + EdgeInsetPct,
		WidthPct: float64(endCol-startCol+1)/DaysPerWeek*100 - 2*EdgeInsetPct,
		Top:      top,
		Height:   height,
		Leaf:     leaf,
	}
}

// laneMaxHeights packs the group into lanes and returns each lane's tallest
// member height, in lane order.
func laneMaxHeights(group []Item, height func(Item) float64) []float64 {
	lanes := AssignLanes(groupSpans(group))
	var laneHeights []float64
	for i, it := range group {
		for lanes[i] >= len(laneHeights) {
			laneHeights = append(laneHeights, 0)
		}
		if h := height(it); h > laneHeights[lanes[i]] {
			laneHeights[lanes[i]] = h
		}
	}
	return laneHeights
}

func groupSpans(group []Item) []Span {
	spans := make([]Span, len(group))
	for i, it := range group {
		spans[i] = Span{Start: it.Start, End: it.End}
	}
	return spans
}

func sortSiblings(group []Item) {
	sort.SliceStable(group, func(a, b int) bool {
		if !group[a].Start.Equal(group[b].Start) {
			return group[a].Start.Before(group[b].Start)
		}
		if group[a].SortOrder != group[b].SortOrder {
			return group[a].SortOrder < group[b].SortOrder
		}
		return group[a].ID < group[b].ID
	})
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

func clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col > DaysPerWeek-1 {
		return DaysPerWeek - 1
	}
	return col
}
