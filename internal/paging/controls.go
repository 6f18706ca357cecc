// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package paging

// PageControl is one element of the rendered pagination bar: either a page
// number (possibly the current one) or an ellipsis placeholder.
type PageControl struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// PageControls computes the pagination bar for the given page count: all
// pages when there are seven or fewer, otherwise the first page, the current
// page's neighborhood (±1) and the last page, with ellipses for the gaps.
func PageControls(totalPages, current int) []PageControl {
	if totalPages <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	if totalPages <= 7 {
		out := make([]PageControl, 0, totalPages)
		for p := 1; p <= totalPages; p++ {
			out = append(out, PageControl{Page: p, Current: p == current})
		}
		return out
	}

	shown := func(p int) bool {
		return p == 1 || p == totalPages || (p >= current-1 && p <= current+1)
	}

	var out []PageControl
	gap := false
	for p := 1; p <= totalPages; p++ {
		if !shown(p) {
			gap = true
			continue
		}
		if gap {
			out = append(out, PageControl{Ellipsis: true})
			gap = false
		}
		out = append(out, PageControl{Page: p, Current: p == current})
	}
	return out
}
