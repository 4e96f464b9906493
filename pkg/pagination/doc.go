// Package pagination provides deterministic windowing over a list whose
// length may change between calls.
//
// The Controller keeps the page the user asked for and clamps it against
// the current length every time a window is computed, so narrowing a
// filtered list never lands on an out-of-range page:
//
//	pager := pagination.New(10)
//	w := pager.Compute(len(filtered))
//	page := pagination.Paginate(filtered, w)
//
// Page numbers are 1-based. A list with zero items has zero pages but an
// effective page of 1 and an empty slice.
//
// VisiblePages builds the page-number strip used by renderers: the first and
// last pages are always present, a window of two pages on either side of the
// current page is shown, and gaps are collapsed into an ellipsis.
package pagination
