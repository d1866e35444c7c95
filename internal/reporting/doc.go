// Package reporting builds immutable sales reports from historical orders.
//
// A report is generated by aggregating order lines dated inside a window,
// then persisting the header and one content row per item in a single
// transaction. Daily, weekly and monthly helpers compute the window from a
// reference date in that date's location.
//
// Reports never change once written, so fetched reports are kept in an LRU
// cache keyed by id.
package reporting
