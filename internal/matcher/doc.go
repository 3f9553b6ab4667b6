// Package matcher joins a remote playlist snapshot against a local audio catalog.
//
// # Rules
//
// For each remote track, [FindMatch] walks the catalog in order and applies two rules:
//
//  1. URL fallback: the first local entry whose comment contains the remote URL
//     (case-sensitive substring) wins with [models.MatchURLFallback].
//  2. Token overlap: the first local entry whose artist tokens intersect the remote
//     artist tokens AND whose title tokens intersect the remote title tokens wins with
//     [models.MatchTokenOverlap].
//
// Anything else is [models.MatchNone]. Catalog order is the tie-break when several
// entries qualify. An empty token set never overlaps, so a remote track with a blank
// artist or title can only be joined through its URL.
//
// # Reconciliation
//
// [Reconcile] validates both snapshots, runs the matcher for every remote track and
// partitions the results into joined and missing lists that preserve input order.
// Local files may be joined to several remote tracks; [Reconciliation.SharedLocals]
// reports those without deduplicating them.
//
// [Suggest] is advisory: it ranks catalog entries by Jaro-Winkler similarity for
// tracks that ended up missing and never changes a match outcome.
package matcher
