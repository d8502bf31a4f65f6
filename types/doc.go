// Package types declares the two value shapes the rest of barrace passes
// around: Record, a timestamped named measurement, and KeyframeRecord, a
// named measurement with an optional rank.
//
// Both shapes convert to and from plain key-value maps and JSON. The rank
// of a KeyframeRecord is a pointer so that "unranked" survives every round
// trip as an absent field rather than a zero.
package types
