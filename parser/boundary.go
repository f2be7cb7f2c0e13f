package parser

import "github.com/godsrf/dsrf"

// endOfBlock decides whether the open block closes before the incoming row
// joins. head and foot classify the incoming row's type; number is its
// block number, present only for body rows.
//
// Framing is implicit. There are no closing markers in the format, so
// boundaries are inferred from the row-type transition and from block-number
// continuity, evaluated against the block accumulated so far:
//
//   - a HEAD block ends at the first row that is not HEAD-class
//   - a FOOT block ends at the first row that is not FOOT-class
//   - a BODY block ends at a FOOT-class row or at a body row carrying a
//     different block number
//   - a fresh block with no rows yet ends only at a FOOT-class row; it has
//     no stored number for a body row to differ from, so it adopts the
//     first body row instead
func endOfBlock(current *dsrf.Block, head, foot bool, number int64, hasNumber bool) bool {
	switch current.Type {
	case dsrf.BlockHead:
		return !head
	case dsrf.BlockFoot:
		return !foot
	case dsrf.BlockBody:
		return foot || (hasNumber && number != current.Number)
	default:
		return foot
	}
}
