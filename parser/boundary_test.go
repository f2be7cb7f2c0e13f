package parser

import (
	"testing"

	"github.com/godsrf/dsrf"
)

func TestEndOfBlock(t *testing.T) {
	tests := []struct {
		name      string
		current   dsrf.Block
		head      bool
		foot      bool
		number    int64
		hasNumber bool
		want      bool
	}{
		{name: "fresh block adopts head row", current: dsrf.Block{}, head: true, want: false},
		{name: "fresh block adopts body row", current: dsrf.Block{}, number: 5, hasNumber: true, want: false},
		{name: "fresh block closes at foot row", current: dsrf.Block{}, foot: true, want: true},

		{name: "head block continues on head row", current: dsrf.Block{Type: dsrf.BlockHead}, head: true, want: false},
		{name: "head block closes at body row", current: dsrf.Block{Type: dsrf.BlockHead}, number: 1, hasNumber: true, want: true},
		{name: "head block closes at foot row", current: dsrf.Block{Type: dsrf.BlockHead}, foot: true, want: true},

		{name: "body block continues on same number", current: dsrf.Block{Type: dsrf.BlockBody, Number: 5}, number: 5, hasNumber: true, want: false},
		{name: "body block closes on new number", current: dsrf.Block{Type: dsrf.BlockBody, Number: 5}, number: 6, hasNumber: true, want: true},
		{name: "body block closes at foot row", current: dsrf.Block{Type: dsrf.BlockBody, Number: 5}, foot: true, want: true},
		{name: "body block keeps a stray head row", current: dsrf.Block{Type: dsrf.BlockBody, Number: 5}, head: true, want: false},

		{name: "foot block continues on foot row", current: dsrf.Block{Type: dsrf.BlockFoot}, foot: true, want: false},
		{name: "foot block closes at head row", current: dsrf.Block{Type: dsrf.BlockFoot}, head: true, want: true},
		{name: "foot block closes at body row", current: dsrf.Block{Type: dsrf.BlockFoot}, number: 1, hasNumber: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := endOfBlock(&tt.current, tt.head, tt.foot, tt.number, tt.hasNumber)
			if got != tt.want {
				t.Errorf("endOfBlock() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestEndOfBlock_ZeroBlockNumber(t *testing.T) {
	// Block number zero is legal and must not be confused with "no number".
	current := dsrf.Block{Type: dsrf.BlockBody, Number: 0}
	if endOfBlock(&current, false, false, 0, true) {
		t.Error("body block 0 should continue on another number-0 row")
	}
	if !endOfBlock(&current, false, false, 1, true) {
		t.Error("body block 0 should close on a number-1 row")
	}
}
