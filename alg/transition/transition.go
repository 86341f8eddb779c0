package transition

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation is a transition tag word. The low byte holds the kind, the
// remaining high bits hold the closure counter of UNARY operations.
type Operation uint32

const (
	AXIOM Operation = iota
	SHIFT
	REDUCE_LEFT
	REDUCE_RIGHT
	UNARY
	FINAL
	IDLE
)

const (
	kindBits   = 8
	kindMask   = 1<<kindBits - 1
	MaxClosure = 1<<(32-kindBits) - 1
)

// Unary returns the UNARY operation carrying the given closure count.
func Unary(closure int) Operation {
	if closure < 0 || closure > MaxClosure {
		panic(fmt.Sprintf("unary closure out of range: %d", closure))
	}
	return UNARY | Operation(closure)<<kindBits
}

func (o Operation) Kind() Operation { return o & kindMask }

// Closure is the number of stacked unaries ending in this operation, 0 for
// every other kind.
func (o Operation) Closure() int {
	if !o.IsUnary() {
		return 0
	}
	return int(o >> kindBits)
}

func (o Operation) IsAxiom() bool  { return o.Kind() == AXIOM }
func (o Operation) IsShift() bool  { return o.Kind() == SHIFT }
func (o Operation) IsReduce() bool { return o.Kind() == REDUCE_LEFT || o.Kind() == REDUCE_RIGHT }
func (o Operation) IsLeft() bool   { return o.Kind() == REDUCE_LEFT }
func (o Operation) IsRight() bool  { return o.Kind() == REDUCE_RIGHT }
func (o Operation) IsUnary() bool  { return o.Kind() == UNARY }
func (o Operation) IsFinal() bool  { return o.Kind() == FINAL }
func (o Operation) IsIdle() bool   { return o.Kind() == IDLE }

// IsFinished is true for FINAL and IDLE: only IDLE may follow.
func (o Operation) IsFinished() bool { return o.IsFinal() || o.IsIdle() }

var kindNames = [...]string{
	AXIOM:        "AXIOM",
	SHIFT:        "SHIFT",
	REDUCE_LEFT:  "REDUCE-LEFT",
	REDUCE_RIGHT: "REDUCE-RIGHT",
	UNARY:        "UNARY",
	FINAL:        "FINAL",
	IDLE:         "IDLE",
}

func (o Operation) String() string {
	k := o.Kind()
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("OP(%d)", uint32(o))
	}
	if k == UNARY {
		return kindNames[k] + ":" + strconv.Itoa(o.Closure())
	}
	return kindNames[k]
}

// ParseOperation is the inverse of Operation.String.
func ParseOperation(s string) (Operation, error) {
	name, closure, hasClosure := strings.Cut(s, ":")
	for k, n := range kindNames {
		if n != name {
			continue
		}
		op := Operation(k)
		if op != UNARY {
			if hasClosure {
				return 0, fmt.Errorf("operation %q takes no closure", s)
			}
			return op, nil
		}
		if !hasClosure {
			return Unary(1), nil
		}
		c, err := strconv.Atoi(closure)
		if err != nil || c < 0 || c > MaxClosure {
			return 0, fmt.Errorf("bad unary closure in %q", s)
		}
		return Unary(c), nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}
