package object

import (
	"math"
	"math/bits"
	"strings"
)

// BinaryOp identifies an arithmetic or bitwise operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpTrueDiv
	OpFloorDiv
	OpMod
	OpPow
	OpLShift
	OpRShift
	OpAnd
	OpOr
	OpXor
	numBinaryOps
)

// BinaryOpInfo describes one operator family: the plain form, its reflected
// counterpart and its in-place variant.
type BinaryOpInfo struct {
	Symbol        string
	Name          string
	Reflected     string
	InPlace       string
	InPlaceSymbol string
}

// BinaryOps is the operator table. A deferred in-place operation is recorded
// as its plain form, so only Symbol and Name reach deferred computations.
var BinaryOps = [numBinaryOps]BinaryOpInfo{
	OpAdd:      {"+", "add", "radd", "iadd", "+="},
	OpSub:      {"-", "sub", "rsub", "isub", "-="},
	OpMul:      {"*", "mul", "rmul", "imul", "*="},
	OpTrueDiv:  {"/", "truediv", "rtruediv", "itruediv", "/="},
	OpFloorDiv: {"//", "floordiv", "rfloordiv", "ifloordiv", "//="},
	OpMod:      {"%", "mod", "rmod", "imod", "%="},
	OpPow:      {"**", "pow", "rpow", "ipow", "**="},
	OpLShift:   {"<<", "lshift", "rlshift", "ilshift", "<<="},
	OpRShift:   {">>", "rshift", "rrshift", "irshift", ">>="},
	OpAnd:      {"&", "and", "rand", "iand", "&="},
	OpOr:       {"|", "or", "ror", "ior", "|="},
	OpXor:      {"^", "xor", "rxor", "ixor", "^="},
}

func (op BinaryOp) String() string {
	return BinaryOps[op].Symbol
}

// Info returns the table entry of op.
func (op BinaryOp) Info() BinaryOpInfo {
	return BinaryOps[op]
}

// AllBinaryOps lists every operator in table order.
func AllBinaryOps() []BinaryOp {
	ops := make([]BinaryOp, numBinaryOps)
	for i := range ops {
		ops[i] = BinaryOp(i)
	}
	return ops
}

// LookupBinary resolves an operator symbol. inPlace reports whether the
// symbol was the augmented assignment form.
func LookupBinary(symbol string) (op BinaryOp, inPlace bool, ok bool) {
	for i, info := range BinaryOps {
		switch symbol {
		case info.Symbol:
			return BinaryOp(i), false, true
		case info.InPlaceSymbol:
			return BinaryOp(i), true, true
		}
	}
	return 0, false, false
}

// BinaryOperand lets a value take part in binary operators. reflected is
// set when the value is the right operand. Returning handled=false lets the
// other operand try.
type BinaryOperand interface {
	BinaryOp(op BinaryOp, other Object, reflected bool) (result Object, handled bool, err error)
}

// InPlaceOperand lets a mutable value update itself for augmented
// assignment.
type InPlaceOperand interface {
	InPlaceOp(op BinaryOp, other Object) (result Object, handled bool, err error)
}

// Binary applies op to a and b. Both operands are forced.
func Binary(op BinaryOp, a, b Object) (Object, error) {
	a, err := Strict(a)
	if err != nil {
		return nil, err
	}
	if b, err = Strict(b); err != nil {
		return nil, err
	}
	if res, ok, err := numeric(op, a, b); ok {
		return res, err
	}
	if res, ok, err := sequence(op, a, b); ok {
		return res, err
	}
	if m, ok := a.(BinaryOperand); ok {
		if res, handled, err := m.BinaryOp(op, b, false); handled {
			return res, err
		}
	}
	if m, ok := b.(BinaryOperand); ok {
		if res, handled, err := m.BinaryOp(op, a, true); handled {
			return res, err
		}
	}
	return nil, Errorf(TypeError, "unsupported operand type(s) for %s: '%s' and '%s'", op, a.Type(), b.Type())
}

// InPlace applies the augmented form of op. Mutable left operands are
// updated and returned; everything else falls back to Binary.
func InPlace(op BinaryOp, a, b Object) (Object, error) {
	a, err := Strict(a)
	if err != nil {
		return nil, err
	}
	if l, ok := a.(*List); ok && op == OpAdd {
		elems, err := sequenceElems(b)
		if err != nil {
			return nil, err
		}
		l.Elems = append(l.Elems, elems...)
		return l, nil
	}
	if m, ok := a.(InPlaceOperand); ok {
		if res, handled, err := m.InPlaceOp(op, b); handled {
			return res, err
		}
	}
	return Binary(op, a, b)
}

// numeric handles int, float and bool operands. Bools behave as ints except
// that bitwise operators on two bools yield a bool.
func numeric(op BinaryOp, a, b Object) (Object, bool, error) {
	if ab, ok := a.(Bool); ok {
		if bb, ok := b.(Bool); ok {
			switch op {
			case OpAnd:
				return Bool(ab && bb), true, nil
			case OpOr:
				return Bool(ab || bb), true, nil
			case OpXor:
				return Bool(ab != bb), true, nil
			}
		}
	}
	ai, aInt := asInt(a)
	bi, bInt := asInt(b)
	if aInt && bInt {
		res, err := intOp(op, ai, bi)
		return res, true, err
	}
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		res, err := floatOp(op, af, bf)
		return res, true, err
	}
	return nil, false, nil
}

func asInt(v Object) (int64, bool) {
	switch v := v.(type) {
	case Int:
		return int64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asFloat(v Object) (float64, bool) {
	if f, ok := v.(Float); ok {
		return float64(f), true
	}
	i, ok := asInt(v)
	return float64(i), ok
}

// Int arithmetic never wraps: a result outside int64 raises OverflowError.
func overflow(op BinaryOp) error {
	return Errorf(OverflowError, "integer result of %s does not fit in 64 bits", op.Info().Symbol)
}

func mulInt(a, b int64) (int64, bool) {
	hi, lo := bits.Mul64(absInt(a), absInt(b))
	if hi != 0 {
		return 0, false
	}
	if (a < 0) != (b < 0) {
		if lo > 1<<63 {
			return 0, false
		}
		return int64(-lo), true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func absInt(a int64) uint64 {
	if a < 0 {
		return uint64(-a)
	}
	return uint64(a)
}

func intOp(op BinaryOp, a, b int64) (Object, error) {
	switch op {
	case OpAdd:
		if c := a + b; (a^c)&(b^c) >= 0 {
			return Int(c), nil
		}
		return nil, overflow(op)
	case OpSub:
		if c := a - b; (a^b)&(a^c) >= 0 {
			return Int(c), nil
		}
		return nil, overflow(op)
	case OpMul:
		if c, ok := mulInt(a, b); ok {
			return Int(c), nil
		}
		return nil, overflow(op)
	case OpTrueDiv:
		if b == 0 {
			return nil, Errorf(ZeroDivisionError, "division by zero")
		}
		return Float(float64(a) / float64(b)), nil
	case OpFloorDiv:
		if b == 0 {
			return nil, Errorf(ZeroDivisionError, "integer division or modulo by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow(op)
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return Int(q), nil
	case OpMod:
		if b == 0 {
			return nil, Errorf(ZeroDivisionError, "integer division or modulo by zero")
		}
		m := a % b
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return Int(m), nil
	case OpPow:
		if b < 0 {
			if a == 0 {
				return nil, Errorf(ZeroDivisionError, "0 cannot be raised to a negative power")
			}
			return Float(math.Pow(float64(a), float64(b))), nil
		}
		r, base, ok := int64(1), a, true
		for e := b; e > 0 && ok; {
			if e&1 == 1 {
				if r, ok = mulInt(r, base); !ok {
					break
				}
			}
			if e >>= 1; e > 0 {
				base, ok = mulInt(base, base)
			}
		}
		if !ok {
			return nil, overflow(op)
		}
		return Int(r), nil
	case OpLShift, OpRShift:
		if b < 0 {
			return nil, Errorf(ValueError, "negative shift count")
		}
		if op == OpLShift {
			if a == 0 {
				return Int(0), nil
			}
			if b >= 64 || (a<<uint(b))>>uint(b) != a {
				return nil, overflow(op)
			}
			return Int(a << uint(b)), nil
		}
		return Int(a >> uint(b)), nil
	case OpAnd:
		return Int(a & b), nil
	case OpOr:
		return Int(a | b), nil
	case OpXor:
		return Int(a ^ b), nil
	}
	return nil, Errorf(TypeError, "unsupported operand type(s) for %s: 'int' and 'int'", op)
}

func floatOp(op BinaryOp, a, b float64) (Object, error) {
	switch op {
	case OpAdd:
		return Float(a + b), nil
	case OpSub:
		return Float(a - b), nil
	case OpMul:
		return Float(a * b), nil
	case OpTrueDiv:
		if b == 0 {
			return nil, Errorf(ZeroDivisionError, "float division by zero")
		}
		return Float(a / b), nil
	case OpFloorDiv:
		if b == 0 {
			return nil, Errorf(ZeroDivisionError, "float divmod()")
		}
		return Float(math.Floor(a / b)), nil
	case OpMod:
		if b == 0 {
			return nil, Errorf(ZeroDivisionError, "float modulo")
		}
		m := math.Mod(a, b)
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return Float(m), nil
	case OpPow:
		return Float(math.Pow(a, b)), nil
	}
	return nil, Errorf(TypeError, "unsupported operand type(s) for %s: 'float' and 'float'", op)
}

// sequence handles concatenation, repetition and the set algebra.
func sequence(op BinaryOp, a, b Object) (Object, bool, error) {
	switch a := a.(type) {
	case Str:
		switch op {
		case OpAdd:
			if b, ok := b.(Str); ok {
				return a + b, true, nil
			}
		case OpMul:
			if n, ok := asInt(b); ok {
				return Str(strings.Repeat(string(a), max(int(n), 0))), true, nil
			}
		case OpMod:
			res, err := formatPercent(string(a), b)
			return res, true, err
		}
	case *List:
		switch op {
		case OpAdd:
			if b, ok := b.(*List); ok {
				return NewList(concat(a.Elems, b.Elems)...), true, nil
			}
		case OpMul:
			if n, ok := asInt(b); ok {
				return NewList(repeat(a.Elems, n)...), true, nil
			}
		}
	case *Tuple:
		switch op {
		case OpAdd:
			if b, ok := b.(*Tuple); ok {
				return NewTuple(concat(a.Elems, b.Elems)...), true, nil
			}
		case OpMul:
			if n, ok := asInt(b); ok {
				return NewTuple(repeat(a.Elems, n)...), true, nil
			}
		}
	case *Set:
		if b, ok := b.(*Set); ok {
			res, err := setOp(op, a, b)
			return res, res != nil || err != nil, err
		}
	case *Dict:
		if b, ok := b.(*Dict); ok && op == OpOr {
			out := NewDict()
			for _, d := range []*Dict{a, b} {
				for i, k := range d.keys {
					if err := out.Set(k, d.values[i]); err != nil {
						return nil, true, err
					}
				}
			}
			return out, true, nil
		}
	}
	if n, ok := asInt(a); ok && op == OpMul {
		switch b.(type) {
		case Str, *List, *Tuple:
			return sequence(op, b, Int(n))
		}
	}
	return nil, false, nil
}

func setOp(op BinaryOp, a, b *Set) (Object, error) {
	out := NewSet()
	add := func(v Object) error { return out.Add(v) }
	switch op {
	case OpOr:
		for _, v := range concat(a.keys, b.keys) {
			if err := add(v); err != nil {
				return nil, err
			}
		}
	case OpAnd, OpSub:
		for _, v := range a.keys {
			in, err := b.Has(v)
			if err != nil {
				return nil, err
			}
			if in == (op == OpAnd) {
				if err := add(v); err != nil {
					return nil, err
				}
			}
		}
	case OpXor:
		for _, pair := range [][2]*Set{{a, b}, {b, a}} {
			for _, v := range pair[0].keys {
				in, err := pair[1].Has(v)
				if err != nil {
					return nil, err
				}
				if !in {
					if err := add(v); err != nil {
						return nil, err
					}
				}
			}
		}
	default:
		return nil, nil
	}
	return out, nil
}

func concat(a, b []Object) []Object {
	out := make([]Object, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

func repeat(elems []Object, n int64) []Object {
	var out []Object
	for i := int64(0); i < n; i++ {
		out = append(out, elems...)
	}
	return out
}

// formatPercent implements the %s/%r/%d subset of printf style formatting.
func formatPercent(format string, arg Object) (Object, error) {
	args := []Object{arg}
	if t, ok := arg.(*Tuple); ok {
		args = t.Elems
	}
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		verb := format[i]
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if next >= len(args) {
			return nil, Errorf(TypeError, "not enough arguments for format string")
		}
		a := args[next]
		next++
		var s string
		var err error
		switch verb {
		case 's':
			s, err = ToStr(a)
		case 'r':
			s, err = Repr(a)
		case 'd':
			var n Object
			if n, err = ToInt(a); err == nil {
				s = n.String()
			}
		default:
			return nil, Errorf(ValueError, "unsupported format character '%c'", verb)
		}
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	if next < len(args) {
		return nil, Errorf(TypeError, "not all arguments converted during string formatting")
	}
	return Str(b.String()), nil
}

// UnaryOp identifies a prefix operator.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpPos
	OpInvert
)

var unarySymbols = [...]string{OpNeg: "-", OpPos: "+", OpInvert: "~"}
var unaryNames = [...]string{OpNeg: "neg", OpPos: "pos", OpInvert: "invert"}

func (op UnaryOp) String() string { return unarySymbols[op] }

// Name is the identifier used for the deferred form of op.
func (op UnaryOp) Name() string { return unaryNames[op] }

// LookupUnary resolves a prefix operator symbol.
func LookupUnary(symbol string) (UnaryOp, bool) {
	for i, s := range unarySymbols {
		if s == symbol {
			return UnaryOp(i), true
		}
	}
	return 0, false
}

// Unary applies op to a, forcing it.
func Unary(op UnaryOp, a Object) (Object, error) {
	a, err := Strict(a)
	if err != nil {
		return nil, err
	}
	if i, ok := asInt(a); ok {
		switch op {
		case OpNeg:
			if i == math.MinInt64 {
				return nil, Errorf(OverflowError, "integer result of unary - does not fit in 64 bits")
			}
			return Int(-i), nil
		case OpPos:
			return Int(i), nil
		case OpInvert:
			return Int(^i), nil
		}
	}
	if f, ok := a.(Float); ok {
		switch op {
		case OpNeg:
			return -f, nil
		case OpPos:
			return f, nil
		}
	}
	return nil, Errorf(TypeError, "bad operand type for unary %s: '%s'", op, a.Type())
}

// Not returns the negated truth value of a.
func Not(a Object) (Object, error) {
	t, err := Truth(a)
	if err != nil {
		return nil, err
	}
	return Bool(!t), nil
}

// CompareOp identifies a comparison operator.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
	CmpIn
	CmpNotIn
)

var compareSymbols = [...]string{
	CmpEq: "==", CmpNe: "!=", CmpLt: "<", CmpLe: "<=", CmpGt: ">", CmpGe: ">=",
	CmpIn: "in", CmpNotIn: "not in",
}

var compareNames = [...]string{
	CmpEq: "eq", CmpNe: "ne", CmpLt: "lt", CmpLe: "le", CmpGt: "gt", CmpGe: "ge",
	CmpIn: "contains", CmpNotIn: "not_contains",
}

func (op CompareOp) String() string { return compareSymbols[op] }

// Name is the identifier used for the deferred form of op.
func (op CompareOp) Name() string { return compareNames[op] }

// LookupCompare resolves a comparison symbol.
func LookupCompare(symbol string) (CompareOp, bool) {
	for i, s := range compareSymbols {
		if s == symbol {
			return CompareOp(i), true
		}
	}
	return 0, false
}

// Compare applies op to a and b. Membership tests ask b whether it holds a.
func Compare(op CompareOp, a, b Object) (Object, error) {
	switch op {
	case CmpEq, CmpNe:
		eq, err := Equal(a, b)
		if err != nil {
			return nil, err
		}
		return Bool(eq == (op == CmpEq)), nil
	case CmpIn, CmpNotIn:
		in, err := Contains(b, a)
		if err != nil {
			return nil, err
		}
		return Bool(in == (op == CmpIn)), nil
	case CmpLt:
		lt, err := Less(a, b)
		return Bool(lt), err
	case CmpGt:
		gt, err := Less(b, a)
		return Bool(gt), err
	case CmpLe, CmpGe:
		if op == CmpGe {
			a, b = b, a
		}
		gt, err := Less(b, a)
		if err != nil {
			return nil, err
		}
		return Bool(!gt), nil
	}
	return nil, Errorf(TypeError, "unknown comparison")
}

// Equaler is implemented by values with custom equality.
type Equaler interface {
	Equal(other Object) (bool, error)
}

// Equal reports whether a and b are equal, forcing both.
func Equal(a, b Object) (bool, error) {
	a, err := Strict(a)
	if err != nil {
		return false, err
	}
	if b, err = Strict(b); err != nil {
		return false, err
	}
	if Identical(a, b) {
		return true, nil
	}
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		if !ok {
			return false, nil
		}
		ai, aInt := asInt(a)
		bi, bInt := asInt(b)
		if aInt && bInt {
			return ai == bi, nil
		}
		return af == bf, nil
	}
	switch a := a.(type) {
	case Str:
		b, ok := b.(Str)
		return ok && a == b, nil
	case *List:
		if b, ok := b.(*List); ok {
			return elemsEqual(a.Elems, b.Elems)
		}
		return false, nil
	case *Tuple:
		switch b := b.(type) {
		case *Tuple:
			return elemsEqual(a.Elems, b.Elems)
		case Equaler:
			return b.Equal(a)
		}
		return false, nil
	case *Dict:
		b, ok := b.(*Dict)
		if !ok || a.Len() != b.Len() {
			return false, nil
		}
		for i, k := range a.keys {
			v, found, err := b.Get(k)
			if err != nil || !found {
				return false, err
			}
			if eq, err := Equal(a.values[i], v); err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case *Set:
		b, ok := b.(*Set)
		if !ok || a.Len() != b.Len() {
			return false, nil
		}
		for _, k := range a.keys {
			if in, err := b.Has(k); err != nil || !in {
				return false, err
			}
		}
		return true, nil
	case Equaler:
		return a.Equal(b)
	}
	return false, nil
}

func elemsEqual(a, b []Object) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := Equal(a[i], b[i])
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// Less orders numbers, strings and sequences. Other types are unordered.
func Less(a, b Object) (bool, error) {
	a, err := Strict(a)
	if err != nil {
		return false, err
	}
	if b, err = Strict(b); err != nil {
		return false, err
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			ai, aInt := asInt(a)
			bi, bInt := asInt(b)
			if aInt && bInt {
				return ai < bi, nil
			}
			return af < bf, nil
		}
	}
	switch a := a.(type) {
	case Str:
		if b, ok := b.(Str); ok {
			return a < b, nil
		}
	case *List:
		if b, ok := b.(*List); ok {
			return elemsLess(a.Elems, b.Elems)
		}
	case *Tuple:
		if b, ok := b.(*Tuple); ok {
			return elemsLess(a.Elems, b.Elems)
		}
	}
	return false, Errorf(TypeError, "'<' not supported between instances of '%s' and '%s'", a.Type(), b.Type())
}

func elemsLess(a, b []Object) (bool, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		eq, err := Equal(a[i], b[i])
		if err != nil {
			return false, err
		}
		if !eq {
			return Less(a[i], b[i])
		}
	}
	return len(a) < len(b), nil
}

// Truther is implemented by values with custom truthiness.
type Truther interface {
	Truth() (bool, error)
}

// Truth reports the truthiness of v, forcing it.
func Truth(v Object) (bool, error) {
	v, err := Strict(v)
	if err != nil {
		return false, err
	}
	switch v := v.(type) {
	case noneValue:
		return false, nil
	case Bool:
		return bool(v), nil
	case Int:
		return v != 0, nil
	case Float:
		return v != 0, nil
	case Str:
		return v != "", nil
	case *List:
		return len(v.Elems) > 0, nil
	case *Tuple:
		return len(v.Elems) > 0, nil
	case *Dict:
		return v.Len() > 0, nil
	case *Set:
		return v.Len() > 0, nil
	case Truther:
		return v.Truth()
	}
	return true, nil
}
