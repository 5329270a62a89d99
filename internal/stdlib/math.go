package stdlib

import (
	"math"

	"lazy/internal/object"
)

func mathModule() *ModuleDefinition {
	return &ModuleDefinition{
		Name: "math",
		Constants: map[string]object.Object{
			"pi":  object.Float(math.Pi),
			"e":   object.Float(math.E),
			"inf": object.Float(math.Inf(1)),
		},
		Functions: map[string]FunctionDefinition{
			"sqrt":  NewFunction("sqrt", floatFunc("sqrt", sqrt), "x"),
			"exp":   NewFunction("exp", floatFunc("exp", plain(math.Exp)), "x"),
			"sin":   NewFunction("sin", floatFunc("sin", plain(math.Sin)), "x"),
			"cos":   NewFunction("cos", floatFunc("cos", plain(math.Cos)), "x"),
			"fabs":  NewFunction("fabs", floatFunc("fabs", plain(math.Abs)), "x"),
			"log":   NewFunction("log", mathLog, "x").WithParams(NewParam("x"), OptionalParam("base")),
			"pow":   NewFunction("pow", mathPow, "x", "y"),
			"floor": NewFunction("floor", rounding("floor", math.Floor), "x"),
			"ceil":  NewFunction("ceil", rounding("ceil", math.Ceil), "x"),
			"gcd":   NewFunction("gcd", mathGCD, "a", "b"),
		},
	}
}

func plain(f func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return f(x), nil }
}

func sqrt(x float64) (float64, error) {
	if x < 0 {
		return 0, object.Errorf(object.ValueError, "math domain error")
	}
	return math.Sqrt(x), nil
}

func toFloat(v object.Object) (float64, error) {
	f, err := object.ToFloat(v)
	if err != nil {
		return 0, err
	}
	return float64(f.(object.Float)), nil
}

func floatFunc(name string, f func(float64) (float64, error)) object.BuiltinFunc {
	return func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		r, err := f(x)
		if err != nil {
			return nil, err
		}
		return object.Float(r), nil
	}
}

func rounding(name string, f func(float64) float64) object.BuiltinFunc {
	return func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		if i, ok := args[0].(object.Int); ok {
			return i, nil
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, object.Errorf(object.OverflowError, "cannot convert float %s to integer", object.Float(x))
		}
		return object.Int(int64(f(x))), nil
	}
}

func mathLog(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("log", args, 1, 2); err != nil {
		return nil, err
	}
	x, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	if x <= 0 {
		return nil, object.Errorf(object.ValueError, "math domain error")
	}
	if len(args) == 1 {
		return object.Float(math.Log(x)), nil
	}
	base, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	if base <= 0 || base == 1 {
		return nil, object.Errorf(object.ValueError, "math domain error")
	}
	return object.Float(math.Log(x) / math.Log(base)), nil
}

func mathPow(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("pow", args, 2, 2); err != nil {
		return nil, err
	}
	x, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	y, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	return object.Float(math.Pow(x, y)), nil
}

func mathGCD(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("gcd", args, 2, 2); err != nil {
		return nil, err
	}
	a, err := object.AsIndex(args[0])
	if err != nil {
		return nil, err
	}
	b, err := object.AsIndex(args[1])
	if err != nil {
		return nil, err
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		a = -a
	}
	return object.Int(a), nil
}
