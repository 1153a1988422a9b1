// Package call provides bound calls — a captured function reference plus a
// fixed argument list, applied at invocation time.
//
// A Call is the unit every composition phase is made of. Binding is
// reflection-based so embedding code can register ordinary functions of any
// signature; the typed handler is converted to a uniform invocation shape at
// bind time, the same way typed job definitions are erased to a byte-payload
// handler in a job registry.
package call

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"slices"

	"github.com/xraph/aspect/id"
)

// Phase identifies which composition phase a call belongs to.
type Phase string

const (
	// PhaseBefore runs prior to the target, in registration order.
	PhaseBefore Phase = "before"
	// PhaseTarget is the single function the composition exists to run.
	PhaseTarget Phase = "target"
	// PhaseAfter runs after the target, best-effort or ensured.
	PhaseAfter Phase = "after"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Call is a captured function reference plus a fixed, ordered list of
// arguments to apply at invocation time. Immutable once bound.
type Call struct {
	id      id.CallID
	fn      reflect.Value
	args    []any
	phase   Phase
	ensured bool
}

// Bind captures fn and args into a Call for the given phase.
// Returns ok=false when fn is nil or not a function; callers treat that as
// a silent no-op (compatibility behavior for non-callable registrations).
func Bind(phase Phase, fn any, args ...any) (Call, bool) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return Call{}, false
	}

	return Call{
		id:    id.NewCallID(),
		fn:    v,
		args:  slices.Clone(args),
		phase: phase,
	}, true
}

// BindEnsured is like Bind but marks the call as must-run-even-on-failure.
func BindEnsured(phase Phase, fn any, args ...any) (Call, bool) {
	c, ok := Bind(phase, fn, args...)
	if !ok {
		return Call{}, false
	}
	c.ensured = true

	return c, true
}

// ID returns the call's unique identifier.
func (c Call) ID() id.CallID { return c.id }

// Phase returns the composition phase the call was bound for.
func (c Call) Phase() Phase { return c.phase }

// Ensured reports whether the call must run even when the execution
// has already failed (finally semantics).
func (c Call) Ensured() bool { return c.ensured }

// IsZero reports whether the call is the zero value (nothing bound).
func (c Call) IsZero() bool { return !c.fn.IsValid() }

// Name returns the bound function's name as reported by the runtime,
// or "<nil>" for the zero Call. Used in logs and trace attributes.
func (c Call) Name() string {
	if c.IsZero() {
		return "<nil>"
	}
	if f := runtime.FuncForPC(c.fn.Pointer()); f != nil {
		return f.Name()
	}

	return "<func>"
}

// Invoke applies the bound arguments to the captured function.
//
// If the function's first parameter is a context.Context, ctx is injected
// ahead of the bound arguments. The returned value is the function's first
// return value (nil when it returns nothing); a trailing non-nil error
// return is surfaced as the invocation error. An arity or type mismatch
// between the bound arguments and the function signature is reported as an
// error rather than a panic.
func (c Call) Invoke(ctx context.Context) (any, error) {
	if c.IsZero() {
		return nil, nil
	}

	ft := c.fn.Type()

	in := make([]reflect.Value, 0, ft.NumIn())
	next := 0
	if ft.NumIn() > 0 && ft.In(0) == ctxType {
		in = append(in, reflect.ValueOf(ctx))
		next = 1
	}

	if err := c.checkArity(ft, next); err != nil {
		return nil, err
	}

	for i, arg := range c.args {
		pt := paramType(ft, next+i)
		av, err := c.coerce(arg, pt, i)
		if err != nil {
			return nil, err
		}
		in = append(in, av)
	}

	out := c.fn.Call(in)

	return splitResults(out)
}

// checkArity validates the bound argument count against the function
// signature. ctxParams is 1 when the context parameter is injected.
func (c Call) checkArity(ft reflect.Type, ctxParams int) error {
	want := ft.NumIn() - ctxParams
	got := len(c.args)

	if ft.IsVariadic() {
		if got < want-1 {
			return fmt.Errorf("call: %s expects at least %d args, bound %d", c.Name(), want-1, got)
		}

		return nil
	}
	if got != want {
		return fmt.Errorf("call: %s expects %d args, bound %d", c.Name(), want, got)
	}

	return nil
}

// coerce converts a bound argument to the parameter type.
func (c Call) coerce(arg any, pt reflect.Type, pos int) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
			reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
			return reflect.Zero(pt), nil
		default:
			return reflect.Value{}, fmt.Errorf("call: %s arg %d: nil is not assignable to %s", c.Name(), pos, pt)
		}
	}

	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(pt) {
		return av, nil
	}
	if av.Type().ConvertibleTo(pt) {
		return av.Convert(pt), nil
	}

	return reflect.Value{}, fmt.Errorf("call: %s arg %d: %s is not assignable to %s", c.Name(), pos, av.Type(), pt)
}

// paramType returns the declared type of parameter i, unrolling the
// variadic tail to its element type.
func paramType(ft reflect.Type, i int) reflect.Type {
	last := ft.NumIn() - 1
	if ft.IsVariadic() && i >= last {
		return ft.In(last).Elem()
	}

	return ft.In(i)
}

// splitResults maps reflected return values onto (value, error).
func splitResults(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}

	var err error
	last := len(out) - 1
	if out[last].Type().Implements(errType) {
		if e, ok := out[last].Interface().(error); ok {
			err = e
		}
		out = out[:last]
	}

	if len(out) == 0 {
		return nil, err
	}

	return out[0].Interface(), err
}
