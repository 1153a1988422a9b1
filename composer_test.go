package aspect_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/aspect"
	"github.com/xraph/aspect/sched"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecute_OrderAndResult(t *testing.T) {
	var logged []string
	log := func(msg string) { logged = append(logged, msg) }
	add := func(a, b int) int { return a + b }

	res, err := aspect.New(aspect.WithLogger(quietLogger())).
		RegisterBefore(log, "start").
		SetTarget(add, 2, 3).
		RegisterAfter(log, "done").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value() != 5 {
		t.Errorf("Value = %v, want 5", res.Value())
	}

	want := []string{"start", "done"}
	if strings.Join(logged, ",") != strings.Join(want, ",") {
		t.Errorf("logged = %v, want %v", logged, want)
	}
}

func TestExecute_FullPhaseOrder(t *testing.T) {
	var order []string
	mark := func(label string) { order = append(order, label) }

	res, err := aspect.New(aspect.WithLogger(quietLogger())).
		RegisterBefore(mark, "b1").
		RegisterBefore(mark, "b2").
		SetTarget(mark, "t").
		RegisterAfter(mark, "a1").
		RegisterAfter(mark, "a2").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err() != nil {
		t.Fatalf("result error: %v", res.Err())
	}

	want := []string{"b1", "b2", "t", "a1", "a2"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestExecute_EnsuredRunsOnTargetError(t *testing.T) {
	boom := errors.New("boom")
	cleanups := 0

	_, err := aspect.New(aspect.WithLogger(quietLogger())).
		SetTarget(func() error { return boom }).
		RegisterAfterEnsured(func() { cleanups++ }).
		Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Execute error = %v, want %v", err, boom)
	}
	if cleanups != 1 {
		t.Errorf("cleanup ran %d times, want 1", cleanups)
	}
}

func TestExecute_EnsuredInterleaving(t *testing.T) {
	var order []string
	mark := func(label string) { order = append(order, label) }

	_, err := aspect.New(aspect.WithLogger(quietLogger())).
		SetTarget(mark, "t").
		RegisterAfterEnsured(mark, "a1").
		RegisterAfter(mark, "a2").
		RegisterAfterEnsured(mark, "a3").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"t", "a2", "a1", "a3"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestSetTarget_SecondSetFails(t *testing.T) {
	first := func() string { return "first" }
	second := func() string { return "second" }

	c := aspect.New(aspect.WithLogger(quietLogger())).
		SetTarget(first).
		SetTarget(second)

	if !errors.Is(c.Err(), aspect.ErrTargetAlreadySet) {
		t.Fatalf("Err = %v, want ErrTargetAlreadySet", c.Err())
	}
	if _, err := c.Compile(); !errors.Is(err, aspect.ErrTargetAlreadySet) {
		t.Errorf("Compile error = %v, want ErrTargetAlreadySet", err)
	}
	if _, err := c.Execute(context.Background()); !errors.Is(err, aspect.ErrTargetAlreadySet) {
		t.Errorf("Execute error = %v, want ErrTargetAlreadySet", err)
	}
}

func TestSetTarget_FirstTargetKept(t *testing.T) {
	var ran []string
	c := aspect.New(aspect.WithLogger(quietLogger())).
		SetTarget(func() { ran = append(ran, "first") })

	// Compile before the offending second set: the snapshot holds the
	// first target, and the second set only records the sticky error.
	x, err := c.Compile()
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	c.SetTarget(func() { ran = append(ran, "second") })
	if !errors.Is(c.Err(), aspect.ErrTargetAlreadySet) {
		t.Fatal("second SetTarget did not record a configuration error")
	}

	if res := x.Execute(context.Background()); res.Err() != nil {
		t.Fatalf("result error: %v", res.Err())
	}
	if strings.Join(ran, ",") != "first" {
		t.Errorf("ran = %v, want [first]", ran)
	}
}

func TestRegister_NonCallableIsNoOp(t *testing.T) {
	var order []string
	mark := func(label string) { order = append(order, label) }

	c := aspect.New(aspect.WithLogger(quietLogger())).
		RegisterBefore("not callable").
		RegisterBefore(mark, "b").
		SetTarget(42).
		SetTarget(mark, "t").
		RegisterAfter(nil).
		RegisterAfter(mark, "a").
		RegisterAfterEnsured(struct{}{})

	if c.Err() != nil {
		t.Fatalf("non-callable registrations recorded error: %v", c.Err())
	}

	res, err := c.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err() != nil {
		t.Fatalf("result error: %v", res.Err())
	}

	// The non-callable SetTarget(42) was a no-op, so SetTarget(mark, "t")
	// became the real target without a double-set error.
	want := []string{"b", "t", "a"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestExecute_NoTargetIsNoOp(t *testing.T) {
	var order []string
	mark := func(label string) { order = append(order, label) }

	res, err := aspect.New(aspect.WithLogger(quietLogger())).
		RegisterBefore(mark, "b").
		RegisterAfter(mark, "a").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value() != nil {
		t.Errorf("Value = %v, want nil", res.Value())
	}

	want := []string{"b", "a"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestExecute_BeforeErrorAbortsRun(t *testing.T) {
	bad := errors.New("bad setup")
	var order []string
	mark := func(label string) { order = append(order, label) }

	_, err := aspect.New(aspect.WithLogger(quietLogger())).
		RegisterBefore(func() error { order = append(order, "b1"); return bad }).
		SetTarget(mark, "t").
		RegisterAfterEnsured(mark, "ensured").
		Execute(context.Background())
	if !errors.Is(err, bad) {
		t.Fatalf("Execute error = %v, want %v", err, bad)
	}

	if strings.Join(order, ",") != "b1" {
		t.Errorf("order = %v, want [b1] (target and ensured skipped)", order)
	}
}

func TestCompile_SnapshotsConfiguration(t *testing.T) {
	var order []string
	mark := func(label string) { order = append(order, label) }

	c := aspect.New(aspect.WithLogger(quietLogger())).
		SetTarget(mark, "t")

	x, err := c.Compile()
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	// Registrations after Compile must not reach the executable.
	c.RegisterAfter(mark, "late")

	res := x.Execute(context.Background())
	if res.Err() != nil {
		t.Fatalf("result error: %v", res.Err())
	}
	if strings.Join(order, ",") != "t" {
		t.Errorf("order = %v, want [t]", order)
	}

	// A fresh compile picks the late registration up.
	order = nil
	x2, err := c.Compile()
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if res := x2.Execute(context.Background()); res.Err() != nil {
		t.Fatalf("result error: %v", res.Err())
	}
	want := []string{"t", "late"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestCompile_IndependentExecutables(t *testing.T) {
	runs := 0
	c := aspect.New(aspect.WithLogger(quietLogger())).
		SetTarget(func() { runs++ })

	x1, err := c.Compile()
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	x2, err := c.Compile()
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if x1.Plan().ID().String() == x2.Plan().ID().String() {
		t.Error("independent compiles share a plan ID")
	}

	x1.Execute(context.Background())
	x1.Execute(context.Background())
	x2.Execute(context.Background())

	if runs != 3 {
		t.Errorf("runs = %d, want 3", runs)
	}
}

func TestSetAsyncTarget_DefersSideEffects(t *testing.T) {
	manual := &sched.Manual{}
	ran := false

	res, err := aspect.New(
		aspect.WithLogger(quietLogger()),
		aspect.WithScheduler(manual),
	).
		SetAsyncTarget(func() int { ran = true; return 9 }).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Synchronous observation immediately after Execute: nothing yet.
	if ran {
		t.Fatal("target ran before the scheduler turn")
	}
	if res.Resolved() {
		t.Fatal("result resolved before the scheduler turn")
	}

	if n := manual.RunAll(); n != 1 {
		t.Fatalf("RunAll = %d, want 1", n)
	}

	if !ran {
		t.Error("target did not run on the scheduler turn")
	}
	v, werr := res.Wait(context.Background())
	if werr != nil {
		t.Fatalf("Wait error: %v", werr)
	}
	if v != 9 {
		t.Errorf("Wait value = %v, want 9", v)
	}
}

func TestSetAsyncTarget_BeforePhaseStaysSynchronous(t *testing.T) {
	manual := &sched.Manual{}
	var order []string
	mark := func(label string) { order = append(order, label) }

	_, err := aspect.New(
		aspect.WithLogger(quietLogger()),
		aspect.WithScheduler(manual),
	).
		RegisterBefore(mark, "b").
		SetAsyncTarget(mark, "t").
		RegisterAfter(mark, "a").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Before ran inside Execute; target and after wait for the scheduler.
	if strings.Join(order, ",") != "b" {
		t.Fatalf("order = %v, want [b]", order)
	}

	manual.RunAll()

	want := []string{"b", "t", "a"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestSetAsyncTarget_BeforeErrorPropagatesSynchronously(t *testing.T) {
	manual := &sched.Manual{}
	bad := errors.New("bad setup")

	res, err := aspect.New(
		aspect.WithLogger(quietLogger()),
		aspect.WithScheduler(manual),
	).
		RegisterBefore(func() error { return bad }).
		SetAsyncTarget(func() {}).
		Execute(context.Background())
	if !errors.Is(err, bad) {
		t.Fatalf("Execute error = %v, want %v", err, bad)
	}
	if !res.Resolved() {
		t.Error("result should resolve with the before-phase error")
	}
	if manual.Len() != 0 {
		t.Error("nothing should reach the scheduler after a before failure")
	}
}

func TestExecute_TargetErrorWithEnsured_E2E(t *testing.T) {
	boom := errors.New("boom")
	cleanups := 0

	res, err := aspect.New(aspect.WithLogger(quietLogger())).
		SetTarget(func() error { return boom }).
		RegisterAfterEnsured(func() { cleanups++ }).
		Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Execute error = %v, want %v", err, boom)
	}
	if !errors.Is(res.Err(), boom) {
		t.Errorf("result error = %v, want %v", res.Err(), boom)
	}
	if cleanups != 1 {
		t.Errorf("cleanup ran %d times, want exactly 1", cleanups)
	}
}
