package runner

import "context"

// Operation is the work a Runner executes during setup, warmup and
// measurement. A false result with a nil error is an explicit failure
// signal; a non-nil error or a panic is a fault.
type Operation interface {
	Invoke(ctx context.Context, index int, r *Runner) (bool, error)
}

// Func adapts a closure that needs neither the repetition index nor the
// runner handle.
type Func func(ctx context.Context) (bool, error)

func (f Func) Invoke(ctx context.Context, _ int, _ *Runner) (bool, error) {
	return f(ctx)
}

// IndexedFunc adapts a closure that receives the repetition index and the
// runner handle.
type IndexedFunc func(ctx context.Context, index int, r *Runner) (bool, error)

func (f IndexedFunc) Invoke(ctx context.Context, index int, r *Runner) (bool, error) {
	return f(ctx, index, r)
}

// Action adapts a closure that gives no explicit result; it succeeds unless
// it returns an error.
func Action(fn func(ctx context.Context) error) Operation {
	return Func(func(ctx context.Context) (bool, error) {
		if err := fn(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
}

// invoke runs op and converts a panic into a PanicError.
func invoke(ctx context.Context, op Operation, index int, r *Runner) (ok bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			ok = false
			err = &PanicError{Value: v}
		}
	}()
	return op.Invoke(ctx, index, r)
}
