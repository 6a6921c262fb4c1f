package result

// Result is a discriminated success/failure value. Failures carry a
// tagged error (pkg/errors.AppError) so callers can branch per kind.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) Success() bool {
	return r.err == nil
}

func (r Result[T]) Failure() bool {
	return r.err != nil
}

// Value returns the success payload; zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Error() error {
	return r.err
}

// Step is one stage of a pipeline. Run transforms the payload or fails
// the whole pipeline. Rollback, when set, is a compensating action
// invoked with this step's successful output if a later step fails.
type Step[T any] struct {
	Run      func(T) Result[T]
	Rollback func(T)
}

type completedStep[T any] struct {
	rollback func(T)
	output   T
}

// Run executes steps in order, short-circuiting on the first failure.
// On failure, rollback hooks of already-completed steps fire in reverse
// order before the failure is returned.
func Run[T any](payload T, steps ...Step[T]) Result[T] {
	var completed []completedStep[T]

	for _, step := range steps {
		res := step.Run(payload)
		if res.Failure() {
			for i := len(completed) - 1; i >= 0; i-- {
				completed[i].rollback(completed[i].output)
			}
			return res
		}
		payload = res.Value()
		if step.Rollback != nil {
			completed = append(completed, completedStep[T]{rollback: step.Rollback, output: payload})
		}
	}

	return Ok(payload)
}
