package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(action Action) (uint, error)
}

type retrier []Strategy

// NewRetrier returns a Retrier bound to strategies. Without strategies the
// action is retried in a tight loop until it succeeds.
func NewRetrier(strategies ...Strategy) Retrier {
	return retrier(strategies)
}

func (r retrier) Retry(action Action) (uint, error) {
	return Retry(action, r...)
}

// Retry runs action until it succeeds or a strategy declines another
// attempt. It returns the number of attempts made.
//
// Strategies are consulted in order, so delaying strategies belong last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil || !allow(strategies, attempts, err) {
			return attempts, err
		}
	}
}

// Loop runs action forever, resetting the attempt count after every success,
// and returns the first error a strategy declines to retry.
func Loop(action Action, strategies ...Strategy) error {
	var failures uint
	for {
		err := action()
		if err == nil {
			failures = 0
			continue
		}

		failures++
		if !allow(strategies, failures, err) {
			return err
		}
	}
}

func allow(strategies []Strategy, attempts uint, err error) bool {
	for _, s := range strategies {
		if !s(attempts, err) {
			return false
		}
	}
	return true
}
