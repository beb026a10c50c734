package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

// Backoff decides how long to wait before the given retry. The second result
// is true once no further retry may be attempted.
type Backoff interface {
	Delay(retry uint) (time.Duration, bool)
}

type never struct{}

func Never() Backoff {
	return never{}
}

func (never) Delay(uint) (time.Duration, bool) {
	return 0, true
}

type Jitter func(int64) int64

// Exponential doubles Base on every retry, capped at Max, and gives up after
// MaxRetries. Jitter defaults to full jitter over [0, delay).
type Exponential struct {
	Base       time.Duration
	Max        time.Duration
	MaxRetries uint
	Jitter     Jitter
}

func (e *Exponential) Delay(retry uint) (time.Duration, bool) {
	if retry >= e.MaxRetries {
		return 0, true
	}

	capped := int64(e.Max)
	if retry < 63 {
		if delay, err := checkedMulInt64(1<<retry, int64(e.Base)); err == nil {
			capped = minOf(delay, int64(e.Max))
		}
	}

	return time.Duration(e.jitter()(capped)), false
}

func (e *Exponential) jitter() Jitter {
	if e.Jitter != nil {
		return e.Jitter
	}
	return func(n int64) int64 {
		if n <= 0 {
			return 0
		}
		return rand.Int63n(n)
	}
}

func minOf[T constraints.Ordered](l T, r T) T {
	if l > r {
		return r
	}
	return l
}

var ErrOverflow = errors.New("overflow")

func checkedMulInt64(l int64, r int64) (int64, error) {
	if l == 0 || r == 0 {
		return 0, nil
	}
	if l > math.MaxInt64/r {
		return 0, ErrOverflow
	}
	return l * r, nil
}
