package domain

import (
	"errors"
	"fmt"
	"time"
)

// MediaCaptureLag keeps captures out of the final seconds of a capsule.
const MediaCaptureLag = 20 * time.Second

var ErrNoCaptureWindow = errors.New("no capture window")

// Budget describes the capsule time a capture has to fit into.
type Budget struct {
	Duration time.Duration
	Lag      time.Duration
}

// Window returns the inclusive whole-second delay range inside [T/10, T-L]:
// T/10 rounded up, T-L rounded down.
func (b Budget) Window() (time.Duration, time.Duration, error) {
	if b.Duration < time.Second {
		return 0, 0, fmt.Errorf("%w: capsule duration %s", ErrNoCaptureWindow, b.Duration)
	}
	lo := int64((b.Duration/10 + time.Second - 1) / time.Second)
	hi := int64((b.Duration - b.Lag) / time.Second)
	if hi < lo {
		return 0, 0, fmt.Errorf("%w: lag %s leaves nothing of %s", ErrNoCaptureWindow, b.Lag, b.Duration)
	}
	return time.Duration(lo) * time.Second, time.Duration(hi) * time.Second, nil
}

// PickDelay draws a uniformly distributed whole-second delay inside the window.
// intn must return a value in [0, n).
func PickDelay(b Budget, intn func(n int) int) (time.Duration, error) {
	lo, hi, err := b.Window()
	if err != nil {
		return 0, err
	}
	span := int((hi - lo) / time.Second)
	return lo + time.Duration(intn(span+1))*time.Second, nil
}
