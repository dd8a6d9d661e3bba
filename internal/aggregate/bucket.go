package aggregate

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

var (
	// ErrInvalidWidth is returned for bucket widths that are zero or negative
	ErrInvalidWidth = errors.New("bucket width must be positive")
	// ErrOutOfRange is returned when a bucket start has no Unix nanosecond key
	ErrOutOfRange = errors.New("time outside the bucketable range")
)

// Bucket identifies a time bucket by its start, in Unix nanoseconds
type Bucket int64

// Time returns the bucket start in loc
func (b Bucket) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(0, int64(b)).In(loc)
}

const nanosPerSecond = int64(time.Second)

// FloorToBucket returns the start of the epoch-aligned bucket of the given
// width that contains t. The result is the same instant for any location of
// t and keeps t's location. Timestamps before 1970 floor toward negative
// infinity.
func FloorToBucket(t time.Time, width time.Duration) (time.Time, error) {
	if width <= 0 {
		return time.Time{}, ErrInvalidWidth
	}
	return t.Add(-time.Duration(remainder(t, width))), nil
}

// BucketOf floors t and returns the bucket key
func BucketOf(t time.Time, width time.Duration) (Bucket, error) {
	start, err := FloorToBucket(t, width)
	if err != nil {
		return 0, err
	}
	return bucketKey(t, start)
}

func bucketKey(t, start time.Time) (Bucket, error) {
	if !domain.OnTimeline(start) || !domain.OnTimeline(t) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, t.Format(time.RFC3339Nano))
	}
	return Bucket(start.UnixNano()), nil
}

// remainder computes floorMod(sec*1e9 + nsec, width) without overflowing,
// using 128-bit intermediates.
func remainder(t time.Time, width time.Duration) uint64 {
	w := int64(width)
	uw := uint64(w)

	sec := t.Unix() % w
	if sec < 0 {
		sec += w
	}

	hi, lo := bits.Mul64(uint64(sec), uint64(nanosPerSecond%w))
	r := bits.Rem64(hi, lo, uw)

	// r < width <= MaxInt64 and nsec < 1e9, so the sum fits in uint64
	return (r + uint64(t.Nanosecond())) % uw
}

// Interval is a validated, positive bucket width
type Interval struct {
	width time.Duration
}

// NewInterval validates width once so update paths never see a zero width
func NewInterval(width time.Duration) (Interval, error) {
	if width <= 0 {
		return Interval{}, ErrInvalidWidth
	}
	return Interval{width: width}, nil
}

// MustInterval is NewInterval for constant widths
func MustInterval(width time.Duration) Interval {
	iv, err := NewInterval(width)
	if err != nil {
		panic(err)
	}
	return iv
}

// Width returns the bucket width
func (iv Interval) Width() time.Duration { return iv.width }

// Bucket returns the bucket containing t. Instants whose bucket start falls
// outside domain.MinTime..MaxTime return ErrOutOfRange.
func (iv Interval) Bucket(t time.Time) (Bucket, error) {
	return bucketKey(t, t.Add(-time.Duration(remainder(t, iv.width))))
}
