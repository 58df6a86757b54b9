package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize/english"
)

const day = 24 * time.Hour

// Bucket is the label classification of a due date.
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketDueSoon  Bucket = "due-soon"
	BucketUpcoming Bucket = "upcoming"
	BucketSafe     Bucket = "safe"
)

// Tier is the color classification of a due date. Its cutoffs (3 and 7 days)
// differ from the label buckets and are evaluated separately.
type Tier string

const (
	TierOverdue Tier = "overdue"
	TierUrgent  Tier = "urgent"
	TierSoon    Tier = "soon"
	TierSafe    Tier = "safe"
)

// DueStatus describes a due date relative to now.
type DueStatus struct {
	Days   int    `json:"days"`
	Bucket Bucket `json:"bucket"`
	Label  string `json:"label"`
	Tier   Tier   `json:"tier"`
}

// DayDiff is the number of days from now until due, rounded up.
func DayDiff(due, now time.Time) int {
	return int(math.Ceil(float64(due.Sub(now)) / float64(day)))
}

// ClassifyDueDate computes the label bucket and the color tier from the same
// day difference.
func ClassifyDueDate(due, now time.Time) DueStatus {
	d := DayDiff(due, now)
	bucket, label := labelFor(d)
	return DueStatus{
		Days:   d,
		Bucket: bucket,
		Label:  label,
		Tier:   tierFor(d),
	}
}

func labelFor(d int) (Bucket, string) {
	switch {
	case d < 0:
		return BucketOverdue, "Overdue by " + english.Plural(-d, "day", "")
	case d == 0:
		return BucketDueSoon, "Due today"
	case d == 1:
		return BucketDueSoon, "Due tomorrow"
	case d <= 7:
		return BucketUpcoming, fmt.Sprintf("%d days remaining", d)
	default:
		return BucketSafe, fmt.Sprintf("%d days remaining", d)
	}
}

func tierFor(d int) Tier {
	switch {
	case d < 0:
		return TierOverdue
	case d <= 3:
		return TierUrgent
	case d <= 7:
		return TierSoon
	default:
		return TierSafe
	}
}
