/*
Package game
File: offline.go
Description:
    Offline Reconciliation: computes what the producers earned while the
    process was not running.

    Policy: earnings are prorated over any positive gap and capped at
    Tuning.MaxOfflineSeconds. There is no minimum absence before earnings
    start. A notice is produced only when the credit reaches the notice
    threshold; smaller amounts are credited silently.
*/

package game

import (
	"math"
	"time"
)

// Reconcile computes offline earnings between lastSavedAt and resumedAt.
// It is pure: the caller credits the ledger with ApplyOffline.
func Reconcile(lastSavedAt, resumedAt time.Time, rate float64, tuning Tuning) OfflineResult {
	tuning = tuning.WithDefaults()

	// 1. Never saved, or nothing produces
	if lastSavedAt.IsZero() || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return OfflineResult{Elapsed: nonNegativeGap(lastSavedAt, resumedAt)}
	}

	// 2. Clock skew counts as zero elapsed time
	elapsed := nonNegativeGap(lastSavedAt, resumedAt)
	if elapsed == 0 {
		return OfflineResult{}
	}

	// 3. Cap the earning window, not the reported absence
	capped := math.Min(elapsed.Seconds(), tuning.MaxOfflineSeconds)
	earnings := rate * capped

	res := OfflineResult{
		Elapsed:  elapsed,
		Credited: earnings,
	}
	if earnings >= tuning.OfflineNoticeThreshold {
		res.Notice = &OfflineNotice{
			MinutesAway:  int(elapsed / time.Minute),
			AmountEarned: earnings,
		}
	}
	return res
}

func nonNegativeGap(from, to time.Time) time.Duration {
	if from.IsZero() {
		return 0
	}
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d
}
