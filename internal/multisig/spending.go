/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package multisig

import (
	"math"
	"time"

	"multisig-wallet-go/internal/models"
)

const (
	secondsPerDay   = 86400
	secondsPerMonth = secondsPerDay * 30
)

// DayIndex is the number of whole days since the unix epoch.
func DayIndex(t time.Time) int64 {
	return t.Unix() / secondsPerDay
}

// MonthIndex counts fixed 30-day periods since the unix epoch.
func MonthIndex(t time.Time) int64 {
	return t.Unix() / secondsPerMonth
}

// NewSpendingLimit returns a limit with zeroed counters anchored at now.
func NewSpendingLimit(walletId, assetClass string, daily, monthly uint64, now time.Time) *models.SpendingLimit {
	return &models.SpendingLimit{
		WalletId:       walletId,
		AssetClass:     assetClass,
		DailyLimit:     daily,
		MonthlyLimit:   monthly,
		LastResetDay:   DayIndex(now),
		LastResetMonth: MonthIndex(now),
		UpdatedAt:      now,
	}
}

// roll zeroes each counter whose period has advanced past its marker.
func roll(l *models.SpendingLimit, now time.Time) {
	if day := DayIndex(now); day > l.LastResetDay {
		l.DailySpent = 0
		l.LastResetDay = day
	}
	if month := MonthIndex(now); month > l.LastResetMonth {
		l.MonthlySpent = 0
		l.LastResetMonth = month
	}
}

func within(spent, amount, limit uint64) bool {
	if limit == 0 {
		return true
	}
	if amount > math.MaxUint64-spent {
		return false
	}
	return spent+amount <= limit
}

func fits(l *models.SpendingLimit, amount uint64) bool {
	return within(l.DailySpent, amount, l.DailyLimit) && within(l.MonthlySpent, amount, l.MonthlyLimit)
}

// CheckAndReserve rolls the periods and, if amount fits both caps, adds it to
// both counters. On failure the counters keep their pre-call values. A nil
// limit means nothing is configured and always succeeds.
func CheckAndReserve(l *models.SpendingLimit, amount uint64, now time.Time) bool {
	if l == nil {
		return true
	}
	staged := *l
	roll(&staged, now)
	if !fits(&staged, amount) {
		return false
	}
	staged.DailySpent += amount
	staged.MonthlySpent += amount
	staged.UpdatedAt = now
	*l = staged
	return true
}

// ReserveSaturating rolls the periods and records amount against both
// counters, clamping each at its cap. It is used when unanimous approval
// overrides the cap, so later spends in the period still see the outflow.
func ReserveSaturating(l *models.SpendingLimit, amount uint64, now time.Time) {
	if l == nil {
		return
	}
	roll(l, now)
	l.DailySpent = saturatingAdd(l.DailySpent, amount, l.DailyLimit)
	l.MonthlySpent = saturatingAdd(l.MonthlySpent, amount, l.MonthlyLimit)
	l.UpdatedAt = now
}

func saturatingAdd(spent, amount, limit uint64) uint64 {
	ceiling := limit
	if ceiling == 0 {
		ceiling = math.MaxUint64
	}
	if amount > ceiling-min(spent, ceiling) {
		return ceiling
	}
	return spent + amount
}

// WithinLimit is the advisory form of CheckAndReserve and never mutates l.
func WithinLimit(l *models.SpendingLimit, amount uint64, now time.Time) bool {
	if l == nil {
		return true
	}
	c := *l
	return CheckAndReserve(&c, amount, now)
}
