// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package journal

import "time"

// MigrateStore upgrades legacy entries in place and returns the store.
// Entries written by old versions may lack rawInput (backfilled from content)
// and updatedAt (backfilled from date, or now when both are absent).
// The migration is idempotent: running it on an already-migrated store
// changes nothing.
func MigrateStore(s Store, now time.Time) Store {
	if s == nil {
		return Store{}
	}
	fallback := FormatTime(now)
	for _, log := range s {
		if log == nil {
			continue
		}
		for _, r := range log.Reflections {
			migrateReflection(r, fallback)
		}
	}
	return s
}

func migrateReflection(r *Reflection, fallback string) {
	if r == nil {
		return
	}
	if r.RawInput == "" {
		r.RawInput = r.Content
	}
	if r.UpdatedAt == "" {
		if r.Date != "" {
			r.UpdatedAt = r.Date
		} else {
			r.UpdatedAt = fallback
		}
	}
}
