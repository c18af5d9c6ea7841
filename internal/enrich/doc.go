// Package enrich runs reputation checks over a staleness selection.
//
// Every candidate gets exactly one recorded outcome or stops the run:
//
//	success  scores written, last check set to now
//	skip     marked blocked, never selected again
//	retry    wait out the quota cooldown, then one more attempt; a second
//	         retry aborts with errors.ErrQuotaExhausted
//	fatal    abort without touching the record
//
// Calls are spaced by a minimum interval and a run stops after the daily cap.
package enrich
