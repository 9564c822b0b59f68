// Package sanitizer normalizes user supplied text before it is validated and
// persisted: event titles, locations, special requests, review comments and
// refund reasons.
//
// Normalizers are pure functions and compose through Pipeline.
package sanitizer
