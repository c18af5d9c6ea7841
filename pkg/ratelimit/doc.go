// Package ratelimit paces outbound calls to the listing and scoring APIs.
//
// Interval enforces a minimum gap between consecutive calls; the scoring
// service allows one request per second. SlidingWindow caps the number of
// calls within a moving window, matching the listing API's 15 requests per
// 15 minutes.
//
// Both implement Limiter. Wait is context-aware and both accept a Clock so
// tests can advance time without sleeping.
package ratelimit
