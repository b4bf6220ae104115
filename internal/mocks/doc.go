// Package mocks provides centralized mock implementations for testing.
//
// Each mock exposes function fields for per-test overrides and falls back
// to a simple in-memory default implementation, so most tests only need to
// override the one method under scrutiny. The user and car stores can be
// linked so user lookups see the cars owned by each user, matching the
// shape real store implementations return.
package mocks
