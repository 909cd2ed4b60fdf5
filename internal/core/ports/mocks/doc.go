// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that mirrors the Postgres store's semantics
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for seeding and inspecting state directly
//   - Call counters for asserting on round-trips
//
// # Usage Example
//
//	func TestPipeline(t *testing.T) {
//		store := mocks.NewStore()
//		store.AddWatchItem(domain.WatchItem{ID: "w1", Status: domain.WatchStatusActive})
//
//		p := firehose.New(store, ...)
//		// ... run and inspect store.ProcessedPairs()
//	}
//
// # Available Mocks
//
//   - Store: implements ports.FirehoseStore and ports.RunLocker
//   - PushSender: implements ports.PushSender
//   - Reporter: implements ports.RunReporter
package mocks
