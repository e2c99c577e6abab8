// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes Prometheus collectors for the election service.

Collectors are registered on the default registry at init:

	quickly_vote_vote_outcomes_total{outcome}
	quickly_vote_poll_failures_total
	quickly_vote_phase
	quickly_vote_remaining_seconds
	quickly_vote_subscribers
	quickly_vote_http_request_duration_seconds{method,path}

Serve them with:

	mux.Handle("GET /metrics", metrics.Handler())
*/
package metrics
