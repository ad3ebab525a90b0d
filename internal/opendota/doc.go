// Package opendota is a small client for the OpenDota REST API covering the
// endpoints matchreel needs: a player's recent and dated match history, full
// match records, and the hero/item/patch constants tables.
//
// Every call enforces a per-request timeout and an optional client-side rate
// limit. Non-2xx statuses and payloads that do not decode into the expected
// shape surface as *ProviderError, which unwraps to services.ErrProvider.
package opendota
