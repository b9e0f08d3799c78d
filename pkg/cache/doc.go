// Package cache provides the shared cache backend used by the authorization
// context resolvers.
//
// # Overview
//
// Two interchangeable backends sit behind the Store interface:
//
//   - RedisStore: a direct socket connection via go-redis. Used in
//     development and self-hosted deployments.
//   - RESTStore: an Upstash-style managed HTTP cache API. Used in
//     production where no direct Redis connection is available.
//
// The backend is selected once at process start through Config.Backend and
// injected into the resolvers; call sites never branch on environment.
//
// # Semantics
//
// Both backends guarantee the same four operations with identical
// semantics: Get (absent is not an error), SetEx (TTL in seconds), Del
// (idempotent, returns count removed) and Keys (glob-style pattern scan).
// Values are always strings; callers serialize structured records before
// storage.
//
// # Failure policy
//
// The Store returns backend errors verbatim. The authorization layer treats
// the cache as best effort: a read error degrades to a miss and falls
// through to the source of record, a write error is logged and dropped. A
// cache outage must never fail a request that the database could serve.
package cache
