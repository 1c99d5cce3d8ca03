// Package backend provides the Snapshelf API server.
//
// Snapshelf is a friends-only photo sharing service: users post images,
// comment, like, and save posts into private or shared collections.
//
// The entry points live under cmd/:
//
//   - cmd/server: HTTP API and live post websocket
//   - cmd/migrate: schema migrations
//   - cmd/seed: development and test data
//   - cmd/cli: command-line client for the API
//
// Most of the code lives in internal/:
//
//   - internal/handlers: HTTP request handlers for all API endpoints
//   - internal/service: business rules for posts, comments, collections and friends
//   - internal/repository: GORM data access
//   - internal/models: data models and database schemas
//   - internal/realtime: websocket fan-out of post changes
//   - internal/notify: outbox dispatch of notifications to Stream.io
//   - internal/queue: background job processing
//   - internal/search: Elasticsearch post index
//   - internal/storage: S3 image storage
//   - internal/cache: Redis and in-memory caches
//   - internal/middleware: auth, rate limiting, logging, metrics and tracing
package backend
