// Package simplecms provides a dynamic content-type and content-entry engine
// with pluggable repository backends.
//
// Operators define ContentTypes (schemas made of typed fields) and then
// create, edit, and publish ContentEntries that conform to them. The Service
// interface covers schema storage, field-level validation, slug allocation,
// and the publication workflow (DRAFT, PUBLISHED, SCHEDULED, ARCHIVED).
// Repository implementations (memory, Postgres) live under repo/.
//
// Field Values
//
// An entry stores only field ids and string values. Field names, display
// names, and types are resolved through the owning ContentType at read time,
// so editing a schema never leaves stale copies behind.
//
// Concurrency
//
// Content type writes are serialized process-wide. Entry writes are
// serialized per content type, which makes the slug and unique-field checks
// atomic with the insert or update that follows them.
package simplecms
