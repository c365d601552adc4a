// Package domain contains the core business entities, value objects, and
// domain logic of the application: memos, tags, the associations between
// them, and the value types used by bulk tag enrichment. It is independent of
// any specific infrastructure or delivery mechanism.
package domain
