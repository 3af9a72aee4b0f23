// Package live fans server-side mutations out to connected console
// sessions over Server-Sent Events, with Redis pub/sub as the transport
// between application instances.
package live

import "encoding/json"

// Named event kinds consumed by the console.
const (
	EventCategoryCreated = "category.created"
	EventCategoryUpdated = "category.updated"
	EventCategoryDeleted = "category.deleted"
	EventRowUpserted     = "row.upserted"
	EventRowBulkUpserted = "row.bulkUpserted"
	EventRowDeleted      = "row.deleted"
	EventPrefixSet       = "prefix.set"
	EventMessageNew      = "message.new"
)

// Event is the wire envelope for one push notification. Events are
// transient; they exist only on the wire and are never persisted.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}
