// Package codec holds the document codecs used off the message wire:
// JSON for the registry's TCP protocol, CBOR for records persisted in the
// in-memory store. Typed channel payloads never pass through here; their
// format is owned by pkg/schema.
package codec

// Codec marshals and unmarshals self-describing documents. Implementations
// must be deterministic and safe for concurrent use.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
