// This package contains the main [Codec] interface and several implementations inside subpackages.
package codec

// Codec converts queue items to and from their stored byte form.
//
// Implementations must round-trip exactly: Decode(Encode(x)) == x for every
// representable x. Decoding truncated or corrupted bytes must return an error,
// never a fabricated value.
type Codec[Item any] interface {
	// Encode serializes an item into a byte slice.
	Encode(item Item) ([]byte, error)
	// Decode deserializes a byte slice back into an item.
	Decode(data []byte) (Item, error)
}
