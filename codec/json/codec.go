package json

import (
	"encoding/json"

	"github.com/mlevan/sluice/codec"
)

// Codec encodes items as JSON.
type Codec[Item any] struct{}

var _ codec.Codec[any] = (*Codec[any])(nil)

func New[Item any]() *Codec[Item] {
	return &Codec[Item]{}
}

func (c *Codec[Item]) Encode(item Item) ([]byte, error) {
	return json.Marshal(item)
}

func (c *Codec[Item]) Decode(data []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return item, err
	}
	return item, nil
}
