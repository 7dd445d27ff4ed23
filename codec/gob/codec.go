package gob

import (
	"bytes"
	"encoding/gob"

	"github.com/mlevan/sluice/codec"
)

// Codec encodes items with encoding/gob.
//
// Every item is encoded as a self-contained gob stream, so values written by
// one process decode in another regardless of order.
type Codec[Item any] struct{}

var _ codec.Codec[any] = (*Codec[any])(nil)

func New[Item any]() *Codec[Item] {
	return &Codec[Item]{}
}

func (c *Codec[Item]) Encode(item Item) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&item); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec[Item]) Decode(data []byte) (Item, error) {
	var item Item
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&item); err != nil {
		return item, err
	}
	return item, nil
}
