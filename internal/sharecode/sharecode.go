// Package sharecode turns review ids into short opaque codes for share
// links, so public URLs don't expose raw sequence numbers.
package sharecode

import (
	"fmt"

	"github.com/speps/go-hashids/v2"
)

type Codec struct {
	h *hashids.HashID
}

func NewCodec(salt string, minLength int) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init sharecode codec: %w", err)
	}
	return &Codec{h: h}, nil
}

func (c *Codec) Encode(id int64) (string, error) {
	return c.h.EncodeInt64([]int64{id})
}

func (c *Codec) Decode(code string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(code)
	if err != nil {
		return 0, fmt.Errorf("invalid share code: %w", err)
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("invalid share code")
	}
	return ids[0], nil
}
