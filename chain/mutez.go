// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package chain

import (
	"bytes"
	"fmt"

	"github.com/ericlagergren/decimal"
)

// Mutez is a micro-tez amount. The RPC encodes amounts as quoted decimal
// strings; older protocol versions emitted bare numbers for a few fields,
// so both forms decode.
type Mutez int64

func (m Mutez) Int64() int64 {
	return int64(m)
}

func ParseMutez(s string) (Mutez, error) {
	big, ok := new(decimal.Big).SetString(s)
	if !ok {
		return 0, fmt.Errorf("invalid mutez amount %q", s)
	}
	v, ok := big.Int64()
	if !ok {
		return 0, fmt.Errorf("mutez amount %q overflows int64", s)
	}
	return Mutez(v), nil
}

func (m *Mutez) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	v, err := ParseMutez(string(data))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mutez) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%d"`, int64(m))), nil
}
