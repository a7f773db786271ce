// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package chain

import (
	"fmt"
)

// OpType enumerates the operation kinds the protocol defines. An unknown
// kind is a hard error; dropping it silently would corrupt every table and
// statistic derived from operations.
type OpType byte

const (
	OpTypeEndorsement OpType = iota
	OpTypeSeedNonceRevelation
	OpTypeActivateAccount
	OpTypeReveal
	OpTypeTransaction
	OpTypeOrigination
	OpTypeDelegation
	OpTypeDoubleBakingEvidence
	OpTypeDoubleEndorsementEvidence
	OpTypeProposals
	OpTypeBallot
	OpTypeInvalid
)

var (
	ErrUnknownOpType = fmt.Errorf("unknown operation type")

	opTypeStrings = map[OpType]string{
		OpTypeEndorsement:               "endorsement",
		OpTypeSeedNonceRevelation:       "seed_nonce_revelation",
		OpTypeActivateAccount:           "activate_account",
		OpTypeReveal:                    "reveal",
		OpTypeTransaction:               "transaction",
		OpTypeOrigination:               "origination",
		OpTypeDelegation:                "delegation",
		OpTypeDoubleBakingEvidence:      "double_baking_evidence",
		OpTypeDoubleEndorsementEvidence: "double_endorsement_evidence",
		OpTypeProposals:                 "proposals",
		OpTypeBallot:                    "ballot",
	}

	opTypeValues map[string]OpType
)

func init() {
	opTypeValues = make(map[string]OpType)
	for t, s := range opTypeStrings {
		opTypeValues[s] = t
	}
}

func ParseOpType(s string) (OpType, error) {
	t, ok := opTypeValues[s]
	if !ok {
		return OpTypeInvalid, fmt.Errorf("%w %q", ErrUnknownOpType, s)
	}
	return t, nil
}

func (t OpType) IsValid() bool {
	return t < OpTypeInvalid
}

func (t OpType) String() string {
	s, ok := opTypeStrings[t]
	if !ok {
		return "invalid"
	}
	return s
}

func (t OpType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *OpType) UnmarshalText(data []byte) error {
	typ, err := ParseOpType(string(data))
	if err != nil {
		return err
	}
	*t = typ
	return nil
}

// OpTypes lists all valid kinds in protocol order.
func OpTypes() []OpType {
	all := make([]OpType, 0, int(OpTypeInvalid))
	for t := OpTypeEndorsement; t < OpTypeInvalid; t++ {
		all = append(all, t)
	}
	return all
}
