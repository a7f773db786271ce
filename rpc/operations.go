// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"tezos_etl/chain"
)

// Operation is implemented by all decoded operation kinds.
type Operation interface {
	OpKind() chain.OpType
}

// GenericOp is embedded by every typed operation and carries the kind tag.
type GenericOp struct {
	Kind string `json:"kind"`
}

func (e GenericOp) OpKind() chain.OpType {
	t, _ := chain.ParseOpType(e.Kind)
	return t
}

// OperationGroup collects the operations sharing one signature inside a
// block. Custom unmarshalling dispatches contents on their kind tag.
type OperationGroup struct {
	Protocol  chain.ProtocolHash `json:"protocol"`
	ChainId   chain.ChainID      `json:"chain_id"`
	Hash      chain.OpHash       `json:"hash"`
	Branch    chain.BlockHash    `json:"branch"`
	Signature string             `json:"signature"`
	Contents  []Operation        `json:"-"`
}

func (g *OperationGroup) UnmarshalJSON(data []byte) error {
	type alias OperationGroup
	aux := struct {
		*alias
		Contents []json.RawMessage `json:"contents"`
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.Contents = make([]Operation, 0, len(aux.Contents))
	for _, raw := range aux.Contents {
		op, err := ParseOperation(raw)
		if err != nil {
			return err
		}
		g.Contents = append(g.Contents, op)
	}
	return nil
}

// ParseOperation peeks the kind tag and unmarshals into the matching typed
// struct. An unknown kind is a hard error.
func ParseOperation(data []byte) (Operation, error) {
	var peek GenericOp
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, err
	}
	typ, err := chain.ParseOpType(peek.Kind)
	if err != nil {
		return nil, err
	}
	var op Operation
	switch typ {
	case chain.OpTypeEndorsement:
		op = &EndorsementOp{}
	case chain.OpTypeSeedNonceRevelation:
		op = &SeedNonceOp{}
	case chain.OpTypeActivateAccount:
		op = &ActivateAccountOp{}
	case chain.OpTypeReveal:
		op = &RevealOp{}
	case chain.OpTypeTransaction:
		op = &TransactionOp{}
	case chain.OpTypeOrigination:
		op = &OriginationOp{}
	case chain.OpTypeDelegation:
		op = &DelegationOp{}
	case chain.OpTypeDoubleBakingEvidence:
		op = &DoubleBakingOp{}
	case chain.OpTypeDoubleEndorsementEvidence:
		op = &DoubleEndorsementOp{}
	case chain.OpTypeProposals:
		op = &ProposalsOp{}
	case chain.OpTypeBallot:
		op = &BallotOp{}
	}
	if err := json.Unmarshal(data, op); err != nil {
		return nil, err
	}
	return op, nil
}

// OpResult is the per-operation execution result carried in metadata.
type OpResult struct {
	Status              string          `json:"status"`
	ConsumedGas         chain.Mutez     `json:"consumed_gas"`
	OriginatedContracts []string        `json:"originated_contracts"`
	Errors              json.RawMessage `json:"errors"`
}

func (r OpResult) IsApplied() bool {
	return r.Status == "applied"
}

// OpMetadata is shared by all manager operations.
type OpMetadata struct {
	OperationResult          OpResult          `json:"operation_result"`
	InternalOperationResults []json.RawMessage `json:"internal_operation_results"`
}

type EndorsementOp struct {
	GenericOp
	Level    int64           `json:"level"`
	Metadata json.RawMessage `json:"metadata"`
}

type SeedNonceOp struct {
	GenericOp
	Level int64  `json:"level"`
	Nonce string `json:"nonce"`
}

type ActivateAccountOp struct {
	GenericOp
	Pkh    string `json:"pkh"`
	Secret string `json:"secret"`
}

type RevealOp struct {
	GenericOp
	Source       string      `json:"source"`
	Fee          chain.Mutez `json:"fee"`
	Counter      chain.Mutez `json:"counter"`
	GasLimit     chain.Mutez `json:"gas_limit"`
	StorageLimit chain.Mutez `json:"storage_limit"`
	PublicKey    string      `json:"public_key"`
	Metadata     OpMetadata  `json:"metadata"`
}

type TransactionOp struct {
	GenericOp
	Source       string          `json:"source"`
	Destination  string          `json:"destination"`
	Amount       chain.Mutez     `json:"amount"`
	Fee          chain.Mutez     `json:"fee"`
	Counter      chain.Mutez     `json:"counter"`
	GasLimit     chain.Mutez     `json:"gas_limit"`
	StorageLimit chain.Mutez     `json:"storage_limit"`
	Parameters   json.RawMessage `json:"parameters"`
	Metadata     OpMetadata      `json:"metadata"`
}

type OriginationOp struct {
	GenericOp
	Source       string          `json:"source"`
	ManagerPk    string          `json:"manager_public_key"`
	Balance      chain.Mutez     `json:"balance"`
	Delegate     string          `json:"delegate"`
	Fee          chain.Mutez     `json:"fee"`
	Counter      chain.Mutez     `json:"counter"`
	GasLimit     chain.Mutez     `json:"gas_limit"`
	StorageLimit chain.Mutez     `json:"storage_limit"`
	Script       json.RawMessage `json:"script"`
	Metadata     OpMetadata      `json:"metadata"`
}

// OriginatedContracts lists the contract addresses created by this
// origination, taken from the operation result.
func (o *OriginationOp) OriginatedContracts() []string {
	return o.Metadata.OperationResult.OriginatedContracts
}

type DelegationOp struct {
	GenericOp
	Source       string      `json:"source"`
	Delegate     string      `json:"delegate"`
	Fee          chain.Mutez `json:"fee"`
	Counter      chain.Mutez `json:"counter"`
	GasLimit     chain.Mutez `json:"gas_limit"`
	StorageLimit chain.Mutez `json:"storage_limit"`
	Metadata     OpMetadata  `json:"metadata"`
}

type DoubleBakingOp struct {
	GenericOp
	BH1 json.RawMessage `json:"bh1"`
	BH2 json.RawMessage `json:"bh2"`
}

type DoubleEndorsementOp struct {
	GenericOp
	OP1 json.RawMessage `json:"op1"`
	OP2 json.RawMessage `json:"op2"`
}

// legacy spellings of the origination manager key field, normalised before
// decoding
var (
	legacyManagerKeys = [][]byte{
		[]byte(`"managerPubkey"`),
		[]byte(`"manager_pubkey"`),
	}
	canonicalManagerKey = []byte(`"manager_public_key"`)
)

func normalizeManagerKey(body []byte) []byte {
	for _, k := range legacyManagerKeys {
		if bytes.Contains(body, k) {
			body = bytes.ReplaceAll(body, k, canonicalManagerKey)
		}
	}
	return body
}

// DecodeOperationGroups parses the `blocks/{hash}/operations` body, an
// array of operation-group arrays (one per validation pass). Authoritative
// data, decode failures fail the cycle.
func DecodeOperationGroups(body []byte) ([]*OperationGroup, error) {
	body = normalizeManagerKey(body)
	var passes [][]*OperationGroup
	if err := json.Unmarshal(body, &passes); err != nil {
		return nil, fmt.Errorf("rpc: decode operations: %w: %s", err, excerpt(body))
	}
	groups := make([]*OperationGroup, 0)
	for _, pass := range passes {
		groups = append(groups, pass...)
	}
	return groups, nil
}

// DecodeTouchedAccounts extracts the distinct account ids referenced by the
// operations in the same body the groups are decoded from. Order follows
// first appearance.
func DecodeTouchedAccounts(body []byte) ([]string, error) {
	groups, err := DecodeOperationGroups(body)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	add := func(addrs ...string) {
		for _, a := range addrs {
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			ids = append(ids, a)
		}
	}
	for _, g := range groups {
		for _, op := range g.Contents {
			switch o := op.(type) {
			case *ActivateAccountOp:
				add(o.Pkh)
			case *RevealOp:
				add(o.Source)
			case *TransactionOp:
				add(o.Source, o.Destination)
			case *OriginationOp:
				add(o.Source, o.Delegate)
				add(o.OriginatedContracts()...)
			case *DelegationOp:
				add(o.Source, o.Delegate)
			}
		}
	}
	return ids, nil
}

func (c *Client) GetBlockOperations(ctx context.Context, hash chain.BlockHash) ([]*OperationGroup, error) {
	body, err := c.Get(ctx, fmt.Sprintf("blocks/%s/operations", hash))
	if err != nil {
		return nil, err
	}
	return DecodeOperationGroups(body)
}
