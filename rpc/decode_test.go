package rpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"tezos_etl/chain"
)

var blockFixture = []byte(`{
	"protocol": "PsBabyM1eUXZseaJdmXFApDSBqj8YBfwELoxZHHW77EMcAbbwAS",
	"chain_id": "NetXdQprcVkpaWU",
	"hash": "BLrUSnmhoWczorTYG8utWTLcD8yup6MX1MCehXG8f8QWew8t1N8",
	"header": {
		"level": 700000,
		"proto": 5,
		"predecessor": "BMYqwaH8S7aMDjNGtRjvNWbFbJSVQqssXqqxXLtxiViyQ1FG8vi",
		"timestamp": "2019-11-28T13:02:32Z",
		"validation_pass": 4,
		"operations_hash": "LLoZqBDX1E2ADRXbmwYo8VtMNeHG6Ygzmm4Zqv97i91UPBQHy9Vq3",
		"fitness": ["01", "00000000000aae17"],
		"context": "CoVDyf9y9gHfAkPWofBJffo4X4bWjmehH2LeVonDcCKKzyQYwqdk",
		"priority": 0,
		"proof_of_work_nonce": "00000003e225250e",
		"signature": "sigcwcqrZNdxn8eKjZRHHDn7GU4S9SsWNAhiDbxqHSkFGSWskx"
	},
	"metadata": {
		"protocol": "PsBabyM1eUXZseaJdmXFApDSBqj8YBfwELoxZHHW77EMcAbbwAS",
		"baker": "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6",
		"consumed_gas": "145200",
		"level": {
			"level": 700000,
			"level_position": 699999,
			"cycle": 170,
			"cycle_position": 3679,
			"voting_period": 21,
			"voting_period_position": 11871
		},
		"voting_period_kind": "proposal"
	}
}`)

func TestDecodeBlock(t *testing.T) {
	b, err := DecodeBlock(blockFixture)
	assert.NoError(t, err)
	assert.Equal(t, int64(700000), b.Header.Level)
	assert.Equal(t, chain.BlockHash("BLrUSnmhoWczorTYG8utWTLcD8yup6MX1MCehXG8f8QWew8t1N8"), b.Hash)
	assert.Equal(t, chain.BlockHash("BMYqwaH8S7aMDjNGtRjvNWbFbJSVQqssXqqxXLtxiViyQ1FG8vi"), b.Header.Predecessor)
	assert.Equal(t, int64(170), b.Metadata.Level.Cycle)
	assert.Equal(t, chain.VotingPeriodProposal, b.Metadata.VotingPeriodKind)
	assert.Equal(t, "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6", b.Metadata.Baker)
	assert.Equal(t, int64(145200), b.Metadata.ConsumedGas.Int64())
}

func TestDecodeBlockInvalid(t *testing.T) {
	_, err := DecodeBlock([]byte(`{"header": []}`))
	assert.Error(t, err)

	_, err = DecodeBlock([]byte(`{}`))
	assert.Error(t, err)
}

var opsFixture = []byte(`[
	[
		{
			"protocol": "PsBabyM1eUXZseaJdmXFApDSBqj8YBfwELoxZHHW77EMcAbbwAS",
			"chain_id": "NetXdQprcVkpaWU",
			"hash": "ooPbtVVy7TZLoRirGsCgyy6Esyqm3Kj22QvEVpAmEXX3vHBGbF8",
			"branch": "BMYqwaH8S7aMDjNGtRjvNWbFbJSVQqssXqqxXLtxiViyQ1FG8vi",
			"contents": [
				{"kind": "endorsement", "level": 699999}
			],
			"signature": "sigVB4Yt5zNDLVtN1e1Lsx4TDBNf6A3W2M1PtFtVEWLMEWjZQSCCs"
		}
	],
	[],
	[],
	[
		{
			"protocol": "PsBabyM1eUXZseaJdmXFApDSBqj8YBfwELoxZHHW77EMcAbbwAS",
			"chain_id": "NetXdQprcVkpaWU",
			"hash": "opT2h8Erfow4JLJ6Bwg3XnVTqvrLNrBWhmeqiyLUW1wCJf9rGRr",
			"branch": "BMYqwaH8S7aMDjNGtRjvNWbFbJSVQqssXqqxXLtxiViyQ1FG8vi",
			"contents": [
				{
					"kind": "transaction",
					"source": "tz1Ve9gAls43gxNoTZmTXys6yPYJnRLHdqSG",
					"fee": "1420",
					"counter": "2316276",
					"gas_limit": "10600",
					"storage_limit": "300",
					"amount": "220000",
					"destination": "tz1gjaF81ZRRvdzjobyfVNsAeSC6PScjfQwN",
					"metadata": {
						"operation_result": {"status": "applied", "consumed_gas": "10200"}
					}
				},
				{
					"kind": "origination",
					"source": "tz1Ve9gAls43gxNoTZmTXys6yPYJnRLHdqSG",
					"managerPubkey": "tz1Ve9gAls43gxNoTZmTXys6yPYJnRLHdqSG",
					"fee": "1400",
					"counter": "2316277",
					"gas_limit": "10000",
					"storage_limit": "277",
					"balance": "0",
					"metadata": {
						"operation_result": {
							"status": "applied",
							"originated_contracts": ["KT1ChNsEFxwyCbJyWGSL3KdjeXE28AY1Kaog"]
						}
					}
				}
			],
			"signature": "sigb1FKPeiRgPApCqZLdLtXPauy72kA3g16sw1sk9doVpg1p2rTrj"
		}
	]
]`)

func TestDecodeOperationGroups(t *testing.T) {
	groups, err := DecodeOperationGroups(opsFixture)
	assert.NoError(t, err)
	assert.Len(t, groups, 2)

	assert.Equal(t, chain.OpHash("ooPbtVVy7TZLoRirGsCgyy6Esyqm3Kj22QvEVpAmEXX3vHBGbF8"), groups[0].Hash)
	assert.Len(t, groups[0].Contents, 1)
	end, ok := groups[0].Contents[0].(*EndorsementOp)
	assert.True(t, ok)
	assert.Equal(t, int64(699999), end.Level)

	assert.Len(t, groups[1].Contents, 2)
	tx, ok := groups[1].Contents[0].(*TransactionOp)
	assert.True(t, ok)
	assert.Equal(t, int64(1420), tx.Fee.Int64())
	assert.Equal(t, int64(220000), tx.Amount.Int64())
	assert.Equal(t, "applied", tx.Metadata.OperationResult.Status)

	// legacy manager key spelling is normalised before decoding
	orig, ok := groups[1].Contents[1].(*OriginationOp)
	assert.True(t, ok)
	assert.Equal(t, "tz1Ve9gAls43gxNoTZmTXys6yPYJnRLHdqSG", orig.ManagerPk)
	assert.Equal(t, []string{"KT1ChNsEFxwyCbJyWGSL3KdjeXE28AY1Kaog"}, orig.OriginatedContracts())
}

func TestDecodeOperationGroupsUnknownKind(t *testing.T) {
	body := []byte(`[[{"hash": "oo1", "contents": [{"kind": "teleport"}]}]]`)
	_, err := DecodeOperationGroups(body)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, chain.ErrUnknownOpType))
}

func TestDecodeTouchedAccounts(t *testing.T) {
	ids, err := DecodeTouchedAccounts(opsFixture)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"tz1Ve9gAls43gxNoTZmTXys6yPYJnRLHdqSG",
		"tz1gjaF81ZRRvdzjobyfVNsAeSC6PScjfQwN",
		"KT1ChNsEFxwyCbJyWGSL3KdjeXE28AY1Kaog",
	}, ids)
}

func TestDecodeRightsTolerance(t *testing.T) {
	rights, err := DecodeBakingRights([]byte(`""`))
	assert.NoError(t, err)
	assert.Len(t, rights, 0)

	rights, err = DecodeBakingRights([]byte(``))
	assert.NoError(t, err)
	assert.Len(t, rights, 0)

	rights, err = DecodeBakingRights([]byte(`[
		{"level": 701, "delegate": "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6", "priority": 0}
	]`))
	assert.NoError(t, err)
	assert.Len(t, rights, 1)
	assert.Equal(t, 0, rights[0].Priority)

	erights, err := DecodeEndorsingRights([]byte(`[
		{"level": 700, "delegate": "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6", "slots": [4, 17]}
	]`))
	assert.NoError(t, err)
	assert.Equal(t, []int{4, 17}, erights[0].Slots)
}

func TestDecodeVotes(t *testing.T) {
	q, err := DecodeCurrentQuorum([]byte(`7291`))
	assert.NoError(t, err)
	assert.Equal(t, int64(7291), q)

	q, err = DecodeCurrentQuorum([]byte(``))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), q)

	p, err := DecodeCurrentProposal([]byte(`null`))
	assert.NoError(t, err)
	assert.False(t, p.IsValid())

	props, err := DecodeProposals([]byte(`[["PsBabyM1eUXZseaJdmXFApDSBqj8YBfwELoxZHHW77EMcAbbwAS", 1200]]`))
	assert.NoError(t, err)
	assert.Len(t, props, 1)
	assert.Equal(t, int64(1200), props[0].Rolls)

	listings, err := DecodeListings([]byte(`[{"pkh": "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6", "rolls": 55}]`))
	assert.NoError(t, err)
	assert.Equal(t, int64(55), listings[0].Rolls)

	ballots, err := DecodeBallotList([]byte(`[{"pkh": "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6", "ballot": "yay"}]`))
	assert.NoError(t, err)
	assert.Equal(t, chain.BallotVoteYay, ballots[0].Ballot)
}

func TestDecodeAccountTolerance(t *testing.T) {
	acc, err := DecodeAccount([]byte(``))
	assert.NoError(t, err)
	assert.Nil(t, acc)

	acc, err = DecodeAccount([]byte(`{
		"manager": "tz1Ve9gAls43gxNoTZmTXys6yPYJnRLHdqSG",
		"balance": "1500000",
		"spendable": true,
		"delegate": {"setable": false, "value": "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6"},
		"counter": "7"
	}`))
	assert.NoError(t, err)
	assert.Equal(t, int64(1500000), acc.Balance.Int64())
	assert.Equal(t, "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6", acc.Delegate.Value)

	// flattened delegate field
	acc, err = DecodeAccount([]byte(`{"balance": "5", "delegate": "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6"}`))
	assert.NoError(t, err)
	assert.Equal(t, "tz1NEKxGEHsFufk87CVZcrqWu8o22qh46GK6", acc.Delegate.Value)
}
