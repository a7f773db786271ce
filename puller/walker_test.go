package puller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"tezos_etl/chain"
	"tezos_etl/puller/models"
	"tezos_etl/rpc"
)

// fakeNode simulates the node RPC for a single-branch chain with optional
// forks. Block hashes encode branch tag and level, e.g. BA000002.
type fakeNode struct {
	mu       sync.Mutex
	blocks   map[int64]*fakeBlock // level -> canonical block
	head     int64
	accounts map[string]int64 // address -> balance step per level
	deadIds  map[string]bool  // accounts answering 404
}

type fakeBlock struct {
	level int64
	tag   string
	ops   []fakeOp
}

type fakeOp struct {
	source string
	dest   string
	fee    int64
	amount int64
}

func fakeHash(tag string, level int64) string {
	return fmt.Sprintf("B%s%06d", tag, level)
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		blocks:   make(map[int64]*fakeBlock),
		accounts: make(map[string]int64),
		deadIds:  make(map[string]bool),
	}
}

func (n *fakeNode) extend(tag string, level int64, ops ...fakeOp) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocks[level] = &fakeBlock{level: level, tag: tag, ops: ops}
	if level > n.head {
		n.head = level
	}
}

// fork replaces every block from level upward with a new branch tag.
func (n *fakeNode) fork(tag string, from, to int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for l := from; l <= to; l++ {
		n.blocks[l] = &fakeBlock{level: l, tag: tag}
	}
	for l := to + 1; l <= n.head; l++ {
		delete(n.blocks, l)
	}
	n.head = to
}

func (n *fakeNode) levelOf(ref string) (int64, bool) {
	if ref == "head" {
		return n.head, true
	}
	for l, b := range n.blocks {
		if fakeHash(b.tag, b.level) == ref {
			return l, true
		}
	}
	return 0, false
}

func (n *fakeNode) blockJSON(b *fakeBlock) string {
	pred := "BGENESIS0"
	if prev, ok := n.blocks[b.level-1]; ok {
		pred = fakeHash(prev.tag, prev.level)
	}
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(b.level) * time.Minute)
	return fmt.Sprintf(`{
		"protocol": "PsBabyM1eUXZseaJdmXFApDSBqj8YBfwELoxZHHW77EMcAbbwAS",
		"chain_id": "NetXdQprcVkpaWU",
		"hash": %q,
		"header": {
			"level": %d,
			"proto": 5,
			"predecessor": %q,
			"timestamp": %q,
			"validation_pass": 4,
			"fitness": ["01", "00000000000aae17"],
			"context": "CoVDyf9y9gHfAkPW",
			"priority": 0,
			"signature": "sigtest"
		},
		"metadata": {
			"baker": "tz1bakerbakerbakerbakerbakerbakerbak",
			"consumed_gas": "1000",
			"level": {"level": %d, "cycle": %d, "cycle_position": %d, "voting_period": 0, "voting_period_position": %d},
			"voting_period_kind": "proposal"
		}
	}`, fakeHash(b.tag, b.level), b.level, pred, ts.Format(time.RFC3339), b.level, b.level/8, b.level%8, b.level%8)
}

func (n *fakeNode) opsJSON(b *fakeBlock) string {
	groups := make([]string, 0, len(b.ops))
	for i, op := range b.ops {
		groups = append(groups, fmt.Sprintf(`{
			"hash": "oo%s%06dg%02d",
			"branch": %q,
			"signature": "sigtest",
			"contents": [{
				"kind": "transaction",
				"source": %q,
				"destination": %q,
				"fee": "%d",
				"counter": "1",
				"gas_limit": "10000",
				"storage_limit": "0",
				"amount": "%d",
				"metadata": {"operation_result": {"status": "applied", "consumed_gas": "10000"}}
			}]
		}`, b.tag, b.level, i, fakeHash(b.tag, b.level-1), op.source, op.dest, op.fee, op.amount))
	}
	return "[[" + "],[" + "],[" + "],[" + strings.Join(groups, ",") + "]]"
}

func (n *fakeNode) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.mu.Lock()
		defer n.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, "/chains/main/blocks/")
		parts := strings.SplitN(path, "/", 2)
		ref := parts[0]
		offset := int64(0)
		if i := strings.Index(ref, "~"); i >= 0 {
			offset, _ = strconv.ParseInt(ref[i+1:], 10, 64)
			ref = ref[:i]
		}
		level, ok := n.levelOf(ref)
		if !ok {
			http.Error(w, "block not found", http.StatusNotFound)
			return
		}
		level -= offset
		block, ok := n.blocks[level]
		if !ok {
			http.Error(w, "level not found", http.StatusNotFound)
			return
		}

		if len(parts) == 1 {
			fmt.Fprint(w, n.blockJSON(block))
			return
		}
		switch {
		case parts[1] == "operations":
			fmt.Fprint(w, n.opsJSON(block))
		case strings.HasPrefix(parts[1], "context/contracts/"):
			id := strings.TrimPrefix(parts[1], "context/contracts/")
			if n.deadIds[id] {
				http.Error(w, "contract not found", http.StatusNotFound)
				return
			}
			step := n.accounts[id]
			fmt.Fprintf(w, `{"manager": %q, "balance": "%d", "spendable": true, "counter": "%d"}`,
				id, step*level, level)
		case strings.HasPrefix(parts[1], "context/delegates/"):
			fmt.Fprintf(w, `{"balance": "%d", "frozen_balance": "10", "staking_balance": "%d", "delegated_balance": "0", "deactivated": false, "grace_period": %d}`,
				1000*level, 1000*level, level/8+5)
		case strings.HasPrefix(parts[1], "helpers/baking_rights"):
			fmt.Fprintf(w, `[{"level": %d, "delegate": "tz1bakerbakerbakerbakerbakerbakerbak", "priority": 0}]`, level)
		case strings.HasPrefix(parts[1], "helpers/endorsing_rights"):
			fmt.Fprint(w, `""`) // some protocol versions answer with empty strings
		case strings.HasPrefix(parts[1], "votes/current_quorum"):
			fmt.Fprint(w, "7291")
		case strings.HasPrefix(parts[1], "votes/"):
			fmt.Fprint(w, `""`)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
}

func newTestCrawler(t *testing.T, node *fakeNode) (*Crawler, *httptest.Server) {
	srv := httptest.NewServer(node.handler())
	client, err := rpc.NewClient(srv.Client(), srv.URL, "sandbox")
	assert.NoError(t, err)
	c := NewCrawler(CrawlerConfig{
		Client:           client,
		FetchConcurrency: 3,
		BatchSize:        2,
		FeeWindow:        100,
		RetryAttempts:    1,
	})
	return c, srv
}

func TestFetchBlocksPairsOffsets(t *testing.T) {
	node := newFakeNode()
	for l := int64(0); l <= 3; l++ {
		node.extend("A", l)
	}
	c, srv := newTestCrawler(t, node)
	defer srv.Close()

	head := chain.BlockHash(fakeHash("A", 3))
	blocks, err := c.fetchBlocks(context.Background(), head, []int64{3, 2, 1, 0})
	assert.NoError(t, err)
	assert.Len(t, blocks, 4)
	// descending offsets address ascending heights below head
	for i, b := range blocks {
		assert.Equal(t, int64(i), b.Header.Level)
		assert.Equal(t, chain.BlockHash(fakeHash("A", int64(i))), b.Hash)
	}
}

func TestFetchBlockData(t *testing.T) {
	node := newFakeNode()
	node.extend("A", 0)
	node.extend("A", 1, fakeOp{source: "tz1aaa", dest: "tz1bbb", fee: 10, amount: 500})
	c, srv := newTestCrawler(t, node)
	defer srv.Close()

	blocks, err := c.fetchBlocks(context.Background(), chain.BlockHash(fakeHash("A", 1)), []int64{1, 0})
	assert.NoError(t, err)
	data, err := c.fetchBlockData(context.Background(), blocks)
	assert.NoError(t, err)
	assert.Len(t, data, 2)

	for _, d := range data {
		if d.Height() != 1 {
			assert.Len(t, d.Groups, 0)
			continue
		}
		assert.Len(t, d.Groups, 1)
		assert.Equal(t, []string{"tz1aaa", "tz1bbb"}, d.TouchedAccounts)
		// baking rights decoded, endorsing rights tolerated as empty
		assert.Len(t, d.Baking, 1)
		assert.Len(t, d.Endorsing, 0)
		assert.Equal(t, int64(7291), d.CurrentQuorum)
	}
}

func TestBuildBlock(t *testing.T) {
	node := newFakeNode()
	node.extend("A", 0)
	node.extend("A", 1, fakeOp{source: "tz1aaa", dest: "tz1bbb", fee: 10, amount: 500})
	c, srv := newTestCrawler(t, node)
	defer srv.Close()

	blocks, err := c.fetchBlocks(context.Background(), chain.BlockHash(fakeHash("A", 1)), []int64{0})
	assert.NoError(t, err)
	data, err := c.fetchBlockData(context.Background(), blocks)
	assert.NoError(t, err)

	block := buildBlock(data[0])
	assert.Equal(t, int64(1), block.Height)
	assert.Equal(t, chain.BlockHash(fakeHash("A", 1)), block.Hash)
	assert.Equal(t, chain.BlockHash(fakeHash("A", 0)), block.Predecessor)
	assert.Len(t, block.Groups, 1)
	assert.Len(t, block.Ops, 1)
	assert.Equal(t, int64(10), block.Ops[0].Fee)
	assert.Equal(t, models.BlockRowId(block.Hash), block.RowId)
}
