package message_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/message"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

func newTx(t *testing.T) database.AccountTransaction {
	t.Helper()

	scheme := signature.Secp256k1{}
	kp, err := signature.GenerateKeypair(scheme)
	require.NoError(t, err)

	tx, err := database.SignTransaction(scheme, database.TransactionPayload{
		From:     database.AccountOperation{Address: kp.Address, Operation: -11, OpNonce: 1, UpdatedBalance: 89},
		To:       database.FirstOperation("someone", 10),
		MinerFee: 1,
	}, kp.Private)
	require.NoError(t, err)

	return tx
}

func TestTransaction(t *testing.T) {
	tx := newTx(t)

	data, err := message.EncodeTransaction(tx)
	require.NoError(t, err)

	env, err := message.Decode(data)
	require.NoError(t, err)
	require.Equal(t, message.TagTransaction, env.Tag)

	got, err := env.Transaction()
	require.NoError(t, err)
	require.Equal(t, tx, got)
	require.True(t, got.VerifySignature(signature.Secp256k1{}))

	_, err = env.Blocks()
	require.Error(t, err, "the tag must match the accessor")
}

func TestRequestBlocks(t *testing.T) {
	data, err := message.EncodeRequestBlocks(message.BlockRange{Start: 2, End: 5})
	require.NoError(t, err)

	env, err := message.Decode(data)
	require.NoError(t, err)

	r, err := env.RequestBlocks()
	require.NoError(t, err)
	require.Equal(t, message.BlockRange{Start: 2, End: 5}, r)

	data, err = message.EncodeRequestBlocks(message.BlockRange{Start: 5, End: 5})
	require.NoError(t, err)

	env, err = message.Decode(data)
	require.NoError(t, err)

	_, err = env.RequestBlocks()
	require.Error(t, err, "an empty range is refused")
}

func TestStatus(t *testing.T) {
	exp := message.Status{Host: "localhost:9080", Height: 4, LatestHash: "aGFzaA=="}

	data, err := message.EncodeStatus(exp)
	require.NoError(t, err)

	env, err := message.Decode(data)
	require.NoError(t, err)

	got, err := env.Status()
	require.NoError(t, err)
	require.Equal(t, exp, got)
}

func TestDecodeFailClosed(t *testing.T) {
	tt := []struct {
		name string
		data string
	}{
		{name: "unknown tag", data: `{"tag":"gossip","payload":{}}`},
		{name: "unknown field", data: `{"tag":"status","payload":{},"extra":1}`},
		{name: "missing payload", data: `{"tag":"status"}`},
		{name: "not json", data: `tag=status`},
		{name: "trailing data", data: `{"tag":"status","payload":{}} {}`},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			_, err := message.Decode([]byte(tst.data))
			require.Error(t, err)
		})
	}

	env, err := message.Decode([]byte(`{"tag":"transaction","payload":{"header":{"signature":"c2ln"},"payload":{"from":{},"to":{}}}}`))
	require.NoError(t, err)

	_, err = env.Transaction()
	require.Error(t, err, "the payload shape is checked")

	env, err = message.Decode([]byte(`{"tag":"blocks","payload":[]}`))
	require.NoError(t, err)

	_, err = env.Blocks()
	require.Error(t, err, "an empty block range is refused")
}
