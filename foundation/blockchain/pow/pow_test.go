package pow_test

import (
	"context"
	"testing"
	"time"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Satisfies(t *testing.T) {
	type table struct {
		name       string
		prefix     []byte
		complexity uint
		exp        bool
	}

	tt := []table{
		{name: "zero complexity", prefix: []byte{0xff, 0xff, 0xff, 0xff}, complexity: 0, exp: true},
		{name: "four bits", prefix: []byte{0x0f, 0xff, 0xff, 0xff}, complexity: 4, exp: true},
		{name: "five bits", prefix: []byte{0x0f, 0xff, 0xff, 0xff}, complexity: 5, exp: false},
		{name: "sixteen bits", prefix: []byte{0x00, 0x00, 0x80, 0x00}, complexity: 16, exp: true},
		{name: "seventeen bits", prefix: []byte{0x00, 0x00, 0x80, 0x00}, complexity: 17, exp: false},
		{name: "all bits", prefix: []byte{0x00, 0x00, 0x00, 0x00}, complexity: 32, exp: true},
		{name: "out of range", prefix: []byte{0x00, 0x00, 0x00, 0x00}, complexity: 33, exp: false},
	}

	t.Log("Given the need to check digests against a complexity.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					var digest [32]byte
					copy(digest[:], tst.prefix)

					// Bits past the first 32 never take part.
					for i := 4; i < len(digest); i++ {
						digest[i] = 0xff
					}

					got := pow.Satisfies(digest, tst.complexity)
					if got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v.", failed, testID, tst.exp, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get %v.", success, testID, tst.exp)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Solve(t *testing.T) {
	t.Log("Given the need to prove work over bare data.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen solving with complexity 8.", testID)
		{
			data := []byte("hello world")

			nonce, err := pow.Solve(context.Background(), data, 8)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to solve: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to solve.", success, testID)

			if !pow.Satisfies(pow.Proof(data, nonce), 8) {
				t.Fatalf("\t%s\tTest %d:\tShould produce a nonce that satisfies the complexity.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould produce a nonce that satisfies the complexity.", success, testID)

			if pow.Proof(data, nonce) != pow.Proof(data, nonce) {
				t.Fatalf("\t%s\tTest %d:\tShould produce the same proof every time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould produce the same proof every time.", success, testID)
		}
	}
}

func Test_Mine(t *testing.T) {
	t.Log("Given the need to seal block templates.")
	{
		for testID, complexity := range []uint{4, 6, 8, 10} {
			t.Logf("\tTest %d:\tWhen mining with complexity %d.", testID, complexity)
			{
				ev := func(v string, args ...any) {}

				blk, err := pow.Mine(context.Background(), template(1), complexity, ev)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

				ok, err := pow.CheckBlock(blk, complexity)
				if err != nil || !ok {
					t.Fatalf("\t%s\tTest %d:\tShould produce a block that passes the check: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould produce a block that passes the check.", success, testID)

				blk.Payload.Nonce++
				if ok, _ := pow.CheckBlock(blk, complexity); ok {
					t.Fatalf("\t%s\tTest %d:\tShould fail the check once the nonce changes.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould fail the check once the nonce changes.", success, testID)
			}
		}

		testID := 4
		t.Logf("\tTest %d:\tWhen cancelling a search that can't finish.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			if _, err := pow.Mine(ctx, template(1), 32, func(v string, args ...any) {}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould stop with an error.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould stop with an error.", success, testID)
		}
	}
}

func Test_Worker(t *testing.T) {
	t.Log("Given the need to mine in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a task is replaced before it is solved.", testID)
		{
			w := pow.NewWorker(nil)
			defer w.Shutdown()

			w.Submit(pow.Task{Generation: 1, Block: template(1), Complexity: 32})
			w.Submit(pow.Task{Generation: 2, Block: template(2), Complexity: 6})

			select {
			case res := <-w.Results():
				if res.Generation != 2 {
					t.Fatalf("\t%s\tTest %d:\tShould get the result of the latest task, got gen %d.", failed, testID, res.Generation)
				}
				t.Logf("\t%s\tTest %d:\tShould get the result of the latest task.", success, testID)

				if ok, _ := pow.CheckBlock(res.Block, res.Complexity); !ok {
					t.Fatalf("\t%s\tTest %d:\tShould get a sealed block.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get a sealed block.", success, testID)

			case <-time.After(10 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould get a result in time.", failed, testID)
			}
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen shutting down during a search.", testID)
		{
			w := pow.NewWorker(nil)
			w.Submit(pow.Task{Generation: 1, Block: template(1), Complexity: 32})

			done := make(chan struct{})
			go func() {
				w.Shutdown()
				close(done)
			}()

			select {
			case <-done:
				t.Logf("\t%s\tTest %d:\tShould stop the worker.", success, testID)
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould stop the worker.", failed, testID)
			}

			// Submitting to a stopped worker is a no-op.
			w.Submit(pow.Task{Generation: 2, Block: template(1), Complexity: 4})
		}
	}
}

// =============================================================================

func template(index uint64) database.Block {
	prev := "AAAA"

	return database.Block{
		Payload: database.BlockPayload{
			Index:        index,
			Timestamp:    1700000000000 + int64(index),
			PreviousHash: &prev,
			Coinbase: database.CoinbaseTransaction{
				Payload: database.CoinbasePayload{
					To:        database.FirstOperation("miner", 100),
					Timestamp: 1700000000000 + int64(index),
				},
			},
			Txs: []database.AccountTransaction{},
		},
	}
}
