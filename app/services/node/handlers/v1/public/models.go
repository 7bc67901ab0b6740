package public

import "github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"

type accountInfo struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	Balance    int64  `json:"balance"`
	OpNonce    uint64 `json:"op_nonce"`
	Operations int    `json:"operations"`
}

type accountList struct {
	LatestBlock string        `json:"latest_block"`
	Height      uint64        `json:"height"`
	Uncommitted int           `json:"uncommitted"`
	Accounts    []accountInfo `json:"accounts"`
}

type submitted struct {
	Status      string                      `json:"status"`
	Transaction database.AccountTransaction `json:"transaction"`
}

type sendRequest struct {
	To     string `json:"to" validate:"required"`
	Amount int64  `json:"amount" validate:"gt=0"`
	Fee    int64  `json:"fee" validate:"gte=0"`
}
