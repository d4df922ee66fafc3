/*

This is a custom type for tokens handled by the strategy (want, pool constituents, reward, intermediate).

*/

package types

import "github.com/ethereum/go-ethereum/common"

type Token struct {
	Symbol   string         `json:"symbol"`   // e.g., "VELO"
	Address  common.Address `json:"address"`  // e.g., 0x9560...2db
	Decimals int            `json:"decimals"` // e.g., 18 means 1e18 base units = 1 token
}
