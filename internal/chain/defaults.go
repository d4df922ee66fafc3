package chain

import "github.com/ethereum/go-ethereum/common"

// NopJournal is used where the environment rolls back failed calls on its own.
type NopJournal struct{}

func (NopJournal) Snapshot() int        { return 0 }
func (NopJournal) RevertToSnapshot(int) {}
func (NopJournal) DiscardSnapshot(int)  {}

// AllowAll authorizes every caller.
type AllowAll struct{}

func (AllowAll) Authorized(common.Address) bool { return true }

// AddressSet authorizes a fixed set of callers.
type AddressSet map[common.Address]struct{}

// NewAddressSet builds an AddressSet from addrs.
func NewAddressSet(addrs ...common.Address) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

func (s AddressSet) Authorized(caller common.Address) bool {
	_, ok := s[caller]
	return ok
}
