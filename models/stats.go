package models

// Profile is the read model served to clients: account state plus derived
// match statistics.
type Profile struct {
	User          *User
	WinRate       float64
	ActiveMatch   *Match
	RecentEntries []*LedgerEntry
}

// PairingResult describes a successful pairing: the match plus the two
// entry-fee ledger entries that funded its pot.
type PairingResult struct {
	Match     *Match
	EntryFees []*LedgerEntry
}

// PayoutResult describes a completed prize distribution.
type PayoutResult struct {
	Match      *Match
	Winnings   *LedgerEntry
	Commission int64
}
