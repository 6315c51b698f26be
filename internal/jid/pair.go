package jid

// PairKey returns the canonical key for the conversation between from and to.
//
// The bare addresses are compared byte-wise and joined lesser first, so
// PairKey(a, b) == PairKey(b, a) and one archive row serves both directions.
// A self pair yields "a|a".
func PairKey(from, to JID) string {
	a, b := string(from.Bare()), string(to.Bare())
	if a < b {
		return a + pairSeparator + b
	}
	return b + pairSeparator + a
}
