package governance

import "github.com/louisbranch/fanvest/internal/services/fanvest/domain/amount"

// Tally resolves a vote: quorum holds when (F+A)*10000 >= Q*S and approval
// when F*10000 >= (F+A)*P. A vote with no weight never passes.
func Tally(forWeight, againstWeight, supply uint64, quorumBps, thresholdBps uint32) (quorumMet, approved bool) {
	total, err := amount.Add(forWeight, againstWeight)
	if err != nil || total == 0 {
		return false, false
	}
	quorumMet = amount.ProductAtLeast(total, amount.BasisPoints, uint64(quorumBps), supply)
	if !quorumMet {
		return false, false
	}
	return true, amount.ProductAtLeast(forWeight, amount.BasisPoints, total, uint64(thresholdBps))
}
