package aggregate

import (
	"sort"

	"cashflow/internal/core"
)

// Partition splits txs by flow direction. Each side is sorted by date,
// newest first; transactions on the same date keep their input order.
func Partition(txs []core.Transaction, tax *core.Taxonomy) (inflows, outflows []core.Transaction) {
	for _, t := range txs {
		if tax.FlowOf(t.Category) == core.Inflow {
			inflows = append(inflows, t)
		} else {
			outflows = append(outflows, t)
		}
	}
	byDateDesc(inflows)
	byDateDesc(outflows)
	return inflows, outflows
}

func byDateDesc(txs []core.Transaction) {
	// YYYY-MM-DD sorts lexically
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date > txs[j].Date
	})
}
