package expense

import (
	"math"
	"sort"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

// settleCutoff is the balance below which a party is considered square.
// It also filters out noise transfers produced by float arithmetic.
const settleCutoff = 0.001

// Suggestions reduces the household's net balances to a short list of
// directed transfers. Greedy pairing: largest debtor pays the largest
// creditor, repeat until everyone is within the cutoff of zero. The result
// is at most one transfer per debtor/creditor pair.
func Suggestions(balances []model.UserBalance) []model.SettleUpSuggestion {
	if len(balances) == 0 {
		return nil
	}

	type party struct {
		userID string
		name   string
		amount float64
	}

	var debtors, creditors []party
	for _, b := range balances {
		switch {
		case b.NetBalance < -settleCutoff:
			debtors = append(debtors, party{b.UserID, b.Name, -b.NetBalance})
		case b.NetBalance > settleCutoff:
			creditors = append(creditors, party{b.UserID, b.Name, b.NetBalance})
		}
	}
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var suggestions []model.SettleUpSuggestion
	d, c := 0, 0
	for d < len(debtors) && c < len(creditors) {
		debtor := &debtors[d]
		creditor := &creditors[c]

		amount := math.Min(debtor.amount, creditor.amount)
		if amount > settleCutoff {
			suggestions = append(suggestions, model.SettleUpSuggestion{
				FromUserID:   debtor.userID,
				FromUserName: debtor.name,
				ToUserID:     creditor.userID,
				ToUserName:   creditor.name,
				Amount:       roundTwo(amount),
			})
			debtor.amount -= amount
			creditor.amount -= amount
		}

		if debtor.amount < settleCutoff {
			d++
		}
		if creditor.amount < settleCutoff {
			c++
		}
	}
	return suggestions
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
