package sale

import (
	"sort"

	"github.com/marshallshelly/tillpoint/pkg/store"
)

// orderPlan is the computed write set of a sale: one item per cart line with
// the price captured at commit time, the order total, and the per-product
// stock decrements.
type orderPlan struct {
	total      float64
	items      []store.OrderItem
	decrements []stockDecrement
}

type stockDecrement struct {
	productID int
	quantity  int
}

// planOrder validates the cart lines against the locked product rows and
// computes the write set. Lines stay separate, but stock sufficiency is
// tracked cumulatively per product: a cart whose lines together exceed a
// product's stock fails even when each line alone would fit, keeping stock
// from ever going negative.
func planOrder(lines []CartLine, products map[int]store.Product) (*orderPlan, error) {
	remaining := make(map[int]int, len(products))
	for id, p := range products {
		remaining[id] = p.Stock
	}

	plan := &orderPlan{}
	consumed := make(map[int]int)

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		if line.Quantity > remaining[line.ProductID] {
			return nil, &InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: remaining[line.ProductID],
			}
		}
		remaining[line.ProductID] -= line.Quantity
		consumed[line.ProductID] += line.Quantity

		plan.items = append(plan.items, store.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		plan.total += product.Price * float64(line.Quantity)
	}

	ids := make([]int, 0, len(consumed))
	for id := range consumed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		plan.decrements = append(plan.decrements, stockDecrement{productID: id, quantity: consumed[id]})
	}

	return plan, nil
}
