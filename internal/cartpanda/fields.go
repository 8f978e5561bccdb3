package cartpanda

import (
	"strings"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/money"
)

var checkoutURLKeys = []string{
	"checkout_link",
	"checkout_url",
	"cart_url",
	"recovery_url",
	"recover_url",
	"abandoned_checkout_url",
}

var lineItemKeys = []string{"cart_line_items", "line_items", "items"}

var itemPriceKeys = []string{"price", "unit_price", "line_price", "subtotal", "total"}

var cartTotalKeys = []string{"total_line_items_price", "subtotal_price", "total_price"}

type customer struct {
	name      string
	firstName string
	phone     string
}

func resolveCustomer(block, scope value, nameCandidates ...value) customer {
	name := orDefault(firstText(nameCandidates...), defaultName)
	first := firstText(block.get("first_name"))
	if first == "" {
		first = firstToken(name)
	}
	return customer{
		name:      name,
		firstName: orDefault(first, defaultName),
		phone: firstText(
			block.get("phone"),
			scope.get("phone"),
			scope.get("billing_address", "phone"),
			scope.get("shipping_address", "phone"),
		),
	}
}

func fullName(block value) value {
	return joined(" ", block.get("first_name"), block.get("last_name"))
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// firstLineItem returns the first element of the first non-empty item list.
// Later items never influence the record.
func firstLineItem(scope value) value {
	lists := make([]value, 0, len(lineItemKeys))
	for _, k := range lineItemKeys {
		lists = append(lists, scope.get(k))
	}
	item := firstArray(lists...).first()
	if !item.isObject() {
		return missing
	}
	return item
}

func itemTitle(item value) string {
	return firstText(
		item.get("name"),
		item.get("title"),
		item.get("product", "title"),
		joined(" - ", item.get("title"), item.get("variant_title")),
		item.get("variant", "product", "title"),
		item.get("variant", "title"),
	)
}

// priceDisplay prefers the first line item's price and falls back to the
// cart totals when the item carries none.
func priceDisplay(item, scope value) string {
	candidates := make([]value, 0, len(itemPriceKeys)+1+len(cartTotalKeys))
	for _, k := range itemPriceKeys {
		candidates = append(candidates, item.get(k))
	}
	candidates = append(candidates, item.get("variant", "price"))
	for _, k := range cartTotalKeys {
		candidates = append(candidates, scope.get(k))
	}
	d, ok := firstAmount(candidates...)
	if !ok {
		return money.Zero
	}
	return money.Format(d)
}

// checkoutURL searches the scoped object, then the document root, then the
// root's "data" object.
func checkoutURL(root, scope value) string {
	data := root.get("data")
	candidates := make([]value, 0, 3*len(checkoutURLKeys))
	for _, obj := range []value{scope, root, data} {
		for _, k := range checkoutURLKeys {
			candidates = append(candidates, obj.get(k))
		}
	}
	return firstText(candidates...)
}
