package kit

// GroupState is the validity of a kit group's total quantity against the
// product's minimum tier quantity. Invalid must never persist: every
// transition into Invalid is rejected before commit or corrected right
// after.
type GroupState int

const (
	GroupValid GroupState = iota
	GroupInvalid
)

// EvaluateGroup is the single minimum-quantity check shared by every entry
// point (pre-commit validation, post-commit reversion, the direct quantity
// API, and checkout validation). A minimum of 0 means the product has no
// enabled tiers and the group cannot be invalid.
func EvaluateGroup(totalQuantity, minimumQuantity int) GroupState {
	if minimumQuantity <= 0 {
		return GroupValid
	}
	if totalQuantity < minimumQuantity {
		return GroupInvalid
	}
	return GroupValid
}

// ProjectedTotal computes the group's total quantity as it would be after
// changing one member to newQuantity, with all other members unchanged.
func ProjectedTotal(g *Group, lineKey string, newQuantity int) int {
	total := 0
	for _, l := range g.Lines {
		if l.Key == lineKey {
			total += newQuantity
		} else {
			total += l.Quantity
		}
	}
	return total
}
