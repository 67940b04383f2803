package core

import "strings"

// flowKeywords maps description fragments to a cash-flow section, for
// entries posted before explicit flow tagging existed. Checked in order;
// first hit wins.
var flowKeywords = []struct {
	fragment string
	category FlowCategory
}{
	{"préstamo", FlowFinancing},
	{"prestamo", FlowFinancing},
	{"capital", FlowFinancing},
	{"dividendo", FlowFinancing},
	{"activo fijo", FlowInvesting},
	{"equipo", FlowInvesting},
	{"vehículo", FlowInvesting},
	{"vehiculo", FlowInvesting},
	{"inversión", FlowInvesting},
	{"inversion", FlowInvesting},
	{"venta", FlowOperating},
	{"cobro", FlowOperating},
	{"pago", FlowOperating},
	{"nómina", FlowOperating},
	{"nomina", FlowOperating},
}

// ClassifyFlow returns the cash-flow section for an entry. The explicit
// tag set at entry creation wins; untagged entries fall back to the legacy
// description-keyword heuristic, defaulting to operating.
func ClassifyFlow(tag FlowCategory, description string) FlowCategory {
	switch tag {
	case FlowOperating, FlowInvesting, FlowFinancing:
		return tag
	}
	lowered := strings.ToLower(description)
	for _, kw := range flowKeywords {
		if strings.Contains(lowered, kw.fragment) {
			return kw.category
		}
	}
	return FlowOperating
}

// isCashAccount reports whether an account participates in the cash-flow
// statement: bank accounts, plus asset accounts whose name marks them as
// cash on hand.
func isCashAccount(a Account) bool {
	if a.IsBankAccount {
		return true
	}
	if a.Type != Asset {
		return false
	}
	name := strings.ToLower(a.Name)
	return strings.Contains(name, "caja") ||
		strings.Contains(name, "efectivo") ||
		strings.Contains(name, "cash")
}
