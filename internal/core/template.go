package core

// TemplateAccount is one row of the default chart seeded for a new book.
type TemplateAccount struct {
	Code          string
	Name          string
	Type          AccountType
	Level         int
	ParentCode    string
	AllowPosting  bool
	IsBankAccount bool
}

// DefaultChartTemplate is the starter chart for a new tenant. Level-1 rows
// are summary headers (no direct posting); children reference them by code.
var DefaultChartTemplate = []TemplateAccount{
	{Code: "1000", Name: "Activos", Type: Asset, Level: 1},
	{Code: "1010", Name: "Caja General", Type: Asset, Level: 2, ParentCode: "1000", AllowPosting: true},
	{Code: "1020", Name: "Banco Cuenta Corriente", Type: Asset, Level: 2, ParentCode: "1000", AllowPosting: true, IsBankAccount: true},
	{Code: "1030", Name: "Cuentas por Cobrar Clientes", Type: Asset, Level: 2, ParentCode: "1000", AllowPosting: true},
	{Code: "1040", Name: "Inventario de Mercancías", Type: Asset, Level: 2, ParentCode: "1000", AllowPosting: true},
	{Code: "1050", Name: "ITBIS Adelantado", Type: Asset, Level: 2, ParentCode: "1000", AllowPosting: true},
	{Code: "1500", Name: "Activos Fijos", Type: Asset, Level: 2, ParentCode: "1000", AllowPosting: true},
	{Code: "1510", Name: "Depreciación Acumulada", Type: Asset, Level: 2, ParentCode: "1000", AllowPosting: true},

	{Code: "2000", Name: "Pasivos", Type: Liability, Level: 1},
	{Code: "2010", Name: "Cuentas por Pagar Suplidores", Type: Liability, Level: 2, ParentCode: "2000", AllowPosting: true},
	{Code: "2020", Name: "ITBIS por Pagar", Type: Liability, Level: 2, ParentCode: "2000", AllowPosting: true},
	{Code: "2030", Name: "Retenciones por Pagar", Type: Liability, Level: 2, ParentCode: "2000", AllowPosting: true},
	{Code: "2100", Name: "Préstamos Bancarios", Type: Liability, Level: 2, ParentCode: "2000", AllowPosting: true},

	{Code: "3000", Name: "Capital", Type: Equity, Level: 1},
	{Code: "3010", Name: "Capital Social", Type: Equity, Level: 2, ParentCode: "3000", AllowPosting: true},
	{Code: "3020", Name: "Resultados Acumulados", Type: Equity, Level: 2, ParentCode: "3000", AllowPosting: true},

	{Code: "4000", Name: "Ingresos", Type: Income, Level: 1},
	{Code: "4010", Name: "Ventas de Mercancías", Type: Income, Level: 2, ParentCode: "4000", AllowPosting: true},
	{Code: "4020", Name: "Ingresos por Servicios", Type: Income, Level: 2, ParentCode: "4000", AllowPosting: true},
	{Code: "4030", Name: "Descuentos sobre Ventas", Type: Income, Level: 2, ParentCode: "4000", AllowPosting: true},

	{Code: "5000", Name: "Costos", Type: Cost, Level: 1},
	{Code: "5010", Name: "Costo de Ventas", Type: Cost, Level: 2, ParentCode: "5000", AllowPosting: true},

	{Code: "6000", Name: "Gastos", Type: Expense, Level: 1},
	{Code: "6010", Name: "Gastos de Personal", Type: Expense, Level: 2, ParentCode: "6000", AllowPosting: true},
	{Code: "6020", Name: "Alquileres", Type: Expense, Level: 2, ParentCode: "6000", AllowPosting: true},
	{Code: "6030", Name: "Servicios Públicos", Type: Expense, Level: 2, ParentCode: "6000", AllowPosting: true},
	{Code: "6040", Name: "Gastos de Depreciación", Type: Expense, Level: 2, ParentCode: "6000", AllowPosting: true},
	{Code: "6050", Name: "Gastos Bancarios", Type: Expense, Level: 2, ParentCode: "6000", AllowPosting: true},
}
