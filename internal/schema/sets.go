package schema

// QuoteFields is the layout for quote imports. order_number cross-references
// an order by its human-facing number; valid_until is optional and kept raw
// when unparsable so the operator can fix it later.
var QuoteFields = []FieldSpec{
	{DBField: "order_number", DisplayName: "Order Number", Kind: FieldText, Required: true},
	{DBField: "description", DisplayName: "Description", Kind: FieldText},
	{DBField: "quoted_price", DisplayName: "Quoted Price", Kind: FieldNumeric},
	{DBField: "valid_until", DisplayName: "Valid Until", Kind: FieldDate},
	{DBField: "notes", DisplayName: "Notes", Kind: FieldText},
}

// OrderItemFields is the layout for order line-item imports.
var OrderItemFields = []FieldSpec{
	{DBField: "order_number", DisplayName: "Order Number", Kind: FieldText, Required: true},
	{DBField: "description", DisplayName: "Description", Kind: FieldText, Required: true},
	{DBField: "quantity", DisplayName: "Quantity", Kind: FieldNumeric},
	{DBField: "sell_price", DisplayName: "Sell Price (excl VAT)", Kind: FieldNumeric},
	{DBField: "cost_price", DisplayName: "Cost Price", Kind: FieldNumeric},
}

// ExpenseFields is the layout for expense imports. Expenses reference no
// other entity, so commits never run the resolver for them.
var ExpenseFields = []FieldSpec{
	{DBField: "supplier", DisplayName: "Supplier", Kind: FieldText},
	{DBField: "description", DisplayName: "Description", Kind: FieldText, Required: true},
	{DBField: "amount", DisplayName: "Amount", Kind: FieldNumeric},
	{DBField: "expense_date", DisplayName: "Date", Kind: FieldDate, Required: true},
}
