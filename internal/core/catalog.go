package core

// PaymentOption pairs a payment method with its display label and icon.
type PaymentOption struct {
	Method PaymentMethod
	Label  string
	Icon   string
}

var (
	expenseCategories = []string{
		"Alimentos",
		"Transporte",
		"Vivienda",
		"Entretenimiento",
		"Salud",
		"Servicios",
		"Ropa",
		"Educación",
		"Otros",
	}

	incomeCategories = []string{
		"Sueldo",
		"Freelance",
		"Inversiones",
		"Regalos",
		"Ventas",
		"Otros",
	}

	paymentOptions = []PaymentOption{
		{Method: Cash, Label: "Efectivo", Icon: "💵"},
		{Method: Yape, Label: "Yape", Icon: "🟣"},
		{Method: Plin, Label: "Plin", Icon: "🔵"},
		{Method: BankTransfer, Label: "Transferencia", Icon: "🏦"},
		{Method: Card, Label: "Tarjeta", Icon: "💳"},
	}

	palette = []string{
		"#10b981", // emerald
		"#3b82f6", // blue
		"#f59e0b", // amber
		"#ef4444", // red
		"#8b5cf6", // violet
		"#ec4899", // pink
		"#06b6d4", // cyan
	}
)

// Categories returns the selectable categories for a transaction type.
func Categories(t TransactionType) []string {
	switch t {
	case Income:
		return append([]string(nil), incomeCategories...)
	case Expense:
		return append([]string(nil), expenseCategories...)
	}
	return nil
}

func IsKnownCategory(t TransactionType, category string) bool {
	for _, c := range Categories(t) {
		if c == category {
			return true
		}
	}
	return false
}

func PaymentOptions() []PaymentOption {
	return append([]PaymentOption(nil), paymentOptions...)
}

// Palette returns the goal colors in display order.
func Palette() []string {
	return append([]string(nil), palette...)
}

func DefaultColor() string {
	return palette[0]
}

func IsPaletteColor(c string) bool {
	for _, p := range palette {
		if p == c {
			return true
		}
	}
	return false
}

// ColorAt cycles through the palette, used to color category slices.
func ColorAt(i int) string {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}
