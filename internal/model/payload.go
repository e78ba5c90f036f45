package model

// CardPayload is the encrypted part of a card.
//
// Category is nil when the card has no lane; it serializes as null.
type CardPayload struct {
	Content  string    `json:"content"`
	Color    string    `json:"color"`
	Category *Category `json:"category"`
}

// GroupPayload is the encrypted part of a group. Both fields are optional.
type GroupPayload struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CardColor is an entry of the fixed card palette.
type CardColor struct {
	Name   string
	Value  string
	Border string
}

// CardColors is the palette offered for cards, in display order.
var CardColors = []CardColor{
	{Name: "Yellow", Value: "#fef08a", Border: "#facc15"},
	{Name: "Pink", Value: "#fbcfe8", Border: "#f472b6"},
	{Name: "Blue", Value: "#bfdbfe", Border: "#60a5fa"},
	{Name: "Green", Value: "#bbf7d0", Border: "#4ade80"},
	{Name: "Purple", Value: "#e9d5ff", Border: "#c084fc"},
	{Name: "Orange", Value: "#fed7aa", Border: "#fb923c"},
	{Name: "Red", Value: "#fecaca", Border: "#f87171"},
	{Name: "Gray", Value: "#e5e7eb", Border: "#9ca3af"},
}

// DefaultCardColor is the color of newly created cards.
var DefaultCardColor = CardColors[0]

// LookupCardColor finds a palette entry by value or by (case-sensitive) name.
func LookupCardColor(s string) (CardColor, bool) {
	for _, c := range CardColors {
		if c.Value == s || c.Name == s {
			return c, true
		}
	}
	return CardColor{}, false
}
