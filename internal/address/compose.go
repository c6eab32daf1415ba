package address

import (
	"strings"

	"github.com/sells-group/geodata/internal/store"
)

// Compose renders the canonical address of a house on the street in sc:
// "Россия, область Московская, г. Балашиха, ул. Ленина, д. 5 корп. 2".
func Compose(sc *store.StreetContext, house, building string) string {
	parts := []string{
		sc.Country.NameRU,
		sc.Node.NameWithType(&sc.NodeType),
		"г. " + sc.City.NameRU,
		sc.Street.NameWithType(sc.Type),
		HouseLabel(house, building),
	}
	return strings.Join(parts, ", ")
}

// HouseLabel renders "д. 5" or "д. 5 корп. 2".
func HouseLabel(house, building string) string {
	s := "д. " + strings.TrimSpace(house)
	if b := strings.TrimSpace(building); b != "" {
		s += " корп. " + b
	}
	return s
}
