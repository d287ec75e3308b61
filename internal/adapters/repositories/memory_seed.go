package repositories

import (
	"courier-tracking-service/internal/domain"
	"strings"
)

const seedRoleCourier = "courier"

// LoadMemorySeed fills the in-memory stores from a seed file: courier users
// become known couriers and every order is added as-is.
func LoadMemorySeed(jsonPath string, locations *MemoryLocationStore, orders *MemoryOrderRepository) error {
	data, err := ReadSeed(jsonPath)
	if err != nil {
		return err
	}

	for _, u := range data.Users {
		if !strings.EqualFold(strings.TrimSpace(u.Role), seedRoleCourier) {
			continue
		}
		locations.RegisterCourier(u.OrganizationID, domain.Courier{ID: u.ID, Name: u.Name, Phone: u.Phone})
	}

	for _, o := range data.Orders {
		orders.Add(MemoryOrder{
			OrganizationID: o.OrganizationID,
			CourierID:      o.CourierID,
			Stop: domain.Stop{
				ID:         o.ID,
				Lat:        o.Lat,
				Lon:        o.Lon,
				Address:    o.Address,
				Status:     o.Status,
				ClientName: o.ClientName,
			},
		})
	}

	return nil
}
