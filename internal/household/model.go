package household

import "time"

// Member is one entry of a household's externally managed member list
type Member struct {
	HouseholdID string    `json:"household_id"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// NameIndex maps member ids to display names
func NameIndex(members []Member) map[string]string {
	idx := make(map[string]string, len(members))
	for _, m := range members {
		idx[m.ID] = m.Name
	}
	return idx
}
