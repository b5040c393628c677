package models

// Option is one labelled entry of a filter or sort catalog.
type Option struct {
	Key   string
	Label string
}

// Entity describes one record type to the generic sync machinery.
//
// Everything that differs between clients, rooms and bookings lives here so the
// repository, hub, filter store and orchestrator can be written once.
type Entity struct {
	Name    string   // singular, lower-case: "client"
	Plural  string   // "clients"
	Label   string   // user-facing singular: "Client"
	Filters []Option // filter keys accepted by the list endpoint
	Sorts   []Option // sortable fields
}

// Endpoint returns the collection path, e.g. /api/clients.
func (e Entity) Endpoint() string { return "/api/" + e.Plural }

// FiltersKey is the storage key holding the JSON-encoded filters.
func (e Entity) FiltersKey() string { return e.Name + "Filters" }

// SortKey is the storage key holding the sort field.
func (e Entity) SortKey() string { return e.Name + "Sort" }

// SortOrderKey is the storage key holding the sort direction.
func (e Entity) SortOrderKey() string { return e.Name + "SortOrder" }

// RefreshKey is the storage key a detached form writes to request a list reload.
func (e Entity) RefreshKey() string { return e.Plural + "_should_refresh" }

// MessageType is the type carried by form-closed messages for this entity.
func (e Entity) MessageType() string { return e.Name + "_form_closed" }

// FilterLabel returns the catalog label for key, or key itself when unknown.
func (e Entity) FilterLabel(key string) string { return lookup(e.Filters, key) }

// SortLabel returns the catalog label for field, or field itself when unknown.
func (e Entity) SortLabel(field string) string { return lookup(e.Sorts, field) }

// HasFilter reports whether key is in the filter catalog.
func (e Entity) HasFilter(key string) bool { return contains(e.Filters, key) }

// HasSort reports whether field is in the sort catalog.
func (e Entity) HasSort(field string) bool { return contains(e.Sorts, field) }

func lookup(opts []Option, key string) string {
	for _, o := range opts {
		if o.Key == key {
			return o.Label
		}
	}
	return key
}

func contains(opts []Option, key string) bool {
	for _, o := range opts {
		if o.Key == key {
			return true
		}
	}
	return false
}

var (
	Clients = Entity{
		Name:   "client",
		Plural: "clients",
		Label:  "Client",
		Filters: []Option{
			{"surname_prefix", "Surname"},
			{"name_prefix", "Name"},
			{"patronymic_prefix", "Patronymic"},
			{"phone_substring", "Phone"},
		},
		Sorts: []Option{
			{"id", "ID"},
			{"surname", "Surname"},
			{"name", "Name"},
			{"patronymic", "Patronymic"},
			{"phone", "Phone"},
		},
	}

	Rooms = Entity{
		Name:   "room",
		Plural: "rooms",
		Label:  "Room",
		Filters: []Option{
			{"room_number_substring", "Number"},
			{"category", "Category"},
			{"min_capacity", "Min. capacity"},
			{"max_capacity", "Max. capacity"},
			{"is_available", "Availability"},
			{"min_price", "Min. price"},
			{"max_price", "Max. price"},
		},
		Sorts: []Option{
			{"id", "ID"},
			{"room_number", "Number"},
			{"price", "Price"},
			{"capacity", "Capacity"},
			{"category", "Category"},
		},
	}

	Bookings = Entity{
		Name:   "booking",
		Plural: "bookings",
		Label:  "Booking",
		Filters: []Option{
			{"client_id", "Client ID"},
			{"room_id", "Room ID"},
			{"status", "Status"},
			{"start_date", "From"},
			{"end_date", "To"},
			{"min_price", "Min. sum"},
			{"max_price", "Max. sum"},
		},
		Sorts: []Option{
			{"id", "ID"},
			{"check_in", "Check-in"},
			{"check_out", "Check-out"},
			{"total_sum", "Sum"},
			{"created_at", "Created"},
		},
	}
)

// Entities lists every entity in menu order.
func Entities() []Entity { return []Entity{Clients, Rooms, Bookings} }

// LookupEntity finds an entity by singular or plural name.
func LookupEntity(name string) (Entity, bool) {
	for _, e := range Entities() {
		if e.Name == name || e.Plural == name {
			return e, true
		}
	}
	return Entity{}, false
}

// BookingStatuses are the statuses the record-store accepts.
var BookingStatuses = []string{"confirmed", "cancelled", "completed", "pending"}
