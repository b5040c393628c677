// package models defines the data model for the front-desk console
package models

import "strconv"

// Record is implemented by every row the record-store serves.
type Record interface {
	RecordID() int64 // RecordID returns the server-assigned identifier
}

// Client is a hotel guest.
type Client struct {
	ID         int64  `json:"id"`
	Surname    string `json:"surname"`
	Name       string `json:"name"`
	Patronymic string `json:"patronymic,omitempty"`
	Passport   string `json:"passport,omitempty"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

func (c Client) RecordID() int64 { return c.ID }

// FullName joins the non-empty name parts, surname first.
func (c Client) FullName() string {
	out := c.Surname
	for _, part := range []string{c.Name, c.Patronymic} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}

// Room is a reservable unit.
type Room struct {
	ID            int64   `json:"id"`
	RoomNumber    string  `json:"room_number"`
	Capacity      int     `json:"capacity"`
	Category      string  `json:"category"`
	PricePerNight float64 `json:"price_per_night"`
	IsAvailable   bool    `json:"is_available"`
	Description   string  `json:"description,omitempty"`
}

func (r Room) RecordID() int64 { return r.ID }

// Booking reserves a room for a client between two dates (YYYY-MM-DD).
type Booking struct {
	ID        int64   `json:"id"`
	ClientID  int64   `json:"client_id"`
	RoomID    int64   `json:"room_id"`
	CheckIn   string  `json:"check_in"`
	CheckOut  string  `json:"check_out"`
	TotalSum  float64 `json:"total_sum"`
	Status    string  `json:"status"`
	Notes     string  `json:"notes,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

func (b Booking) RecordID() int64 { return b.ID }

// FormatID renders a record id for paths and storage keys.
func FormatID(id int64) string { return strconv.FormatInt(id, 10) }
