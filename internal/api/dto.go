package api

import (
	"time"

	"shareit/internal/models"
	"shareit/internal/service"
)

type userRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type itemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *int64  `json:"requestId"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type bookingRequest struct {
	ItemID int64            `json:"itemId"`
	Start  models.Timestamp `json:"start"`
	End    models.Timestamp `json:"end"`
}

type itemRequestRequest struct {
	Description string `json:"description"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type itemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

type bookingRefResponse struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type commentResponse struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

type itemDetailsResponse struct {
	itemResponse
	LastBooking *bookingRefResponse `json:"lastBooking"`
	NextBooking *bookingRefResponse `json:"nextBooking"`
	Comments    []commentResponse   `json:"comments"`
}

type shortRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookingResponse struct {
	ID     int64     `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Booker shortRef  `json:"booker"`
	Item   shortRef  `json:"item"`
}

type requestResponse struct {
	ID          int64          `json:"id"`
	Description string         `json:"description"`
	Created     time.Time      `json:"created"`
	Items       []itemResponse `json:"items"`
}

func toUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toUsers(users []*models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return out
}

func toItem(i *models.Item) itemResponse {
	return itemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		OwnerID:     i.OwnerID,
		RequestID:   i.RequestID,
	}
}

func toItems(items []*models.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toItem(i))
	}
	return out
}

func toBookingRef(ref *service.BookingRef) *bookingRefResponse {
	if ref == nil {
		return nil
	}
	return &bookingRefResponse{ID: ref.ID, BookerID: ref.BookerID, Start: ref.Start, End: ref.End}
}

func toComment(c *models.Comment) commentResponse {
	resp := commentResponse{ID: c.ID, Text: c.Text, Created: c.Created}
	if c.Author != nil {
		resp.AuthorName = c.Author.Name
	}
	return resp
}

func toItemDetails(d *service.ItemDetails) itemDetailsResponse {
	comments := make([]commentResponse, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, toComment(c))
	}
	return itemDetailsResponse{
		itemResponse: toItem(d.Item),
		LastBooking:  toBookingRef(d.LastBooking),
		NextBooking:  toBookingRef(d.NextBooking),
		Comments:     comments,
	}
}

func toItemDetailsList(details []*service.ItemDetails) []itemDetailsResponse {
	out := make([]itemDetailsResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toItemDetails(d))
	}
	return out
}

func toBooking(b *models.Booking) bookingResponse {
	resp := bookingResponse{
		ID:     b.ID,
		Start:  b.Start,
		End:    b.End,
		Status: string(b.Status),
		Booker: shortRef{ID: b.BookerID},
		Item:   shortRef{ID: b.ItemID},
	}
	if b.Booker != nil {
		resp.Booker.Name = b.Booker.Name
	}
	if b.Item != nil {
		resp.Item.Name = b.Item.Name
	}
	return resp
}

func toBookings(bookings []*models.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBooking(b))
	}
	return out
}

func toRequest(r *models.ItemRequest) requestResponse {
	items := make([]itemResponse, 0, len(r.Items))
	for i := range r.Items {
		items = append(items, toItem(&r.Items[i]))
	}
	return requestResponse{ID: r.ID, Description: r.Description, Created: r.Created, Items: items}
}

func toRequests(requests []*models.ItemRequest) []requestResponse {
	out := make([]requestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toRequest(r))
	}
	return out
}
