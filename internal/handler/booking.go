package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

// BookingHandler exposes the booking lifecycle over HTTP. Every route
// expects JWTAuth to have run.
type BookingHandler struct {
	Bookings *booking.Service
	Timeout  time.Duration
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: svc, Timeout: 5 * time.Second}
}

type createBookingReq struct {
	Table     uint64 `json:"table" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	PartySize int    `json:"party_size"`
	User      uint64 `json:"user"` // optional; must be the caller
}

// updateBookingReq uses pointers so that PATCH can tell an absent field
// from a zero value. table and user are fixed at creation.
type updateBookingReq struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	PartySize *int    `json:"party_size"`
	Status    *string `json:"status"`
}

type bookingResp struct {
	ID         uint64    `json:"id"`
	User       uint64    `json:"user"`
	Table      uint64    `json:"table"`
	Restaurant uint64    `json:"restaurant"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	PartySize  uint32    `json:"party_size"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type bookingListResp struct {
	Items []bookingResp `json:"items"`
	Count int           `json:"count"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:         b.ID,
		User:       b.UserID,
		Table:      b.TableID,
		Restaurant: b.RestaurantID,
		Date:       b.Date,
		Time:       b.Time,
		PartySize:  b.PartySize,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toBookingList(rows []model.Booking) bookingListResp {
	items := make([]bookingResp, 0, len(rows))
	for i := range rows {
		items = append(items, toBookingResp(&rows[i]))
	}
	return bookingListResp{Items: items, Count: len(items)}
}

func (h *BookingHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.Bookings.Create(ctx, p, booking.CreateInput{
		TableID:   req.Table,
		Date:      req.Date,
		Time:      req.Time,
		PartySize: req.PartySize,
		UserID:    req.User,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// ListMine handles GET /v1/bookings/mine.
func (h *BookingHandler) ListMine(c echo.Context) error {
	return h.list(c, func(ctx context.Context, p model.Principal) ([]model.Booking, error) {
		return h.Bookings.ListForUser(ctx, p)
	})
}

// ListToday handles GET /v1/bookings/today.
func (h *BookingHandler) ListToday(c echo.Context) error {
	return h.list(c, func(ctx context.Context, p model.Principal) ([]model.Booking, error) {
		return h.Bookings.ListToday(ctx, p)
	})
}

// ListByRestaurant handles GET /v1/bookings/restaurant/:id.
func (h *BookingHandler) ListByRestaurant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	return h.list(c, func(ctx context.Context, p model.Principal) ([]model.Booking, error) {
		return h.Bookings.ListForRestaurant(ctx, p, id)
	})
}

func (h *BookingHandler) list(c echo.Context, fn func(context.Context, model.Principal) ([]model.Booking, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rows, err := fn(ctx, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingList(rows))
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	return h.one(c, func(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
		return h.Bookings.Retrieve(ctx, p, id)
	})
}

// Put handles PUT /v1/bookings/:id. date, time and party_size are required.
func (h *BookingHandler) Put(c echo.Context) error { return h.update(c, true) }

// Patch handles PATCH /v1/bookings/:id.
func (h *BookingHandler) Patch(c echo.Context) error { return h.update(c, false) }

func (h *BookingHandler) update(c echo.Context, full bool) error {
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ch := model.BookingChanges{Date: req.Date, Time: req.Time, PartySize: req.PartySize, Status: req.Status}
	return h.one(c, func(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
		return h.Bookings.Update(ctx, p, id, ch, full)
	})
}

// Delete handles DELETE /v1/bookings/:id. The booking is cancelled, not
// removed, and the cancelled record is returned.
func (h *BookingHandler) Delete(c echo.Context) error {
	return h.one(c, func(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
		return h.Bookings.Delete(ctx, p, id)
	})
}

// Cancel handles PATCH /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.one(c, func(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
		return h.Bookings.Cancel(ctx, p, id)
	})
}

func (h *BookingHandler) one(c echo.Context, fn func(context.Context, model.Principal, uint64) (*model.Booking, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := fn(ctx, p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}
