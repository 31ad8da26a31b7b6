package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/calendar-reminders/internal/editor"
	"github.com/i474232898/calendar-reminders/internal/ics"
	"github.com/i474232898/calendar-reminders/internal/reminder"
	"github.com/i474232898/calendar-reminders/internal/weather"
)

var validate = validator.New()

// Deps are the services the HTTP API is built on.
type Deps struct {
	Repo    *reminder.Repository
	Editor  *editor.Editor
	Weather editor.Summarizer
	// Now defaults to time.Now.
	Now func() time.Time
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &handlers{Deps: deps}

	v1 := app.Group("/api/v1")

	v1.Get("/days", h.listDays)
	v1.Get("/days/:day", h.getDay)
	v1.Delete("/days/:day", h.clearDay)

	v1.Post("/reminders", h.createReminder)
	v1.Put("/reminders/:id", h.editReminder)
	v1.Delete("/reminders/:id", h.deleteReminder)

	v1.Get("/month", h.getMonth)
	v1.Put("/month", h.setMonth)
	v1.Post("/month/shift", h.shiftMonth)

	v1.Get("/weather", h.lookupWeather)
	v1.Get("/calendar.ics", h.exportCalendar)
}

type handlers struct {
	Deps
}

type daysQuery struct {
	Month string `query:"month" validate:"omitempty,datetime=2006-01"`
}

func (h *handlers) listDays(c *fiber.Ctx) error {
	var q daysQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	days := h.Repo.Days()
	if q.Month != "" {
		filtered := make([]string, 0, len(days))
		for _, d := range days {
			if strings.HasPrefix(d, q.Month+"-") {
				filtered = append(filtered, d)
			}
		}
		days = filtered
	}
	return c.JSON(fiber.Map{"days": days})
}

func parseDayParam(c *fiber.Ctx) (time.Time, error) {
	day, err := time.Parse(reminder.DayLayout, c.Params("day"))
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "day must be formatted as YYYY-MM-DD")
	}
	return day, nil
}

func (h *handlers) getDay(c *fiber.Ctx) error {
	day, err := parseDayParam(c)
	if err != nil {
		return err
	}
	key := reminder.DayKey(day)
	return c.JSON(fiber.Map{
		"day":       key,
		"reminders": h.Repo.Day(key),
	})
}

func (h *handlers) clearDay(c *fiber.Ctx) error {
	day, err := parseDayParam(c)
	if err != nil {
		return err
	}
	h.Repo.ClearDay(day)
	return c.SendStatus(fiber.StatusNoContent)
}

func editorError(err error) error {
	switch {
	case errors.Is(err, editor.ErrInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, editor.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, editor.ErrStale):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save reminder")
	}
}

func (h *handlers) createReminder(c *fiber.Ctx) error {
	var in editor.Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reminder body")
	}

	r, err := h.Editor.Create(c.UserContext(), in)
	if err != nil {
		return editorError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (h *handlers) editReminder(c *fiber.Ctx) error {
	var in editor.Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reminder body")
	}

	r, err := h.Editor.Edit(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return editorError(err)
	}
	return c.JSON(r)
}

func (h *handlers) deleteReminder(c *fiber.Ctx) error {
	if !h.Repo.Delete(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "reminder not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) monthView(c *fiber.Ctx, first time.Time) error {
	snapshot := h.Repo.Snapshot()
	counts := make(map[string]int, len(snapshot))
	for day, rs := range snapshot {
		counts[day] = len(rs)
	}
	return c.JSON(fiber.Map{
		"monthStart": first,
		"month":      first.Format("2006-01"),
		"weeks":      monthGrid(first, counts),
	})
}

func (h *handlers) getMonth(c *fiber.Ctx) error {
	return h.monthView(c, h.Repo.MonthStart())
}

type monthBody struct {
	MonthStart string `json:"monthStart" validate:"required"`
}

func (h *handlers) setMonth(c *fiber.Ctx) error {
	var body monthBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid month body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	at, err := reminder.ParseDate(body.MonthStart)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return h.monthView(c, h.Repo.SetMonthStart(at))
}

type shiftQuery struct {
	By int `query:"by" validate:"min=-1200,max=1200"`
}

func (h *handlers) shiftMonth(c *fiber.Ctx) error {
	var q shiftQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	next := h.Repo.MonthStart().AddDate(0, q.By, 0)
	return h.monthView(c, h.Repo.SetMonthStart(next))
}

type weatherQuery struct {
	City string `query:"city" validate:"required"`
	Date string `query:"date" validate:"required"`
	Time string `query:"time" validate:"omitempty,datetime=15:04"`
}

func (h *handlers) lookupWeather(c *fiber.Ctx) error {
	var q weatherQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	date, err := reminder.ParseDate(q.Date)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if q.Time == "" {
		q.Time = editor.DefaultTime
	}

	resp := fiber.Map{
		"city":    q.City,
		"date":    reminder.DayKey(date),
		"time":    q.Time,
		"weather": nil,
		"icon":    weather.CategoryUnknown.Icon(),
	}
	if cat, ok := h.Weather.Summarize(c.UserContext(), q.City, date, q.Time); ok {
		resp["weather"] = cat
		resp["icon"] = cat.Icon()
	}
	return c.JSON(resp)
}

func (h *handlers) exportCalendar(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="reminders.ics"`)
	return c.SendString(ics.Export(h.Repo.Snapshot(), h.Now().UTC()))
}
