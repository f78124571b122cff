package web

import (
	"errors"
	"time"

	"go-portlock/internal/db"
	"go-portlock/internal/log"
	"go-portlock/internal/models"
	"go-portlock/internal/poller"
	"go-portlock/internal/scheduler"
	"go-portlock/internal/snmp"

	"github.com/gofiber/fiber/v2"
)

type portRequest struct {
	IP       string `json:"ip"`
	IfIndex  int    `json:"ifIndex"`
	Duration int    `json:"duration"`
}

// errorStatus maps core errors to HTTP codes.
func errorStatus(err error) int {
	var te *snmp.TransportError
	switch {
	case errors.Is(err, scheduler.ErrInvalidAction), errors.Is(err, scheduler.ErrInvalidDuration):
		return fiber.StatusBadRequest
	case errors.Is(err, db.ErrSwitchNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &te):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, msg string, err error) error {
	log.Error(msg, "path", c.Path(), "error", err)
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error":   msg,
		"message": err.Error(),
	})
}

func SetupRoutes(app *fiber.App, sched *scheduler.Scheduler, p *poller.Poller, store *db.Store) {
	api := app.Group("/api")

	api.Post("/port/block", func(c *fiber.Ctx) error {
		var req portRequest
		if err := c.BodyParser(&req); err != nil || req.IP == "" || req.IfIndex == 0 || req.Duration == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "ip, ifIndex and duration are required",
			})
		}

		err := sched.SchedulePortAction(c.UserContext(), req.IP, req.IfIndex, scheduler.ActionBlock,
			time.Duration(req.Duration)*time.Second)
		if err != nil {
			return fail(c, "failed to block port", err)
		}
		return c.JSON(fiber.Map{"success": true})
	})

	api.Post("/port/unblock", func(c *fiber.Ctx) error {
		var req portRequest
		if err := c.BodyParser(&req); err != nil || req.IP == "" || req.IfIndex == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "ip and ifIndex are required",
			})
		}

		if err := sched.SchedulePortAction(c.UserContext(), req.IP, req.IfIndex, scheduler.ActionUnblock, 0); err != nil {
			return fail(c, "failed to unblock port", err)
		}
		return c.JSON(fiber.Map{"success": true})
	})

	api.Post("/port/poll", func(c *fiber.Ctx) error {
		var req portRequest
		if err := c.BodyParser(&req); err != nil || req.IP == "" || req.IfIndex == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "ip and ifIndex are required",
			})
		}

		if err := p.PollSingleInterface(c.UserContext(), req.IP, req.IfIndex); err != nil {
			return fail(c, "failed to poll port", err)
		}
		return c.JSON(fiber.Map{"success": true})
	})

	api.Post("/scan", func(c *fiber.Ctx) error {
		report, err := p.ScanAndPersistPorts(c.UserContext())
		if err != nil {
			return fail(c, "scan failed", err)
		}
		failed := make(map[string]string, len(report.Failed))
		for ip, err := range report.Failed {
			failed[ip] = err.Error()
		}
		return c.JSON(fiber.Map{
			"id":       report.ID,
			"switches": report.Switches,
			"ports":    report.Ports,
			"failed":   failed,
		})
	})

	api.Get("/switches", func(c *fiber.Ctx) error {
		switches, err := store.ListSwitches()
		if err != nil {
			return fail(c, "failed to list switches", err)
		}
		return c.JSON(switches)
	})

	api.Get("/switches/:id/ports", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid switch id"})
		}
		sw, err := store.SwitchByID(uint(id))
		if err != nil {
			return fail(c, "failed to load switch", err)
		}
		ports, err := store.ListPorts(sw.ID)
		if err != nil {
			return fail(c, "failed to list ports", err)
		}

		type PortView struct {
			models.Port
			Label    string     `json:"label,omitempty"`
			RevertAt *time.Time `json:"revert_at,omitempty"`
		}

		labels := p.Labels(sw.ID)
		views := make([]PortView, 0, len(ports))
		for _, port := range ports {
			v := PortView{Port: port, Label: labels[port.Number]}
			if at, ok := sched.Pending(sw.IPv4, port.Number); ok {
				v.RevertAt = &at
			}
			views = append(views, v)
		}
		return c.JSON(fiber.Map{"switch": sw, "ports": views})
	})
}
