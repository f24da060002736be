package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-hours/pkg/core/services"
)

func (s *Server) createEvent(c *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required"`
		Date     string `json:"date" binding:"required"`
		Location string `json:"location"`
		Capacity *int   `json:"capacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		s.writeError(c, err)
		return
	}

	event, err := s.svc.Ledger.CreateEvent(c.Request.Context(), req.Title, date, req.Location, *req.Capacity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEventJSON(*event))
}

func (s *Server) listEvents(c *gin.Context) {
	events, err := s.svc.Ledger.ListEvents(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": mapSlice(events, toEventJSON)})
}

func (s *Server) getEvent(c *gin.Context) {
	event, err := s.svc.Ledger.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventJSON(*event))
}

// updateEvent edits title, date or location. Capacity is not accepted here.
func (s *Server) updateEvent(c *gin.Context) {
	var req struct {
		Title    *string `json:"title"`
		Date     *string `json:"date"`
		Location *string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	changes := services.EventChanges{Title: req.Title, Location: req.Location}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			s.writeError(c, err)
			return
		}
		changes.Date = &date
	}

	event, err := s.svc.Ledger.UpdateEvent(c.Request.Context(), c.Param("id"), changes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventJSON(*event))
}

func (s *Server) deleteEvent(c *gin.Context) {
	if err := s.svc.Ledger.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
