package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func (s *Server) checkIn(c *gin.Context) {
	var req struct {
		VolunteerID string `json:"volunteer_id" binding:"required"`
		EventID     string `json:"event_id" binding:"required"`
		At          string `json:"at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	at, err := parseOptionalTime("at", req.At)
	if err != nil {
		s.writeError(c, err)
		return
	}

	a, err := s.svc.Tracker.CheckIn(c.Request.Context(), req.VolunteerID, req.EventID, at)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAttendanceJSON(*a))
}

func (s *Server) checkOut(c *gin.Context) {
	var req struct {
		At string `json:"at"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	at, err := parseOptionalTime("at", req.At)
	if err != nil {
		s.writeError(c, err)
		return
	}

	a, err := s.svc.Tracker.CheckOut(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAttendanceJSON(*a))
}

func (s *Server) setAttendanceStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	a, err := s.svc.Tracker.UpdateStatus(c.Request.Context(), c.Param("id"), model.AttendanceStatus(req.Status))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAttendanceJSON(*a))
}

func (s *Server) updateAttendance(c *gin.Context) {
	var req struct {
		VolunteerID  string  `json:"volunteer_id" binding:"required"`
		EventID      string  `json:"event_id" binding:"required"`
		CheckInTime  string  `json:"check_in_time" binding:"required"`
		CheckOutTime string  `json:"check_out_time"`
		HoursWorked  float64 `json:"hours_worked"`
		Status       string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	checkIn, err := parseOptionalTime("check_in_time", req.CheckInTime)
	if err != nil {
		s.writeError(c, err)
		return
	}
	checkOut, err := parseOptionalTime("check_out_time", req.CheckOutTime)
	if err != nil {
		s.writeError(c, err)
		return
	}

	record := &model.Attendance{
		ID:          c.Param("id"),
		VolunteerID: req.VolunteerID,
		EventID:     req.EventID,
		CheckInTime: checkIn,
		HoursWorked: req.HoursWorked,
		Status:      model.AttendanceStatus(req.Status),
	}
	if !checkOut.IsZero() {
		record.CheckOutTime = &checkOut
	}

	a, err := s.svc.Tracker.Update(c.Request.Context(), record)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAttendanceJSON(*a))
}

func (s *Server) deleteAttendance(c *gin.Context) {
	if err := s.svc.Tracker.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listAttendance(c *gin.Context) {
	var (
		records []model.Attendance
		err     error
	)
	if volunteerID := c.Query("volunteer_id"); volunteerID != "" {
		records, err = s.svc.Tracker.ByVolunteer(c.Request.Context(), volunteerID)
	} else {
		records, err = s.svc.Tracker.ListAll(c.Request.Context())
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": mapSlice(records, toAttendanceJSON)})
}

func (s *Server) getAttendance(c *gin.Context) {
	a, err := s.svc.Tracker.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAttendanceJSON(*a))
}
