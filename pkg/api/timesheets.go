package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

type periodRequest struct {
	VolunteerID string `json:"volunteer_id" binding:"required"`
	Start       string `json:"start" binding:"required"`
	End         string `json:"end" binding:"required"`
	Status      string `json:"status"`
}

func (r periodRequest) dates() (time.Time, time.Time, error) {
	start, err := parseDate("start", r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("end", r.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (s *Server) generateTimesheet(c *gin.Context) {
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, end, err := req.dates()
	if err != nil {
		s.writeError(c, err)
		return
	}

	ts, err := s.svc.Accrual.Generate(c.Request.Context(), req.VolunteerID, start, end)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimesheetJSON(*ts))
}

func (s *Server) submitTimesheet(c *gin.Context) {
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, end, err := req.dates()
	if err != nil {
		s.writeError(c, err)
		return
	}

	status := model.TimesheetPending
	if req.Status != "" {
		status = model.TimesheetStatus(req.Status)
	}

	ts, err := s.svc.Accrual.Submit(c.Request.Context(), session(c), req.VolunteerID, start, end, status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimesheetJSON(*ts))
}

func (s *Server) submitEventTimesheet(c *gin.Context) {
	var req struct {
		VolunteerID string `json:"volunteer_id" binding:"required"`
		EventID     string `json:"event_id" binding:"required"`
		EventName   string `json:"event_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ts, err := s.svc.Accrual.SubmitForEvent(c.Request.Context(), session(c), req.VolunteerID, req.EventID, req.EventName)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimesheetJSON(*ts))
}

func (s *Server) listTimesheets(c *gin.Context) {
	var (
		sheets []model.Timesheet
		err    error
	)
	if volunteerID := c.Query("volunteer_id"); volunteerID != "" {
		sheets, err = s.svc.Accrual.ListByVolunteer(c.Request.Context(), volunteerID)
	} else {
		sheets, err = s.svc.Accrual.ListAll(c.Request.Context())
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := sheets[:0]
		for _, ts := range sheets {
			if string(ts.ApprovalStatus) == status {
				filtered = append(filtered, ts)
			}
		}
		sheets = filtered
	}
	c.JSON(http.StatusOK, gin.H{"timesheets": mapSlice(sheets, toTimesheetJSON)})
}

func (s *Server) getTimesheet(c *gin.Context) {
	ts, err := s.svc.Accrual.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimesheetJSON(*ts))
}

func (s *Server) approveTimesheet(c *gin.Context) {
	ts, err := s.svc.Accrual.Approve(c.Request.Context(), c.Param("id"), currentAdmin(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimesheetJSON(*ts))
}

func (s *Server) rejectTimesheet(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ts, err := s.svc.Accrual.Reject(c.Request.Context(), c.Param("id"), currentAdmin(c).ID, req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimesheetJSON(*ts))
}

func (s *Server) deleteTimesheet(c *gin.Context) {
	if err := s.svc.Accrual.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
