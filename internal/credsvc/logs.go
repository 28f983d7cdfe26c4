// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credsvc

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
)

// DefaultLogStatus is assigned to work logs created without a status.
const DefaultLogStatus = "pending"

type workLog struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	WeekNumber      int     `json:"week_number"`
	Day             string  `json:"day"`
	Date            string  `json:"date"`
	WorkingHours    float64 `json:"working_hours"`
	TaskDescription string  `json:"task_description"`
	Status          string  `json:"status"`
	ReviewerID      *int64  `json:"reviewer_id"`
}

type logCreate struct {
	Day             string  `json:"day"`
	Date            string  `json:"date"`
	WeekNumber      int     `json:"week_number"`
	WorkingHours    float64 `json:"working_hours"`
	TaskDescription string  `json:"task_description"`
	Status          string  `json:"status"`
	ReviewerID      *int64  `json:"reviewer_id"`
}

func (l *logCreate) Validate() error {
	//nolint:wrapcheck // validation errors are rendered as-is
	return validation.ValidateStruct(l,
		validation.Field(&l.Day, validation.Required),
		validation.Field(&l.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&l.WeekNumber, validation.Required, validation.Min(1), validation.Max(53)),
		validation.Field(&l.WorkingHours, validation.Min(0.0), validation.Max(24.0)),
		validation.Field(&l.TaskDescription, validation.Required),
	)
}

// addLog stores a work log for userID, defaulting its status.
func (s *Service) addLog(userID int64, in logCreate) workLog {
	if in.Status == "" {
		in.Status = DefaultLogStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := workLog{
		ID:              s.nextLogID,
		UserID:          userID,
		WeekNumber:      in.WeekNumber,
		Day:             in.Day,
		Date:            in.Date,
		WorkingHours:    in.WorkingHours,
		TaskDescription: in.TaskDescription,
		Status:          in.Status,
		ReviewerID:      in.ReviewerID,
	}
	s.nextLogID++
	s.logs[userID] = append(s.logs[userID], entry)
	return entry
}

func (s *Service) handleListLogs(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	logs := append([]workLog{}, s.logs[u.id]...)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, logs)
}

func (s *Service) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var in logCreate
	if !decodeBody(w, r, &in) {
		return
	}

	entry := s.addLog(u.id, in)
	s.logger.InfoContext(r.Context(), "work log created", "user_id", u.id, "log_id", entry.ID)
	writeJSON(w, http.StatusOK, entry)
}
