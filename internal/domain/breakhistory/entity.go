package breakhistory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrHistoryNotFound = errors.New("break history not found")

// History is the per (employee, date) rollup of ended breaks. It is derived
// data: TotalDuration always equals the sum of ended break durations.
type History struct {
	EmployeeID      string
	Date            time.Time
	TotalDuration   time.Duration
	QualifyingCount int
	BreakCount      int
	UpdatedAt       time.Time
}

// Policy decides which break categories count towards QualifyingCount.
type Policy struct {
	qualifying map[string]struct{}
}

func NewPolicy(categories []string) Policy {
	p := Policy{qualifying: make(map[string]struct{}, len(categories))}
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			p.qualifying[c] = struct{}{}
		}
	}
	return p
}

func (p Policy) Qualifies(category string) bool {
	_, ok := p.qualifying[strings.ToLower(category)]
	return ok
}

type HistoryResponse struct {
	Date               string `json:"date"`
	TotalBreakSeconds  int64  `json:"total_break_seconds"`
	TotalBreakTime     string `json:"total_break_time"`
	NumberOfBreaks     int    `json:"number_of_breaks"`
	NumberOfQualifying int    `json:"number_of_scheduled_breaks"`
}

func NewHistoryResponse(h History) HistoryResponse {
	return HistoryResponse{
		Date:               h.Date.Format("2006-01-02"),
		TotalBreakSeconds:  int64(h.TotalDuration / time.Second),
		TotalBreakTime:     FormatDuration(h.TotalDuration),
		NumberOfBreaks:     h.BreakCount,
		NumberOfQualifying: h.QualifyingCount,
	}
}

// FormatDuration renders d as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
