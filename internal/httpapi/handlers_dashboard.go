package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type dashboardRow struct {
	Name       string
	Alive      bool
	AliveCount int
	TotalCount int
}

type dashboardData struct {
	ServiceCount int
	BuiltAt      string
	Rows         []dashboardRow
}

// handleDashboard serves "/": an HTML status page, or a plaintext table
// when the User-Agent looks like curl.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := s.catalog.Get()
	snapshot, ready := s.crawler.Snapshot()

	rows := make([]dashboardRow, 0, len(data.Services))
	for _, svc := range data.Services {
		row := dashboardRow{Name: svc.Name, TotalCount: len(svc.Instances)}
		if ready {
			if cs, ok := snapshot.ServicesByName[svc.Name]; ok {
				for _, inst := range cs.Instances {
					if inst.Status.IsOk() {
						row.AliveCount++
					}
				}
			}
		}
		row.Alive = row.AliveCount > 0
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	builtAt := "never (crawler has not completed its first pass)"
	if ready {
		builtAt = snapshot.BuiltAt.Format("2006-01-02 15:04:05 MST")
	}

	if strings.Contains(strings.ToLower(r.UserAgent()), "curl") {
		s.writePlaintextDashboard(w, rows, builtAt)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, dashboardData{ServiceCount: len(rows), BuiltAt: builtAt, Rows: rows}); err != nil {
		if s.logger != nil {
			s.logger.Error().Err(err).Msg("failed to render dashboard template")
		}
		renderErrorHTML(w, http.StatusInternalServerError, "failed to render dashboard")
	}
}

func (s *Server) writePlaintextDashboard(w http.ResponseWriter, rows []dashboardRow, builtAt string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Fastside — snapshot built %s\n\n", builtAt)
	for _, row := range rows {
		fmt.Fprintf(w, "%-30s %d/%d alive\n", row.Name, row.AliveCount, row.TotalCount)
	}
}
