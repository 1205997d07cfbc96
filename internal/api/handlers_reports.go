package api

import (
	"net/http"

	"github.com/clinicdesk/frontdesk/internal/reports"
)

func revenueReportHandler(svc *reports.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Revenue(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, RevenueReportResponse{
			Daily:   toRevenueSummaryResponse(report.Daily),
			Weekly:  toRevenueSummaryResponse(report.Weekly),
			Monthly: toRevenueSummaryResponse(report.Monthly),
		})
	}
}
