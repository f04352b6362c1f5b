// Package http implements the HTTP handlers of the dashboard: the JSON API
// under /api/survey, the health endpoints, the Prometheus scrape endpoint
// and the server-rendered views. Handlers stay thin: they decode and
// validate the query, call the service layer and format the response.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → SurveyService → Cache
//	                                             ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handler Structure
//
//	func (h *SurveyHandler) Frequency(w http.ResponseWriter, r *http.Request) {
//	    freq, err := h.service.Frequency(r.Context(), fieldParam(r))
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    render.JSON(w, r, freq)
//	}
//
// # Error Handling
//
// Every API error is an RFC 7807 problem document written by
// internal/errors.ErrorHandler:
//
//	{
//	    "type": "/errors/survey/field-not-found",
//	    "title": "Field Not Found",
//	    "status": 404,
//	    "detail": "frequency of \"religião\": field not found: religião",
//	    "instance": "/api/survey/fields/religião/frequency",
//	    "trace_id": "..."
//	}
//
// Views never answer with a problem document for data errors: a failed
// source shows a warning banner on the page instead.
//
// # Themes
//
// The views and the PDF endpoints accept ?tema=claro|escuro. The theme is
// resolved per request and never stored.
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// SurveyServiceInterface.
package http
