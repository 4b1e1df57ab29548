package daemon

import (
	"net/http"
	"strconv"
	"strings"

	"mend/internal/debug"
	"mend/internal/graph"
	"mend/internal/impact"
	"mend/internal/intent"
)

// handleTrackDependency handles POST /api/v1/graph/edges
func (d *Daemon) handleTrackDependency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req graph.TrackRequest
	if !d.decodeBody(w, r, &req) {
		return
	}

	edge, err := d.engine.Graph.TrackDependency(r.Context(), req)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusCreated, edge)
}

// handleFindImpact handles GET /api/v1/graph/impact
func (d *Daemon) handleFindImpact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	targetType := q.Get("targetType")
	targetID := q.Get("targetId")
	if targetType == "" || targetID == "" {
		d.writeError(w, http.StatusBadRequest, "INVALID_QUERY", "targetType and targetId are required")
		return
	}

	changeType := impact.ChangeType(q.Get("changeType"))
	if changeType == "" {
		changeType = impact.ChangeModification
	}

	analysis, err := d.engine.Impact.FindImpact(r.Context(), targetType, targetID, changeType)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, analysis)
}

// scanRequest is the body of POST /api/v1/graph/scan
type scanRequest struct {
	Files map[string]string `json:"files"`
}

// handleScanCodebase handles POST /api/v1/graph/scan
func (d *Daemon) handleScanCodebase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scanRequest
	if !d.decodeBody(w, r, &req) {
		return
	}

	result, err := d.engine.Scanner.ScanCodebase(r.Context(), req.Files)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, result)
}

// captureRequest is the body of POST /api/v1/captures
type captureRequest struct {
	Action  string         `json:"action"`
	Context intent.Context `json:"context"`
}

// captureResponse pairs the capture result with an optional healing
// response when auto-heal fired
type captureResponse struct {
	*intent.CaptureResult
	Healing interface{} `json:"healing,omitempty"`
}

// handleCaptures handles POST /api/v1/captures
func (d *Daemon) handleCaptures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req captureRequest
	if !d.decodeBody(w, r, &req) {
		return
	}
	if req.Action == "" {
		d.writeError(w, http.StatusBadRequest, "INVALID_BODY", "action is required")
		return
	}

	result, healResp, err := d.engine.CaptureUserAction(r.Context(), req.Action, req.Context)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}

	resp := captureResponse{CaptureResult: result}
	if healResp != nil {
		resp.Healing = healResp
	}
	d.writeJSON(w, http.StatusCreated, resp)
}

// handleCaptureRoute handles GET /api/v1/captures/:id
func (d *Daemon) handleCaptureRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	captureID := strings.TrimPrefix(r.URL.Path, "/api/v1/captures/")
	if captureID == "" || strings.Contains(captureID, "/") {
		http.NotFound(w, r)
		return
	}

	capture, predictions, err := d.engine.Intent.GetCapture(r.Context(), captureID)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, map[string]interface{}{
		"capture":     capture,
		"predictions": predictions,
	})
}

// healRequest is the body of POST /api/v1/healing
type healRequest struct {
	CaptureID string `json:"captureId"`
}

// handleInitiateHealing handles POST /api/v1/healing
func (d *Daemon) handleInitiateHealing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req healRequest
	if !d.decodeBody(w, r, &req) {
		return
	}
	if req.CaptureID == "" {
		d.writeError(w, http.StatusBadRequest, "INVALID_BODY", "captureId is required")
		return
	}

	resp, err := d.engine.HealCapture(r.Context(), req.CaptureID)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if resp.Position > 0 {
		status = http.StatusAccepted
	}
	d.writeJSON(w, status, resp)
}

// handleHealingActions handles GET /api/v1/healing/actions
func (d *Daemon) handleHealingActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	actions, err := d.engine.Actions.ListByRoom(d.config.Room.ID, limit)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, map[string]interface{}{"actions": actions})
}

// sessionStartRequest is the body of POST /api/v1/debug/sessions
type sessionStartRequest struct {
	TriggerAction    string          `json:"triggerAction"`
	UserIntent       string          `json:"userIntent"`
	ExpectedBehavior *debug.Behavior `json:"expectedBehavior"`
}

// handleSessions handles /api/v1/debug/sessions (POST create, GET list)
func (d *Daemon) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req sessionStartRequest
		if !d.decodeBody(w, r, &req) {
			return
		}
		session, err := d.engine.Debug.StartSession(req.TriggerAction, req.UserIntent, req.ExpectedBehavior)
		if err != nil {
			d.writeServiceError(w, err)
			return
		}
		d.writeJSON(w, http.StatusCreated, session)

	case http.MethodGet:
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				limit = n
			}
		}
		sessions, err := d.engine.Debug.ListSessions(limit)
		if err != nil {
			d.writeServiceError(w, err)
			return
		}
		d.writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// analyzeRequest is the body of POST /api/v1/debug/sessions/:id/analyze
type analyzeRequest struct {
	ActualBehavior *debug.Behavior `json:"actualBehavior"`
}

// applyFixRequest is the body of POST /api/v1/debug/sessions/:id/fixes
type applyFixRequest struct {
	Fix debug.Fix `json:"fix"`
}

// handleSessionRoute handles /api/v1/debug/sessions/:id and its
// analyze/fixes/resolve subroutes
func (d *Daemon) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/debug/sessions/")
	sessionID, action, _ := strings.Cut(rest, "/")
	if sessionID == "" {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		session, err := d.engine.Debug.GetSession(sessionID)
		if err != nil {
			d.writeServiceError(w, err)
			return
		}
		d.writeJSON(w, http.StatusOK, session)

	case "analyze":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req analyzeRequest
		if !d.decodeBody(w, r, &req) {
			return
		}
		result, err := d.engine.Debug.AnalyzeDiscrepancy(sessionID, req.ActualBehavior)
		if err != nil {
			d.writeServiceError(w, err)
			return
		}
		d.writeJSON(w, http.StatusOK, result)

	case "fixes":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req applyFixRequest
		if !d.decodeBody(w, r, &req) {
			return
		}
		session, err := d.engine.Debug.ApplyFix(sessionID, req.Fix)
		if err != nil {
			d.writeServiceError(w, err)
			return
		}
		d.writeJSON(w, http.StatusOK, session)

	case "resolve":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		session, err := d.engine.Debug.ResolveSession(sessionID)
		if err != nil {
			d.writeServiceError(w, err)
			return
		}
		d.writeJSON(w, http.StatusOK, session)

	default:
		http.NotFound(w, r)
	}
}
