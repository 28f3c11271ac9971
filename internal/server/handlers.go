package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	slidecap "github.com/alnah/go-slidecap"
)

// Request body fields shared by every category.
const (
	fieldTotalSlides = "totalSlides"
	fieldSlideType   = "slideType"
)

// screenshotResponse is the 200 body of the capture endpoint.
type screenshotResponse struct {
	Success     bool                      `json:"success"`
	TotalSlides int                       `json:"totalSlides"`
	Slides      []slidecap.Slide          `json:"slides"`
	SlideType   slidecap.SlideKind        `json:"slideType,omitempty"`
	Dimensions  slidecap.Dimensions       `json:"dimensions"`
	Metadata    *slidecap.PayloadMetadata `json:"metadata,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScreenshot captures and slices the slides of one content item.
// POST /api/{category}/screenshot-full
func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "category")
	cat, ok := s.categories[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown category", name)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large",
				fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	req, err := parseCaptureRequest(cat, fields, s.cfg.MaxSlides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	captureID := s.cfg.NewID()
	w.Header().Set(CaptureHeader, captureID)
	log := s.log.With("capture", captureID, "requestId", middleware.GetReqID(r.Context()))

	// The capture owns a browser process; it runs to completion even if the
	// client goes away, bounded by CaptureTimeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.CaptureTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.cfg.Service.Capture(ctx, req)
	if err != nil {
		status, msg, details := s.classify(err)
		log.Error("http: capture failed", "category", cat.Name, "status", status, "error", err)
		writeError(w, status, msg, details)
		return
	}
	log.Info("http: capture done",
		"category", cat.Name,
		"slides", len(res.Slides),
		"elapsed", time.Since(start).Round(time.Millisecond))

	resp := screenshotResponse{
		Success:     true,
		TotalSlides: len(res.Slides),
		Slides:      res.Slides,
		Dimensions:  res.Dimensions,
		Metadata:    &res.Metadata,
	}
	if cat.MultiKind() {
		resp.SlideType = res.Kind
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseCaptureRequest reads the category id field, totalSlides and the
// optional slideType from a decoded JSON object. maxSlides <= 0 disables the
// upper bound on totalSlides.
func parseCaptureRequest(cat slidecap.Category, fields map[string]json.RawMessage, maxSlides int) (slidecap.CaptureRequest, error) {
	req := slidecap.CaptureRequest{Category: cat.Name}

	var missing []string
	rawID, hasID := fields[cat.IDField]
	if !hasID || isNull(rawID) {
		missing = append(missing, cat.IDField)
	}
	rawTotal, hasTotal := fields[fieldTotalSlides]
	if !hasTotal || isNull(rawTotal) {
		missing = append(missing, fieldTotalSlides)
	}
	if len(missing) > 0 {
		return req, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	id, err := decodeID(rawID)
	if err != nil {
		return req, fmt.Errorf("%s must be a string", cat.IDField)
	}
	if strings.TrimSpace(id) == "" {
		return req, fmt.Errorf("missing required fields: %s", cat.IDField)
	}
	req.ContentID = id

	var total json.Number
	if err := json.Unmarshal(rawTotal, &total); err != nil {
		return req, fmt.Errorf("%s must be an integer", fieldTotalSlides)
	}
	n, err := total.Int64()
	if err != nil {
		return req, fmt.Errorf("%s must be an integer", fieldTotalSlides)
	}
	switch {
	case maxSlides > 0 && (n < 1 || n > int64(maxSlides)):
		return req, fmt.Errorf("%s must be between 1 and %d", fieldTotalSlides, maxSlides)
	case n < 1:
		return req, fmt.Errorf("%s must be at least 1", fieldTotalSlides)
	}
	req.TotalSlides = int(n)

	if rawKind, ok := fields[fieldSlideType]; ok && !isNull(rawKind) {
		var s string
		if err := json.Unmarshal(rawKind, &s); err != nil {
			return req, fmt.Errorf("%s must be a string", fieldSlideType)
		}
		kind, err := slidecap.ParseSlideKind(s)
		if err != nil {
			return req, fmt.Errorf("invalid %s %q (must be carousel or video)", fieldSlideType, s)
		}
		if !cat.Supports(kind) {
			return req, fmt.Errorf("%s %q is not supported for %s", fieldSlideType, kind, cat.Name)
		}
		req.Kind = kind
	}

	return req, nil
}

// decodeID accepts a JSON string or number.
func decodeID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
