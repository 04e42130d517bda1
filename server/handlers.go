// SPDX-License-Identifier: EPL-2.0

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ik5/multitrack/engine"
	"github.com/ik5/multitrack/waveform"
)

type trackView struct {
	ID             string  `json:"id"`
	TrackNumber    int     `json:"trackNumber"`
	Title          string  `json:"title"`
	AudioURL       string  `json:"audioUrl"`
	Volume         float64 `json:"volume"`
	Pan            float64 `json:"pan"`
	Muted          bool    `json:"muted"`
	Soloed         bool    `json:"soloed"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
	Duration       float64 `json:"duration"`
	DurationSource string  `json:"durationSource"`
}

func viewTrack(n *engine.TrackNode) trackView {
	rec := n.Record()
	d := n.Duration()

	v := trackView{
		ID:             rec.ID,
		TrackNumber:    rec.TrackNumber,
		Title:          rec.Title,
		AudioURL:       rec.AudioURL,
		Volume:         rec.Volume,
		Pan:            rec.Pan,
		Muted:          rec.Muted,
		Soloed:         n.Soloed(),
		Status:         n.Status().String(),
		Duration:       rec.Duration,
		DurationSource: d.Source.String(),
	}
	if err := n.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}

type transportView struct {
	State       string  `json:"state"`
	Time        float64 `json:"time"`
	Duration    float64 `json:"duration"`
	ReferenceID string  `json:"referenceId,omitempty"`
}

func viewUpdate(u engine.Update) transportView {
	return transportView{
		State:       u.State.String(),
		Time:        u.Time,
		Duration:    u.Duration,
		ReferenceID: u.ReferenceID,
	}
}

// trackPatch holds the editable fields of a track, nil means unchanged.
type trackPatch struct {
	Title  *string  `json:"title"`
	Volume *float64 `json:"volume"`
	Pan    *float64 `json:"pan"`
	Muted  *bool    `json:"muted"`
}

type seekRequest struct {
	Time float64 `json:"time"`
}

func (h *Handler) listTracks(w http.ResponseWriter, r *http.Request) {
	nodes := h.session.Tracks()
	views := make([]trackView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, viewTrack(n))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) patchTrack(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	n, ok := h.session.Track(id)
	if !ok {
		h.writeError(w, engine.ErrTrackNotFound)
		return
	}

	var p trackPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", ErrBadJSON, err))
		return
	}

	if p.Title != nil {
		if err := h.session.SetTitle(id, *p.Title); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if p.Volume != nil {
		n.SetVolume(*p.Volume)
	}
	if p.Pan != nil {
		n.SetPan(*p.Pan)
	}
	if p.Muted != nil {
		n.SetMuted(*p.Muted)
	}

	if err := h.session.SaveTrack(r.Context(), id); err != nil && !errors.Is(err, engine.ErrNoStore) {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, viewTrack(n))
}

func (h *Handler) toggleMute(w http.ResponseWriter, r *http.Request) {
	n, ok := h.session.Track(mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, engine.ErrTrackNotFound)
		return
	}

	n.ToggleMute()
	h.writeJSON(w, http.StatusOK, viewTrack(n))
}

func (h *Handler) toggleSolo(w http.ResponseWriter, r *http.Request) {
	n, ok := h.session.Track(mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, engine.ErrTrackNotFound)
		return
	}

	n.ToggleSolo()
	h.writeJSON(w, http.StatusOK, viewTrack(n))
}

func (h *Handler) trackWaveform(w http.ResponseWriter, r *http.Request) {
	buckets := waveform.DefaultBuckets
	if raw := r.URL.Query().Get("buckets"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			h.writeError(w, ErrBadBuckets)
			return
		}
		buckets = v
	}

	peaks, err := h.session.Waveform(mux.Vars(r)["id"], buckets)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"peaks": peaks})
}

func (h *Handler) transportState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, viewUpdate(h.session.Transport().Snapshot()))
}

func (h *Handler) transportAction(w http.ResponseWriter, r *http.Request) {
	t := h.session.Transport()

	switch mux.Vars(r)["action"] {
	case "play":
		if err := t.Play(); err != nil {
			h.writeError(w, err)
			return
		}
	case "pause":
		t.Pause()
	case "stop":
		t.Stop()
	}

	h.writeJSON(w, http.StatusOK, viewUpdate(t.Snapshot()))
}

func (h *Handler) seek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", ErrBadJSON, err))
		return
	}

	t := h.session.Transport()
	t.Seek(req.Time)
	h.writeJSON(w, http.StatusOK, viewUpdate(t.Snapshot()))
}

// mixdown uploads the render when the session has an uploader and streams
// the WAVE bytes back otherwise.
func (h *Handler) mixdown(w http.ResponseWriter, r *http.Request) {
	url, err := h.session.ExportMixdown(r.Context())
	if err == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	if !errors.Is(err, engine.ErrNoUploader) {
		h.writeError(w, err)
		return
	}

	data, err := h.session.Mixdown(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Warn("writing mixdown", zap.Error(err))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("encoding response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
