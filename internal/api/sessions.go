package api

import (
	"net/http"
	"time"

	"github.com/MrWong99/enunciate/internal/practice"
)

type sessionResponse struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"created_at"`
	Recordings []practice.Recording `json:"recordings"`
}

func newSessionResponse(s *practice.Session) sessionResponse {
	recs := s.Recordings()
	if recs == nil {
		recs = []practice.Recording{}
	}
	return sessionResponse{ID: s.ID(), CreatedAt: s.CreatedAt(), Recordings: recs}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Create(r.Context())
	w.Header().Set("Location", "/v1/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitRecording accepts recording metadata and an optional transcript.
// The response is 200 with the delivered recording when feedback is
// immediate and 202 with the captured recording when it is delayed.
func (s *Server) submitRecording(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.attempt(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.submit(w, r, a)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, a practice.Attempt) {
	rec, err := s.coach.Submit(r.Context(), r.PathValue("id"), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if rec.State != practice.StateDelivered {
		status = http.StatusAccepted
	}
	w.Header().Set("Location", "/v1/sessions/"+rec.SessionID+"/recordings/"+rec.ID)
	writeJSON(w, status, rec)
}

func (s *Server) listRecordings(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs := sess.Recordings()
	if recs == nil {
		recs = []practice.Recording{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recordings": recs})
}

func (s *Server) clearRecordings(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": sess.Clear()})
}

func (s *Server) getRecording(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := sess.Recording(r.PathValue("rid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteRecording(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.Delete(r.PathValue("rid")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
