/* handlers.go
 * Contains the HTTP handlers for grading, stage records and the roster tools. Handlers decode the request, call the
 * api package and encode the result as JSON.
 */

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"bootcamp-grader/api/api"
	"bootcamp-grader/api/roster"
	"bootcamp-grader/api/shared"
	"bootcamp-grader/api/store"
)

const maxUploadBytes = 10 << 20

// StatusFromError maps an api error onto the http status returned to the caller
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrStageBusy):
		return http.StatusConflict
	case errors.Is(err, shared.ErrUnknownStage),
		errors.Is(err, shared.ErrUnknownBucket),
		errors.Is(err, shared.ErrInvalidRoster),
		errors.Is(err, shared.ErrMissingAttachment),
		errors.Is(err, roster.ErrMissingColumn):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// readTable reads the roster file uploaded under field
func readTable(r *http.Request, field string) (roster.Table, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return roster.Table{}, fmt.Errorf("%w: %v", shared.ErrMissingAttachment, err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return roster.Table{}, fmt.Errorf("%w: %s", shared.ErrMissingAttachment, field)
	}
	defer file.Close()
	return roster.Load(header.Filename, file)
}

// readSubmissions accepts either a multipart roster file or a JSON body
func readSubmissions(r *http.Request) ([]shared.Submission, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		table, err := readTable(r, "roster")
		if err != nil {
			return nil, err
		}
		return table.Submissions()
	}

	var req submissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidRoster, err)
	}
	return req.Submissions, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// region stages

// grade grades the posted roster. The batch outlives a disconnecting client.
func (s *Server) grade(w http.ResponseWriter, r *http.Request) {
	stage, err := shared.ParseStage(r.PathValue("stage"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subs, err := readSubmissions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	run, err := s.api.GradeStage(context.WithoutCancel(r.Context()), stage, subs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gradeResponse{GradeRun: run, Errors: run.Errors()})
}

func (s *Server) uploadPending(w http.ResponseWriter, r *http.Request) {
	stage, err := shared.ParseStage(r.PathValue("stage"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subs, err := readSubmissions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.api.UploadPending(r.Context(), stage, subs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) runPending(w http.ResponseWriter, r *http.Request) {
	s.rerun(w, r, s.api.RunPending)
}

func (s *Server) regradePassed(w http.ResponseWriter, r *http.Request) {
	s.rerun(w, r, s.api.RegradePassed)
}

func (s *Server) rerun(w http.ResponseWriter, r *http.Request, run func(context.Context, shared.Stage) (*api.GradeRun, error)) {
	stage, err := shared.ParseStage(r.PathValue("stage"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	gr, err := run(context.WithoutCancel(r.Context()), stage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gradeResponse{GradeRun: gr, Errors: gr.Errors()})
}

func stageAndBucket(r *http.Request) (shared.Stage, shared.Bucket, error) {
	stage, err := shared.ParseStage(r.PathValue("stage"))
	if err != nil {
		return "", "", err
	}
	bucket, err := shared.ParseBucket(r.PathValue("bucket"))
	if err != nil {
		return "", "", err
	}
	return stage, bucket, nil
}

// list returns a bucket's records. ?promoted= filters passed records, ?q= searches by username.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	stage, bucket, err := stageAndBucket(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var records []store.StageRecord
	if q := r.URL.Query().Get("q"); q != "" {
		records, err = s.api.FindRecords(r.Context(), stage, bucket, q)
	} else {
		filter := store.Filter{}
		if p := r.URL.Query().Get("promoted"); p != "" {
			promoted, perr := strconv.ParseBool(p)
			if perr != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "promoted must be true or false"})
				return
			}
			filter.Promoted = store.Bool(promoted)
		}
		records, err = s.api.List(r.Context(), stage, bucket, filter)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) deleteOne(w http.ResponseWriter, r *http.Request) {
	stage, bucket, err := stageAndBucket(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.api.Delete(r.Context(), stage, bucket, r.PathValue("email")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAll(w http.ResponseWriter, r *http.Request) {
	stage, bucket, err := stageAndBucket(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.api.DeleteAll(r.Context(), stage, bucket)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// promote promotes the posted emails, or every passed record when the body is empty
func (s *Server) promote(w http.ResponseWriter, r *http.Request) {
	stage, err := shared.ParseStage(r.PathValue("stage"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid promote request"})
		return
	}
	n, err := s.api.Promote(r.Context(), stage, req.Emails...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// endregion

// region tools

// diff compares the uploaded "general" roster with the uploaded "nextStage" roster
func (s *Server) diff(w http.ResponseWriter, r *http.Request) {
	general, err := readTable(r, "general")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := readTable(r, "nextStage")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	generalRows, err := general.DiffRows()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	nextRows, err := next.DiffRows()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.api.Diff(generalRows, nextRows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diffResponse{CSV: out})
}

func (s *Server) uploadMentions(w http.ResponseWriter, r *http.Request) {
	table, err := readTable(r, "roster")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subs, err := table.MentionSubmissions()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.api.UploadMentions(r.Context(), subs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) countMentions(w http.ResponseWriter, r *http.Request) {
	counts, err := s.api.CountMentions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// mentionCounts lists the stored counts, optionally only those equal to ?counter=
func (s *Server) mentionCounts(w http.ResponseWriter, r *http.Request) {
	var counter *int
	if c := r.URL.Query().Get("counter"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "counter must be a number"})
			return
		}
		counter = &n
	}
	counts, err := s.api.MentionCounts(r.Context(), counter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) deleteMentions(w http.ResponseWriter, r *http.Request) {
	n, err := s.api.DeleteMentions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) uploadGeneral(w http.ResponseWriter, r *http.Request) {
	table, err := readTable(r, "roster")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	users, err := table.GeneralUsers()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.api.UploadGeneral(r.Context(), users)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) deleteGeneral(w http.ResponseWriter, r *http.Request) {
	n, err := s.api.DeleteGeneral(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) unmentioned(w http.ResponseWriter, r *http.Request) {
	users, err := s.api.NoMentions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// endregion
