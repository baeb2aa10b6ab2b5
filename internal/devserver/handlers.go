package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"taskboard/internal/model"
	"taskboard/internal/store"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// taskRequest is the body of POST /tasks and PUT /tasks/{id}. An id in the body
// is ignored; the path decides which task is replaced.
type taskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Column      string `json:"column" validate:"required,oneof=backlog in-progress review done"`
}

func (r taskRequest) input() model.TaskInput {
	return model.TaskInput{Title: r.Title, Description: r.Description, Column: model.Column(r.Column)}
}

// taskResponse mirrors model.Task but lets the id be rendered as a string.
type taskResponse struct {
	ID          any    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Column      string `json:"column"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) toResponse(t model.Task) taskResponse {
	var id any = t.ID
	if s.opts.StringIDs {
		id = t.ID.String()
	}
	return taskResponse{ID: id, Title: t.Title, Description: t.Description, Column: string(t.Column)}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.List(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.toResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toResponse(t))
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeTask(w, r)
	if !ok {
		return
	}
	t, err := s.store.Create(r.Context(), in)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.toResponse(t))
}

func (s *Server) replaceTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	in, ok := s.decodeTask(w, r)
	if !ok {
		return
	}
	t, err := s.store.Replace(r.Context(), id, in)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toResponse(t))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, struct{}{})
}

// pathID parses {id}. Ids the store could never have issued answer 404, the way a
// lookup miss does.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("task %q not found", raw))
		return 0, false
	}
	return id, true
}

func (s *Server) decodeTask(w http.ResponseWriter, r *http.Request) (model.TaskInput, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read body")
		return model.TaskInput{}, false
	}
	var req taskRequest
	if err := sonic.ConfigStd.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return model.TaskInput{}, false
	}
	in := req.input().Normalize()
	req = taskRequest{Title: in.Title, Description: in.Description, Column: string(in.Column)}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: failed %q", strings.ToLower(fe.Field()), fe.Tag()))
			return model.TaskInput{}, false
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return model.TaskInput{}, false
	}
	return in, true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is listening.
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusRequestTimeout, "request timeout")
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("store failure")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		s.log.WithError(err).Error("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
