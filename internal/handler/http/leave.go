package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
)

const multipartMemory = 10 << 20

type LeaveHandler interface {
	Apply(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Dashboard(w http.ResponseWriter, r *http.Request)
	Balance(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// Apply accepts either a JSON body or a multipart form whose "data" field
// holds the JSON application next to optional "attachment" and
// "signature" files.
func (l *LeaveHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var (
		req   leave.ApplyRequest
		files leave.ApplyFiles
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.PayloadTooLarge(w, "Request body too large")
				return
			}
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		dataJSON := r.FormValue("data")
		if dataJSON == "" {
			response.BadRequest(w, "Field 'data' is required", nil)
			return
		}
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			slog.Error("Failed to unmarshal JSON data", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}

		var closers []multipart.File
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()

		for field, dst := range map[string]**leave.Upload{
			"attachment": &files.Attachment,
			"signature":  &files.Signature,
		} {
			upload, file, err := formUpload(r, field)
			if err != nil {
				slog.Error("Failed to get file from form", "field", field, "error", err)
				response.BadRequest(w, "Invalid file upload", nil)
				return
			}
			if file != nil {
				closers = append(closers, file)
			}
			*dst = upload
		}
	} else if !decodeJSON(w, r, &req, "ApplyLeave") {
		return
	}

	result, err := l.leaveService.Apply(r.Context(), actor, req, files)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave application submitted", result)
}

// formUpload returns nil when the field was not sent.
func formUpload(r *http.Request, field string) (*leave.Upload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &leave.Upload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}, file, nil
}

// List handles GET /leave-list
// Query params: from_date, to_date, employee, status, category
func (l *LeaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := l.leaveService.List(r.Context(), actor, leave.ListFilterRequest{
		FromDate: q.Get("from_date"),
		ToDate:   q.Get("to_date"),
		Employee: q.Get("employee"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (l *LeaveHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.Dashboard(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (l *LeaveHandlerImpl) Balance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.Balance(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (l *LeaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.Get(r.Context(), actor, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (l *LeaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.Approve(r.Context(), actor, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave approved", result)
}

func (l *LeaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}

	var req leave.RejectRequest
	if !decodeJSON(w, r, &req, "RejectLeave") {
		return
	}

	result, err := l.leaveService.Reject(r.Context(), actor, id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave rejected", result)
}

func (l *LeaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.Cancel(r.Context(), actor, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave cancelled", result)
}
