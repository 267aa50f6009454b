package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
)

// Notifier receives leave lifecycle notifications after commit.
type Notifier interface {
	QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error
	QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error
}

type Config struct {
	AnnualAllowance    float64
	AttachmentMaxBytes int64
	SignatureMaxBytes  int64
}

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveRepository
	employee.EmployeeRepository
	fileService file.FileService
	notifier    Notifier
	config      Config
	now         func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	leaveRepository leave.LeaveRepository,
	employeeRepository employee.EmployeeRepository,
	fileService file.FileService,
	notifier Notifier,
	cfg Config,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		tx:                 tx,
		LeaveRepository:    leaveRepository,
		EmployeeRepository: employeeRepository,
		fileService:        fileService,
		notifier:           notifier,
		config:             cfg,
		now:                time.Now,
	}
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)

func (l *LeaveServiceImpl) resolveURL(path string) string {
	if l.fileService == nil {
		return path
	}
	return l.fileService.GetFileURL(path)
}

func (l *LeaveServiceImpl) response(app leave.LeaveApplication) leave.LeaveResponse {
	return leave.NewLeaveResponse(app, l.resolveURL)
}

// checkUploads validates both parts before anything reaches storage.
func (l *LeaveServiceImpl) checkUploads(files leave.ApplyFiles) error {
	var errs validator.ValidationErrors
	checks := []error{
		leave.AttachmentPolicy(l.config.AttachmentMaxBytes).Check(files.Attachment),
		leave.SignaturePolicy(l.config.SignatureMaxBytes).Check(files.Signature),
	}
	for _, err := range checks {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			errs = append(errs, fieldErrs...)
		}
	}
	return errs.Err()
}

// storeUploads hands validated files to storage and returns a cleanup func
// that removes them again if the application is not persisted.
func (l *LeaveServiceImpl) storeUploads(ctx context.Context, app *leave.LeaveApplication, files leave.ApplyFiles) (func(), error) {
	var stored []string
	cleanup := func() {
		for _, path := range stored {
			if err := l.fileService.DeleteFile(context.WithoutCancel(ctx), path); err != nil {
				slog.Warn("failed to remove orphaned leave upload", "path", path, "error", err)
			}
		}
	}

	if files.Attachment != nil {
		path, err := l.fileService.UploadLeaveAttachment(ctx, app.EmployeeID, files.Attachment)
		if err != nil {
			return cleanup, err
		}
		stored = append(stored, path)
		app.AttachmentPath = &path
	}
	if files.Signature != nil {
		path, err := l.fileService.UploadSignature(ctx, app.EmployeeID, files.Signature)
		if err != nil {
			return cleanup, err
		}
		stored = append(stored, path)
		app.SignaturePath = &path
	}
	return cleanup, nil
}

// Apply implements leave.LeaveService. The allowance is informational and
// never blocks an application.
func (l *LeaveServiceImpl) Apply(ctx context.Context, actor employee.Actor, req leave.ApplyRequest, files leave.ApplyFiles) (leave.LeaveResponse, error) {
	app, err := req.Validate(actor.EmployeeID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if err := l.checkUploads(files); err != nil {
		return leave.LeaveResponse{}, err
	}

	applicant, err := l.EmployeeRepository.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if !applicant.IsActive {
		return leave.LeaveResponse{}, employee.ErrInactiveEmployee
	}

	cleanup := func() {}
	if files.Attachment != nil || files.Signature != nil {
		if l.fileService == nil {
			return leave.LeaveResponse{}, fmt.Errorf("file storage is not configured")
		}
		cleanup, err = l.storeUploads(ctx, &app, files)
		if err != nil {
			cleanup()
			return leave.LeaveResponse{}, err
		}
	}

	var created leave.LeaveApplication
	err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		emp, err := l.EmployeeRepository.LockForUpdate(ctx, actor.EmployeeID)
		if err != nil {
			return err
		}
		if !emp.IsActive {
			return employee.ErrInactiveEmployee
		}

		created, err = l.LeaveRepository.Create(ctx, app)
		if err != nil {
			return fmt.Errorf("failed to create leave application: %w", err)
		}
		return nil
	})
	if err != nil {
		cleanup()
		return leave.LeaveResponse{}, err
	}

	slog.Info("leave application submitted",
		"leave_id", created.ID,
		"employee_id", created.EmployeeID,
		"category", created.Category,
		"total_days", created.TotalDays,
	)
	l.notifyAdmins(ctx, applicant, created)
	return l.response(created), nil
}

func (l *LeaveServiceImpl) notifyAdmins(ctx context.Context, applicant employee.Employee, app leave.LeaveApplication) {
	if l.notifier == nil {
		return
	}
	admins, err := l.EmployeeRepository.ListActiveByRoles(ctx, employee.AdminRoles())
	if err != nil {
		slog.Warn("failed to load leave approvers", "leave_id", app.ID, "error", err)
		return
	}

	reqs := make([]notification.CreateNotificationRequest, 0, len(admins))
	for _, admin := range admins {
		if admin.ID == applicant.ID {
			continue
		}
		sender := applicant.ID
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: admin.ID,
			SenderID:    &sender,
			Type:        notification.TypeLeaveRequest,
			Title:       "New Leave Request",
			Message: fmt.Sprintf("%s requested %g day(s) of %s leave from %s to %s",
				applicant.Name, app.TotalDays, app.Category,
				app.StartDate.Format(leave.DateLayout), app.EndDate.Format(leave.DateLayout)),
			Data: map[string]interface{}{
				"leave_id":    app.ID,
				"employee_id": applicant.ID,
			},
		})
	}
	if len(reqs) == 0 {
		return
	}
	if err := l.notifier.QueueBulkNotification(ctx, reqs); err != nil {
		slog.Warn("failed to queue leave request notifications", "leave_id", app.ID, "error", err)
	}
}

func (l *LeaveServiceImpl) notifyApplicant(ctx context.Context, approverID string, app leave.LeaveApplication) {
	if l.notifier == nil {
		return
	}
	req := notification.CreateNotificationRequest{
		RecipientID: app.EmployeeID,
		SenderID:    &approverID,
		Data: map[string]interface{}{
			"leave_id": app.ID,
			"status":   string(app.Status),
		},
	}
	period := fmt.Sprintf("%s to %s", app.StartDate.Format(leave.DateLayout), app.EndDate.Format(leave.DateLayout))
	switch app.Status {
	case leave.StatusApproved:
		req.Type = notification.TypeLeaveApproved
		req.Title = "Leave Approved"
		req.Message = fmt.Sprintf("Your %s leave from %s has been approved", app.Category, period)
	case leave.StatusRejected:
		req.Type = notification.TypeLeaveRejected
		req.Title = "Leave Rejected"
		req.Message = fmt.Sprintf("Your %s leave from %s has been rejected", app.Category, period)
		if app.RejectionReason != nil {
			req.Message += ": " + *app.RejectionReason
		}
	default:
		return
	}
	if err := l.notifier.QueueNotification(ctx, req); err != nil {
		slog.Warn("failed to queue leave decision notification", "leave_id", app.ID, "error", err)
	}
}

// approver loads the actor from the directory; the stored role decides,
// not the token claim.
func (l *LeaveServiceImpl) approver(ctx context.Context, actor employee.Actor) (employee.Employee, error) {
	emp, err := l.EmployeeRepository.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return employee.Employee{}, err
	}
	if !employee.HasPermission(emp.Role, employee.PermissionLeaveApprove) {
		return employee.Employee{}, leave.ErrApproverNotAdmin
	}
	if !emp.IsActive {
		return employee.Employee{}, employee.ErrInactiveEmployee
	}
	return emp, nil
}

// decide runs one pending -> terminal transition under a row lock.
func (l *LeaveServiceImpl) decide(ctx context.Context, id int64, to leave.Status, apply func(app *leave.LeaveApplication) error) (leave.LeaveApplication, error) {
	var updated leave.LeaveApplication
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		app, err := l.LeaveRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(&app); err != nil {
			return err
		}
		if err := leave.CheckTransition(app.Status, to); err != nil {
			return err
		}
		app.Status = to

		updated, err = l.LeaveRepository.UpdateStatus(ctx, app)
		return err
	})
	return updated, err
}

// Approve implements leave.LeaveService.
func (l *LeaveServiceImpl) Approve(ctx context.Context, actor employee.Actor, id int64) (leave.LeaveResponse, error) {
	approver, err := l.approver(ctx, actor)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	updated, err := l.decide(ctx, id, leave.StatusApproved, func(app *leave.LeaveApplication) error {
		now := l.now()
		app.ApprovedBy = &approver.ID
		app.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	slog.Info("leave approved", "leave_id", updated.ID, "employee_id", updated.EmployeeID, "approved_by", approver.ID)
	l.notifyApplicant(ctx, approver.ID, updated)
	return l.response(updated), nil
}

// Reject implements leave.LeaveService.
func (l *LeaveServiceImpl) Reject(ctx context.Context, actor employee.Actor, id int64, req leave.RejectRequest) (leave.LeaveResponse, error) {
	approver, err := l.approver(ctx, actor)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	updated, err := l.decide(ctx, id, leave.StatusRejected, func(app *leave.LeaveApplication) error {
		if err := leave.CheckTransition(app.Status, leave.StatusRejected); err != nil {
			return err
		}
		reason, err := req.Validate()
		if err != nil {
			return err
		}
		now := l.now()
		app.ApprovedBy = &approver.ID
		app.ApprovedAt = &now
		app.RejectionReason = &reason
		return nil
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	slog.Info("leave rejected", "leave_id", updated.ID, "employee_id", updated.EmployeeID, "rejected_by", approver.ID)
	l.notifyApplicant(ctx, approver.ID, updated)
	return l.response(updated), nil
}

// Cancel implements leave.LeaveService. Only the applicant may cancel,
// whatever the current status.
func (l *LeaveServiceImpl) Cancel(ctx context.Context, actor employee.Actor, id int64) (leave.LeaveResponse, error) {
	updated, err := l.decide(ctx, id, leave.StatusCancelled, func(app *leave.LeaveApplication) error {
		if app.EmployeeID != actor.EmployeeID {
			return leave.ErrNotLeaveOwner
		}
		now := l.now()
		app.CancelledAt = &now
		return nil
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	slog.Info("leave cancelled", "leave_id", updated.ID, "employee_id", updated.EmployeeID)
	return l.response(updated), nil
}
