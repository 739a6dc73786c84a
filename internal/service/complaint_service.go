package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/config"
	"complaint-service/internal/metrics"
	"complaint-service/internal/model"
	"complaint-service/internal/numbering"
	"complaint-service/internal/repository"
	"complaint-service/internal/storage"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxTitleLength  = 255

	unassignedZone = "Unassigned"
	unknownZone    = "N/A"
)

type ComplaintService struct {
	complaintRepo *repository.ComplaintRepository
	userRepo      *repository.UserRepository
	zoneRepo      *repository.ZoneRepository
	sequenceRepo  *repository.SequenceRepository
	store         storage.ContentStore
	cfg           config.ComplaintsConfig
	log           zerolog.Logger
	now           func() time.Time
}

func NewComplaintService(
	complaintRepo *repository.ComplaintRepository,
	userRepo *repository.UserRepository,
	zoneRepo *repository.ZoneRepository,
	sequenceRepo *repository.SequenceRepository,
	store storage.ContentStore,
	cfg config.ComplaintsConfig,
	log zerolog.Logger,
) *ComplaintService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxAttachmentsPerAction <= 0 {
		cfg.MaxAttachmentsPerAction = 5
	}
	return &ComplaintService{
		complaintRepo: complaintRepo,
		userRepo:      userRepo,
		zoneRepo:      zoneRepo,
		sequenceRepo:  sequenceRepo,
		store:         store,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

type CreateComplaintInput struct {
	Title        string
	Description  string
	Category     model.ComplaintCategory
	Latitude     *float64
	Longitude    *float64
	LocationNote string
}

func (in *CreateComplaintInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.LocationNote = strings.TrimSpace(in.LocationNote)

	if in.Title == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return invalid("title", "must be at most %d characters", maxTitleLength)
	}
	if in.Description == "" {
		return invalid("description", "is required")
	}
	if !in.Category.Valid() {
		return invalid("category", "unknown category %q", in.Category)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return invalid("location", "latitude and longitude must be provided together")
	}
	if in.Latitude != nil && (math.IsNaN(*in.Latitude) || *in.Latitude < -90 || *in.Latitude > 90) {
		return invalid("latitude", "must be between -90 and 90")
	}
	if in.Longitude != nil && (math.IsNaN(*in.Longitude) || *in.Longitude < -180 || *in.Longitude > 180) {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

// Create files a complaint for the calling citizen. The number drawn from the zone sequence is
// kept even if persisting the complaint fails afterwards.
func (s *ComplaintService) Create(ctx context.Context, principal model.Principal, input CreateComplaintInput, files []FileUpload) (*model.ComplaintDetail, error) {
	if !principal.IsCitizen() {
		return nil, ErrPermissionDenied
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	prepared, err := s.prepareFiles(files)
	if err != nil {
		return nil, err
	}

	citizen, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !citizen.IsActive || citizen.Role != model.UserRoleCitizen {
		return nil, ErrPermissionDenied
	}
	if citizen.ZoneID == nil {
		s.log.Error().
			Str("user_id", citizen.ID.String()).
			Msg("citizen has no zone assigned, cannot number complaint")
		return nil, fmt.Errorf("%w: citizen %s has no zone", ErrIntegrity, citizen.ID)
	}

	zone := citizen.Zone
	if zone == nil {
		zone, err = s.zoneRepo.GetByID(ctx, *citizen.ZoneID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: zone %d of citizen %s does not exist", ErrIntegrity, *citizen.ZoneID, citizen.ID)
			}
			return nil, err
		}
	}

	year := s.now().In(s.cfg.Location).Year()
	seq, err := s.sequenceRepo.Next(ctx, zone.ID, year)
	if err != nil {
		return nil, fmt.Errorf("allocate complaint number: %w", err)
	}
	metrics.SequenceAllocations.Inc()

	complaint := &model.Complaint{
		ID:              uuid.New(),
		UserID:          citizen.ID,
		ComplaintNumber: numbering.Format(zone.Code, year, seq),
		Title:           input.Title,
		Description:     input.Description,
		Category:        input.Category,
		Status:          model.ComplaintStatusPending,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		LocationNote:    input.LocationNote,
	}

	attachments, err := s.storeFiles(ctx, prepared)
	if err != nil {
		return nil, err
	}

	entry := &model.ComplaintStatusLog{
		NewStatus: model.ComplaintStatusPending,
		ChangedBy: &citizen.ID,
	}
	if err := s.complaintRepo.Create(ctx, complaint, attachments, entry); err != nil {
		s.discardFiles(ctx, prepared)
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: complaint number %s already used", ErrIntegrity, complaint.ComplaintNumber)
		}
		return nil, err
	}

	metrics.ComplaintsCreated.WithLabelValues(zone.Code).Inc()
	s.log.Info().
		Str("complaint_number", complaint.ComplaintNumber).
		Str("user_id", citizen.ID.String()).
		Int("attachments", len(attachments)).
		Msg("complaint created")

	return s.detail(ctx, complaint.ID)
}

type ListComplaintsOptions struct {
	Status *model.ComplaintStatus
	ZoneID *uint
	Page   int
	Size   int
}

func (s *ComplaintService) List(ctx context.Context, principal model.Principal, opts ListComplaintsOptions) (*model.Page[model.ComplaintSummary], error) {
	if opts.Page < 0 {
		return nil, invalid("page", "must not be negative")
	}
	if opts.Size < 0 {
		return nil, invalid("size", "must not be negative")
	}
	if opts.Size == 0 {
		opts.Size = defaultPageSize
	}
	if opts.Size > maxPageSize {
		opts.Size = maxPageSize
	}
	if opts.Page > math.MaxInt/opts.Size {
		return nil, invalid("page", "is too large")
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, invalid("status", "unknown status %q", *opts.Status)
	}

	scope, err := s.resolveScope(principal)
	if err != nil {
		return nil, err
	}

	complaints, total, err := s.complaintRepo.List(ctx, repository.ComplaintFilter{
		Scope:  scope,
		ZoneID: opts.ZoneID,
		Status: opts.Status,
		Limit:  opts.Size,
		Offset: opts.Page * opts.Size,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ComplaintSummary, 0, len(complaints))
	for _, c := range complaints {
		summaries = append(summaries, s.buildSummary(c))
	}

	page := model.NewPage(summaries, opts.Page, opts.Size, total)
	return &page, nil
}

func (s *ComplaintService) GetDetail(ctx context.Context, principal model.Principal, complaintID uuid.UUID) (*model.ComplaintDetail, error) {
	scope, err := s.resolveScope(principal)
	if err != nil {
		return nil, err
	}

	complaint, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(complaint) {
		return nil, ErrPermissionDenied
	}

	detail := s.buildDetail(complaint)
	return &detail, nil
}

func (s *ComplaintService) UpdateStatus(ctx context.Context, principal model.Principal, complaintID uuid.UUID, target model.ComplaintStatus) (*model.ComplaintDetail, error) {
	if !target.Valid() {
		return nil, invalid("status", "unknown status %q", target)
	}

	scope, err := s.resolveScope(principal)
	if err != nil {
		return nil, err
	}

	complaint, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if complaint.Status.Terminal() {
		return nil, fmt.Errorf("%w: complaint %s is already %s", ErrInvalidStatus, complaint.ComplaintNumber, complaint.Status)
	}
	if !principal.IsOfficial() || !scope.Matches(complaint) {
		return nil, ErrPermissionDenied
	}
	if !complaint.Status.CanTransition(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, complaint.Status, target)
	}

	applied, err := s.complaintRepo.UpdateStatus(ctx, complaint.ID, complaint.Status, target, principal.UserID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: complaint %s changed concurrently", ErrInvalidStatus, complaint.ComplaintNumber)
	}

	metrics.StatusTransitions.WithLabelValues(string(complaint.Status), string(target)).Inc()
	s.log.Info().
		Str("complaint_number", complaint.ComplaintNumber).
		Str("from", string(complaint.Status)).
		Str("to", string(target)).
		Str("changed_by", principal.UserID.String()).
		Msg("complaint status changed")

	return s.detail(ctx, complaint.ID)
}

func (s *ComplaintService) AddAttachments(ctx context.Context, principal model.Principal, complaintID uuid.UUID, files []FileUpload) ([]model.AttachmentRef, error) {
	if len(files) == 0 {
		return nil, invalid("files", "at least one file is required")
	}
	prepared, err := s.prepareFiles(files)
	if err != nil {
		return nil, err
	}

	scope, err := s.resolveScope(principal)
	if err != nil {
		return nil, err
	}

	complaint, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if !principal.IsCitizen() || !scope.Matches(complaint) {
		return nil, ErrPermissionDenied
	}
	if complaint.Status.Terminal() {
		return nil, fmt.Errorf("%w: complaint %s is resolved", ErrInvalidStatus, complaint.ComplaintNumber)
	}

	attachments, err := s.storeFiles(ctx, prepared)
	if err != nil {
		return nil, err
	}
	if err := s.complaintRepo.AddAttachments(ctx, complaint.ID, attachments); err != nil {
		s.discardFiles(ctx, prepared)
		return nil, err
	}

	refs := make([]model.AttachmentRef, 0, len(attachments))
	for _, a := range attachments {
		refs = append(refs, s.attachmentRef(a))
	}
	return refs, nil
}

func (s *ComplaintService) Stats(ctx context.Context, principal model.Principal) (*model.ComplaintStats, error) {
	scope, err := s.resolveScope(principal)
	if err != nil {
		return nil, err
	}
	if !principal.IsOfficial() {
		return nil, ErrPermissionDenied
	}

	counts, err := s.complaintRepo.CountByStatus(ctx, scope)
	if err != nil {
		return nil, err
	}

	stats := &model.ComplaintStats{
		Pending:    counts[model.ComplaintStatusPending],
		InProgress: counts[model.ComplaintStatusInProgress],
		Resolved:   counts[model.ComplaintStatusResolved],
	}
	stats.Total = stats.Pending + stats.InProgress + stats.Resolved
	return stats, nil
}

type AttachmentFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// GetAttachment returns an image payload if the caller may see the complaint it belongs to.
func (s *ComplaintService) GetAttachment(ctx context.Context, principal model.Principal, attachmentID uuid.UUID) (*AttachmentFile, error) {
	scope, err := s.resolveScope(principal)
	if err != nil {
		return nil, err
	}

	attachment, err := s.complaintRepo.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !scope.Matches(attachment.Complaint) {
		return nil, ErrPermissionDenied
	}

	obj, err := s.store.Get(ctx, attachment.ID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: payload of attachment %s is missing", ErrIntegrity, attachment.ID)
		}
		return nil, err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = attachment.ContentType
	}
	return &AttachmentFile{
		FileName:    attachment.FileName,
		ContentType: contentType,
		Data:        obj.Data,
	}, nil
}

func (s *ComplaintService) resolveScope(principal model.Principal) (model.Scope, error) {
	scope, err := model.ResolveScope(principal)
	if err != nil {
		if errors.Is(err, model.ErrScopeUnsupported) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	return scope, nil
}

func (s *ComplaintService) load(ctx context.Context, complaintID uuid.UUID) (*model.Complaint, error) {
	complaint, err := s.complaintRepo.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return complaint, nil
}

func (s *ComplaintService) detail(ctx context.Context, complaintID uuid.UUID) (*model.ComplaintDetail, error) {
	complaint, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	detail := s.buildDetail(complaint)
	return &detail, nil
}

// storeFiles writes payloads to the content store and returns the metadata rows to persist.
func (s *ComplaintService) storeFiles(ctx context.Context, files []preparedFile) ([]model.Attachment, error) {
	attachments := make([]model.Attachment, 0, len(files))
	for i, f := range files {
		if err := s.store.Put(ctx, f.id, storage.Object{ContentType: f.contentType, Data: f.data}); err != nil {
			s.discardFiles(ctx, files[:i])
			return nil, fmt.Errorf("store attachment %s: %w", f.fileName, err)
		}
		attachments = append(attachments, model.Attachment{
			ID:          f.id,
			ContentType: f.contentType,
			FileName:    f.fileName,
			FileSize:    int64(len(f.data)),
		})
	}
	return attachments, nil
}

func (s *ComplaintService) discardFiles(ctx context.Context, files []preparedFile) {
	for _, f := range files {
		if err := s.store.Delete(ctx, f.id); err != nil {
			s.log.Warn().Err(err).Str("attachment_id", f.id.String()).Msg("failed to remove orphaned attachment payload")
		}
	}
}

func (s *ComplaintService) attachmentURL(id uuid.UUID) string {
	return s.cfg.AttachmentBaseURL + "/" + id.String()
}

func (s *ComplaintService) attachmentRef(a model.Attachment) model.AttachmentRef {
	return model.AttachmentRef{
		ID:          a.ID,
		URL:         s.attachmentURL(a.ID),
		ContentType: a.ContentType,
		FileName:    a.FileName,
		FileSize:    a.FileSize,
	}
}

func (s *ComplaintService) buildSummary(c model.Complaint) model.ComplaintSummary {
	urls := make([]string, 0, len(c.Attachments))
	for _, a := range c.Attachments {
		urls = append(urls, s.attachmentURL(a.ID))
	}
	return model.ComplaintSummary{
		ID:              c.ID,
		ComplaintNumber: c.ComplaintNumber,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Status:          c.Status,
		Latitude:        c.Latitude,
		Longitude:       c.Longitude,
		LocationNote:    c.LocationNote,
		CreatedAt:       c.CreatedAt,
		ImageURLs:       urls,
	}
}

func (s *ComplaintService) buildDetail(c *model.Complaint) model.ComplaintDetail {
	detail := model.ComplaintDetail{
		ID:              c.ID,
		ComplaintNumber: c.ComplaintNumber,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Status:          c.Status,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Zone:            model.ZoneInfo{ZoneName: unassignedZone},
		Location: model.LocationInfo{
			Latitude:     c.Latitude,
			Longitude:    c.Longitude,
			LocationNote: c.LocationNote,
		},
		Attachments: make([]model.AttachmentRef, 0, len(c.Attachments)),
		History:     make([]model.StatusChange, 0, len(c.History)),
	}

	if owner := c.Owner; owner != nil {
		info := &model.CitizenInfo{
			ID:           owner.ID,
			FullName:     owner.FullName,
			MobileNumber: owner.MobileNumber,
			Email:        owner.Email,
			Address:      owner.Address,
			PinCode:      owner.PinCode,
			ZoneName:     unknownZone,
		}
		if owner.Zone != nil {
			info.ZoneName = owner.Zone.Name
			detail.Zone = model.ZoneInfo{ZoneID: &owner.Zone.ID, ZoneName: owner.Zone.Name}
		}
		detail.RaisedBy = info
	}

	for _, a := range c.Attachments {
		detail.Attachments = append(detail.Attachments, s.attachmentRef(a))
	}
	for _, h := range c.History {
		detail.History = append(detail.History, model.StatusChange{
			OldStatus: h.OldStatus,
			NewStatus: h.NewStatus,
			ChangedBy: h.ChangedBy,
			ChangedAt: h.CreatedAt,
		})
	}
	return detail
}
