package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
	"complaint-service/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestCreateNumbersComplaintsPerZone(t *testing.T) {
	e := newEnv(t)

	first := e.file(t, e.citizen)
	second := e.file(t, e.sameZ)
	other := e.file(t, e.foreign)

	assert.Equal(t, "CMP-NOR-2024-0001", first.ComplaintNumber)
	assert.Equal(t, "CMP-NOR-2024-0002", second.ComplaintNumber)
	assert.Equal(t, "CMP-SOU-2024-0001", other.ComplaintNumber)
}

func TestCreateUsesYearInConfiguredTimezone(t *testing.T) {
	e := newEnv(t)
	e.svc.cfg.Location = time.FixedZone("IST", 5*3600+1800)
	e.svc.now = func() time.Time { return time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC) }

	detail := e.file(t, e.citizen)
	assert.Equal(t, "CMP-NOR-2025-0001", detail.ComplaintNumber)
}

func TestCreateAssemblesDetail(t *testing.T) {
	e := newEnv(t)

	detail, err := e.svc.Create(context.Background(), as(e.citizen), CreateComplaintInput{
		Title:        "  Garbage not collected  ",
		Description:  "Bins overflowing since Monday",
		Category:     model.ComplaintCategoryGarbageCollection,
		Latitude:     ptr(18.5204),
		Longitude:    ptr(73.8567),
		LocationNote: "Behind the bus depot",
	}, []FileUpload{pngFile("bins.png", 512), jpegFile("C:\\photos\\street.jpg")})
	require.NoError(t, err)

	assert.Equal(t, "Garbage not collected", detail.Title)
	assert.Equal(t, model.ComplaintStatusPending, detail.Status)
	require.NotNil(t, detail.RaisedBy)
	assert.Equal(t, e.citizen.ID, detail.RaisedBy.ID)
	assert.Equal(t, "North Ward", detail.RaisedBy.ZoneName)
	require.NotNil(t, detail.Zone.ZoneID)
	assert.Equal(t, e.north.ID, *detail.Zone.ZoneID)
	assert.InDelta(t, 18.5204, *detail.Location.Latitude, 1e-6)
	assert.Equal(t, "Behind the bus depot", detail.Location.LocationNote)

	require.Len(t, detail.Attachments, 2)
	names := []string{detail.Attachments[0].FileName, detail.Attachments[1].FileName}
	assert.ElementsMatch(t, []string{"bins.png", "street.jpg"}, names)
	for _, a := range detail.Attachments {
		assert.Equal(t, "/api/v1/attachments/"+a.ID.String(), a.URL)
	}

	require.Len(t, detail.History, 1)
	assert.Nil(t, detail.History[0].OldStatus)
	assert.Equal(t, model.ComplaintStatusPending, detail.History[0].NewStatus)
}

func TestCreateRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	valid := CreateComplaintInput{
		Title:       "Water leak",
		Description: "Pipe burst",
		Category:    model.ComplaintCategoryWaterSupply,
	}

	_, err := e.svc.Create(ctx, as(e.adminN), valid, nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	tests := []struct {
		name  string
		mut   func(in *CreateComplaintInput)
		field string
	}{
		{name: "missing title", mut: func(in *CreateComplaintInput) { in.Title = "  " }, field: "title"},
		{name: "missing description", mut: func(in *CreateComplaintInput) { in.Description = "" }, field: "description"},
		{name: "bad category", mut: func(in *CreateComplaintInput) { in.Category = "POTHOLE" }, field: "category"},
		{name: "latitude out of range", mut: func(in *CreateComplaintInput) {
			in.Latitude, in.Longitude = ptr(90.5), ptr(10.0)
		}, field: "latitude"},
		{name: "longitude out of range", mut: func(in *CreateComplaintInput) {
			in.Latitude, in.Longitude = ptr(10.0), ptr(-181.0)
		}, field: "longitude"},
		{name: "half a coordinate", mut: func(in *CreateComplaintInput) { in.Latitude = ptr(10.0) }, field: "location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mut(&in)
			_, err := e.svc.Create(ctx, as(e.citizen), in, nil)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	inactive := testutil.CreateUser(t, e.db, model.UserRoleCitizen, e.north)
	require.NoError(t, e.db.Model(inactive).Update("is_active", false).Error)
	_, err = e.svc.Create(ctx, as(inactive), valid, nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	homeless := testutil.CreateUser(t, e.db, model.UserRoleCitizen, nil)
	_, err = e.svc.Create(ctx, as(homeless), valid, nil)
	assert.ErrorIs(t, err, ErrIntegrity)

	_, err = e.svc.Create(ctx, model.Principal{UserID: uuid.New(), Role: model.UserRoleCitizen}, valid, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	var sequences int64
	require.NoError(t, e.db.Model(&model.ComplaintSequence{}).Count(&sequences).Error)
	assert.Zero(t, sequences)
}

func TestCreateRejectsOversizedAttachmentBeforeStorageWrite(t *testing.T) {
	store := &mockStore{}
	e := newEnvWithStore(t, store)

	_, err := e.svc.Create(context.Background(), as(e.citizen), CreateComplaintInput{
		Title:       "Pothole",
		Description: "Large pothole",
		Category:    model.ComplaintCategoryRoadDamage,
	}, []FileUpload{pngFile("small.png", 1024), pngFile("huge.png", 3*1024*1024)})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "files[1]", verr.Field)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)

	var complaints int64
	require.NoError(t, e.db.Model(&model.Complaint{}).Count(&complaints).Error)
	assert.Zero(t, complaints)
}

func TestCreateAttachmentChecks(t *testing.T) {
	e := newEnv(t)
	in := CreateComplaintInput{Title: "Noise", Description: "Loud music", Category: model.ComplaintCategoryNoisePollution}

	tests := []struct {
		name  string
		files []FileUpload
		field string
	}{
		{name: "gif not allowed", files: []FileUpload{{FileName: "a.gif", ContentType: "image/gif", Content: bytes.NewReader([]byte("GIF89a"))}}, field: "files[0]"},
		{name: "empty file", files: []FileUpload{{FileName: "a.png", ContentType: model.ContentTypePNG, Content: bytes.NewReader(nil)}}, field: "files[0]"},
		{name: "content mismatch", files: []FileUpload{{FileName: "a.png", ContentType: model.ContentTypePNG, Content: bytes.NewReader([]byte("plain text, not an image"))}}, field: "files[0]"},
		{name: "too many files", files: []FileUpload{
			pngFile("1.png", 64), pngFile("2.png", 64), pngFile("3.png", 64),
			pngFile("4.png", 64), pngFile("5.png", 64), pngFile("6.png", 64),
		}, field: "files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(context.Background(), as(e.citizen), in, tt.files)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	detail, err := e.svc.Create(context.Background(), as(e.citizen), in, []FileUpload{{
		FileName:    "exact.png",
		ContentType: "image/PNG; charset=binary",
		Content:     pngFile("exact.png", model.MaxAttachmentBytes).Content,
	}})
	require.NoError(t, err)
	require.Len(t, detail.Attachments, 1)
	assert.EqualValues(t, model.MaxAttachmentBytes, detail.Attachments[0].FileSize)
}

func TestCreateFailureLeavesNumberingGap(t *testing.T) {
	store := &mockStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unavailable")).Once()
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	e := newEnvWithStore(t, store)
	ctx := context.Background()
	in := CreateComplaintInput{Title: "Drain", Description: "Blocked drain", Category: model.ComplaintCategoryDrainage}

	_, err := e.svc.Create(ctx, as(e.citizen), in, []FileUpload{pngFile("a.png", 64)})
	require.Error(t, err)

	detail, err := e.svc.Create(ctx, as(e.citizen), in, []FileUpload{pngFile("b.png", 64)})
	require.NoError(t, err)
	assert.Equal(t, "CMP-NOR-2024-0002", detail.ComplaintNumber)
	store.AssertNumberOfCalls(t, "Put", 2)
}

func TestListScopeIsolation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mine := e.file(t, e.citizen)
	neighbour := e.file(t, e.sameZ)
	southern := e.file(t, e.foreign)

	idsOf := func(page *model.Page[model.ComplaintSummary]) []uuid.UUID {
		ids := make([]uuid.UUID, 0, len(page.Content))
		for _, c := range page.Content {
			ids = append(ids, c.ID)
		}
		return ids
	}

	page, err := e.svc.List(ctx, as(e.citizen), ListComplaintsOptions{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mine.ID}, idsOf(page))

	page, err = e.svc.List(ctx, as(e.adminN), ListComplaintsOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{mine.ID, neighbour.ID}, idsOf(page))

	page, err = e.svc.List(ctx, as(e.super), ListComplaintsOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{mine.ID, neighbour.ID, southern.ID}, idsOf(page))
	assert.EqualValues(t, 3, page.TotalElements)

	zoneless := testutil.CreateUser(t, e.db, model.UserRoleAdmin, nil)
	page, err = e.svc.List(ctx, as(zoneless), ListComplaintsOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Zero(t, page.TotalElements)

	page, err = e.svc.List(ctx, as(e.adminN), ListComplaintsOptions{ZoneID: &e.south.ID})
	require.NoError(t, err)
	assert.Empty(t, page.Content)

	_, err = e.svc.List(ctx, model.Principal{UserID: uuid.New(), Role: "AUDITOR"}, ListComplaintsOptions{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListStatusFilterAndPaging(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		e.file(t, e.citizen)
	}
	resolved := e.file(t, e.foreign)
	e.setStatus(t, resolved.ID, model.ComplaintStatusResolved)

	page, err := e.svc.List(ctx, as(e.super), ListComplaintsOptions{Status: ptr(model.ComplaintStatusResolved)})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, resolved.ID, page.Content[0].ID)

	page, err = e.svc.List(ctx, as(e.super), ListComplaintsOptions{Page: 1, Size: 3})
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.Last)

	page, err = e.svc.List(ctx, as(e.super), ListComplaintsOptions{Size: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.Size)

	_, err = e.svc.List(ctx, as(e.super), ListComplaintsOptions{Page: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.svc.List(ctx, as(e.super), ListComplaintsOptions{Page: math.MaxInt/10 + 1, Size: 10})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "page", verr.Field)

	_, err = e.svc.List(ctx, as(e.super), ListComplaintsOptions{Status: ptr(model.ComplaintStatus("CLOSED"))})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetDetailDistinguishesNotFoundFromForbidden(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	southern := e.file(t, e.foreign)

	_, err := e.svc.GetDetail(ctx, as(e.citizen), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.svc.GetDetail(ctx, as(e.citizen), southern.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.GetDetail(ctx, as(e.adminN), southern.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	detail, err := e.svc.GetDetail(ctx, as(e.adminS), southern.ID)
	require.NoError(t, err)
	assert.Equal(t, southern.ComplaintNumber, detail.ComplaintNumber)

	_, err = e.svc.GetDetail(ctx, as(e.super), southern.ID)
	assert.NoError(t, err)
}

func TestScopeFollowsOwnerCurrentZone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.file(t, e.citizen)

	require.NoError(t, e.db.Model(&model.User{}).Where("id = ?", e.citizen.ID).Update("zone_id", e.south.ID).Error)

	_, err := e.svc.GetDetail(ctx, as(e.adminN), detail.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	moved, err := e.svc.GetDetail(ctx, as(e.adminS), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, "CMP-NOR-2024-0001", moved.ComplaintNumber)
	assert.Equal(t, "South Ward", moved.Zone.ZoneName)
}

func TestUpdateStatusTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.file(t, e.citizen)

	updated, err := e.svc.UpdateStatus(ctx, as(e.adminN), detail.ID, model.ComplaintStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusInProgress, updated.Status)
	require.Len(t, updated.History, 2)
	assert.Equal(t, model.ComplaintStatusPending, *updated.History[1].OldStatus)
	assert.Equal(t, e.adminN.ID, *updated.History[1].ChangedBy)

	_, err = e.svc.UpdateStatus(ctx, as(e.adminN), detail.ID, model.ComplaintStatusInProgress)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = e.svc.UpdateStatus(ctx, as(e.adminN), detail.ID, model.ComplaintStatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err = e.svc.UpdateStatus(ctx, as(e.super), detail.ID, model.ComplaintStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusResolved, updated.Status)

	direct := e.file(t, e.citizen)
	updated, err = e.svc.UpdateStatus(ctx, as(e.adminN), direct.ID, model.ComplaintStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusResolved, updated.Status)

	_, err = e.svc.UpdateStatus(ctx, as(e.adminN), direct.ID, "REOPENED")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateStatusFromResolvedIsInvalidForEveryRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.file(t, e.citizen)
	e.setStatus(t, detail.ID, model.ComplaintStatusResolved)

	for _, caller := range []*model.User{e.citizen, e.foreign, e.adminN, e.adminS, e.super} {
		for _, target := range []model.ComplaintStatus{model.ComplaintStatusPending, model.ComplaintStatusInProgress, model.ComplaintStatusResolved} {
			_, err := e.svc.UpdateStatus(ctx, as(caller), detail.ID, target)
			assert.ErrorIs(t, err, ErrInvalidStatus, "role %s target %s", caller.Role, target)
		}
	}
}

func TestUpdateStatusPermissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	southern := e.file(t, e.foreign)

	_, err := e.svc.UpdateStatus(ctx, as(e.adminN), southern.ID, model.ComplaintStatusInProgress)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.UpdateStatus(ctx, as(e.foreign), southern.ID, model.ComplaintStatusInProgress)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	zoneless := testutil.CreateUser(t, e.db, model.UserRoleAdmin, nil)
	_, err = e.svc.UpdateStatus(ctx, as(zoneless), southern.ID, model.ComplaintStatusInProgress)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.UpdateStatus(ctx, as(e.adminS), uuid.New(), model.ComplaintStatusInProgress)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddAttachments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.file(t, e.citizen, pngFile("before.png", 128))

	refs, err := e.svc.AddAttachments(ctx, as(e.citizen), detail.ID, []FileUpload{jpegFile("after.jpg")})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, model.ContentTypeJPEG, refs[0].ContentType)

	reloaded, err := e.svc.GetDetail(ctx, as(e.citizen), detail.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Attachments, 2)

	_, err = e.svc.AddAttachments(ctx, as(e.sameZ), detail.ID, []FileUpload{jpegFile("x.jpg")})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.AddAttachments(ctx, as(e.adminN), detail.ID, []FileUpload{jpegFile("x.jpg")})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.AddAttachments(ctx, as(e.citizen), uuid.New(), []FileUpload{jpegFile("x.jpg")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.svc.AddAttachments(ctx, as(e.citizen), detail.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	e.setStatus(t, detail.ID, model.ComplaintStatusResolved)
	_, err = e.svc.AddAttachments(ctx, as(e.citizen), detail.ID, []FileUpload{jpegFile("late.jpg")})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.file(t, e.citizen)
	b := e.file(t, e.sameZ)
	e.file(t, e.foreign)
	e.setStatus(t, a.ID, model.ComplaintStatusInProgress)
	e.setStatus(t, b.ID, model.ComplaintStatusResolved)

	stats, err := e.svc.Stats(ctx, as(e.adminN))
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStats{Total: 2, Pending: 0, InProgress: 1, Resolved: 1}, *stats)

	stats, err = e.svc.Stats(ctx, as(e.super))
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStats{Total: 3, Pending: 1, InProgress: 1, Resolved: 1}, *stats)

	zoneless := testutil.CreateUser(t, e.db, model.UserRoleAdmin, nil)
	stats, err = e.svc.Stats(ctx, as(zoneless))
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStats{}, *stats)

	_, err = e.svc.Stats(ctx, as(e.citizen))
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGetAttachment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.file(t, e.citizen, pngFile("photo.png", 256))
	id := detail.Attachments[0].ID

	file, err := e.svc.GetAttachment(ctx, as(e.citizen), id)
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypePNG, file.ContentType)
	assert.Equal(t, "photo.png", file.FileName)
	assert.Len(t, file.Data, 256)
	assert.True(t, bytes.HasPrefix(file.Data, pngHeader))

	_, err = e.svc.GetAttachment(ctx, as(e.adminN), id)
	assert.NoError(t, err)

	_, err = e.svc.GetAttachment(ctx, as(e.foreign), id)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.GetAttachment(ctx, as(e.adminS), id)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.GetAttachment(ctx, as(e.citizen), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
