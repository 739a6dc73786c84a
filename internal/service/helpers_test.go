package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"complaint-service/internal/config"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/storage"
	"complaint-service/internal/testutil"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func pngFile(name string, size int) FileUpload {
	data := make([]byte, size)
	copy(data, pngHeader)
	return FileUpload{FileName: name, ContentType: model.ContentTypePNG, Content: bytes.NewReader(data)}
}

func jpegFile(name string) FileUpload {
	data := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0x11}, 256)...)
	return FileUpload{FileName: name, ContentType: model.ContentTypeJPEG, Content: bytes.NewReader(data)}
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, id uuid.UUID, obj storage.Object) error {
	return m.Called(ctx, id, obj).Error(0)
}

func (m *mockStore) Get(ctx context.Context, id uuid.UUID) (*storage.Object, error) {
	args := m.Called(ctx, id)
	obj, _ := args.Get(0).(*storage.Object)
	return obj, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type env struct {
	db      *gorm.DB
	svc     *ComplaintService
	north   *model.Zone
	south   *model.Zone
	citizen *model.User
	sameZ   *model.User
	foreign *model.User
	adminN  *model.User
	adminS  *model.User
	super   *model.User
}

func newEnv(t *testing.T) *env {
	return newEnvWithStore(t, nil)
}

// newEnvWithStore builds a service over a fresh sqlite database. A nil store uses the database store.
func newEnvWithStore(t *testing.T, store storage.ContentStore) *env {
	t.Helper()
	database := testutil.NewDB(t)
	if store == nil {
		store = storage.NewDBStore(database)
	}

	north := testutil.CreateZone(t, database, "North Ward", "NOR")
	south := testutil.CreateZone(t, database, "South Ward", "SOU")

	svc := NewComplaintService(
		repository.NewComplaintRepository(database),
		repository.NewUserRepository(database),
		repository.NewZoneRepository(database),
		repository.NewSequenceRepository(database),
		store,
		config.ComplaintsConfig{
			MaxAttachmentsPerAction: 5,
			Location:                time.UTC,
			AttachmentBaseURL:       "/api/v1/attachments",
		},
		zerolog.Nop(),
	)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC) }

	return &env{
		db:      database,
		svc:     svc,
		north:   north,
		south:   south,
		citizen: testutil.CreateUser(t, database, model.UserRoleCitizen, north),
		sameZ:   testutil.CreateUser(t, database, model.UserRoleCitizen, north),
		foreign: testutil.CreateUser(t, database, model.UserRoleCitizen, south),
		adminN:  testutil.CreateUser(t, database, model.UserRoleAdmin, north),
		adminS:  testutil.CreateUser(t, database, model.UserRoleAdmin, south),
		super:   testutil.CreateUser(t, database, model.UserRoleSuperAdmin, nil),
	}
}

func as(user *model.User) model.Principal {
	return testutil.PrincipalFor(user)
}

func (e *env) file(t *testing.T, owner *model.User, files ...FileUpload) *model.ComplaintDetail {
	t.Helper()
	detail, err := e.svc.Create(context.Background(), as(owner), CreateComplaintInput{
		Title:       "Broken street light",
		Description: "The light at the corner has been out for a week",
		Category:    model.ComplaintCategoryStreetLight,
	}, files)
	require.NoError(t, err)
	return detail
}

func (e *env) setStatus(t *testing.T, id uuid.UUID, status model.ComplaintStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.Complaint{}).Where("id = ?", id).Update("status", status).Error)
}
