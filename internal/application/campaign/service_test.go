package campaign

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type fixedUID string

func (u fixedUID) RandomUID(n int) string { return string(u) }

type memRepo struct {
	byUID      map[string]*domain.Campaign
	recipients map[int64][]string
	logs       map[int64][]domain.SendLog
	nextID     int64
	createErr  error
	deleted    []int64
	onGet      func(c *domain.Campaign)
}

func newMemRepo() *memRepo {
	return &memRepo{
		byUID:      map[string]*domain.Campaign{},
		recipients: map[int64][]string{},
		logs:       map[int64][]domain.SendLog{},
	}
}

func (m *memRepo) CreateCampaign(ctx context.Context, c *domain.Campaign, recipients []string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	c.ID = m.nextID
	m.byUID[c.UID] = c
	m.recipients[c.ID] = recipients
	return nil
}

func (m *memRepo) GetByUID(ctx context.Context, uid string) (*domain.Campaign, error) {
	c, ok := m.byUID[uid]
	if !ok {
		return nil, domain.ErrNotFound("campaign not found")
	}
	cp := *c
	if m.onGet != nil {
		m.onGet(&cp)
	}
	return &cp, nil
}

func (m *memRepo) List(ctx context.Context) ([]*domain.Campaign, error) {
	var out []*domain.Campaign
	for _, c := range m.byUID {
		out = append(out, c)
	}
	return out, nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	for uid, c := range m.byUID {
		if c.ID == id {
			delete(m.byUID, uid)
		}
	}
	return nil
}

func (m *memRepo) UpdateState(ctx context.Context, c *domain.Campaign, from domain.CampaignStatus) error {
	cur, ok := m.byUID[c.UID]
	if !ok {
		return domain.ErrNotFound("campaign not found")
	}
	if cur.Status != from {
		return domain.ErrCampaignChanged
	}
	cp := *c
	m.byUID[c.UID] = &cp
	return nil
}

func (m *memRepo) RecentLogs(ctx context.Context, limit int) ([]domain.SendLog, error) {
	var out []domain.SendLog
	for _, l := range m.logs {
		out = append(out, l...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) LogsByCampaign(ctx context.Context, id int64) ([]domain.SendLog, error) {
	return m.logs[id], nil
}

func (m *memRepo) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	return domain.Dashboard{Running: len(m.byUID)}, nil
}

type memStore struct {
	objects map[string]string
	putErr  error
}

func (s *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, ct string) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, _ := io.ReadAll(r)
	s.objects[key] = string(b)
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type recPublisher struct {
	keys     []string
	payloads []any
	err      error
}

func (p *recPublisher) Publish(ctx context.Context, key string, payload any) error {
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	return p.err
}

type fixture struct {
	svc   *Service
	repo  *memRepo
	store *memStore
	pub   *recPublisher
	now   time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:  newMemRepo(),
		store: &memStore{objects: map[string]string{}},
		pub:   &recPublisher{},
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.repo, f.store, f.pub, fakeClock{f.now}, fixedUID("0123456789"), zerolog.Nop())
	return f
}

// --- Tests ---

func TestService_Create(t *testing.T) {
	f := newFixture()

	c, err := f.svc.Create(context.Background(), CreateCmd{
		Input:      domain.NewCampaignInput{Name: "spring", Subjects: "Hi", BodyHTML: "a\nb"},
		Recipients: "a@x.io\n\n  b@x.io  \n",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "0123456789", c.UID)
	assert.Equal(t, domain.StatusRunning, c.Status)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, f.repo.recipients[1])

	require.Equal(t, []string{"campaign.created"}, f.pub.keys)
	evt := f.pub.payloads[0].(CampaignCreated)
	assert.Equal(t, 2, evt.Recipients)
	assert.Equal(t, "running", evt.Status)
}

func TestService_Create_StoresUpload(t *testing.T) {
	f := newFixture()

	c, err := f.svc.Create(context.Background(), CreateCmd{
		Input:  domain.NewCampaignInput{},
		Upload: &Upload{Filename: "My Offer.pdf", Body: strings.NewReader("PDFDATA"), Size: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, "uploads/0123456789/My_Offer.pdf", c.UploadedAttachmentKey)
	assert.Equal(t, "PDFDATA", f.store.objects[c.UploadedAttachmentKey])
}

func TestService_Create_RemovesUploadWhenInsertFails(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("db down")

	_, err := f.svc.Create(context.Background(), CreateCmd{
		Upload: &Upload{Filename: "a.txt", Body: strings.NewReader("x")},
	})
	require.Error(t, err)
	assert.Empty(t, f.store.objects)
	assert.Empty(t, f.pub.keys)
}

func TestService_Create_ValidationError(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateCmd{
		Input: domain.NewCampaignInput{ScheduleType: "monthly"},
	})
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeValidation, appErr.Code)
}

func TestService_Create_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.pub.err = errors.New("rabbit down")

	_, err := f.svc.Create(context.Background(), CreateCmd{Recipients: "a@x.io"})
	assert.NoError(t, err)
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	c, err := f.svc.Create(context.Background(), CreateCmd{
		Upload: &Upload{Filename: "a.txt", Body: strings.NewReader("x")},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), c.UID))
	assert.Equal(t, []int64{c.ID}, f.repo.deleted)
	assert.Empty(t, f.store.objects)

	err = f.svc.Delete(context.Background(), c.UID)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeNotFound, appErr.Code)
}

func TestService_PauseResume(t *testing.T) {
	f := newFixture()
	c, err := f.svc.Create(context.Background(), CreateCmd{Recipients: "a@x.io"})
	require.NoError(t, err)

	got, err := f.svc.Pause(context.Background(), c.UID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, got.Status)

	_, err = f.svc.Pause(context.Background(), c.UID)
	assert.Error(t, err)

	got, err = f.svc.Resume(context.Background(), c.UID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.Status)
}

func TestService_PauseLosesToConcurrentChange(t *testing.T) {
	f := newFixture()
	c, err := f.svc.Create(context.Background(), CreateCmd{Recipients: "a@x.io"})
	require.NoError(t, err)

	// the dispatcher completes the campaign between the read and the write
	f.repo.onGet = func(got *domain.Campaign) {
		stored := *got
		stored.Status = domain.StatusCompleted
		f.repo.byUID[got.UID] = &stored
	}

	_, err = f.svc.Pause(context.Background(), c.UID)
	require.ErrorIs(t, err, domain.ErrCampaignChanged)
	assert.Equal(t, domain.StatusCompleted, f.repo.byUID[c.UID].Status)
}

func TestService_CampaignHistory(t *testing.T) {
	f := newFixture()
	c, err := f.svc.Create(context.Background(), CreateCmd{Recipients: "a@x.io"})
	require.NoError(t, err)
	f.repo.logs[c.ID] = []domain.SendLog{{CampaignID: c.ID, Recipient: "a@x.io", Status: domain.SendSent}}

	gotC, logs, err := f.svc.CampaignHistory(context.Background(), c.UID)
	require.NoError(t, err)
	assert.Equal(t, c.UID, gotC.UID)
	assert.Len(t, logs, 1)

	_, _, err = f.svc.CampaignHistory(context.Background(), "missing")
	assert.Error(t, err)

	all, err := f.svc.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUploadKey(t *testing.T) {
	assert.Equal(t, "uploads/0123456789/report_2024.pdf", UploadKey("0123456789", "report 2024.pdf"))
	assert.Equal(t, "uploads/1/passwd", UploadKey("1", "../../etc/passwd"))
	assert.Equal(t, "uploads/1/x.doc", UploadKey("1", `C:\Users\me\x.doc`))
	assert.Equal(t, "uploads/1/attachment", UploadKey("1", ""))
}
