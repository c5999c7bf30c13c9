package prescriptions

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	objectclient "github.com/pharmaciedusoleil/portal/internal/core/object-client"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

var (
	start   = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdfData = []byte("%PDF-1.4\n%âãÏÓ\n")
)

type brokenStorage struct{ objectclient.MemoryClient }

func (*brokenStorage) UploadFile(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("bucket unreachable")
}

func newPipeline(t *testing.T) (*Pipeline, *timeline.Loop, *objectclient.MemoryClient) {
	t.Helper()
	loop := timeline.NewLoop(timeline.NewManualClock(start), nil)
	store := objectclient.NewMemoryClient()
	return NewPipeline(loop, Config{Key: "prescriptions/test", Storage: store}), loop, store
}

func TestAcceptFiltersUnsupportedTypes(t *testing.T) {
	p, _, store := newPipeline(t)

	got := p.Accept(context.Background(), []File{
		{Name: "scan.png", ContentType: "image/png", Data: pngData},
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
		{Name: "ordonnance.pdf", Data: pdfData},
		{Name: "blob.bin", ContentType: "application/octet-stream", Data: []byte{0, 1, 2}},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "scan.png", got[0].FileName)
	assert.True(t, strings.HasPrefix(got[0].Preview, "data:image/png;base64,"))
	assert.Equal(t, "application/pdf", got[1].ContentType)
	assert.Equal(t, "icon:pdf", got[1].Preview)
	for _, u := range got {
		assert.Equal(t, models.UploadUploading, u.Status)
		assert.Equal(t, "Téléchargement...", u.StatusLabel)
		assert.Equal(t, start, u.UploadedAt)
		assert.NotEmpty(t, u.FileRef)
	}
	assert.Equal(t, 2, store.Len())
	assert.Len(t, p.List(), 2)
}

func TestReviewStages(t *testing.T) {
	p, loop, _ := newPipeline(t)
	u := p.Accept(context.Background(), []File{{Name: "scan.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}})[0]

	require.NoError(t, loop.Advance(999*time.Millisecond))
	assert.Equal(t, models.UploadUploading, p.List()[0].Status)

	require.NoError(t, loop.Advance(time.Millisecond))
	assert.Equal(t, models.UploadValidating, p.List()[0].Status)

	_, err := p.OrderLink(u.ID)
	assert.ErrorIs(t, err, ErrNotApproved)

	require.NoError(t, loop.Advance(2*time.Second))
	got := p.List()[0]
	assert.Equal(t, models.UploadApproved, got.Status)
	assert.Equal(t, ApprovedNote, got.PharmacistNote)
	assert.Equal(t, "Validée par le pharmacien", got.StatusLabel)

	link, err := p.OrderLink(u.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/22997775522?text="))
	assert.Contains(t, link, u.ID)
	assert.NotContains(t, link, "+")
}

func TestRemoveBeforeApprovalCancelsTimers(t *testing.T) {
	p, loop, store := newPipeline(t)
	u := p.Accept(context.Background(), []File{{Name: "o.pdf", Data: pdfData}})[0]

	require.NoError(t, loop.Advance(500*time.Millisecond))
	require.NoError(t, p.Remove(context.Background(), u.ID))
	assert.Equal(t, 0, loop.Pending("prescriptions/test/"+u.ID))
	assert.Equal(t, 0, store.Len())

	require.NoError(t, loop.Advance(5*time.Second))
	assert.Empty(t, p.List())
	assert.ErrorIs(t, p.Remove(context.Background(), u.ID), ErrNotFound)
	_, err := p.OrderLink(u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStagingFailureStillAdvances(t *testing.T) {
	loop := timeline.NewLoop(timeline.NewManualClock(start), nil)
	p := NewPipeline(loop, Config{Key: "prescriptions/broken", Storage: &brokenStorage{}})

	u := p.Accept(context.Background(), []File{{Name: "o.pdf", Data: pdfData}})[0]
	assert.Empty(t, u.FileRef)

	require.NoError(t, loop.Advance(3*time.Second))
	assert.Equal(t, models.UploadApproved, p.List()[0].Status)

	_, _, err := p.Open(context.Background(), u.ID)
	assert.ErrorIs(t, err, objectclient.ErrObjectNotFound)
}

func TestOpenStreamsStagedFile(t *testing.T) {
	p, _, _ := newPipeline(t)
	u := p.Accept(context.Background(), []File{{Name: "o.pdf", Data: pdfData}})[0]

	r, meta, err := p.Open(context.Background(), u.ID)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pdfData, data)
	assert.Equal(t, "o.pdf", meta.FileName)

	_, _, err = p.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloseDiscardsEverything(t *testing.T) {
	p, loop, store := newPipeline(t)
	p.Accept(context.Background(), []File{{Name: "a.png", ContentType: "image/png", Data: pngData}, {Name: "b.pdf", Data: pdfData}})

	p.Close(context.Background())
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, p.List())
	require.NoError(t, loop.Advance(5*time.Second))
	assert.Empty(t, p.List())
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectType(File{Data: pdfData}))
	assert.Equal(t, "image/png", DetectType(File{ContentType: "application/octet-stream", Data: pngData}))
	assert.Equal(t, "image/jpeg", DetectType(File{ContentType: "image/jpeg; q=1"}))
	assert.Equal(t, "text/plain", DetectType(File{Data: []byte("plain words")}))
}

type statusLog []models.UploadStatus

func (l *statusLog) UploadStatus(s models.UploadStatus) { *l = append(*l, s) }

func TestRemoveWhileApprovalIsDueLeavesItUntouched(t *testing.T) {
	loop := timeline.NewLoop(timeline.NewManualClock(start), nil)
	var seen statusLog
	p := NewPipeline(loop, Config{Key: "prescriptions/race", Observer: &seen})
	u := p.Accept(context.Background(), []File{{Name: "o.pdf", Data: pdfData}})[0]
	require.NoError(t, loop.Advance(2*time.Second))

	entered, release, held := make(chan struct{}), make(chan struct{}), make(chan struct{})
	go func() {
		defer close(held)
		loop.Do(func() {
			close(entered)
			<-release
			_, found := p.detach(u.ID)
			assert.True(t, found)
		})
	}()
	<-entered

	ran := make(chan int)
	go func() { ran <- loop.RunDue(start.Add(3 * time.Second)) }()
	require.Eventually(t, func() bool { return loop.Pending("prescriptions/race/"+u.ID) == 0 }, time.Second, time.Millisecond)
	close(release)
	<-held
	<-ran

	assert.Equal(t, statusLog{models.UploadUploading, models.UploadValidating}, seen)
	assert.Empty(t, p.List())
}
