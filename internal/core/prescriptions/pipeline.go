package prescriptions

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	objectclient "github.com/pharmaciedusoleil/portal/internal/core/object-client"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

const ApprovedNote = "Ordonnance validée. Médicaments disponibles en stock."

var (
	ErrNotFound    = errors.New("prescription not found")
	ErrNotApproved = errors.New("prescription is not approved yet")
)

// File is one submitted file. ContentType may be empty, it is then sniffed.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Observer interface {
	UploadStatus(status models.UploadStatus)
}

type nopObserver struct{}

func (nopObserver) UploadStatus(models.UploadStatus) {}

type Config struct {
	Key             string // timeline key prefix
	ObjectPrefix    string // object storage key prefix
	ValidatingAfter time.Duration
	ApprovedAfter   time.Duration
	Storage         objectclient.ObjectClient
	Links           contact.Links
	Observer        Observer
	Log             *logrus.Entry
}

// Pipeline walks uploaded prescriptions through a simulated review:
// uploading, then validating, then approved.
//
// Its methods synchronize through the loop themselves and must not be called
// from a loop task.
type Pipeline struct {
	loop *timeline.Loop
	cfg  Config

	uploads []*models.PrescriptionUpload
}

func NewPipeline(loop *timeline.Loop, cfg Config) *Pipeline {
	if cfg.ValidatingAfter <= 0 {
		cfg.ValidatingAfter = time.Second
	}
	if cfg.ApprovedAfter <= 0 {
		cfg.ApprovedAfter = 3 * time.Second
	}
	if cfg.Storage == nil {
		cfg.Storage = objectclient.NewMemoryClient()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.Key == "" {
		cfg.Key = "prescriptions/" + uuid.NewString()
	}
	if cfg.ObjectPrefix == "" {
		cfg.ObjectPrefix = "prescriptions"
	}
	return &Pipeline{loop: loop, cfg: cfg}
}

// StatusText is the label shown next to an upload.
func StatusText(s models.UploadStatus) string {
	switch s {
	case models.UploadUploading:
		return "Téléchargement..."
	case models.UploadValidating:
		return "En cours de validation"
	case models.UploadApproved:
		return "Validée par le pharmacien"
	case models.UploadRejected:
		return "Rejetée - Voir les notes"
	default:
		return ""
	}
}

func (p *Pipeline) timerKey(id string) string {
	return p.cfg.Key + "/" + id
}

// objectKey creates a consistent storage key layout.
func (p *Pipeline) objectKey(id, name string) string {
	name = strings.TrimSpace(path.Base(name))
	name = strings.ReplaceAll(name, " ", "_")
	return path.Join(p.cfg.ObjectPrefix, id, name)
}

// DetectType returns the media type of f without parameters, sniffing the
// content when none or a generic one was declared.
func DetectType(f File) string {
	ct := f.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(f.Data)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

// Accepted reports whether a media type may be submitted.
func Accepted(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/") || mediaType == "application/pdf"
}

func preview(mediaType string, data []byte) string {
	if mediaType == "application/pdf" {
		return "icon:pdf"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Accept stages every supported file and starts its review timers.
// Unsupported files are skipped; the returned slice holds only accepted ones.
func (p *Pipeline) Accept(ctx context.Context, files []File) []models.PrescriptionUpload {
	staged := make([]*models.PrescriptionUpload, 0, len(files))
	for _, f := range files {
		mediaType := DetectType(f)
		if !Accepted(mediaType) {
			p.cfg.Log.WithFields(logrus.Fields{"file": f.Name, "type": mediaType}).Debug("skipping unsupported file")
			continue
		}

		id := uuid.NewString()
		u := &models.PrescriptionUpload{
			ID:          id,
			FileName:    f.Name,
			ContentType: mediaType,
			Size:        int64(len(f.Data)),
			Preview:     preview(mediaType, f.Data),
		}

		key := p.objectKey(id, f.Name)
		if _, err := p.cfg.Storage.UploadFile(ctx, key, f.Data, mediaType); err != nil {
			p.cfg.Log.WithError(err).WithField("upload", id).Warn("staging failed, review continues")
		} else {
			u.FileRef = key
		}
		staged = append(staged, u)
	}

	out := make([]models.PrescriptionUpload, 0, len(staged))
	p.loop.Do(func() {
		now := p.loop.Now()
		for _, u := range staged {
			u.UploadedAt = now
			p.setStatus(u, models.UploadUploading, "")
			p.uploads = append(p.uploads, u)
			p.schedule(u)
			out = append(out, *u)
		}
	})
	return out
}

func (p *Pipeline) setStatus(u *models.PrescriptionUpload, s models.UploadStatus, note string) {
	u.Status = s
	u.StatusLabel = StatusText(s)
	if note != "" {
		u.PharmacistNote = note
	}
	p.cfg.Observer.UploadStatus(s)
}

func (p *Pipeline) schedule(u *models.PrescriptionUpload) {
	key := p.timerKey(u.ID)
	p.loop.At(key, u.UploadedAt.Add(p.cfg.ValidatingAfter), func(time.Time) {
		if cur, _ := p.find(u.ID); cur == u && u.Status == models.UploadUploading {
			p.setStatus(u, models.UploadValidating, "")
		}
	})
	p.loop.At(key, u.UploadedAt.Add(p.cfg.ApprovedAfter), func(time.Time) {
		if cur, _ := p.find(u.ID); cur != u {
			return
		}
		p.setStatus(u, models.UploadApproved, ApprovedNote)
		p.cfg.Log.WithField("upload", u.ID).Info("prescription approved")
	})
}

// List returns uploads in submission order.
func (p *Pipeline) List() []models.PrescriptionUpload {
	var out []models.PrescriptionUpload
	p.loop.Do(func() {
		out = make([]models.PrescriptionUpload, 0, len(p.uploads))
		for _, u := range p.uploads {
			out = append(out, *u)
		}
	})
	return out
}

func (p *Pipeline) find(id string) (*models.PrescriptionUpload, int) {
	for i, u := range p.uploads {
		if u.ID == id {
			return u, i
		}
	}
	return nil, -1
}

// detach forgets an upload and cancels its timers. It runs on the loop.
func (p *Pipeline) detach(id string) (ref string, found bool) {
	u, i := p.find(id)
	if u == nil {
		return "", false
	}
	p.uploads = append(p.uploads[:i], p.uploads[i+1:]...)
	p.loop.Cancel(p.timerKey(id))
	return u.FileRef, true
}

// Remove drops an upload, its pending review timers and its staged file.
func (p *Pipeline) Remove(ctx context.Context, id string) error {
	var (
		ref   string
		found bool
	)
	p.loop.Do(func() { ref, found = p.detach(id) })
	if !found {
		return ErrNotFound
	}
	if ref != "" {
		if err := p.cfg.Storage.DeleteFile(ctx, ref); err != nil {
			p.cfg.Log.WithError(err).WithField("upload", id).Warn("could not delete staged file")
		}
	}
	return nil
}

// OrderLink returns the WhatsApp link used to order an approved
// prescription's medications.
func (p *Pipeline) OrderLink(id string) (string, error) {
	var (
		link string
		err  error
	)
	p.loop.Do(func() {
		u, _ := p.find(id)
		switch {
		case u == nil:
			err = ErrNotFound
		case u.Status != models.UploadApproved:
			err = ErrNotApproved
		default:
			link = p.cfg.Links.WhatsApp(contact.PrescriptionOrderMessage(id))
		}
	})
	return link, err
}

// Open streams the staged file of an upload.
func (p *Pipeline) Open(ctx context.Context, id string) (io.ReadCloser, models.PrescriptionUpload, error) {
	var (
		upload models.PrescriptionUpload
		found  bool
	)
	p.loop.Do(func() {
		if u, _ := p.find(id); u != nil {
			upload, found = *u, true
		}
	})
	if !found {
		return nil, upload, ErrNotFound
	}
	if upload.FileRef == "" {
		return nil, upload, objectclient.ErrObjectNotFound
	}
	r, err := p.cfg.Storage.GetObjectReader(ctx, upload.FileRef)
	if err != nil {
		return nil, upload, err
	}
	return r, upload, nil
}

// Close cancels every review timer and discards staged files.
func (p *Pipeline) Close(ctx context.Context) {
	var refs []string
	p.loop.Do(func() {
		p.loop.CancelPrefix(p.cfg.Key + "/")
		for _, u := range p.uploads {
			if u.FileRef != "" {
				refs = append(refs, u.FileRef)
			}
		}
		p.uploads = nil
	})
	for _, ref := range refs {
		if err := p.cfg.Storage.DeleteFile(ctx, ref); err != nil {
			p.cfg.Log.WithError(err).Warn("could not delete staged file")
		}
	}
}
