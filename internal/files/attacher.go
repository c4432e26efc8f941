// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// Sink receives pending-file state. The session manager implements it.
type Sink interface {
	AddPendingFile(d Descriptor) (model.PendingFile, error)
	UpdatePendingFile(id string, u model.PendingFileUpdate) bool
}

// Attacher drives a local file from path to ready attachment: describe,
// register with the sink, upload, then report the terminal state.
type Attacher struct {
	sink        Sink
	uploader    backend.Uploader
	perSecond   float64
	concurrency int
	log         logrus.FieldLogger
}

// AttacherOption configures an Attacher.
type AttacherOption func(*Attacher)

// WithProgressRate caps progress updates per file per second.
func WithProgressRate(perSecond float64) AttacherOption {
	return func(a *Attacher) {
		if perSecond > 0 {
			a.perSecond = perSecond
		}
	}
}

// WithConcurrency bounds parallel uploads.
func WithConcurrency(n int) AttacherOption {
	return func(a *Attacher) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) AttacherOption {
	return func(a *Attacher) { a.log = logging.OrDiscard(l) }
}

// NewAttacher creates an attacher writing into sink.
func NewAttacher(sink Sink, uploader backend.Uploader, opts ...AttacherOption) *Attacher {
	a := &Attacher{
		sink:        sink,
		uploader:    uploader,
		perSecond:   10,
		concurrency: 3,
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AttachPaths attaches every path concurrently. Files rejected before upload
// (unreadable, wrong type, too large) are reported in the returned error and
// never appear in the sink. Upload failures are recorded on the pending
// entry instead and do not fail the call.
func (a *Attacher) AttachPaths(ctx context.Context, paths ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	rejected := make([]error, len(paths))
	for i, p := range paths {
		g.Go(func() error {
			// Never return an error here: one bad file must not cancel
			// the siblings' uploads.
			rejected[i] = a.attach(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(rejected...)
}

// Attach attaches a single path; see AttachPaths.
func (a *Attacher) Attach(ctx context.Context, path string) error {
	return a.AttachPaths(ctx, path)
}

func (a *Attacher) attach(ctx context.Context, path string) error {
	desc, err := Describe(path)
	if err != nil {
		return err
	}
	pending, err := a.sink.AddPendingFile(desc)
	if err != nil {
		return fmt.Errorf("%s: %w", desc.Filename, err)
	}
	log := a.log.WithFields(logrus.Fields{"file_id": pending.ID, "filename": desc.Filename, "size": desc.Size})
	log.Debug("upload started")

	uploaded, err := a.upload(ctx, desc, pending.ID)
	if err != nil {
		log.WithError(err).Warn("upload failed")
		a.sink.UpdatePendingFile(pending.ID, model.ErrorUpdate(uploadErrorMessage(err)))
		return nil
	}

	update := model.ReadyUpdate(uploaded.ID, uploaded.URL)
	if uploaded.ThumbnailURL != "" {
		update.ThumbnailURL = &uploaded.ThumbnailURL
	}
	if uploaded.Transcription != "" {
		update.Transcription = &uploaded.Transcription
	}
	if !a.sink.UpdatePendingFile(pending.ID, update) {
		log.Debug("pending file removed before upload finished")
		return nil
	}
	log.WithField("server_id", uploaded.ID).Info("upload complete")
	return nil
}

func (a *Attacher) upload(ctx context.Context, desc Descriptor, tempID string) (backend.UploadedFile, error) {
	f, err := os.Open(desc.Path)
	if err != nil {
		return backend.UploadedFile{}, err
	}
	defer f.Close()

	limiter := rate.NewLimiter(rate.Limit(a.perSecond), 1)
	onProgress := func(pct int) {
		// Terminal 100% arrives with the ready update.
		if pct >= 100 || !limiter.Allow() {
			return
		}
		a.sink.UpdatePendingFile(tempID, model.ProgressUpdate(pct))
	}

	return a.uploader.UploadFile(ctx, backend.Upload{
		Filename:    desc.Filename,
		ContentType: desc.ContentType,
		Size:        desc.Size,
		Body:        f,
	}, onProgress)
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "upload cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "upload timed out"
	default:
		return err.Error()
	}
}
