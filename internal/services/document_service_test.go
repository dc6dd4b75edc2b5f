package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/testutil"
)

func TestOfferLetterPDF(t *testing.T) {
	f := newFixture(t)
	w := f.world(t)
	ctx := context.Background()
	cfg := testutil.Config()
	cfg.UploadDir = t.TempDir()
	storage := NewStorageService(cfg)
	docs := NewDocumentService(cfg, f.apps, storage)

	pending := f.interviewingApp(t, w)
	_, _, err := docs.OfferLetterPDF(ctx, w.lead, pending.ID)
	wantKind(t, err, apperrors.ErrNotFound)
	f.forceStatus(t, pending.ID, models.ApplicationStatusWithdrawn)

	app := f.offeredApp(t, w, time.Now().Add(30*24*time.Hour))

	pdf, name, err := docs.OfferLetterPDF(ctx, w.lead, app.ID)
	if err != nil {
		t.Fatalf("OfferLetterPDF() error = %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", pdf[:8])
	}
	if name == "" {
		t.Error("empty filename")
	}

	archived, err := storage.DocumentPaths("offer_letters")
	if err != nil {
		t.Fatalf("DocumentPaths() error = %v", err)
	}
	if len(archived) != 1 {
		t.Errorf("archived letters = %d, want 1", len(archived))
	}

	_, _, err = docs.OfferLetterPDF(ctx, f.companyUser(t), app.ID)
	wantKind(t, err, apperrors.ErrForbidden)
}

func TestStorageService_RejectsPathSeparators(t *testing.T) {
	cfg := testutil.Config()
	cfg.UploadDir = t.TempDir()
	storage := NewStorageService(cfg)

	for _, name := range []string{"../escape.pdf", `a\b.pdf`} {
		if _, err := storage.SaveDocument("offer_letters", name, []byte("x")); err == nil {
			t.Errorf("SaveDocument(%q) succeeded", name)
		}
	}
	if _, err := storage.SaveDocument("../up", "ok.pdf", []byte("x")); err == nil {
		t.Error("SaveDocument accepted a traversing docType")
	}
}
