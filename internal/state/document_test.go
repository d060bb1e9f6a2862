package state

import (
	"testing"
	"time"

	"github.com/bft-labs/guardian/internal/domain"
)

func TestDocumentReset(t *testing.T) {
	doc := NewDocument()
	now := time.Now().UTC()
	doc.MarkWelcomed("9", now)
	doc.MarkWarned("9", now)
	doc.MarkRemoved("9", domain.Removal{When: now, Success: true})

	doc.Reset("9")

	if doc.Tracked("9") {
		t.Fatalf("expected user 9 to be fully reset, got %+v", doc)
	}
}

func TestDocumentFailedRemovalIsNotFinal(t *testing.T) {
	doc := NewDocument()
	doc.MarkRemoved("3", domain.Removal{When: time.Now(), Success: false, Reason: "timeout"})

	if doc.IsRemovalFinal("3") {
		t.Fatal("failed removal must not be terminal")
	}
}

func TestDocumentCloneIsIndependent(t *testing.T) {
	doc := NewDocument()
	doc.MarkWelcomed("1", time.Now())

	c := doc.Clone()
	c.MarkWelcomed("2", time.Now())
	c.Reset("1")

	if _, ok := doc.Welcomed["2"]; ok {
		t.Fatal("clone mutation leaked into original")
	}
	if _, ok := doc.Welcomed["1"]; !ok {
		t.Fatal("original lost entry after clone reset")
	}
}
