package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateRendererRender(t *testing.T) {
	out, err := NewCertificateRenderer().Render(CertificateDocument{
		Number:           "ABCD1234",
		RecipientName:    "Ada Lovelace",
		EventTitle:       "Intro to Analytical Engines",
		EventDate:        time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Location:         "Main Hall",
		OrganizerName:    "Charles Babbage",
		IssuerName:       "University Campus Events",
		IssuedAt:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		VerificationHash: "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 500)
}

func TestCertificateRendererRequiresFields(t *testing.T) {
	_, err := NewCertificateRenderer().Render(CertificateDocument{Number: "X"})
	assert.Error(t, err)
}
