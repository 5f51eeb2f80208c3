package objects

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestValidateResumeAcceptsPDF(t *testing.T) {
	content := bytes.NewReader(samplePDF)

	err := ValidateResume(Upload{Filename: "cv.pdf", Size: int64(len(samplePDF)), Content: content})
	require.NoError(t, err)

	// content is rewound for the upload
	rest, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, rest)
}

func TestValidateResumeRejectsOtherTypes(t *testing.T) {
	data := []byte("just some plain text, not a document")

	err := ValidateResume(Upload{Filename: "cv.pdf", Size: int64(len(data)), Content: bytes.NewReader(data)})
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestValidateResumeRejectsLargeFiles(t *testing.T) {
	err := ValidateResume(Upload{Filename: "cv.pdf", Size: MaxResumeSize + 1, Content: bytes.NewReader(samplePDF)})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestValidateResumeRequiresContent(t *testing.T) {
	assert.ErrorIs(t, ValidateResume(Upload{Filename: "cv.pdf"}), ErrNotPDF)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"resume.pdf", "resume.pdf"},
		{"My CV (final).pdf", "My_CV_final_.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\cv.pdf`, "cv.pdf"},
		{"Лебедев.pdf", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameFallsBackToUUID(t *testing.T) {
	name := SanitizeFilename("...")
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.Len(t, name, 36+len(".pdf"))
}

func TestResumeKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "42/1700000000123-cv.pdf", ResumeKey(42, "cv.pdf", at))
}
