package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFilename("report.pdf", "attachment"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd", "attachment"))
	assert.Equal(t, "invoice.pdf", SanitizeFilename(`C:\Users\x\invoice.pdf`, "attachment"))
	assert.Equal(t, "my_file_1_.txt", SanitizeFilename("my file (1).txt", "attachment"))
	assert.Equal(t, "attachment", SanitizeFilename("", "attachment"))
	assert.Equal(t, "attachment", SanitizeFilename("...", "attachment"))
}
