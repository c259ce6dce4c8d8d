package utils

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
)

func TestExtensionFromFilename(t *testing.T) {
	ext, err := ExtensionFromFilename("report.pdf", 16)
	require.NoError(t, err)
	assert.Equal(t, "pdf", ext)

	ext, err = ExtensionFromFilename("backup.tar.gz", 16)
	require.NoError(t, err)
	assert.Equal(t, "tar.gz", ext)

	ext, err = ExtensionFromFilename("Scan.PDF", 16)
	require.NoError(t, err)
	assert.Equal(t, "pdf", ext)

	// No dot or trailing dot is simply no extension, not an error.
	ext, err = ExtensionFromFilename("README", 16)
	require.NoError(t, err)
	assert.Equal(t, "", ext)
	ext, err = ExtensionFromFilename("archive.", 16)
	require.NoError(t, err)
	assert.Equal(t, "", ext)
}

func TestExtensionFromFilename_Implausible(t *testing.T) {
	// A descriptive name with an embedded dot is not an extension.
	_, err := ExtensionFromFilename("Q3 report v1.2 final draft", 16)
	assert.True(t, errors.Is(err, ingesterr.ErrImplausibleExtension))

	_, err = ExtensionFromFilename("file.averyveryverylongremainder", 16)
	assert.True(t, errors.Is(err, ingesterr.ErrImplausibleExtension))

	_, err = ExtensionFromFilename("evil.pdf/../../etc", 16)
	assert.True(t, errors.Is(err, ingesterr.ErrImplausibleExtension))
}

func TestLastExtension(t *testing.T) {
	assert.Equal(t, "gz", LastExtension("backup.tar.gz"))
	assert.Equal(t, "png", LastExtension("Logo.PNG"))
	assert.Equal(t, "", LastExtension("README"))
}
