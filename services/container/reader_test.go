package container

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
)

func TestOpen_UnsupportedFormat(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "evidence.pst"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterr.ErrUnsupportedFormat))

	_, err = Open("noextension")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterr.ErrUnsupportedFormat))
}

func TestOpen_MissingFile(t *testing.T) {
	// Known extension but nothing on disk.
	_, err := Open(filepath.Join(t.TempDir(), "missing.mbox"))
	assert.Error(t, err)
}
