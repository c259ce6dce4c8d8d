package container

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/container/mailarchive"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/container/mboxfile"
)

// Open resolves the container format from the file extension and returns a
// read-only handle over it. The source file is never written to.
func Open(path string) (interfaces.ContainerHandle, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".mailarc":
		return mailarchive.Open(path)
	case ".mbox":
		return mboxfile.Open(path)
	default:
		return nil, errors.Wrap(ingesterr.ErrUnsupportedFormat, filepath.Ext(path))
	}
}
