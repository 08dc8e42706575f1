package vhdx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
)

// Identifier is the file type identifier at the start of every VHDX file.
type Identifier struct {
	// Creator names the application that created the file (may be empty).
	Creator string
}

// ReadIdentifier checks the "vhdxfile" signature at offset 0 and decodes the
// creator string that follows it.
func ReadIdentifier(r *buf.Reader) (Identifier, error) {
	sig, err := r.BytesAt(format.FileSignatureOffset, format.FileSignatureSize)
	if err != nil {
		return Identifier{}, fmt.Errorf("file identifier: %w", err)
	}
	if !bytes.Equal(sig, format.FileSignature) {
		return Identifier{}, fmt.Errorf("file identifier: got %q: %w", sig, format.ErrSignatureMismatch)
	}
	creator, err := r.UTF16At(format.FileCreatorOffset, format.FileCreatorSize)
	if err != nil {
		return Identifier{}, fmt.Errorf("file identifier creator: %w", err)
	}
	if i := strings.IndexByte(creator, 0); i >= 0 {
		creator = creator[:i]
	}
	return Identifier{Creator: creator}, nil
}
