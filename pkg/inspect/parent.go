package inspect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/pkg/types"
	"github.com/joshuapare/vhdxkit/vhdx"
)

// ResolveParentPath finds the parent of the image at childPath. Candidates
// are tried in order: the relative path from the child's directory, the
// volume path, then the absolute Win32 path. The first one naming an
// existing file wins; source is the locator key it came from.
func ResolveParentPath(childPath string, loc *vhdx.ParentLocator) (path, source string, err error) {
	if loc.RelativePath != "" {
		rel := filepath.FromSlash(strings.ReplaceAll(loc.RelativePath, `\`, "/"))
		candidate, err := filepath.Abs(filepath.Join(filepath.Dir(childPath), rel))
		if err == nil && isFile(candidate) {
			return candidate, format.LocatorKeyRelativePath, nil
		}
	}
	if loc.VolumePath != "" && isFile(loc.VolumePath) {
		return loc.VolumePath, format.LocatorKeyVolumePath, nil
	}
	if loc.AbsoluteWin32Path != "" && isFile(loc.AbsoluteWin32Path) {
		return loc.AbsoluteWin32Path, format.LocatorKeyAbsoluteWin32Path, nil
	}
	return "", "", &types.Error{
		Kind: types.ErrKindMissingField,
		Msg: fmt.Sprintf("parent of %s not found via relative path %q, volume path %q or absolute path %q",
			childPath, loc.RelativePath, loc.VolumePath, loc.AbsoluteWin32Path),
		Err: format.ErrMissingField,
	}
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
