package inspect

import (
	"errors"
	"fmt"

	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/internal/logger"
	"github.com/joshuapare/vhdxkit/pkg/types"
	"github.com/joshuapare/vhdxkit/vhdx"
)

// ErrStopWalk ends WalkChain early without error when returned by visit.
var ErrStopWalk = errors.New("inspect: stop walk")

// WalkChain opens the image at path and calls visit on it, then on each
// ancestor in turn until an image without a parent locator is reached.
//
// Each parent is decoded with the BAT layout of a disk that is being
// followed from a child, and its data write id must match one of the
// child's linkage ids. A locator of unknown type ends the walk after
// logging a warning.
//
// There is no depth limit and no cycle detection: images that name each
// other as parents are walked forever unless visit returns ErrStopWalk.
func WalkChain(path string, opts Options, visit func(*Image) error) error {
	log := logger.Or(opts.Logger).With("component", "inspect")

	img, err := open(path, false, opts)
	if err != nil {
		return err
	}
	for depth := 0; ; depth++ {
		if err := visit(img); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}

		md := img.File.Metadata
		if md.ParentLocator == nil {
			log.Debug("reached base of chain", "path", img.Path, "depth", depth)
			return nil
		}
		loc := md.ParentLocator
		if loc.LocatorType != vhdx.LocatorVHDX {
			log.Warn("cannot follow parent locator of unknown type",
				"path", img.Path, "locator_type", md.ParentLocatorDict.LocatorTypeID)
			return nil
		}

		parentPath, source, err := ResolveParentPath(img.Path, loc)
		if err != nil {
			return err
		}
		log.Info("located parent", "child", img.Path, "parent", parentPath, "via", source)

		parent, err := open(parentPath, true, opts)
		if err != nil {
			return err
		}
		if !loc.Matches(parent.File.Header.DataWriteID) {
			return &types.Error{
				Kind: types.ErrKindLinkage,
				Msg: fmt.Sprintf("parent %s has data write id %s, %s expects %s or %s",
					parentPath, parent.File.Header.DataWriteID, img.Path, loc.ParentLinkage, loc.ParentLinkage2),
				Err: format.ErrLinkageMismatch,
			}
		}
		img = parent
	}
}
