/*
Package inspect is the file-level entry point for examining VHDX images.

It opens images by path, classifies them, and follows differencing disks up
to their base image.

# Basic Usage

Decode a single image:

	img, err := inspect.Open("disk.vhdx", inspect.Options{})
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(img.Type, img.File.Metadata.VirtualDiskSize)

Walk a differencing chain from the child to the base disk:

	err := inspect.WalkChain("child.vhdx", inspect.Options{}, func(img *inspect.Image) error {
	    fmt.Println(img.Path, img.Type)
	    return nil
	})

# Error Handling

Every error carries a *types.Error somewhere in its chain:

	var te *types.Error
	if errors.As(err, &te) && te.Kind == types.ErrKindChecksum {
	    // corrupt header or region table
	}
*/
package inspect
