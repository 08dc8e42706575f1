package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/internal/testutil"
	"github.com/joshuapare/vhdxkit/internal/testutil/vhdximage"
)

func resetFlags() {
	verbose, quiet, jsonOut, yamlOut, logJSON = false, false, false, false, false
	blocksFollowingParent, chainFull = false, false
}

// execCmd runs a fresh root command and returns stdout and stderr.
func execCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeDisk(t *testing.T) string {
	t.Helper()
	img := vhdximage.New()
	img.BAT[0] = vhdximage.Entry(6, 3)
	return testutil.WriteImage(t, t.TempDir(), "disk.vhdx", img.Bytes())
}

func TestInfoText(t *testing.T) {
	out, _, err := execCmd(t, "info", writeDisk(t))
	require.NoError(t, err)

	for _, want := range []string{
		"Type:", "Dynamic",
		"Header (at 0x20000)",
		"Block Allocation Table",
		"Virtual disk size:", "4.0 MiB",
		"Chunk ratio:", "2048",
		"(none, disk is the head of its chain)",
	} {
		require.Contains(t, out, want)
	}
}

func TestInfoJSONAndYAML(t *testing.T) {
	path := writeDisk(t)

	out, _, err := execCmd(t, "info", path, "--json")
	require.NoError(t, err)
	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Equal(t, "Dynamic", rep["type"])
	require.Equal(t, "vhdxkit test", rep["creator"])
	require.Len(t, rep["regions"], 2)

	out, _, err = execCmd(t, "info", path, "--yaml")
	require.NoError(t, err)
	var y struct {
		Type string `yaml:"type"`
		Metadata struct {
			VirtualDiskID string `yaml:"virtualDiskId"`
			BlockSize     uint32 `yaml:"blockSize"`
		} `yaml:"metadata"`
		BAT struct {
			TotalEntries uint64 `yaml:"totalEntries"`
		} `yaml:"bat"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &y))
	require.Equal(t, "Dynamic", y.Type)
	require.Equal(t, vhdximage.DiskID.String(), y.Metadata.VirtualDiskID)
	require.Equal(t, uint32(vhdximage.DefaultBlockSize), y.Metadata.BlockSize)
	require.Equal(t, uint64(2049), y.BAT.TotalEntries)

	_, _, err = execCmd(t, "info", path, "--json", "--yaml")
	require.Error(t, err)
}

func TestInfoVerboseLogs(t *testing.T) {
	_, errOut, err := execCmd(t, "info", writeDisk(t), "--verbose", "--log-json")
	require.NoError(t, err)
	require.Contains(t, errOut, `"msg":"bat geometry"`)

	_, errOut, err = execCmd(t, "info", writeDisk(t), "--quiet")
	require.NoError(t, err)
	require.Empty(t, errOut)
}

func TestInfoCorrupt(t *testing.T) {
	b := vhdximage.New().Bytes()
	b[format.SecondHeaderOffset+0x300] = 1
	path := testutil.WriteImage(t, t.TempDir(), "bad.vhdx", b)

	_, _, err := execCmd(t, "info", path)
	require.ErrorIs(t, err, format.ErrChecksumMismatch)
}

func TestBlocks(t *testing.T) {
	path := writeDisk(t)

	out, _, err := execCmd(t, "blocks", path)
	require.NoError(t, err)
	require.Contains(t, out, "FullyPresent")
	require.Contains(t, out, "3 MiB")
	require.Contains(t, out, "Sector Bitmap Blocks")

	out, _, err = execCmd(t, "blocks", path, "--as-parent", "--json")
	require.NoError(t, err)
	var rep blockReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Payload, 2)
	require.Empty(t, rep.Sector)
	require.Equal(t, "FullyPresent", rep.Payload[0].State)
	require.Equal(t, uint64(3), rep.Payload[0].FileOffsetMB)
	require.Equal(t, uint64(3<<20), rep.Payload[0].FileOffset)
}

func TestChain(t *testing.T) {
	dir := t.TempDir()
	baseID := uuid.New()

	base := vhdximage.New()
	base.DataWriteID = baseID
	testutil.WriteImage(t, dir, "base.vhdx", base.Bytes())

	child := vhdximage.New()
	child.SetParent(
		vhdximage.Linkage(baseID),
		vhdximage.Pair{Key: format.LocatorKeyRelativePath, Value: `.\base.vhdx`},
	)
	childPath := testutil.WriteImage(t, dir, "child.vhdx", child.Bytes())

	out, errOut, err := execCmd(t, "chain", childPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "Differencing")
	require.Contains(t, lines[2], baseID.String())
	require.Contains(t, errOut, "located parent")

	out, _, err = execCmd(t, "chain", childPath, "--json", "--full")
	require.NoError(t, err)
	var links []chainLink
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	require.Len(t, links, 2)
	require.Equal(t, baseID.String(), links[0].Parent)
	require.Equal(t, filepath.Join(dir, "base.vhdx"), links[1].File)
	require.NotNil(t, links[0].Image)
	require.Equal(t, "parent_linkage", links[0].Image.Locator.Entries[0].Key)

	out, errOut, err = execCmd(t, "chain", childPath, "--max-depth", "1", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	require.Len(t, links, 1)
	require.Contains(t, errOut, "walked chain")
	require.Contains(t, errOut, "images=1")
}

func TestVersion(t *testing.T) {
	out, _, err := execCmd(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "vhdxctl dev")
}

func TestHumanBytes(t *testing.T) {
	require.Equal(t, "512 B", humanBytes(512))
	require.Equal(t, "2.0 MiB", humanBytes(2<<20))
	require.Equal(t, "10.0 GiB", humanBytes(10<<30))
}
