package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointpack/internal/las"
	"github.com/banshee-data/pointpack/internal/las/lasio"
)

func reportFile(t *testing.T) *lasio.File {
	t.Helper()
	pf, err := las.Format(0)
	require.NoError(t, err)

	batch := las.NewBatch(pf.Fields(), 6)
	z, _ := batch.Column("Z")
	for i, v := range []uint64{100, 250, 400, 1200, 3000, 90} {
		z.SetUint(i, v)
	}
	bf, _ := batch.Column("bit_fields")
	copy(bf.Data, []byte{0b001, 0b001, 0b010, 0b010, 0b011, 0b001})
	rc, _ := batch.Column("raw_classification")
	copy(rc.Data, []byte{2, 2, 5, 6, 6, 2})

	return &lasio.File{
		Header: lasio.Header{
			VersionMinor:  2,
			PointFormatID: 0,
			Scale:         [3]float64{0.01, 0.01, 0.01},
			Offset:        [3]float64{0, 0, 100},
		},
		Points: batch,
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, reportFile(t)))

	html := buf.String()
	assert.True(t, strings.Contains(html, "Classification histogram"))
	assert.True(t, strings.Contains(html, "Return number histogram"))
	assert.True(t, strings.Contains(html, "Elevation quantiles"))
	assert.True(t, strings.Contains(html, "6 points, point format 0"))
}

func TestSaveElevationPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elevation.png")
	require.NoError(t, SaveElevationPNG(path, reportFile(t)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSaveElevationPNGEmptyBatch(t *testing.T) {
	pf, err := las.Format(0)
	require.NoError(t, err)
	f := &lasio.File{Points: las.NewBatch(pf.Fields(), 0)}

	err = SaveElevationPNG(filepath.Join(t.TempDir(), "x.png"), f)
	require.Error(t, err)
}
