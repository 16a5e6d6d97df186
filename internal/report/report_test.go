package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pngler/pngler/internal/report"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := report.NewWriter(&buf)
	require.NoError(t, w.WriteHeader(report.Header{
		XMLOutput: report.XMLOutputVersion,
		Creator: report.Creator{
			Package:              "pngler",
			Version:              "test",
			ExecutionEnvironment: report.GetExecEnv(),
		},
		Source: report.Source{Root: "/data/images", Recursive: true},
	}))

	results := []report.Result{
		{
			Filename: "ok.png",
			FileSize: 1234,
			Status:   report.StatusOK,
			Image: &report.ImageInfo{
				Width: 640, Height: 480, BitDepth: 8,
				ColorType: "truecolor", DataChunks: 3,
			},
		},
		{
			Filename: "broken.png",
			FileSize: 99,
			Status:   report.StatusInvalid,
			Reason:   "png: chunk checksum mismatch (IDAT)",
		},
	}
	for _, res := range results {
		require.NoError(t, w.WriteResult(res))
	}
	require.NoError(t, w.Close())

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<?xml"))
	require.Contains(t, out, `xmloutputversion="1.0"`)

	got, err := report.ReadResults(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "ok.png", got[0].Filename)
	require.Equal(t, report.StatusOK, got[0].Status)
	require.NotNil(t, got[0].Image)
	require.Equal(t, uint32(640), got[0].Image.Width)

	require.Equal(t, report.StatusInvalid, got[1].Status)
	require.Nil(t, got[1].Image)
	require.Contains(t, got[1].Reason, "checksum")
}
