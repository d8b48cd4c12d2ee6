package canonical

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `id,name,lat,lon,commodities,company_id
dep-1,Stillwater Mine,45.3866,-109.8682,palladium;platinum,cmp-sibanye
dep-2,Eagle Mine,,,nickel,
dep-3,,45.0,-109.0,,
`
	d, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.NotNil(t, d)

	// The nameless row is dropped.
	require.Equal(t, 2, d.Len())
	entries := d.Entries()

	first := entries[0]
	assert.Equal(t, "dep-1", first.ID)
	assert.Equal(t, "Stillwater Mine", first.Name)
	require.NotNil(t, first.Lat)
	assert.Equal(t, 45.3866, *first.Lat)
	assert.Equal(t, []string{"palladium", "platinum"}, first.Commodities)
	assert.Equal(t, "cmp-sibanye", first.CompanyID)

	second := entries[1]
	assert.Equal(t, "dep-2", second.ID)
	assert.Nil(t, second.Lat)
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("id,lat\ndep-1,45.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestParse_InvalidCoordinateReportsLine(t *testing.T) {
	_, err := Parse(strings.NewReader("id,name,lat\ndep-1,Eagle Mine,north\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParse_EmptyInput(t *testing.T) {
	d, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 0, d.Len())
}

func TestLoadCSV_MissingFileDisablesDataset(t *testing.T) {
	d, err := LoadCSV("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestLoadCSV_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.csv")
	content := "id,name\ndep-1,Stillwater Mine\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := LoadCSV(path)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 1, d.Len())
}
