package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRemove(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "credentials"))
	values := map[string]string{
		"MYSQL_PASSWORD": "abc def",
		"ADMIN_URL":      "http://192.168.2.40/",
	}
	require.NoError(t, s.Write(340, values))
	assert.True(t, s.Exists(340))

	info, err := os.Stat(s.Path(340))
	require.NoError(t, err)
	assert.Equal(t, FilePerm, info.Mode().Perm())

	dirInfo, err := os.Stat(s.Dir)
	require.NoError(t, err)
	assert.Equal(t, DirPerm, dirInfo.Mode().Perm())

	got, err := s.Read(340)
	require.NoError(t, err)
	assert.Equal(t, values, got)

	require.NoError(t, s.Remove(340))
	assert.False(t, s.Exists(340))
	require.NoError(t, s.Remove(340))
}

func TestReadMissing(t *testing.T) {
	s := New(t.TempDir())
	got, err := s.Read(999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPath(t *testing.T) {
	s := New("/opt/infrastack/credentials")
	assert.Equal(t, "/opt/infrastack/credentials/340.env", s.Path(340))
}

func TestGenerate(t *testing.T) {
	got, err := Generate([]string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got["A"], got["B"])
	assert.Len(t, got["A"], 32)
}

func TestEncodeDecode(t *testing.T) {
	in := map[string]string{"B": "two words", "A": "x=y"}
	content, err := Encode(in)
	require.NoError(t, err)
	assert.Less(t, strings.Index(content, "A="), strings.Index(content, "B="))

	out, err := Decode(content)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
