package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ten.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunValidateAcceptsWellFormedGraph(t *testing.T) {
	path := writeConfig(t, `{
		"ten": {
			"uri": "msgpack://127.0.0.1:8000/",
			"predefined_graphs": [{
				"graph_name": "g1",
				"nodes": [{"type": "extension", "name": "a", "addon": "test_ext"}]
			}]
		}
	}`)

	assert.Equal(t, 0, runValidate(path))
}

func TestRunValidateRejectsMissingURI(t *testing.T) {
	path := writeConfig(t, `{"ten": {}}`)
	assert.Equal(t, 2, runValidate(path))
}

func TestRunValidateRejectsUnknownConnectionSource(t *testing.T) {
	path := writeConfig(t, `{
		"ten": {
			"uri": "msgpack://127.0.0.1:8000/",
			"predefined_graphs": [{
				"graph_name": "g1",
				"nodes": [{"type": "extension", "name": "a", "addon": "test_ext"}],
				"connections": [{
					"source": {"extension_name": "does_not_exist"},
					"dest": {"extension_name": "a"}
				}]
			}]
		}
	}`)

	assert.Equal(t, 2, runValidate(path))
}

func TestRunValidateRejectsMissingConfigFile(t *testing.T) {
	assert.Equal(t, 2, runValidate(filepath.Join(t.TempDir(), "missing.json")))
}
