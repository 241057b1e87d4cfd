package service

import (
	"os"
	"path/filepath"
	"testing"

	"ragus-eval/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDataset(t *testing.T) {
	pairs := DefaultDataset()
	require.Len(t, pairs, 5)
	require.NoError(t, ValidateDataset(pairs))
	assert.Equal(t, "Who introduced the theory of relativity?", pairs[0].Query)
	assert.Contains(t, pairs[1].Reference, "Ada Lovelace")
	assert.Contains(t, pairs[4].Reference, "Charles Darwin")
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queries:
  - query: Who discovered penicillin?
    reference: Alexander Fleming
  - query: Who wrote On the Origin of Species?
    reference: Charles Darwin
`), 0o644))

	pairs, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, []model.QueryPair{
		{Query: "Who discovered penicillin?", Reference: "Alexander Fleming"},
		{Query: "Who wrote On the Origin of Species?", Reference: "Charles Darwin"},
	}, pairs)
}

func TestLoadDataset_EmptyPathUsesDefaults(t *testing.T) {
	pairs, err := LoadDataset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDataset(), pairs)
}

func TestLoadDataset_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("queries: []\n"), 0o644))
	_, err := LoadDataset(empty)
	assert.Error(t, err)

	blank := filepath.Join(dir, "blank.yaml")
	require.NoError(t, os.WriteFile(blank, []byte("queries:\n  - query: \"  \"\n    reference: x\n"), 0o644))
	_, err = LoadDataset(blank)
	assert.Error(t, err)

	_, err = LoadDataset(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
