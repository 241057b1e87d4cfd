package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ragus-eval/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRootCmd(t *testing.T) {
	root := buildRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["serve"])

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	for _, flag := range []string{"endpoint", "group-id", "session-id", "metrics", "dataset", "output", "concurrency"} {
		assert.NotNil(t, run.Flags().Lookup(flag), flag)
	}
}

func TestApplyRunFlags(t *testing.T) {
	cmd := buildRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--endpoint", "http://flag.local/kb", "--metrics", "placeholder", "--concurrency", "4"}))

	cfg := &config.Config{}
	cfg.RAG.GroupID = 5
	applyRunFlags(cmd, cfg, runFlags{endpoint: "http://flag.local/kb", metrics: "placeholder", concurrency: 4})

	assert.Equal(t, "http://flag.local/kb", cfg.RAG.Endpoint)
	assert.Equal(t, "placeholder", cfg.Evaluation.MetricsPolicy)
	assert.Equal(t, 4, cfg.Evaluation.Concurrency)
	assert.Equal(t, 5, cfg.RAG.GroupID)
	assert.Equal(t, config.DefaultSessionID, cfg.RAG.SessionID)
}

func TestRunCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer srv.Close()

	t.Setenv(config.EndpointEnv, "")
	out := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\n"), 0o644))

	root := buildRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"run", "--config", cfgPath, "--endpoint", srv.URL, "--output", out})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, stdout.String(), "Success Rate")
	assert.Contains(t, stdout.String(), "100.0%")
	assert.Contains(t, stdout.String(), "5/5 successful")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, err = os.Stat(filepath.Join(out, entries[0].Name(), "rag_evaluation_results.csv"))
	assert.NoError(t, err)
}

func TestRunCommand_MissingExplicitConfig(t *testing.T) {
	root := buildRootCmd()
	root.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
