package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	want := []string{"migrate", "seed-templates", "sync-documents", "sync-signatures", "sync-muso", "import-statements"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, name := range []string{"up", "down", "version"} {
		cmd, _, err := rootCmd.Find([]string{"migrate", name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestImportStatementsArgs(t *testing.T) {
	assert.Error(t, importStatementsCmd.Args(importStatementsCmd, nil))
	assert.NoError(t, importStatementsCmd.Args(importStatementsCmd, []string{"marzo.xlsx"}))
	assert.Error(t, syncMusoCmd.Args(syncMusoCmd, []string{"extra"}))
}

func TestPrintResult(t *testing.T) {
	res := &migrationStatus{Version: 7, Dirty: false}
	t.Cleanup(func() { outputFormat = "json" })

	var buf bytes.Buffer
	outputFormat = "json"
	require.NoError(t, printResult(&buf, res))
	assert.JSONEq(t, `{"version":7,"dirty":false}`, buf.String())

	buf.Reset()
	outputFormat = "yaml"
	require.NoError(t, printResult(&buf, res))
	assert.Equal(t, "dirty: false\nversion: 7\n", buf.String())

	outputFormat = "xml"
	assert.Error(t, printResult(&buf, res))

	buf.Reset()
	outputFormat = "json"
	require.NoError(t, printResult(&buf, nil))
	assert.Empty(t, buf.String())
}
