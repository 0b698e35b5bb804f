package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogPath = "/work/ui/propdoc.json"

func stubDetection(t *testing.T, lookPath func(string) (string, error), stat func(string) (os.FileInfo, error)) {
	t.Helper()
	origLookPath, origStat, origRun := lookPathFunc, statFunc, runAgentFunc
	t.Cleanup(func() {
		lookPathFunc, statFunc, runAgentFunc = origLookPath, origStat, origRun
	})
	lookPathFunc = lookPath
	statFunc = stat
}

func notOnPath(string) (string, error) { return "", exec.ErrNotFound }
func nothingExists(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func decodeServers(t *testing.T, data []byte, key string) map[string]any {
	t.Helper()
	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	servers, ok := config[key].(map[string]any)
	require.True(t, ok, "missing %q", key)
	return servers
}

// --- JSON merge tests ---

func TestMergeServerEntry_EmptyFile(t *testing.T) {
	out, err := mergeServerEntry(nil, "mcpServers", testCatalogPath, nil)
	require.NoError(t, err)
	require.NotNil(t, out)

	entry := decodeServers(t, out, "mcpServers")["propdoc"].(map[string]any)
	assert.Equal(t, "propdoc", entry["command"])
	assert.Equal(t, []any{"serve", "--catalog", testCatalogPath}, entry["args"])
}

func TestMergeServerEntry_NoCatalog(t *testing.T) {
	out, err := mergeServerEntry(nil, "mcpServers", "", nil)
	require.NoError(t, err)

	entry := decodeServers(t, out, "mcpServers")["propdoc"].(map[string]any)
	assert.Equal(t, []any{"serve"}, entry["args"])
}

func TestMergeServerEntry_ExistingServers(t *testing.T) {
	existing := []byte(`{
  "mcpServers": {
    "other-server": {"command": "other", "args": ["start"]}
  },
  "theme": "dark"
}`)
	out, err := mergeServerEntry(existing, "mcpServers", testCatalogPath, nil)
	require.NoError(t, err)
	require.NotNil(t, out)

	servers := decodeServers(t, out, "mcpServers")
	assert.Contains(t, servers, "other-server")
	assert.Contains(t, servers, "propdoc")
	assert.Contains(t, string(out), `"theme": "dark"`)
}

func TestMergeServerEntry_AlreadyConfigured(t *testing.T) {
	existing := []byte(`{"mcpServers": {"propdoc": {"command": "propdoc", "args": ["serve"]}}}`)
	out, err := mergeServerEntry(existing, "mcpServers", testCatalogPath, nil)
	assert.NoError(t, err)
	assert.Nil(t, out, "should return nil when already configured")
}

func TestMergeServerEntry_VSCodeFormat(t *testing.T) {
	out, err := mergeServerEntry(nil, "servers", testCatalogPath, map[string]string{"type": "stdio"})
	require.NoError(t, err)

	entry := decodeServers(t, out, "servers")["propdoc"].(map[string]any)
	assert.Equal(t, "propdoc", entry["command"])
	assert.Equal(t, "stdio", entry["type"])
}

func TestMergeServerEntry_InvalidJSON(t *testing.T) {
	_, err := mergeServerEntry([]byte("not json"), "mcpServers", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestMergeServerEntry_TrailingNewline(t *testing.T) {
	out, err := mergeServerEntry(nil, "mcpServers", "", nil)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

func TestAgentCommandArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"mcp", "add", "--scope", "user", "propdoc", "--", "propdoc", "serve", "--catalog", testCatalogPath},
		agentCommandArgs("user", testCatalogPath))
	assert.Equal(t,
		[]string{"mcp", "add", "propdoc", "--", "propdoc", "serve"},
		agentCommandArgs("", ""))
}

// --- prompt tests ---

func TestPromptYesNo(t *testing.T) {
	tests := map[string]bool{
		"\n":    true,
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"no":    false,
		"":      true,
	}
	for input, want := range tests {
		assert.Equal(t, want, promptYesNo(reader(input), io.Discard, "Continue?"), "input %q", input)
	}
}

func TestPromptScope(t *testing.T) {
	tests := map[string]string{
		"1\n": "project",
		"2\n": "user",
		"3\n": "",
		"\n":  "project",
		"":    "project",
	}
	for input, want := range tests {
		assert.Equal(t, want, promptScope(reader(input), io.Discard, "Claude Code"), "input %q", input)
	}
}

func TestPrompts_ShareReader(t *testing.T) {
	r := reader("y\n2\n")
	assert.True(t, promptYesNo(r, io.Discard, "Configure agents?"))
	assert.Equal(t, "user", promptScope(r, io.Discard, "Claude Code"))
}

// --- detection tests ---

func TestDetectAgents_CLIOnPath(t *testing.T) {
	stubDetection(t, func(name string) (string, error) {
		if name == "claude" {
			return "/usr/bin/claude", nil
		}
		return "", exec.ErrNotFound
	}, nothingExists)

	detected := detectAgents()
	require.Len(t, detected, 1)
	assert.Equal(t, "claude_code", detected[0].Def.ID)
}

func TestDetectAgents_NoneDetected(t *testing.T) {
	stubDetection(t, notOnPath, nothingExists)
	assert.Empty(t, detectAgents())
}

func TestDetectAgents_FileBasedAgent(t *testing.T) {
	stubDetection(t, notOnPath, func(name string) (os.FileInfo, error) {
		if name == ".vscode" {
			return nil, nil
		}
		return nil, os.ErrNotExist
	})

	detected := detectAgents()
	require.Len(t, detected, 1)
	assert.Equal(t, "vscode_copilot", detected[0].Def.ID)
	assert.Equal(t, filepath.Join(".vscode", "mcp.json"), detected[0].ResolvedConfig)
}

// --- orchestration tests ---

func TestExecuteSetup_NoAgents(t *testing.T) {
	stubDetection(t, notOnPath, nothingExists)

	w := &bytes.Buffer{}
	executeSetup(strings.NewReader(""), w, setupOptions{})
	assert.Contains(t, w.String(), "No supported agents detected.")
}

func TestExecuteSetup_AutoModeFileAgent(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll(".vscode", 0755))
	stubDetection(t, notOnPath, os.Stat)

	w := &bytes.Buffer{}
	executeSetup(strings.NewReader(""), w, setupOptions{auto: true, catalog: testCatalogPath})

	data, err := os.ReadFile(filepath.Join(".vscode", "mcp.json"))
	require.NoError(t, err)
	entry := decodeServers(t, data, "servers")["propdoc"].(map[string]any)
	assert.Equal(t, "stdio", entry["type"])
	assert.Equal(t, []any{"serve", "--catalog", testCatalogPath}, entry["args"])

	assert.Contains(t, w.String(), "VS Code Copilot configured")
	assert.Contains(t, w.String(), "Server command: propdoc serve --catalog "+testCatalogPath)
}

func TestExecuteSetup_CLIAgentScopePrompt(t *testing.T) {
	stubDetection(t, func(name string) (string, error) {
		if name == "codex" {
			return "/usr/bin/codex", nil
		}
		return "", exec.ErrNotFound
	}, nothingExists)

	var gotBinary string
	var gotArgs []string
	runAgentFunc = func(binary string, args []string, _ io.Writer) error {
		gotBinary, gotArgs = binary, args
		return nil
	}

	w := &bytes.Buffer{}
	executeSetup(strings.NewReader("y\n2\n"), w, setupOptions{catalog: testCatalogPath})

	assert.Equal(t, "codex", gotBinary)
	assert.Equal(t, agentCommandArgs("user", testCatalogPath), gotArgs)
	assert.Contains(t, w.String(), "OpenAI Codex configured (scope: user)")
}

func TestExecuteSetup_CLIAgentFailure(t *testing.T) {
	stubDetection(t, func(name string) (string, error) {
		if name == "claude" {
			return "/usr/bin/claude", nil
		}
		return "", exec.ErrNotFound
	}, nothingExists)
	runAgentFunc = func(string, []string, io.Writer) error { return errors.New("exit status 1") }

	w := &bytes.Buffer{}
	executeSetup(strings.NewReader(""), w, setupOptions{auto: true})
	assert.Contains(t, w.String(), "! Claude Code: failed: exit status 1")
}

func TestExecuteSetup_Declined(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll(".cursor", 0755))
	stubDetection(t, notOnPath, os.Stat)

	executeSetup(strings.NewReader("n\n"), io.Discard, setupOptions{})

	_, err := os.Stat(filepath.Join(".cursor", "mcp.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigureFileAgent_CreatesAndMerges(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sub", "mcp.json")

	require.NoError(t, configureFileAgent(AgentDef{ServersKey: "mcpServers"}, configPath, testCatalogPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, decodeServers(t, data, "mcpServers"), "propdoc")
}

func TestConfigureFileAgent_MergesExisting(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"mcpServers": {"other": {"command": "other"}}}`), 0644))

	require.NoError(t, configureFileAgent(AgentDef{ServersKey: "mcpServers"}, configPath, testCatalogPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	servers := decodeServers(t, data, "mcpServers")
	assert.Contains(t, servers, "other", "original server should be preserved")
	assert.Contains(t, servers, "propdoc")
}

func TestHasServerEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	assert.False(t, hasServerEntry(path, "mcpServers"))

	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"propdoc": {}}}`), 0644))
	assert.True(t, hasServerEntry(path, "mcpServers"))
	assert.False(t, hasServerEntry(path, "servers"))
}
