package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const serverKey = "propdoc"

// AgentDef defines how to detect and configure one MCP-capable agent.
type AgentDef struct {
	ID          string
	DisplayName string
	Method      string            // "cli" or "file"
	Binary      string            // cli agents: binary on PATH
	DirMarkers  []string          // file agents: dirs that indicate presence
	ConfigPath  func() string     // file agents: config file location
	ServersKey  string            // "servers" (VS Code) or "mcpServers"
	NeedsScope  bool              // prompt for project/user scope
	ExtraFields map[string]string // e.g. "type": "stdio" for VS Code
}

// DetectedAgent is an agent found on the system.
type DetectedAgent struct {
	Def            AgentDef
	AlreadySetup   bool
	ResolvedConfig string
}

// setupOptions holds the setup command's flags.
type setupOptions struct {
	auto    bool
	catalog string
}

// Replaceable for testing.
var (
	lookPathFunc = exec.LookPath
	statFunc     = os.Stat
	runAgentFunc = runAgentCommand
)

var agentRegistry = []AgentDef{
	{
		ID: "claude_code", DisplayName: "Claude Code",
		Method: "cli", Binary: "claude", NeedsScope: true,
	},
	{
		ID: "openai_codex", DisplayName: "OpenAI Codex",
		Method: "cli", Binary: "codex", NeedsScope: true,
	},
	{
		ID: "vscode_copilot", DisplayName: "VS Code Copilot",
		Method: "file", DirMarkers: []string{".vscode"},
		ConfigPath:  func() string { return filepath.Join(".vscode", "mcp.json") },
		ServersKey:  "servers",
		ExtraFields: map[string]string{"type": "stdio"},
	},
	{
		ID: "cursor", DisplayName: "Cursor",
		Method: "file", DirMarkers: []string{".cursor"},
		ConfigPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		ServersKey: "mcpServers",
	},
	{
		ID: "claude_desktop", DisplayName: "Claude Desktop",
		Method:     "file",
		ConfigPath: claudeDesktopConfigPath,
		ServersKey: "mcpServers",
	},
}

func claudeDesktopConfigPath() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

// setupCmd returns the agent registration command
func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the propdoc MCP server with detected agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, os.Getenv)
			if err != nil {
				return err
			}
			auto, _ := cmd.Flags().GetBool("auto")
			catalogPath, err := filepath.Abs(cfg.CatalogPath())
			if err != nil {
				return err
			}
			executeSetup(cmd.InOrStdin(), cmd.OutOrStdout(), setupOptions{auto: auto, catalog: catalogPath})
			return nil
		},
	}
	cmd.Flags().Bool("auto", false, "Configure every detected agent without prompting")
	cmd.Flags().String("catalog", "", "Catalog the server should serve (default: output from the project config, then propdoc.json)")
	return cmd
}

// serveArgs is the argument list agents launch propdoc with.
func serveArgs(catalogPath string) []string {
	args := []string{"serve"}
	if catalogPath != "" {
		args = append(args, "--catalog", catalogPath)
	}
	return args
}

func detectAgents() []DetectedAgent {
	var detected []DetectedAgent

	for _, def := range agentRegistry {
		switch def.Method {
		case "cli":
			if _, err := lookPathFunc(def.Binary); err == nil {
				detected = append(detected, DetectedAgent{Def: def, AlreadySetup: hasServerEntry(".mcp.json", "mcpServers")})
			}

		case "file":
			configPath, found := locateConfig(def)
			if !found {
				continue
			}
			d := DetectedAgent{Def: def, ResolvedConfig: configPath}
			if configPath != "" {
				d.AlreadySetup = hasServerEntry(configPath, def.ServersKey)
			}
			detected = append(detected, d)
		}
	}

	return detected
}

// locateConfig finds a file agent's config: a project marker directory, or
// for agents without markers, an existing config directory.
func locateConfig(def AgentDef) (string, bool) {
	for _, marker := range def.DirMarkers {
		if _, err := statFunc(marker); err == nil {
			if def.ConfigPath != nil {
				return def.ConfigPath(), true
			}
			return "", true
		}
	}
	if len(def.DirMarkers) == 0 && def.ConfigPath != nil {
		configPath := def.ConfigPath()
		if _, err := statFunc(filepath.Dir(configPath)); err == nil {
			return configPath, true
		}
	}
	return "", false
}

// hasServerEntry reports whether the JSON file at path already registers
// propdoc under serversKey.
func hasServerEntry(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return false
	}
	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		return false
	}
	_, exists := servers[serverKey]
	return exists
}

func serverEntry(catalogPath string, extra map[string]string) map[string]any {
	args := serveArgs(catalogPath)
	entryArgs := make([]any, len(args))
	for i, a := range args {
		entryArgs[i] = a
	}
	entry := map[string]any{
		"command": "propdoc",
		"args":    entryArgs,
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry adds a propdoc entry under serversKey to existing JSON
// (or a new document). Returns nil, nil when propdoc is already present.
func mergeServerEntry(existing []byte, serversKey, catalogPath string, extra map[string]string) ([]byte, error) {
	config := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverKey]; exists {
		return nil, nil
	}

	servers[serverKey] = serverEntry(catalogPath, extra)
	config[serversKey] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// agentCommandArgs builds `<binary> mcp add [--scope s] propdoc -- propdoc serve ...`.
func agentCommandArgs(scope, catalogPath string) []string {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverKey, "--", "propdoc")
	return append(args, serveArgs(catalogPath)...)
}

func runAgentCommand(binary string, args []string, w io.Writer) error {
	cmd := exec.Command(binary, args...)
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

func configureFileAgent(def AgentDef, configPath, catalogPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var existing []byte
	if data, err := os.ReadFile(configPath); err == nil {
		existing = data
	}

	merged, err := mergeServerEntry(existing, def.ServersKey, catalogPath, def.ExtraFields)
	if err != nil {
		return err
	}
	if merged == nil {
		return nil
	}
	return os.WriteFile(configPath, merged, 0644)
}

// --- prompts ---

// promptYesNo prints a question and reads Y/n. Empty input and EOF mean yes.
func promptYesNo(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	answer := strings.TrimSpace(strings.ToLower(line))
	return answer == "" || answer == "y" || answer == "yes"
}

// promptScope reads 1/2/3 and returns "project", "user", or "" to skip.
func promptScope(r *bufio.Reader, w io.Writer, agentName string) string {
	fmt.Fprintf(w, "\n%s: add the propdoc MCP server?\n", agentName)
	fmt.Fprintln(w, "  [1] Project scope (shared with team)")
	fmt.Fprintln(w, "  [2] User scope (personal, global)")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprintf(w, "  > ")

	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "project"
	}
	switch strings.TrimSpace(line) {
	case "1", "":
		return "project"
	case "2":
		return "user"
	default:
		return ""
	}
}

// --- orchestration ---

func executeSetup(in io.Reader, w io.Writer, opts setupOptions) {
	r := bufio.NewReader(in)

	detected := detectAgents()
	if len(detected) == 0 {
		fmt.Fprintln(w, "No supported agents detected.")
		return
	}

	fmt.Fprintln(w, "Detected agents:")
	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "  * %s (already configured)\n", d.Def.DisplayName)
		} else {
			fmt.Fprintf(w, "  * %s\n", d.Def.DisplayName)
		}
	}
	fmt.Fprintf(w, "\nServer command: propdoc %s\n\n", strings.Join(serveArgs(opts.catalog), " "))

	if !opts.auto && !promptYesNo(r, w, "Configure agents? [Y/n]") {
		return
	}

	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "\n%s: already configured, skipping\n", d.Def.DisplayName)
			continue
		}
		configureOneAgent(r, w, d, opts)
	}
}

func configureOneAgent(r *bufio.Reader, w io.Writer, d DetectedAgent, opts setupOptions) {
	switch d.Def.Method {
	case "cli":
		scope := "project"
		if !opts.auto && d.Def.NeedsScope {
			scope = promptScope(r, w, d.Def.DisplayName)
			if scope == "" {
				fmt.Fprintf(w, "  skipped\n")
				return
			}
		}
		if err := runAgentFunc(d.Def.Binary, agentCommandArgs(scope, opts.catalog), w); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", d.Def.DisplayName, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (scope: %s)\n", d.Def.DisplayName, scope)

	case "file":
		if !opts.auto && !promptYesNo(r, w, fmt.Sprintf("\n%s: add to %s? [Y/n]", d.Def.DisplayName, d.ResolvedConfig)) {
			fmt.Fprintf(w, "  skipped\n")
			return
		}
		if err := configureFileAgent(d.Def, d.ResolvedConfig, opts.catalog); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", d.Def.DisplayName, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (%s)\n", d.Def.DisplayName, d.ResolvedConfig)
	}
}
