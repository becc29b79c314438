// Package setup registers the lite MCP server with a desktop MCP client.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerName is the key the lite server is registered under
const ServerName = "psi-indicator-engine"

const binaryName = "mcp-server-lite"

// ClientConfig is the desktop client configuration file structure.
// Unknown top-level keys are preserved on save.
type ClientConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls registration
type Options struct {
	ConfigPath    string // client config file, default DefaultConfigPath()
	BinaryPath    string // lite server binary, searched for when empty
	DataDir       string // exported as PSI_DATA_DIR
	ReferenceFile string // exported as PSI_REFERENCE_FILE
}

// Status is the registration state read back from the client config
type Status struct {
	ConfigPath string   `json:"config_path"`
	Registered bool     `json:"registered"`
	Command    string   `json:"command,omitempty"`
	DataDir    string   `json:"data_dir,omitempty"`
	Issues     []string `json:"issues,omitempty"`
}

// DefaultConfigPath returns the desktop client's config file for this OS.
func DefaultConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadConfig reads the client configuration. A missing file is an empty config.
func LoadConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: make(map[string]MCPServerConfig)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.extra); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := cfg.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(cfg.extra, "mcpServers")
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]MCPServerConfig)
	}
	return cfg, nil
}

// SaveConfig writes the configuration, creating the directory if needed.
func SaveConfig(path string, cfg *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]interface{}, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Install adds or updates the lite server entry and returns the config path.
func Install(opts Options) (string, error) {
	path, err := configPath(opts.ConfigPath)
	if err != nil {
		return "", err
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return "", err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		if binaryPath, err = findBinary(); err != nil {
			return "", fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry := MCPServerConfig{Command: binaryPath, Env: make(map[string]string)}
	if opts.DataDir != "" {
		entry.Env["PSI_DATA_DIR"] = opts.DataDir
	}
	if opts.ReferenceFile != "" {
		entry.Env["PSI_REFERENCE_FILE"] = opts.ReferenceFile
	}
	cfg.MCPServers[ServerName] = entry

	return path, SaveConfig(path, cfg)
}

// GetStatus reports whether the lite server is registered and runnable.
func GetStatus(configFile string) (*Status, error) {
	path, err := configPath(configFile)
	if err != nil {
		return nil, err
	}
	status := &Status{ConfigPath: path}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	entry, ok := cfg.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "server not registered")
		return status, nil
	}
	status.Registered = true
	status.Command = entry.Command
	status.DataDir = entry.Env["PSI_DATA_DIR"]

	if info, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	} else if info.Mode()&0111 == 0 {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	}
	if ref := entry.Env["PSI_REFERENCE_FILE"]; ref != "" {
		if _, err := os.Stat(ref); err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("reference bundle not found: %s", ref))
		}
	}
	return status, nil
}

func configPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultConfigPath()
}

// findBinary looks on PATH, then in common build locations.
func findBinary() (string, error) {
	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	locations := []string{
		"./" + binaryName,
		"./build/" + binaryName,
		filepath.Join(home, ".local", "bin", binaryName),
		"/usr/local/bin/" + binaryName,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", binaryName)
}
