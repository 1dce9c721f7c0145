// Package setup provides the interactive host-alias bootstrap form.
package setup

import (
	"fmt"
	"strconv"

	"github.com/acolita/ssh-session-mcp/internal/config"
	"github.com/charmbracelet/huh"
)

// RunAddHost shows a TUI form to add a host alias to the config file at
// path, then saves it. Intended to run on a real terminal (the -add-host
// flag), not under the MCP stdio transport.
func RunAddHost(path string) error {
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if path == "" {
		return fmt.Errorf("no config path available")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	entry := config.HostConfig{Port: 22}
	portStr := "22"
	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Alias").
				Description("Short name for this host (e.g. 'production', 'db1')").
				Value(&entry.Name),

			huh.NewInput().
				Title("Host").
				Description("SSH hostname or IP address").
				Value(&entry.Host),

			huh.NewInput().
				Title("Port").
				Description("SSH port").
				Value(&portStr),

			huh.NewInput().
				Title("User").
				Description("SSH username").
				Value(&entry.User),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SSH Key Path").
				Description("Path to SSH private key (leave empty for password auth)").
				Value(&entry.KeyPath),

			huh.NewInput().
				Title("Passphrase Env Var").
				Description("Environment variable containing the key passphrase (optional)").
				Value(&entry.PassphraseEnv),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this host?").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("form: %w", err)
	}

	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	if port, err := strconv.Atoi(portStr); err == nil {
		entry.Port = port
	}

	if err := cfg.AddHost(entry); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Printf("Saved host %q to %s\n", entry.Name, path)
	return nil
}
