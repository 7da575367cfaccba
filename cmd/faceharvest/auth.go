package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"faceharvest/pkg/auth"
	"faceharvest/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored search API key",
	Long: `Store the Bing search subscription key outside the config file.

Keys are kept in the system keychain when one is available, otherwise in an
encrypted file under the user config directory. FACEHARVEST_API_KEY is
always read as a fallback. Use --profile to keep more than one key.`,
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store a search API key",
	Long: `Prompt for a search API key and store it for the selected profile.
When stdin is not a terminal the key is read from its first line.`,
	Example: `  faceharvest auth set-key
  echo "$KEY" | faceharvest auth set-key --profile work`,
	Args: cobra.NoArgs,
	RunE: runSetKey,
}

var showKeyCmd = &cobra.Command{
	Use:   "show",
	Short: "Show where the key for a profile comes from",
	Args:  cobra.NoArgs,
	RunE:  runShowKey,
}

var deleteKeyCmd = &cobra.Command{
	Use:   "delete-key",
	Short: "Remove the stored key for a profile",
	Args:  cobra.NoArgs,
	RunE:  runDeleteKey,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(setKeyCmd)
	authCmd.AddCommand(showKeyCmd)
	authCmd.AddCommand(deleteKeyCmd)
}

func runSetKey(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	key, err := readKey()
	if err != nil {
		return fmt.Errorf("failed to read api key: %w", err)
	}

	source, err := manager.Store(profile, key)
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Key %s stored for profile %s", auth.MaskKey(key), profile))
	ui.PrintInfo("Stored in", source)
	return nil
}

func runShowKey(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	cred, source, err := manager.Retrieve(profile)
	if err != nil {
		return err
	}

	ui.PrintInfo("Profile", cred.Profile)
	ui.PrintInfo("Key", auth.MaskKey(cred.APIKey))
	ui.PrintInfo("Source", source)
	if !cred.LastModified.IsZero() {
		ui.PrintInfo("Last modified", cred.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runDeleteKey(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(profile); err != nil {
		return err
	}

	ui.PrintSuccess("Removed key for profile " + profile)
	return nil
}

// readKey reads the key without echo from a terminal, or one line from a pipe
func readKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(ui.Output, "Search API key: ")
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Output)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
