package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var listPortsCmd = &cobra.Command{
	Use:   "list-ports",
	Short: "List available serial devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			return fmt.Errorf("failed to enumerate serial ports: %w", err)
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found.")
			return nil
		}

		fmt.Println("Available serial ports:")
		for _, p := range ports {
			desc := ""
			if p.IsUSB {
				desc = fmt.Sprintf("  [USB %s:%s %s]", p.VID, p.PID, p.Product)
			}
			fmt.Printf("  - %s%s\n", p.Name, desc)
			if strings.Contains(strings.ToLower(p.Name), "rfcomm") ||
				strings.Contains(strings.ToLower(p.Product), "bluetooth") {
				fmt.Println("      (likely Bluetooth adapter)")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listPortsCmd)
}
