package cmd

import (
	"fmt"
	"os"

	"gobd/internal/cmd/root"
	"gobd/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "gobd",
	Short: "OBD-II / ELM327 vehicle diagnostic tool",
	Run:   root.Run,
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringP("port", "p", "", "Serial device (e.g. /dev/ttyUSB0, COM3)")
	rootCmd.PersistentFlags().IntP("baud", "b", 38400, "Baud rate for the serial connection")
	rootCmd.PersistentFlags().Bool("mock", false, "Use the simulated adapter (no hardware required)")
	rootCmd.PersistentFlags().Duration("interval", 0, "Dashboard refresh interval")
	rootCmd.PersistentFlags().Bool("scan", false, "Run a single sensor scan and exit")
	rootCmd.PersistentFlags().Bool("dtc", false, "Show stored and pending DTCs and exit")
	rootCmd.PersistentFlags().Bool("info", false, "Show vehicle info (VIN, ECU, protocol) and exit")
	rootCmd.PersistentFlags().Bool("no-tui", false, "Run without TUI (print one scan)")
	rootCmd.PersistentFlags().Bool("web", false, "Start the web dashboard server")
	rootCmd.PersistentFlags().String("web-addr", ":5000", "Listen address for the web dashboard")
	rootCmd.PersistentFlags().String("record", "", "Record the session into a sqlite logbook at this path")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("mock", rootCmd.PersistentFlags().Lookup("mock"))
	viper.BindPFlag("interval", rootCmd.PersistentFlags().Lookup("interval"))
	viper.BindPFlag("scan", rootCmd.PersistentFlags().Lookup("scan"))
	viper.BindPFlag("dtc", rootCmd.PersistentFlags().Lookup("dtc"))
	viper.BindPFlag("info", rootCmd.PersistentFlags().Lookup("info"))
	viper.BindPFlag("no-tui", rootCmd.PersistentFlags().Lookup("no-tui"))
	viper.BindPFlag("web", rootCmd.PersistentFlags().Lookup("web"))
	viper.BindPFlag("web-addr", rootCmd.PersistentFlags().Lookup("web-addr"))
	viper.BindPFlag("record", rootCmd.PersistentFlags().Lookup("record"))

	viper.SetDefault("interval", "1s")
}

func initLogger() {
	log.InitLogger(viper.GetBool("debug"))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
