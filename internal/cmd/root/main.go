package root

import (
	"fmt"
	"time"

	"gobd/internal/displayer"
	"gobd/internal/logbook"
	"gobd/internal/models"
	"gobd/internal/obd"
	"gobd/internal/obd/mock"
	"gobd/internal/web"
	"gobd/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func Run(cmd *cobra.Command, args []string) {
	defer log.Sync()

	demo := viper.GetBool("mock")

	var conn obd.Connector
	if demo {
		conn = mock.New()
	} else {
		conn = obd.NewSerialConnector(viper.GetString("port"), viper.GetInt("baud"))
	}

	// Web mode tolerates missing hardware: with --mock it serves the
	// simulated feed instead.
	if viper.GetBool("web") && demo {
		server := web.NewServer(nil, nil, nil, true)
		if err := server.ListenAndServe(viper.GetString("web-addr")); err != nil {
			log.Fatal("web server failed", zap.Error(err))
		}
		return
	}

	if err := conn.Connect(); err != nil {
		log.Fatal("failed to connect to adapter", zap.Error(err))
	}
	defer conn.Close()

	reader := obd.NewReader(conn)
	writer := obd.NewWriter(conn)

	switch {
	case viper.GetBool("info"):
		printVehicleInfo(reader)
	case viper.GetBool("dtc"):
		printDTCs(reader)
	case viper.GetBool("scan"), viper.GetBool("no-tui"):
		printScan(reader)
	case viper.GetBool("web"):
		server := web.NewServer(conn, reader, writer, false)
		if err := server.ListenAndServe(viper.GetString("web-addr")); err != nil {
			log.Fatal("web server failed", zap.Error(err))
		}
	default:
		runDashboard(reader)
	}
}

func runDashboard(reader *obd.Reader) {
	interval := viper.GetDuration("interval")
	if interval <= 0 {
		interval = time.Second
	}

	d := displayer.New(reader, interval)

	if path := viper.GetString("record"); path != "" {
		book, err := logbook.Open(path)
		if err != nil {
			log.Fatal("failed to open logbook", zap.String("path", path), zap.Error(err))
		}
		defer book.Close()
		d.SetSnapshotSink(func(snap models.Snapshot) {
			if err := book.RecordSnapshot(snap); err != nil {
				log.Warn("logbook write failed", zap.Error(err))
			}
		})
		log.Info("recording session", zap.String("path", path))
	}

	if err := d.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func printScan(reader *obd.Reader) {
	snap, err := reader.ReadAll()
	if err != nil {
		log.Fatal("scan failed", zap.Error(err))
	}

	fmt.Println("Sensor scan:")
	for _, key := range snap.Keys {
		d, err := obd.Lookup(key)
		if err != nil {
			continue
		}
		r := snap.Readings[key]
		if r.OK {
			fmt.Printf("  %-36s %10g %s\n", d.Desc, r.Value, d.Unit)
		} else {
			fmt.Printf("  %-36s %10s\n", d.Desc, "–")
		}
	}

	if status, ok := reader.MonitorStatus(); ok {
		fmt.Printf("\nMIL: %v, stored DTCs: %d\n", status.MILOn, status.DTCCount)
	}
}

func printDTCs(reader *obd.Reader) {
	stored := reader.ReadDTCs()
	pending := reader.ReadPendingDTCs()

	fmt.Println("Stored DTCs:")
	if len(stored) == 0 {
		fmt.Println("  (none)")
	}
	for _, e := range stored {
		fmt.Printf("  %s  %s\n", e.Code, e.Description)
	}

	fmt.Println("Pending DTCs:")
	if len(pending) == 0 {
		fmt.Println("  (none)")
	}
	for _, e := range pending {
		fmt.Printf("  %s  %s\n", e.Code, e.Description)
	}
}

func printVehicleInfo(reader *obd.Reader) {
	fmt.Printf("VIN:             %s\n", reader.VIN())
	fmt.Printf("ECU name:        %s\n", reader.ECUName())
	fmt.Printf("Calibration ID:  %s\n", reader.CalibrationID())
	fmt.Printf("Protocol:        %s\n", reader.Protocol())
	fmt.Printf("Adapter:         %s\n", reader.ELMVersion())
	fmt.Printf("Battery voltage: %s\n", reader.BatteryVoltage())
}
