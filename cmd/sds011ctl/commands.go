package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/finehaze/sds011/internal/logging"
	"github.com/finehaze/sds011/internal/sensor"
	"github.com/finehaze/sds011/internal/transport"
)

// Command flags
var (
	devicePath   string
	baudRate     int
	cmdTimeout   time.Duration
	retries      int
	targetID     string
	strictID     bool
	outputFormat string
	watchCount   int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&devicePath, "device", "", "Serial port the sensor is attached to (required)")
	rootCmd.PersistentFlags().IntVar(&baudRate, "baud", transport.DefaultBaudRate, "Serial baud rate")
	rootCmd.PersistentFlags().DurationVar(&cmdTimeout, "timeout", sensor.DefaultTimeout, "Per-attempt reply timeout")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", sensor.DefaultAttempts, "Command attempts before giving up")
	rootCmd.PersistentFlags().StringVar(&targetID, "target-id", "", "Address one device by hex id (e.g. 0xA160), default broadcast")
	rootCmd.PersistentFlags().BoolVar(&strictID, "strict-id", false, "Reject replies from devices other than --target-id")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "plain", "Output format (plain, json)")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(setReportingModeCmd)
	rootCmd.AddCommand(setWorkModeCmd)
	rootCmd.AddCommand(setWorkingPeriodCmd)
	rootCmd.AddCommand(setDeviceIDCmd)
}

// openSession connects to the sensor using the persistent flags.
func openSession() (*sensor.Session, error) {
	if devicePath == "" {
		return nil, fmt.Errorf("--device is required")
	}

	opts := sensor.Options{
		Timeout:        cmdTimeout,
		Attempts:       retries,
		StrictDeviceID: strictID,
		Logger:         logging.GetLogger(),
	}
	if targetID != "" {
		id, err := strconv.ParseUint(targetID, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid --target-id %q: %w", targetID, err)
		}
		target := uint16(id)
		opts.TargetID = &target
	}

	s, err := sensor.Open(devicePath, baudRate, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devicePath, err)
	}
	return s, nil
}

func printMeasurement(m sensor.Measurement) error {
	switch outputFormat {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(struct {
			PM25     float64 `json:"pm25"`
			PM10     float64 `json:"pm10"`
			DeviceID string  `json:"device_id"`
			At       string  `json:"at"`
		}{m.PM25, m.PM10, fmt.Sprintf("0x%04X", m.DeviceID), m.At.UTC().Format(time.RFC3339)})
	default:
		fmt.Printf("PM2.5 %6.1f µg/m³   PM10 %6.1f µg/m³   device 0x%04X\n", m.PM25, m.PM10, m.DeviceID)
		return nil
	}
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Request one measurement from the sensor",
	Example: `  sds011ctl query --device /dev/ttyUSB0
  sds011ctl query --device /dev/ttyUSB0 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := s.QueryMeasurement(cmd.Context())
		if err != nil {
			return err
		}
		return printMeasurement(m)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream measurements as the sensor reports them",
	Long: `Stream measurements as the sensor reports them.

In the sensor's active reporting mode readings arrive every second (or
once per working period). On a terminal the current reading is rewritten
in place; otherwise one line is printed per reading.`,
	Example: `  sds011ctl watch --device /dev/ttyUSB0
  sds011ctl watch --device /dev/ttyUSB0 --count 10 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		interactive := outputFormat == "plain" && term.IsTerminal(int(os.Stdout.Fd()))

		seen := 0
		for m := range s.Watch(ctx) {
			if interactive {
				fmt.Printf("\rPM2.5 %6.1f µg/m³   PM10 %6.1f µg/m³   device 0x%04X ", m.PM25, m.PM10, m.DeviceID)
			} else if err := printMeasurement(m); err != nil {
				return err
			}
			seen++
			if watchCount > 0 && seen >= watchCount {
				break
			}
		}
		if interactive && seen > 0 {
			fmt.Println()
		}

		if err := s.Err(); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many readings (0 = forever)")
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device id, firmware version, and current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if _, err := s.GetInfo(ctx); err != nil {
			return err
		}
		if _, err := s.QueryReportingMode(ctx); err != nil {
			return err
		}
		if _, err := s.QueryWorkMode(ctx); err != nil {
			return err
		}
		if _, err := s.QueryWorkingPeriod(ctx); err != nil {
			return err
		}

		cfg := s.Config()
		switch outputFormat {
		case "json":
			return json.NewEncoder(os.Stdout).Encode(struct {
				DeviceID      string `json:"device_id"`
				Firmware      string `json:"firmware"`
				ReportingMode string `json:"reporting_mode"`
				WorkMode      string `json:"work_mode"`
				WorkingPeriod int    `json:"working_period"`
			}{
				fmt.Sprintf("0x%04X", cfg.DeviceID),
				cfg.Firmware.String(),
				cfg.ReportingMode.String(),
				cfg.WorkMode.String(),
				int(cfg.WorkingPeriod),
			})
		default:
			fmt.Printf("Device ID:      0x%04X\n", cfg.DeviceID)
			fmt.Printf("Firmware:       %s\n", cfg.Firmware)
			fmt.Printf("Reporting mode: %s\n", cfg.ReportingMode)
			fmt.Printf("Work mode:      %s\n", cfg.WorkMode)
			fmt.Printf("Working period: %s\n", cfg.WorkingPeriod)
			return nil
		}
	},
}

var setReportingModeCmd = &cobra.Command{
	Use:   "set-reporting-mode <active|query>",
	Short: "Set how the sensor reports measurements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := sensor.ParseReportingMode(args[0])
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SetReportingMode(cmd.Context(), mode); err != nil {
			return err
		}
		fmt.Printf("Reporting mode set to %s\n", mode)
		return nil
	},
}

var setWorkModeCmd = &cobra.Command{
	Use:   "set-work-mode <work|sleep>",
	Short: "Wake the sensor or put it to sleep",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := sensor.ParseWorkMode(args[0])
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SetWorkMode(cmd.Context(), mode); err != nil {
			return err
		}
		fmt.Printf("Work mode set to %s\n", mode)
		return nil
	},
}

var setWorkingPeriodCmd = &cobra.Command{
	Use:   "set-working-period <minutes>",
	Short: "Set the measurement duty cycle (0 = continuous, max 30)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid working period %q: %w", args[0], err)
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SetWorkingPeriod(cmd.Context(), minutes); err != nil {
			return err
		}
		fmt.Printf("Working period set to %s\n", s.Config().WorkingPeriod)
		return nil
	},
}

var setDeviceIDCmd = &cobra.Command{
	Use:   "set-device-id <hex-id>",
	Short: "Assign a new device id (e.g. 0xBEEF)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return fmt.Errorf("invalid device id %q: %w", args[0], err)
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SetDeviceID(cmd.Context(), uint16(id)); err != nil {
			return err
		}
		fmt.Printf("Device id set to 0x%04X\n", uint16(id))
		return nil
	},
}
