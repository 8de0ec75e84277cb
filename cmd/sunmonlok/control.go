package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunmonlok/sunmonlok/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := ipc.NewClient().GetStatus()
		if err != nil {
			return err
		}
		printStatus(os.Stdout, styled(), st)
		return nil
	},
}

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Show the display name to Sunshine index table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := ipc.NewClient().GetMapping()
		if err != nil {
			return err
		}
		printMapping(os.Stdout, styled(), m)
		return nil
	},
}

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List displays with their effective bounds and target index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().GetMonitors()
		if err != nil {
			return err
		}
		printMonitors(os.Stdout, styled(), data)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-read the Sunshine log now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := ipc.NewClient().RefreshMapping()
		if err != nil {
			return err
		}
		if !r.Refreshed {
			fmt.Fprintln(os.Stderr, "refresh failed, previous mapping kept")
		}
		printMapping(os.Stdout, styled(), &r.Mapping)
		return nil
	},
}

func printStatus(w io.Writer, pretty bool, st *ipc.StatusData) {
	current := "none"
	if st.LastIndex != nil {
		current = strconv.Itoa(*st.LastIndex)
	}
	fields := []field{
		{label: "backend", value: st.Backend},
		{label: "listening", value: st.BindAddress},
	}
	if st.WebsocketAddress != "" {
		fields = append(fields, field{label: "websocket", value: st.WebsocketAddress})
	}
	fields = append(fields,
		field{label: "clients", value: strconv.Itoa(st.Listeners), warn: st.Listeners == 0},
		field{label: "current index", value: current, warn: st.LastIndex == nil},
		field{label: "strategy", value: st.Strategy, warn: st.Strategy != "log-derived"},
		field{label: "switches", value: fmt.Sprintf("%d sent, %d debounced", st.Emitted, st.Suppressed)},
		field{label: "uptime", value: (time.Duration(st.UptimeSeconds) * time.Second).String()},
	)
	printFields(w, pretty, fields)
}

func printMapping(w io.Writer, pretty bool, m *ipc.MappingData) {
	if m.Fallback {
		msg := "no Sunshine mapping; displays are ranked left to right"
		if m.LastError != "" {
			msg += " (" + m.LastError + ")"
		}
		printFields(w, pretty, []field{{label: "mapping", value: msg, warn: true}})
		return
	}
	rows := make([][]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		rows = append(rows, []string{strconv.Itoa(e.Index), e.Name, e.Description})
	}
	printTable(w, pretty, []string{"INDEX", "DISPLAY", "DESCRIPTION"}, rows)

	fields := []field{{label: "source", value: m.Source}}
	if !m.LastRefresh.IsZero() {
		fields = append(fields, field{label: "refreshed", value: m.LastRefresh.Local().Format(time.DateTime)})
	}
	if m.LastError != "" {
		fields = append(fields, field{label: "last error", value: m.LastError, warn: true})
	}
	printFields(w, pretty, fields)
}

func printMonitors(w io.Writer, pretty bool, data *ipc.MonitorsData) {
	rows := make([][]string, 0, len(data.Monitors))
	for _, m := range data.Monitors {
		index := "-"
		if m.Index != nil {
			index = strconv.Itoa(*m.Index)
		}
		rows = append(rows, []string{
			index,
			m.Name,
			fmt.Sprintf("%dx%d@%g", m.Width, m.Height, m.Scale),
			fmt.Sprintf("[%g, %g)", m.Left, m.Right),
			fmt.Sprintf("[%g, %g)", m.Top, m.Bottom),
			m.Strategy,
		})
	}
	printTable(w, pretty, []string{"INDEX", "DISPLAY", "MODE", "X RANGE", "Y RANGE", "STRATEGY"}, rows)
	for _, o := range data.Overlaps {
		printFields(w, pretty, []field{{label: "overlap", value: o[0] + " and " + o[1], warn: true}})
	}
}
