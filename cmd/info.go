package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/df07/go-spiral-raytracer/pkg/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/urfave/cli"
)

// Show the CPUs available for rendering.
func ShowSystemInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	infos, err := cpu.Info()
	if err != nil {
		logger.Warningf("could not query cpu info: %v", err)
	}
	physical, err := cpu.Counts(false)
	if err != nil {
		physical = 0
	}

	logger.Noticef("system information\n%s", formatSystemInfo(infos, physical, renderer.DefaultWorkerCount()))
	return nil
}

func formatSystemInfo(infos []cpu.InfoStat, physical, workers int) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"CPU", "Model", "Cores", "MHz"})
	for _, info := range infos {
		table.Append([]string{
			fmt.Sprintf("%d", info.CPU),
			info.ModelName,
			fmt.Sprintf("%d", info.Cores),
			fmt.Sprintf("%.0f", info.Mhz),
		})
	}
	table.SetFooter([]string{
		runtime.GOOS + "/" + runtime.GOARCH,
		fmt.Sprintf("%d physical", physical),
		fmt.Sprintf("%d workers", workers),
		"",
	})
	table.Render()
	return buf.String()
}
