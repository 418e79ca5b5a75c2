package cmd

import (
	"bytes"

	"github.com/df07/go-spiral-raytracer/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the built-in scene presets.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	logger.Noticef("available scenes\n%s", formatSceneList(scene.ListScenes()))
	return nil
}

func formatSceneList(scenes []scene.SceneInfo) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"ID", "Name", "Group", "Description"})
	for _, info := range scenes {
		table.Append([]string{info.ID, info.DisplayName, info.Group, info.Description})
	}
	table.Render()
	return buf.String()
}
