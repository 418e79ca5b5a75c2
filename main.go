package main

import (
	"os"

	"github.com/df07/go-spiral-raytracer/cmd"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "spiral-raytracer"
	app.Usage = "render sphere scenes with a block-parallel path tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a single frame of a scene preset",
			Description: `
Render a scene preset in square blocks dispatched from the image center
outwards. The frame is written as a PNG once every block has completed.

Pressing Ctrl+C stops the workers and saves the partial frame. Without --out
the image goes to output/<scene>/render_<timestamp>.png.`,
			Flags:  cmd.RenderFlags,
			Action: cmd.RenderFrame,
		},
		{
			Name:   "scenes",
			Usage:  "list available scene presets",
			Action: cmd.ListScenes,
		},
		{
			Name:   "info",
			Usage:  "show the CPUs available for rendering",
			Action: cmd.ShowSystemInfo,
		},
	}

	app.Run(os.Args)
}
