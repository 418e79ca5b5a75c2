package main

import (
	"os"

	"github.com/df07/go-spiral-raytracer/pkg/log"
	"github.com/df07/go-spiral-raytracer/web/server"
	"github.com/urfave/cli"
)

var logger = log.New("web")

func main() {
	app := cli.NewApp()
	app.Name = "spiral-raytracer-web"
	app.Usage = "stream block renders to the browser"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "port, p",
			Value: 8080,
			Usage: "port to serve on",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Action = serve

	app.Run(os.Args)
}

func serve(ctx *cli.Context) error {
	if ctx.Bool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.Bool("vv") {
		log.SetLevel(log.Debug)
	}

	port := ctx.Int("port")
	logger.Noticef("visit http://localhost:%d/api/render?scene=weekend to start rendering", port)

	if err := server.NewServer(port, logger).Start(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}
