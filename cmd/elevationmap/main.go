// Package main is a command that converts a PCD map into an elevation grid.
package main

import (
	"flag"

	"github.com/edaniels/golog"

	"github.com/rovercore/localize/elevation"
	"github.com/rovercore/localize/pointcloud"
)

var logger = golog.NewDevelopmentLogger("elevationmap")

func main() {
	resolution := flag.Float64("resolution", 0.1, "edge length of the map tiles")
	out := flag.String("out", "", "output path; empty derives a name from the current time")
	flag.Parse()

	if flag.NArg() < 1 {
		logger.Fatal("need one arg <map.pcd>")
	}

	cloud, err := pointcloud.NewFromFile(flag.Arg(0), logger)
	if err != nil {
		logger.Fatalw("cannot read map", "error", err)
	}

	grid := elevation.NewMap(cloud, *resolution, logger)
	xSize, ySize := grid.Size()
	logger.Infow("built elevation map",
		"points", cloud.Size(), "x_size", xSize, "y_size", ySize, "resolution", grid.Resolution())

	if err := grid.Save(*out); err != nil {
		logger.Fatalw("cannot save elevation map", "error", err)
	}
}
