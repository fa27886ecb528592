// meshmerge is a CLI utility that merges placed meshes into one welded mesh.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/meshmerge/internal/config"
	"github.com/Faultbox/meshmerge/pkg/formats"
	"github.com/Faultbox/meshmerge/pkg/geom"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "merge", "m":
		cmdMerge(args)
	case "info":
		cmdInfo(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshmerge - merge placed meshes into one welded mesh

Usage:
  meshmerge <command> [options]

Commands:
  merge [options] <scene>     Merge the objects of a scene file (.json, .yaml, .toml)
  info [-check] <mesh>        Show mesh counts and bounds, optionally check invariants
  config [-o path] [-save]    Print or write the effective configuration

Merge options:
  -o path         Output mesh (.obj, .gltf, .glb), default merged.obj
  -config file    Config file (default ./meshmerge.yaml or the user config dir)
  -workers N      Load N sources concurrently
  -precision P    Weld vertices equal to P decimal places
  -watch          Merge again whenever the scene or a source changes
  -debug          Enable debug logging
  -log file       Also write logs to file

Examples:
  meshmerge merge -o level.obj level.json
  meshmerge merge -workers 8 -o level.glb -watch level.yaml
  meshmerge info -check level.obj
  meshmerge config -o meshmerge.yaml`)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	check := fs.Bool("check", false, "Check merged-mesh invariants")
	precision := fs.Int("precision", geom.DefaultPrecision, "Decimal places for the duplicate check")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshmerge info [-check] [-precision P] <mesh>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	m, err := formats.DecodeFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mesh:     %s\n", path)
	fmt.Printf("Vertices: %d\n", m.VertexCount())
	fmt.Printf("Faces:    %d\n", len(m.Faces))
	if b := m.Bounds(); !b.Empty() {
		size := b.Size()
		fmt.Printf("Min:      %.6g %.6g %.6g\n", b.Min[0], b.Min[1], b.Min[2])
		fmt.Printf("Max:      %.6g %.6g %.6g\n", b.Max[0], b.Max[1], b.Max[2])
		fmt.Printf("Size:     %.6g x %.6g x %.6g\n", size[0], size[1], size[2])
	}

	if *check {
		if err := m.Validate(*precision); err != nil {
			fmt.Printf("Check:    FAILED (%v)\n", err)
			os.Exit(1)
		}
		fmt.Println("Check:    OK")
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	out := fs.String("o", "", "Write to this path instead of stdout")
	save := fs.Bool("save", false, "Write to the user config directory")
	fs.Parse(args)

	cfg, err := config.Load(&config.Flags{Config: *configPath, Precision: -1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *save:
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved config to %s\n", config.ConfigDir())
	case *out != "":
		if err := cfg.SaveTo(*out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved config to %s\n", *out)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
	}
}
