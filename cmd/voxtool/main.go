// voxtool is a CLI utility for inspecting and converting MagicaVoxel files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/voxkit/internal/assets"
	"github.com/Faultbox/voxkit/internal/config"
	"github.com/Faultbox/voxkit/internal/engine/texture"
	"github.com/Faultbox/voxkit/internal/export"
	"github.com/Faultbox/voxkit/internal/importer"
	"github.com/Faultbox/voxkit/internal/logger"
	"github.com/Faultbox/voxkit/pkg/formats"
)

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	assets *assets.Manager
}

func main() {
	config.ParseFlags()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	formats.SetLogger(logger.Named("formats"))
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := newApp(cfg)
	if err != nil {
		logger.Error("failed to set up assets", zap.Error(err))
		os.Exit(1)
	}
	defer a.assets.Close()

	switch command {
	case "info":
		err = a.cmdInfo(args)
	case "tree":
		err = a.cmdTree(args)
	case "mesh":
		err = a.cmdMesh(args)
	case "palette":
		err = a.cmdPalette(args)
	case "export", "x":
		err = a.cmdExport(args)
	case "config":
		err = a.cmdConfig(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	mgr := assets.NewManager()
	// The working directory has the lowest priority.
	dirs := append([]string{"."}, cfg.Assets.SearchPaths...)
	for _, dir := range dirs {
		if err := mgr.AddDir(dir); err != nil {
			mgr.Close()
			return nil, fmt.Errorf("adding asset dir %s: %w", dir, err)
		}
	}
	return &app{cfg: cfg, assets: mgr}, nil
}

func printUsage() {
	fmt.Println(`voxtool - MagicaVoxel .vox utility

Usage:
  voxtool [flags] <command> [options]

Commands:
  info <file.vox>                 Show models, palette, materials and chunk counts
  tree <file.vox>                 Print the scene graph and its flattened placements
  mesh <file.vox>                 Mesh every placement and print statistics
  palette <file.vox> [out.png]    Write the palette as a 256x1 PNG
  export <file.vox> [out.glb]     Convert to binary glTF
  config [out.yaml]               Save the effective config (default: user config dir)

Flags:
  -config <path>          Config file
  -voxels-per-unit <n>    Voxels per world unit (default 10)
  -no-merge               Disable greedy quad merging
  -palette <image>        Palette override (.png, .tga, .bmp)
  -parallel               Mesh the six sweep directions concurrently
  -asset-dir <dir>        Extra asset search directory
  -debug                  Enable debug logging
  -log-file <path>        Write logs to this file

Examples:
  voxtool info castle.vox
  voxtool -no-merge mesh castle.vox
  voxtool -palette warm.png export castle.vox castle.glb
  voxtool -voxels-per-unit 16 -parallel config`)
}

func (a *app) load(args []string, usage string) (*formats.VOX, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: voxtool %s", usage)
	}
	return a.assets.LoadVOX(args[0])
}

func (a *app) cmdInfo(args []string) error {
	vox, err := a.load(args, "info <file.vox>")
	if err != nil {
		return err
	}

	fmt.Printf("File:      %s\n", args[0])
	fmt.Printf("Version:   %d\n", vox.Version)
	fmt.Printf("Models:    %d\n", vox.ModelCount())
	fmt.Printf("Nodes:     %d\n", len(vox.Nodes))
	if vox.Palette != nil {
		fmt.Println("Palette:   custom")
	} else {
		fmt.Println("Palette:   default")
	}
	fmt.Println()

	for i, m := range vox.Models {
		vol, err := vox.Volume(i)
		if err != nil {
			return err
		}
		fmt.Printf("  model %-3d %-12s %d voxels\n", i, m.Size, vol.Solid())
	}

	if len(vox.Materials) > 0 {
		fmt.Println()
		fmt.Println("Materials:")
		for i, m := range vox.Materials {
			if m.Material.Kind == formats.KindDiffuse {
				continue
			}
			fmt.Printf("  %-3d %-9s %s\n", i, m.Material.Kind, describeProps(m.Properties))
		}
	}

	fmt.Println()
	fmt.Println("Chunks:")
	tags := make([]string, 0, len(vox.ChunkCounts))
	for tag := range vox.ChunkCounts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Printf("  %-5s %d\n", tag, vox.ChunkCounts[tag])
	}

	for _, w := range vox.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}

func describeProps(d formats.Dict) string {
	var parts []string
	for _, k := range d.Keys() {
		if k == "_type" {
			continue
		}
		v, _ := d.Get(k)
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

func (a *app) cmdTree(args []string) error {
	vox, err := a.load(args, "tree <file.vox>")
	if err != nil {
		return err
	}

	if len(vox.Nodes) == 0 {
		fmt.Println("(no scene graph)")
	} else {
		printTree(os.Stdout, vox)
	}

	placements, warnings := vox.Placements()
	fmt.Println()
	fmt.Println("Placements:")
	for i, p := range placements {
		x, y, z := p.Rotation.Euler()
		model := "-"
		if p.ModelID >= 0 {
			model = fmt.Sprint(p.ModelID)
		}
		fmt.Printf("  %-3d model %-4s at %-14s rot (%.0f, %.0f, %.0f)\n", i, model, p.Position, x, y, z)
	}
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}

// printTree writes the node tree rooted at node 0. Every node is printed
// once; later references to it, including cycles, print as a back
// reference.
func printTree(w io.Writer, vox *formats.VOX) {
	printNode(w, vox, 0, 0, make([]bool, len(vox.Nodes)))
}

func printNode(w io.Writer, vox *formats.VOX, index, depth int, seen []bool) {
	indent := strings.Repeat("  ", depth)
	if index < 0 || index >= len(vox.Nodes) {
		fmt.Fprintf(w, "%s? missing node %d\n", indent, index)
		return
	}
	if seen[index] {
		fmt.Fprintf(w, "%s^ node %d (see above)\n", indent, index)
		return
	}
	seen[index] = true

	switch n := vox.Nodes[index].(type) {
	case *formats.TransformNode:
		line := fmt.Sprintf("%sTRN %d", indent, n.ID)
		if name := n.Name(); name != "" {
			line += fmt.Sprintf(" %q", name)
		}
		if n.Translation != nil {
			line += fmt.Sprintf(" t=%s", *n.Translation)
		}
		if n.Rotation != nil {
			packed, _ := n.Rotation.Packed()
			line += fmt.Sprintf(" r=%d", packed)
		}
		if n.Hidden() {
			line += " hidden"
		}
		fmt.Fprintln(w, line)
		printNode(w, vox, n.ChildID, depth+1, seen)
	case *formats.GroupNode:
		fmt.Fprintf(w, "%sGRP %d (%d children)\n", indent, n.ID, len(n.ChildIDs))
		for _, c := range n.ChildIDs {
			printNode(w, vox, c, depth+1, seen)
		}
	case *formats.ShapeNode:
		ids := make([]string, len(n.Models))
		for i, m := range n.Models {
			ids[i] = fmt.Sprint(m.ModelID)
		}
		fmt.Fprintf(w, "%sSHP %d models [%s]\n", indent, n.ID, strings.Join(ids, " "))
	}
}

func (a *app) cmdMesh(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: voxtool mesh <file.vox>")
	}
	asset, err := importer.New(a.cfg.Import, a.assets).ImportFile(args[0])
	if err != nil {
		return err
	}

	var verts, tris int
	for _, m := range asset.Meshes {
		b := m.Data.Bounds()
		fmt.Printf("%-20s model %-3d %6d verts %6d tris %d submeshes %s  [%.2f %.2f %.2f]..[%.2f %.2f %.2f]\n",
			m.Name, m.ModelID, len(m.Data.Vertices), m.Data.TriangleCount(), len(m.Materials),
			m.Data.IndexFormat(), b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		verts += len(m.Data.Vertices)
		tris += m.Data.TriangleCount()
	}
	fmt.Printf("\n%d meshes, %d vertices, %d triangles\n", len(asset.Meshes), verts, tris)

	fmt.Println("Materials:")
	for _, m := range asset.Materials {
		fmt.Printf("  %s\n", m.Name)
	}
	return nil
}

func (a *app) cmdPalette(args []string) error {
	vox, err := a.load(args, "palette <file.vox> [out.png]")
	if err != nil {
		return err
	}
	out := outputPath(args, ".png")
	if err := writePNG(out, texture.PaletteImage(vox.PaletteColors())); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

func (a *app) cmdExport(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: voxtool export <file.vox> [out.glb]")
	}
	asset, err := importer.New(a.cfg.Import, a.assets).ImportFile(args[0])
	if err != nil {
		return err
	}

	out := outputPath(args, ".glb")
	if err := export.SaveGLB(out, asset); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)

	if asset.PaletteEmitted {
		png := strings.TrimSuffix(out, filepath.Ext(out)) + ".png"
		if err := writePNG(png, asset.Palette); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", png)
	}
	return nil
}

func (a *app) cmdConfig(args []string) error {
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	var err error
	if len(args) > 0 {
		path = args[0]
		err = a.cfg.SaveTo(path)
	} else {
		err = a.cfg.Save()
	}
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// outputPath returns args[1], or args[0] with its extension replaced.
func outputPath(args []string, ext string) string {
	if len(args) > 1 {
		return args[1]
	}
	in := filepath.Base(args[0])
	return strings.TrimSuffix(in, filepath.Ext(in)) + ext
}
