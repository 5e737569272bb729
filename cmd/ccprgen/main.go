// Command ccprgen generates conic coverage programs.
//
// It writes the WGSL module for the selected feature set and can also
// compile it to SPIR-V and render a PNG preview of a sample conic with the
// software rasterizer.
//
// Usage:
//
//	ccprgen -hull -corner -o conic.wgsl -spirv conic.spv
//	ccprgen -preview conic.png -weight 0.7
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/ccpr"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("ccprgen: %v", err)
	}
}

type config struct {
	hull    bool
	corner  bool
	bloat   float64
	output  string
	spirv   string
	preview string
	size    int
	weight  float64
	verbose bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var c config
	fs := flag.NewFlagSet("ccprgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&c.hull, "hull", false, "clip geometry to the conic hull")
	fs.BoolVar(&c.corner, "corner", false, "add corner coverage attenuation")
	fs.Float64Var(&c.bloat, "bloat", ccpr.DefaultBloat, "antialiasing bloat radius in pixels")
	fs.StringVar(&c.output, "o", "-", "WGSL output file (- for stdout)")
	fs.StringVar(&c.spirv, "spirv", "", "also write SPIR-V to this file")
	fs.StringVar(&c.preview, "preview", "", "render a sample conic to this PNG file")
	fs.IntVar(&c.size, "size", 256, "preview image size")
	fs.Float64Var(&c.weight, "weight", 1, "preview conic weight")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if c.size <= 0 {
		return c, fmt.Errorf("invalid preview size %d", c.size)
	}
	if !(c.weight > 0) {
		return c, fmt.Errorf("invalid conic weight %v", c.weight)
	}
	return c, nil
}

func (c config) options() []ccpr.Option {
	return []ccpr.Option{
		ccpr.WithHull(c.hull),
		ccpr.WithCornerCoverage(c.corner),
		ccpr.WithBloat(float32(c.bloat)),
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	c, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if c.verbose {
		ccpr.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
		defer ccpr.SetLogger(nil)
	}

	prog, err := ccpr.GenerateProgram(ccpr.ConicShader{}, c.options()...)
	if err != nil {
		return err
	}

	if c.output == "-" {
		if _, err := io.WriteString(stdout, prog.Source); err != nil {
			return err
		}
	} else if err := os.WriteFile(c.output, []byte(prog.Source), 0o644); err != nil { //nolint:gosec // generated source is not secret
		return err
	}

	if c.spirv != "" {
		if err := writeSPIRV(c.spirv, prog); err != nil {
			return err
		}
	}
	if c.preview != "" {
		if err := writePreview(c.preview, c); err != nil {
			return err
		}
	}
	return nil
}

func writeSPIRV(path string, prog *ccpr.Program) error {
	words, err := prog.SPIRV()
	if err != nil {
		return err
	}
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return os.WriteFile(path, buf, 0o644) //nolint:gosec // shader binary is not secret
}

// sampleInstance returns a conic spanning most of a size x size image.
func sampleInstance(size int, weight float64) ccpr.Instance {
	s := float64(size)
	cp := ccpr.NewControlPoints(ccpr.Pt(0.1*s, 0.9*s), ccpr.Pt(0.1*s, 0.1*s), ccpr.Pt(0.9*s, 0.1*s), weight)
	return ccpr.Instance{Points: cp, Wind: cp.Winding(), Corner: [2]float32{1, 1}}
}

func writePreview(path string, c config) error {
	mask := ccpr.NewCoverageMask(c.size, c.size)
	if err := ccpr.RasterizeCoverage(mask, sampleInstance(c.size, c.weight), c.options()...); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, mask.Gray()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
