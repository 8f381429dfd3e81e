// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// makegamma prints a gamma.Table as Go source.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"io"
	"os"

	"github.com/maruel/smoothled/gamma"
)

func defaultName(g, bright float64) string {
	n := fmt.Sprintf("Gamma%d%d", int(g), int(g*10)%10)
	if bright != 1 {
		n += fmt.Sprintf("Brightness%d", int(bright*100))
	}
	return n
}

func printTable(w io.Writer, name string, g, bright float64, t gamma.Table) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "// %s is a gamma %g table with %d intervals", name, g, len(t)-1)
	if bright != 1 {
		fmt.Fprintf(&b, " at %g%% brightness", bright*100)
	}
	fmt.Fprintf(&b, ".\nvar %s = gamma.Table{\n", name)
	for i, v := range t {
		fmt.Fprintf(&b, "0x%04x,", v)
		if i&7 == 7 || i == len(t)-1 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("}\n")
	out, err := format.Source(b.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func mainImpl() error {
	g := flag.Float64("gamma", 2.5, "gamma correction value")
	bright := flag.Float64("bright", 1, "maximum brightness in (0, 1]")
	size := flag.Int("size", 65, fmt.Sprintf("number of table entries in [2, %d]", gamma.MaxSize))
	name := flag.String("name", "", "variable name, defaults to one derived from -gamma and -bright")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	t, err := gamma.Generate(*g, *bright, *size)
	if err != nil {
		return err
	}
	if *name == "" {
		*name = defaultName(*g, *bright)
	}
	return printTable(os.Stdout, *name, *g, *bright, t)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nmakegamma: %s.\n", err)
		os.Exit(1)
	}
}
